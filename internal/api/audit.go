package api

import (
	"net/http"
	"strconv"

	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
)

// recordAuthEvent writes a session activity entry. Recording is
// best-effort: a failed insert is logged and never surfaces to the
// caller of the auth endpoint.
func (s *Server) recordAuthEvent(r *http.Request, action, username, userID string) {
	if s.audit == nil {
		return
	}

	event := &audit.Event{
		Action:   action,
		Username: username,
		UserID:   userID,
		RemoteIP: clientIP(r),
	}
	if err := s.audit.Record(r.Context(), event); err != nil {
		s.logger.Warn("recording auth event failed", "action", action, "error", err)
	}
}

// handleListAuditEvents returns the session activity trail, most recent
// first. Supports action, username, limit, and offset query parameters.
func (s *Server) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		Username: r.URL.Query().Get("username"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing auth events failed", "error", err)
		writeInternalError(w, "failed to list auth events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// principalID returns the user ID when a principal is present.
func principalID(principal *auth.Principal) string {
	if principal == nil {
		return ""
	}
	return principal.User.ID
}
