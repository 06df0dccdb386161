package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
)

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse is the response body for the session endpoints.
// Role is null for anonymous outcomes (logout).
type sessionResponse struct {
	Success bool    `json:"success"`
	Role    *string `json:"role"`
}

// handleLogin authenticates a username/password pair and establishes a
// session. Cookies the caller already holds are read and passed through to
// the session service, which decides per kind whether to reissue; only
// reissued tokens produce Set-Cookie headers.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	presentedAccess := auth.ReadAccessToken(r)
	presentedRefresh := auth.ReadRefreshToken(r)

	principal, pair, err := s.sessions.Login(r.Context(), req.Username, req.Password, presentedAccess, presentedRefresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
			s.recordAuthEvent(r, audit.ActionLoginFailed, req.Username, "")
			writeUnauthorized(w, "invalid credentials")
		case errors.Is(err, auth.ErrUserInactive):
			s.recordAuthEvent(r, audit.ActionLoginFailed, req.Username, "")
			writeForbidden(w, "account is inactive")
		default:
			s.logger.Error("login failed", "error", err)
			writeInternalError(w, "login failed")
		}
		return
	}

	s.recordAuthEvent(r, audit.ActionLogin, req.Username, principalID(principal))
	s.cookies.WritePair(w, pair)

	role := principal.Role.Name
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Role: &role})
}

// handleRefresh exchanges a valid refresh token for a fresh access token.
// The refresh token itself is never rotated here.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	presentedRefresh := auth.ReadRefreshToken(r)
	if presentedRefresh == "" {
		writeUnauthorized(w, "refresh token required")
		return
	}

	principal, access, err := s.sessions.Refresh(r.Context(), presentedRefresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenDisabled),
			errors.Is(err, auth.ErrUserNotFound),
			errors.Is(err, auth.ErrUserInactive):
			writeUnauthorized(w, "invalid refresh token")
		default:
			s.logger.Error("refresh failed", "error", err)
			writeInternalError(w, "refresh failed")
		}
		return
	}

	s.recordAuthEvent(r, audit.ActionRefresh, principal.User.Username, principal.User.ID)
	s.cookies.WritePair(w, &auth.TokenPair{Access: access})

	role := principal.Role.Name
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Role: &role})
}

// handleLogout revokes every stored token of the caller and clears both
// cookies. The subject must resolve from the presented access token; an
// unresolvable subject is a hard failure, not a silent no-op. The cookies
// are cleared either way so a broken token cannot pin a stale session in
// the browser.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)

	presentedAccess := auth.ReadAccessToken(r)
	username, err := s.sessions.Logout(r.Context(), presentedAccess)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrUserNotFound):
			writeUnauthorized(w, "cannot resolve session")
		default:
			s.logger.Error("logout failed", "error", err)
			writeInternalError(w, "logout failed")
		}
		return
	}

	s.recordAuthEvent(r, audit.ActionLogout, username, "")
	writeJSON(w, http.StatusOK, sessionResponse{Success: false, Role: nil})
}
