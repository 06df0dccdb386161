package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
)

// createUserRequest is the request body for POST /api/users.
type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// minPasswordLength is the minimum accepted password length for new accounts.
const minPasswordLength = 8

// handleListUsers returns all user accounts. Password hashes are never
// serialised (struct tag).
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("listing users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

// handleGetUser returns a single user account by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeInternalError(w, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleCreateUser creates a new account with the named role.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "invalid username")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	role, err := s.users.RoleByName(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			writeBadRequest(w, "unknown role")
			return
		}
		writeInternalError(w, "failed to resolve role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		s.logger.Error("creating user failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleDeleteUser removes an account. Callers cannot delete themselves;
// an admin locking out the last admin account is an operator error this
// guard cannot see, but self-deletion mid-session is always a mistake.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if caller := auth.PrincipalFrom(r.Context()); caller != nil && caller.User.ID == id {
		writeBadRequest(w, "cannot delete your own account")
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeInternalError(w, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRevokeUserSessions force-logs-out a user by revoking every stored
// refresh token. Outstanding access tokens keep working until they expire;
// the account cannot refresh after that.
func (s *Server) handleRevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	target, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeInternalError(w, "failed to get user")
		return
	}

	if err := s.sessions.RevokeAllForUser(r.Context(), id); err != nil {
		s.logger.Error("revoking sessions failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to revoke sessions")
		return
	}

	s.recordAuthEvent(r, audit.ActionRevoke, target.Username, target.ID)
	writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
}
