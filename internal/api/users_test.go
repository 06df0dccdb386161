package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/rowanfell/hearth-core/internal/auth"
)

func TestUserHandlers_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	cookies := env.login(t, "admin", "admin-pass-123")

	body := `{"username":"sam","password":"long-enough-1","role":"User"}`
	rec := env.do(http.MethodPost, "/api/users/", body, cookies)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created auth.User
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Username != "sam" {
		t.Fatalf("created user = %+v", created)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response must not leak the password hash")
	}

	// The new account can log in.
	env.login(t, "sam", "long-enough-1")

	rec = env.do(http.MethodGet, "/api/users/", "", cookies)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	if list.Count != 2 {
		t.Errorf("count = %d, want 2", list.Count)
	}
}

func TestUserHandlers_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	cookies := env.login(t, "admin", "admin-pass-123")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad username", `{"username":"has spaces","password":"long-enough-1"}`, http.StatusBadRequest},
		{"short password", `{"username":"sam","password":"short"}`, http.StatusBadRequest},
		{"unknown role", `{"username":"sam","password":"long-enough-1","role":"Wizard"}`, http.StatusBadRequest},
		{"duplicate username", `{"username":"admin","password":"long-enough-1"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/users/", tt.body, cookies)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestUserHandlers_Delete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	other := env.seedUser(t, "sam", "long-enough-1", auth.RoleUser)
	cookies := env.login(t, "admin", "admin-pass-123")

	// Self-deletion is rejected.
	if rec := env.do(http.MethodDelete, "/api/users/"+admin.ID, "", cookies); rec.Code != http.StatusBadRequest {
		t.Errorf("self delete status = %d, want 400", rec.Code)
	}

	if rec := env.do(http.MethodDelete, "/api/users/"+other.ID, "", cookies); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/users/"+other.ID, "", cookies); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestUserHandlers_RevokeSessions(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	target := env.seedUser(t, "sam", "long-enough-1", auth.RoleUser)
	adminCookies := env.login(t, "admin", "admin-pass-123")
	samCookies := env.login(t, "sam", "long-enough-1")

	rec := env.do(http.MethodPost, "/api/users/"+target.ID+"/revoke-sessions", "", adminCookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The target's refresh token is dead.
	refresh := cookieByName(samCookies, auth.RefreshCookieName)
	if rec := env.do(http.MethodPost, "/api/auth/refresh", "", []*http.Cookie{refresh}); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after revoke status = %d, want 401", rec.Code)
	}

	if rec := env.do(http.MethodPost, "/api/users/usr-missing/revoke-sessions", "", adminCookies); rec.Code != http.StatusNotFound {
		t.Errorf("revoke missing user status = %d, want 404", rec.Code)
	}
}
