package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rowanfell/hearth-core/internal/auth"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleLogin_NoCookies(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"username":"rowan","password":"first-light-9"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Error("success should be true")
	}
	if resp.Role == nil || *resp.Role != auth.RoleUser {
		t.Errorf("role = %v, want User", resp.Role)
	}

	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, auth.AccessCookieName)
	refresh := cookieByName(cookies, auth.RefreshCookieName)
	if access == nil || access.Value == "" {
		t.Fatal("login with no cookies should set an access cookie")
	}
	if refresh == nil || refresh.Value == "" {
		t.Fatal("login with no cookies should set a refresh cookie")
	}
	if !access.HttpOnly || access.Path != "/" {
		t.Error("access cookie should be HttpOnly with Path=/")
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"rowan","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"first-light-9"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"rowan"}`, http.StatusBadRequest},
		{"malformed json", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/login", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("failed login should not set cookies")
			}
		})
	}
}

func TestHandleLogin_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "dormant", "first-light-9", auth.RoleUser)
	user.IsActive = false
	if err := env.users.Update(context.Background(), user); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	rec := env.do(http.MethodPost, "/api/auth/login", `{"username":"dormant","password":"first-light-9"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandleLogin_ValidAccessRotatesRefreshOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	first := env.login(t, "rowan", "first-light-9")

	// Second login presenting both valid cookies: the refresh token is
	// rotated, the access token is kept.
	rec := env.do(http.MethodPost, "/api/auth/login", `{"username":"rowan","password":"first-light-9"}`, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if c := cookieByName(cookies, auth.AccessCookieName); c != nil {
		t.Error("valid presented access token should not be reissued")
	}
	if c := cookieByName(cookies, auth.RefreshCookieName); c == nil || c.Value == "" {
		t.Error("refresh token should be rotated when access is still valid")
	}
}

func TestHandleRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	cookies := env.login(t, "rowan", "first-light-9")

	// Refresh presents only the refresh cookie; no access token needed.
	refresh := cookieByName(cookies, auth.RefreshCookieName)
	rec := env.do(http.MethodPost, "/api/auth/refresh", "", []*http.Cookie{refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Role == nil || *resp.Role != auth.RoleUser {
		t.Errorf("response = %+v, want success with role User", resp)
	}

	set := rec.Result().Cookies()
	if c := cookieByName(set, auth.AccessCookieName); c == nil || c.Value == "" {
		t.Error("refresh should set a new access cookie")
	}
	if c := cookieByName(set, auth.RefreshCookieName); c != nil {
		t.Error("refresh must not rotate the refresh cookie")
	}
}

func TestHandleRefresh_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)

	t.Run("no cookie", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/refresh", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage cookie", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/refresh", "", []*http.Cookie{
			{Name: auth.RefreshCookieName, Value: "not-a-token"},
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	cookies := env.login(t, "rowan", "first-light-9")

	access := cookieByName(cookies, auth.AccessCookieName)
	rec := env.do(http.MethodPost, "/api/auth/logout", "", []*http.Cookie{access})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if resp.Success || resp.Role != nil {
		t.Errorf("logout response = %+v, want success=false role=null", resp)
	}

	set := rec.Result().Cookies()
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		c := cookieByName(set, name)
		if c == nil {
			t.Errorf("logout should clear cookie %s", name)
			continue
		}
		if c.Value != "" || c.MaxAge >= 0 {
			t.Errorf("cookie %s should be cleared, got value %q maxage %d", name, c.Value, c.MaxAge)
		}
	}
}

func TestHandleLogout_NoToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	// Cookies are cleared even on failure.
	if c := cookieByName(rec.Result().Cookies(), auth.AccessCookieName); c == nil {
		t.Error("logout should clear cookies even when the subject is unresolvable")
	}
}

// TestSessionLifecycle walks the full journey: login with no cookies,
// refresh with the returned refresh cookie, logout with the original
// access cookie, and a final refresh that must fail.
func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)

	// Login: both cookies set, role User.
	rec := env.do(http.MethodPost, "/api/auth/login", `{"username":"rowan","password":"first-light-9"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, auth.AccessCookieName)
	refresh := cookieByName(cookies, auth.RefreshCookieName)
	if access == nil || refresh == nil {
		t.Fatal("login should set both cookies")
	}

	// Refresh: succeeds, access cookie only.
	rec = env.do(http.MethodPost, "/api/auth/refresh", "", []*http.Cookie{refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	if got := len(rec.Result().Cookies()); got != 1 {
		t.Errorf("refresh set %d cookies, want 1", got)
	}

	// Logout with the original access cookie.
	rec = env.do(http.MethodPost, "/api/auth/logout", "", []*http.Cookie{access})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	// The original refresh cookie is dead.
	rec = env.do(http.MethodPost, "/api/auth/refresh", "", []*http.Cookie{refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", rec.Code)
	}
}

func TestAuthEndpoints_RateLimitDisabledByDefault(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)

	// Limiter is off (no redis configured): hammering login stays 401,
	// never 429.
	for i := 0; i < 40; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"rowan","password":"bad"}`))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatal("rate limiter should be disabled without redis")
		}
	}
}
