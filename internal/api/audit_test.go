package api

import (
	"net/http"
	"testing"

	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
)

func TestAuditTrail_RecordsSessionActivity(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "first-light-9", auth.RoleAdmin)

	// A failed and a successful login, then a logout.
	env.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`, nil)
	cookies := env.login(t, "admin", "first-light-9")
	env.do(http.MethodPost, "/api/auth/logout", "", cookies)

	// Log back in to read the trail.
	cookies = env.login(t, "admin", "first-light-9")
	rec := env.do(http.MethodGet, "/api/audit", "", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/audit status = %d, want 200", rec.Code)
	}

	var result audit.ListResult
	decodeBody(t, rec, &result)

	counts := map[string]int{}
	for _, event := range result.Events {
		if event.Username != "admin" {
			t.Errorf("event username = %q, want admin", event.Username)
		}
		counts[event.Action]++
	}
	if counts[audit.ActionLoginFailed] != 1 {
		t.Errorf("login_failed events = %d, want 1", counts[audit.ActionLoginFailed])
	}
	if counts[audit.ActionLogin] != 2 {
		t.Errorf("login events = %d, want 2", counts[audit.ActionLogin])
	}
	if counts[audit.ActionLogout] != 1 {
		t.Errorf("logout events = %d, want 1", counts[audit.ActionLogout])
	}
}

func TestAuditTrail_FilterAndValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "first-light-9", auth.RoleAdmin)

	env.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`, nil)
	cookies := env.login(t, "admin", "first-light-9")

	rec := env.do(http.MethodGet, "/api/audit?action=login_failed", "", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered GET /api/audit status = %d, want 200", rec.Code)
	}
	var result audit.ListResult
	decodeBody(t, rec, &result)
	if result.Total != 1 {
		t.Errorf("login_failed Total = %d, want 1", result.Total)
	}

	rec = env.do(http.MethodGet, "/api/audit?limit=zero", "", cookies)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestAuditTrail_RequiresAdminPermission(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	cookies := env.login(t, "rowan", "first-light-9")

	rec := env.do(http.MethodGet, "/api/audit", "", cookies)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user role GET /api/audit status = %d, want 403", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/audit", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous GET /api/audit status = %d, want 401", rec.Code)
	}
}
