package api

import (
	"net/http"
	"testing"

	"github.com/rowanfell/hearth-core/internal/auth"
	"github.com/rowanfell/hearth-core/internal/product"
)

func TestProductHandlers_CRUD(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	cookies := env.login(t, "admin", "admin-pass-123")

	// Create
	rec := env.do(http.MethodPost, "/api/products/", `{"title":"Smart Bulb","cost":1299}`, cookies)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created product.Product
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Title != "Smart Bulb" || created.Cost != 1299 {
		t.Fatalf("created product = %+v", created)
	}

	// Duplicate title conflicts.
	if rec := env.do(http.MethodPost, "/api/products/", `{"title":"Smart Bulb","cost":999}`, cookies); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	// Get + list
	if rec := env.do(http.MethodGet, "/api/products/"+created.ID, "", cookies); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/api/products/", "", cookies)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	if list.Count != 1 {
		t.Errorf("count = %d, want 1", list.Count)
	}

	// Update
	rec = env.do(http.MethodPut, "/api/products/"+created.ID, `{"title":"Smart Bulb v2","cost":1499}`, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	var updated product.Product
	decodeBody(t, rec, &updated)
	if updated.Title != "Smart Bulb v2" || updated.Cost != 1499 {
		t.Errorf("updated = %+v", updated)
	}

	// Delete
	if rec := env.do(http.MethodDelete, "/api/products/"+created.ID, "", cookies); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/products/"+created.ID, "", cookies); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestProductHandlers_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin-pass-123", auth.RoleAdmin)
	cookies := env.login(t, "admin", "admin-pass-123")

	tests := []struct {
		name string
		body string
	}{
		{"short title", `{"title":"A","cost":100}`},
		{"zero cost", `{"title":"Sensor","cost":0}`},
		{"negative cost", `{"title":"Sensor","cost":-5}`},
		{"malformed json", `{"title":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/products/", tt.body, cookies)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
