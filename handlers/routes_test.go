// ABOUTME: Tests for route table definitions
// ABOUTME: Verifies all routes have required fields, no duplicates, and the health endpoint

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRoutes_AllRoutesHaveRequiredFields(t *testing.T) {
	h := &Handler{}
	routes := h.Routes()

	if len(routes) == 0 {
		t.Fatal("Routes() returned empty slice")
	}

	for i, route := range routes {
		if route.Method == "" {
			t.Errorf("Route %d: Method is empty", i)
		}
		if route.Path == "" {
			t.Errorf("Route %d: Path is empty", i)
		}
		if route.Handler == nil {
			t.Errorf("Route %d: Handler is nil", i)
		}
	}
}

func TestRoutes_NoDuplicatePaths(t *testing.T) {
	h := &Handler{}
	seen := make(map[string]bool)
	for _, route := range h.Routes() {
		key := route.Method + " " + route.Path
		if seen[key] {
			t.Errorf("Duplicate route: %s", key)
		}
		seen[key] = true
	}
}

func TestRoutes_OnlyLoginIsRateLimited(t *testing.T) {
	h := &Handler{}
	for _, route := range h.Routes() {
		isLogin := route.Method == http.MethodPost && route.Path == "/auth"
		if route.RateLimited != isLogin {
			t.Errorf("%s %s: RateLimited = %v", route.Method, route.Path, route.RateLimited)
		}
	}
}

func TestHealth_NoSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body["status"] != "ok" || body["session_store"] != "memory" {
		t.Errorf("Health = %v", body)
	}
	if n := len(env.api.calls()); n != 0 {
		t.Errorf("API calls = %d, want 0", n)
	}
}

func TestStatic_NoSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/static/app.css", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.api.handle("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{})
	})

	var last int
	for i := 0; i < 101; i++ {
		last = env.postForm("/auth", nil, map[string][]string{"email": {"a@b.c"}, "password": {"x"}}).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Status after limit = %d, want %d", last, http.StatusTooManyRequests)
	}
}
