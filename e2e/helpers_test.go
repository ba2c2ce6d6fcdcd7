// ABOUTME: Test helpers for e2e tests
// ABOUTME: Boots the full server stack from environment config against a stateful fake REST API

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/eondash/eon-dashboard/config"
	"github.com/eondash/eon-dashboard/handlers"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/store"
	"github.com/eondash/eon-dashboard/views"
)

const (
	adminRoleID = "66f4ef543336e7123f662bd1"
	staffRoleID = "66f4ef543336e7123f662bd2"
	validToken  = "e2e-token"
)

// remoteAPI is an in-memory stand-in for the REST API with one page, "Orders".
type remoteAPI struct {
	mu      sync.Mutex
	roleID  string
	revoked bool
	nextID  int
	records []map[string]any
}

func newRemoteAPI(roleID string) *remoteAPI {
	return &remoteAPI{roleID: roleID, nextID: 1}
}

func (a *remoteAPI) revoke() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = true
}

func (a *remoteAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

func (a *remoteAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"token": validToken, "userId": "u1", "username": "alice", "roleId": a.roleID,
		})
	})
	mux.HandleFunc("GET /api/pages/role", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{
			"_id": "p1", "name": "Orders", "url": "/orders",
			"actions": map[string]bool{"create": true, "update": true, "delete": true},
		}})
	}))
	mux.HandleFunc("GET /api/dynamic/orders", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		data := append([]map[string]any(nil), a.records...)
		a.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"fields": []map[string]string{
				{"fieldName": "title", "fieldType": "Text"},
				{"fieldName": "amount", "fieldType": "Number"},
			},
			"data": data,
		})
	}))
	mux.HandleFunc("POST /api/dynamic/orders", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad form"})
			return
		}
		a.mu.Lock()
		rec := map[string]any{
			"_id":    fmt.Sprintf("66f4ef543336e7123f66%04x", a.nextID),
			"title":  r.FormValue("title"),
			"amount": r.FormValue("amount"),
		}
		a.nextID++
		a.records = append(a.records, rec)
		a.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"item": rec})
	}))
	mux.HandleFunc("DELETE /api/dynamic/orders/{id}", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, rec := range a.records {
			if rec["_id"] == r.PathValue("id") {
				a.records = append(a.records[:i], a.records[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}))
	mux.HandleFunc("GET /api/users", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": "u1", "username": "alice", "email": "a@x.io", "role": adminRoleID}})
	}))
	mux.HandleFunc("GET /api/roles", a.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": adminRoleID, "name": "Admin", "pagePermissions": []any{}}})
	}))
	return mux
}

func (a *remoteAPI) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		revoked := a.revoked
		a.mu.Unlock()
		if revoked || r.Header.Get("Authorization") != "Bearer "+validToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// stack is one running dashboard server.
type stack struct {
	server *httptest.Server
	client *http.Client
}

// startStack configures the dashboard from environment variables the way
// main does and serves it. The sqlite session database lives in dbPath.
func startStack(t *testing.T, apiURL, dbPath string, extra map[string]string) *stack {
	t.Helper()

	t.Setenv("API_BASE_URL", apiURL+"/api")
	t.Setenv("ADMIN_ROLE_ID", adminRoleID)
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("SESSION_DB_PATH", dbPath)
	for key, value := range extra {
		t.Setenv(key, value)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	sessionStore, err := store.NewSQLiteStore(context.Background(), cfg.SessionDBPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sessionStore.Close() })

	api, err := services.NewAPIClient(services.ClientOptions{
		BaseURL:     cfg.APIBaseURL,
		FileBaseURL: cfg.FileBaseURL,
		Timeout:     cfg.APITimeout,
	})
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}
	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views.New: %v", err)
	}

	h := handlers.NewHandler(cfg, services.NewSessionService(sessionStore, cfg.SessionTTL), api, renderer)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	return &stack{server: server, client: newBrowser(t)}
}

// newBrowser is a cookie-keeping client that does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func dbPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "sessions.db")
}

type response struct {
	status   int
	location string
	body     string
}

func (s *stack) do(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return response{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (s *stack) get(t *testing.T, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s.do(t, req)
}

func (s *stack) postForm(t *testing.T, path string, values url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func (s *stack) login(t *testing.T) {
	t.Helper()
	resp := s.postForm(t, "/auth", url.Values{"email": {"alice@example.com"}, "password": {"secret"}})
	if resp.status != http.StatusSeeOther || resp.location != "/dashboard" {
		t.Fatalf("login: status %d location %q", resp.status, resp.location)
	}
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// csrfToken scrapes the token from a rendered page.
func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("no csrf_token field on page")
	}
	return html.UnescapeString(m[1])
}

func expectRedirect(t *testing.T, resp response, location string) {
	t.Helper()
	if resp.status != http.StatusSeeOther {
		t.Fatalf("Status = %d, want %d", resp.status, http.StatusSeeOther)
	}
	if resp.location != location {
		t.Errorf("Location = %q, want %q", resp.location, location)
	}
}
