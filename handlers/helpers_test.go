// ABOUTME: Shared fixtures for handler tests
// ABOUTME: Fake remote API server, signed-in sessions and request helpers through the full router

package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eondash/eon-dashboard/cache"
	"github.com/eondash/eon-dashboard/config"
	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/store"
	"github.com/eondash/eon-dashboard/views"
)

const (
	testAdminRole = "66f4ef543336e7123f662bd1"
	testUserRole  = "66f4ef543336e7123f662bd2"
	recordID      = "66f4ef543336e7123f662aa1"
	otherID       = "66f4ef543336e7123f662aa2"
)

// fakeAPI is a scripted remote API that records every request it receives.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	mux      *http.ServeMux
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

// handle registers fn for a method-qualified pattern such as "GET /api/users".
func (f *fakeAPI) handle(pattern string, fn http.HandlerFunc) {
	f.mux.HandleFunc(pattern, fn)
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.calls() {
		if c == call {
			n++
		}
	}
	return n
}

// access serves GET /pages/role with the given entries.
func (f *fakeAPI) access(entries ...map[string]any) {
	f.handle("GET /api/pages/role", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, entries)
	})
}

func accessEntry(name string, create, update, del bool) map[string]any {
	return map[string]any{
		"_id":  "p-" + name,
		"name": name,
		"url":  "/" + services.NormalizePageKey(name),
		"actions": map[string]bool{
			"create": create,
			"update": update,
			"delete": del,
		},
	}
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	t        *testing.T
	api      *fakeAPI
	server   *httptest.Server
	sessions *services.SessionService
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &fakeAPI{mux: http.NewServeMux()}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := services.NewAPIClient(services.ClientOptions{BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	c := cache.New(time.Hour)
	t.Cleanup(c.Stop)
	sessions := services.NewSessionService(store.NewMemoryStore(c), time.Hour)

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views.New: %v", err)
	}

	cfg := &config.Config{
		APIBaseURL:       server.URL + "/api",
		AdminRoleID:      testAdminRole,
		SessionStore:     config.SessionStoreMemory,
		RateLimitEnabled: true,
		RateLimitLogin:   100,
	}
	h := NewHandler(cfg, sessions, client, renderer)

	return &testEnv{t: t, api: api, server: server, sessions: sessions, router: h.Router()}
}

func (e *testEnv) signIn(roleID string) *models.Session {
	e.t.Helper()
	s, err := e.sessions.Create(context.Background(), models.LoginResult{
		Token:    "api-token",
		UserID:   "u-alice",
		Username: "alice",
		RoleID:   roleID,
	})
	if err != nil {
		e.t.Fatalf("Create session: %v", err)
	}
	return s
}

func (e *testEnv) serve(req *http.Request, s *models.Session) *httptest.ResponseRecorder {
	if s != nil {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: s.ID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, s *models.Session) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(http.MethodGet, path, nil), s)
}

// postForm submits values, adding the session's CSRF token.
func (e *testEnv) postForm(path string, s *models.Session, values url.Values) *httptest.ResponseRecorder {
	if values == nil {
		values = url.Values{}
	}
	if s != nil && values.Get(middleware.CSRFFieldName) == "" {
		values.Set(middleware.CSRFFieldName, s.CSRFToken)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(req, s)
}

type upload struct {
	field, filename string
	data            []byte
}

// postMultipart submits a multipart form with the session's CSRF token.
func (e *testEnv) postMultipart(path string, s *models.Session, values map[string]string, files ...upload) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if s != nil {
		w.WriteField(middleware.CSRFFieldName, s.CSRFToken)
	}
	for k, v := range values {
		w.WriteField(k, v)
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			e.t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(f.data)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.serve(req, s)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func flashFrom(t *testing.T, rec *httptest.ResponseRecorder) *views.Flash {
	t.Helper()
	c := cookieNamed(rec, flashCookieName)
	if c == nil || c.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		t.Fatalf("decoding flash: %v", err)
	}
	var f views.Flash
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decoding flash: %v", err)
	}
	return &f
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Status = %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}
