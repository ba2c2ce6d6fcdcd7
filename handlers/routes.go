// ABOUTME: Declarative route table and router assembly
// ABOUTME: Defines all routes with their HTTP methods and handlers and mounts them on chi

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/views"
)

// Route defines an endpoint with its HTTP method and handler.
type Route struct {
	Method      string           // HTTP method (GET, POST, etc.)
	Path        string           // chi pattern (e.g., "/dashboard/{pageKey}")
	Handler     http.HandlerFunc // Handler function
	RateLimited bool             // counts against the per-IP login limit
	Upload      bool             // accepts multipart bodies up to MaxUploadBytes
}

// Routes returns all session-aware routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Auth
		{Method: http.MethodGet, Path: "/auth", Handler: h.LoginPage},
		{Method: http.MethodPost, Path: "/auth", Handler: h.Login, RateLimited: true},
		{Method: http.MethodPost, Path: "/logout", Handler: h.Logout},

		// Dashboard
		{Method: http.MethodGet, Path: "/", Handler: h.Root},
		{Method: http.MethodGet, Path: "/dashboard", Handler: h.Home},
		{Method: http.MethodGet, Path: "/dashboard/{pageKey}", Handler: h.Page},
		{Method: http.MethodPost, Path: "/dashboard/{pageKey}/records", Handler: h.SubmitRecord, Upload: true},
		{Method: http.MethodPost, Path: "/dashboard/{pageKey}/delete", Handler: h.DeleteRecord},
		{Method: http.MethodGet, Path: filesPrefix + "*", Handler: h.File},

		// Settings
		{Method: http.MethodGet, Path: "/settings", Handler: h.Settings},
		{Method: http.MethodGet, Path: "/settings/users", Handler: h.UserSettings},
		{Method: http.MethodPost, Path: "/settings/users", Handler: h.CreateUser},
		{Method: http.MethodPost, Path: "/settings/users/{id}", Handler: h.UpdateUser},
		{Method: http.MethodPost, Path: "/settings/users/{id}/delete", Handler: h.DeleteUser},
		{Method: http.MethodGet, Path: "/settings/roles", Handler: h.RoleSettings},
		{Method: http.MethodPost, Path: "/settings/roles", Handler: h.CreateRole},
		{Method: http.MethodPost, Path: "/settings/roles/{id}", Handler: h.UpdateRole},
		{Method: http.MethodPost, Path: "/settings/roles/{id}/delete", Handler: h.DeleteRole},
		{Method: http.MethodGet, Path: "/settings/pages", Handler: h.PageSettings},
		{Method: http.MethodPost, Path: "/settings/pages", Handler: h.CreatePage},
		{Method: http.MethodPost, Path: "/settings/pages/{id}", Handler: h.UpdatePage},
		{Method: http.MethodPost, Path: "/settings/pages/{id}/delete", Handler: h.DeletePage},
	}
}

// formBodyLimit caps non-upload form posts.
const formBodyLimit = 1 << 20

// Router mounts the route table behind the session, guard and CSRF
// middleware. Health and static assets bypass the session stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, middleware.LogRequest, chimw.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/static/*", views.Static())

	var loginLimit func(http.Handler) http.Handler
	if h.cfg.RateLimitEnabled {
		loginLimit = middleware.RateLimit(h.cfg.RateLimitLogin)
	}
	guard := middleware.Guard{AdminRoleID: h.cfg.AdminRoleID}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.sessions), guard.Middleware)
		for _, route := range h.Routes() {
			limit := int64(formBodyLimit)
			if route.Upload {
				limit = MaxUploadBytes
			}
			stack := []func(http.Handler) http.Handler{chimw.RequestSize(limit)}
			if route.RateLimited && loginLimit != nil {
				stack = append(stack, loginLimit)
			}
			stack = append(stack, middleware.CSRF)
			r.With(stack...).Method(route.Method, route.Path, route.Handler)
		}
	})

	return r
}
