// ABOUTME: Route guard deciding where unauthenticated and non-admin requests go
// ABOUTME: Pure Decide function plus the middleware that applies its redirects

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

const (
	LoginPath     = "/auth"
	DashboardPath = "/dashboard"
	SettingsPath  = "/settings"
)

// Decision is the guard's verdict for one request
type Decision struct {
	Allow    bool
	Redirect string
}

var allow = Decision{Allow: true}

// Guard applies the session and admin-role rules to page routes.
type Guard struct {
	AdminRoleID string
}

func exempt(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/healthz" || path == "/favicon.ico"
}

func isSettings(path string) bool {
	return path == SettingsPath || strings.HasPrefix(path, SettingsPath+"/")
}

// Decide returns where a request for path should go.
//   - no session: everything except the login page redirects to login
//   - session: the login page redirects to the dashboard
//   - settings screens need the admin role, otherwise redirect to login
func (g Guard) Decide(path string, hasSession bool, roleID string) Decision {
	if exempt(path) {
		return allow
	}
	if !hasSession {
		if path == LoginPath {
			return allow
		}
		return Decision{Redirect: LoginPath}
	}
	if path == LoginPath {
		return Decision{Redirect: DashboardPath}
	}
	if isSettings(path) && roleID != g.AdminRoleID {
		return Decision{Redirect: LoginPath}
	}
	return allow
}

// Middleware enforces Decide. It must run after Auth.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r)
		roleID := ""
		if session != nil {
			roleID = session.RoleID
		}

		d := g.Decide(r.URL.Path, session.HasToken(), roleID)
		if d.Allow {
			next.ServeHTTP(w, r)
			return
		}

		if session != nil && isSettings(r.URL.Path) {
			slog.Warn("Admin route denied",
				"path", r.URL.Path,
				"method", r.Method,
				"username", session.Username,
			)
		} else {
			slog.Debug("Guard redirect", "path", r.URL.Path, "to", d.Redirect)
		}
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
	})
}
