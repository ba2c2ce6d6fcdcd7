// ABOUTME: CSRF protection middleware using a per-session synchronizer token
// ABOUTME: State-changing requests must echo the session's token in a form field or header

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

const (
	CSRFFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// CSRF returns middleware that validates CSRF tokens for state-changing requests.
// Validation is skipped for:
//   - GET, HEAD, OPTIONS requests (safe methods)
//   - the login page (it creates a new session and must work with a stale cookie)
//   - requests without a session (the guard redirects them)
//
// It must run after Auth.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip safe methods
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == LoginPath {
			slog.Debug("CSRF skipped: login endpoint", "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		session := GetSession(r)
		if session == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(csrfHeaderName)
		if token == "" {
			token = r.FormValue(CSRFFieldName)
		}
		if token == "" {
			slog.Debug("CSRF rejected: missing token", "path", r.URL.Path)
			writeError(w, r, "CSRF token missing or invalid", http.StatusForbidden)
			return
		}

		// Constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(session.CSRFToken), []byte(token)) != 1 {
			slog.Debug("CSRF rejected: token mismatch", "path", r.URL.Path)
			writeError(w, r, "CSRF token missing or invalid", http.StatusForbidden)
			return
		}

		slog.Debug("CSRF validated", "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
