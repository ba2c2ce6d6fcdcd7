// ABOUTME: Per-IP rate limiting for login attempts
// ABOUTME: Wraps httprate with a fixed one-minute window

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit allows limit requests per minute per client IP. Only unsafe
// methods count, so rendering the login form is never throttled.
func RateLimit(limit int) func(http.Handler) http.Handler {
	limiter := httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("Rate limit exceeded", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeError(w, r, "Too many login attempts. Please wait a minute and try again.", http.StatusTooManyRequests)
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
