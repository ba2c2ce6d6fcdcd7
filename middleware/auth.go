// ABOUTME: Session cookie middleware for the BFF pattern
// ABOUTME: Loads the server-side session named by EON_SESSION into the request context

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/store"
)

// SessionCookieName holds the opaque session id; the browser never sees the token.
const SessionCookieName = "EON_SESSION"

// SessionLoader looks up a session by id
type SessionLoader interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
}

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const (
	sessionKey   contextKey = "session"
	requestIDKey contextKey = "requestID"
)

// Auth returns middleware that resolves the session cookie. Requests without
// a valid session continue anonymously; a stale cookie is cleared.
func Auth(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := loader.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, store.ErrSessionNotFound) {
					slog.Error("Failed to load session", "error", err, "path", r.URL.Path)
				} else {
					slog.Debug("Auth: stale session cookie", "path", r.URL.Path)
				}
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("Auth: valid session cookie", "path", r.URL.Path, "user", session.Username)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// GetSession extracts the session from request context.
// Returns nil if the request is anonymous.
func GetSession(r *http.Request) *models.Session {
	session, ok := r.Context().Value(sessionKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
