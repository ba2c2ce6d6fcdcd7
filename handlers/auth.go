// ABOUTME: Auth handlers implementing the BFF session pattern
// ABOUTME: Login form, credential exchange with the remote API, and logout

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const invalidCredentialsMessage = "Invalid email or password"

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", views.LoginData{Flash: h.takeFlash(w, r)})
}

// Login exchanges credentials for an API token and opens a server-side session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, "", "Invalid form submission", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		h.loginFailed(w, email, "Email and password are required", http.StatusBadRequest)
		return
	}

	result, err := h.api.Login(r.Context(), email, password)
	if err != nil {
		slog.Warn("Authentication failed", "email", email, "error", err)
		h.loginFailed(w, email, services.UserMessage(err, invalidCredentialsMessage), loginStatus(err))
		return
	}

	session, err := h.sessions.Create(r.Context(), *result)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			slog.Error("Login response incomplete", "email", email, "error", err)
			h.loginFailed(w, email, "Login failed: the server returned an incomplete response", http.StatusBadGateway)
			return
		}
		slog.Error("Failed to create session", "error", err)
		h.loginFailed(w, email, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, session.ID)
	slog.Info("User logged in", "username", session.Username)
	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

// Logout clears the session and cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r); s != nil {
		if err := h.sessions.Delete(r.Context(), s.ID); err != nil {
			slog.Error("Failed to delete session", "error", err)
		}
		slog.Info("User logged out", "username", s.Username)
	}

	middleware.ClearSessionCookie(w)
	h.setFlash(w, views.FlashSuccess, "You have been logged out")
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, email, message string, status int) {
	h.render(w, status, "login", views.LoginData{
		Email: email,
		Flash: &views.Flash{Kind: views.FlashError, Message: message},
	})
}

func loginStatus(err error) int {
	var apiErr *services.APIError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// setSessionCookie sets the httpOnly session cookie
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
	})
}
