// ABOUTME: HTTP handlers for the server-rendered dashboard
// ABOUTME: Shared handler state, rendering, flash notifications and the central 401 policy

package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eondash/eon-dashboard/config"
	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const (
	flashCookieName = "EON_FLASH"

	sessionExpiredMessage = "Your session has expired. Please log in again."
)

type Handler struct {
	cfg      *config.Config
	sessions *services.SessionService
	api      *services.APIClient
	perms    *services.PermissionResolver
	pages    *crud.Controller
	views    *views.Renderer
}

// NewHandler wires the handlers to their services. It registers the API
// client's unauthorized hook so any 401 destroys the server-side session.
func NewHandler(cfg *config.Config, sessions *services.SessionService, api *services.APIClient, renderer *views.Renderer) *Handler {
	perms := services.NewPermissionResolver(api)
	h := &Handler{
		cfg:      cfg,
		sessions: sessions,
		api:      api,
		perms:    perms,
		pages:    crud.NewController(api, perms),
		views:    renderer,
	}

	api.OnUnauthorized(func(ctx context.Context, s *models.Session) {
		if err := sessions.Delete(context.WithoutCancel(ctx), s.ID); err != nil {
			slog.Error("Failed to clear session after 401", "error", err)
		}
	})

	return h
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError answers with the JSON error envelope for API clients and plain
// text for browsers.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, message string, code int) {
	if !strings.Contains(r.Header.Get("Accept"), "application/json") {
		http.Error(w, message, code)
		return
	}
	h.writeJSON(w, code, models.ErrorResponse{Error: message, Code: code})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.views.Render(w, status, name, data); err != nil {
		slog.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleUnauthorized applies the global 401 policy: the store entry is
// already gone (see NewHandler), so clear the cookie, leave a notification
// and send the browser to the login page. Reports whether err was a 401.
func (h *Handler) handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, services.ErrUnauthorized) {
		return false
	}
	slog.Warn("Session rejected by API, signing out", "path", r.URL.Path)
	middleware.ClearSessionCookie(w)
	h.setFlash(w, views.FlashError, sessionExpiredMessage)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	return true
}

// finish reports the outcome of a mutation and returns to back.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, err error, success, failure, back string) {
	if err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		slog.Error(failure, "path", r.URL.Path, "error", err)
		h.setFlash(w, views.FlashError, services.UserMessage(err, failure))
	} else {
		h.setFlash(w, views.FlashSuccess, success)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) setFlash(w http.ResponseWriter, kind, message string) {
	data, err := json.Marshal(views.Flash{Kind: kind, Message: message})
	if err != nil {
		slog.Error("Failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending notification, if any.
func (h *Handler) takeFlash(w http.ResponseWriter, r *http.Request) *views.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash views.Flash
	if err := json.Unmarshal(data, &flash); err != nil || flash.Message == "" {
		return nil
	}
	return &flash
}

// shell builds the layout for a dashboard page, including the sidebar of
// accessible pages. It returns false when a 401 already answered the request.
func (h *Handler) shell(w http.ResponseWriter, r *http.Request, title string) (views.Shell, bool) {
	s := middleware.GetSession(r)
	sh := views.Shell{
		Title:     title,
		Username:  s.Username,
		IsAdmin:   s.RoleID == h.cfg.AdminRoleID,
		CSRFToken: s.CSRFToken,
		Flash:     h.takeFlash(w, r),
	}

	pages, err := h.perms.Accessible(r.Context(), s)
	if err != nil {
		if h.handleUnauthorized(w, r, err) {
			return sh, false
		}
		slog.Error("Failed to load navigation", "error", err)
		sh.Flash = &views.Flash{Kind: views.FlashError, Message: services.UserMessage(err, "Failed to load pages")}
		return sh, true
	}

	for i, p := range pages {
		href := pageHref(p.Name)
		sh.Nav = append(sh.Nav, views.NavItem{
			Name:    p.Name,
			Href:    href,
			Initial: initial(p.Name),
			Color:   views.BadgeColor(i),
			Active:  r.URL.Path == href,
		})
	}
	return sh, true
}

// settingsShell builds the layout for an admin screen.
func (h *Handler) settingsShell(w http.ResponseWriter, r *http.Request, title, active string) views.Shell {
	s := middleware.GetSession(r)
	return views.Shell{
		Title:     title,
		Username:  s.Username,
		IsAdmin:   true,
		CSRFToken: s.CSRFToken,
		Settings:  true,
		Active:    active,
		Flash:     h.takeFlash(w, r),
	}
}

func pageHref(name string) string {
	return middleware.DashboardPath + "/" + url.PathEscape(services.NormalizePageKey(name))
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
