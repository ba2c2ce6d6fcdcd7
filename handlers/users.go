// ABOUTME: Admin screen for user accounts
// ABOUTME: Lists users with joined role names and creates, updates or deletes them

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const usersPath = middleware.SettingsPath + "/users"

// Settings opens the first admin screen.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
}

// UserSettings lists users. Roles and users are fetched concurrently.
func (h *Handler) UserSettings(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	var (
		users []models.User
		roles []models.Role
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		roles, err = h.api.ListRoles(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = h.api.ListUsers(ctx, s)
		return err
	})

	data := views.UsersData{Shell: h.settingsShell(w, r, "Users", "users")}
	if err := g.Wait(); err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		slog.Error("Failed to load users", "error", err)
		data.Flash = &views.Flash{Kind: views.FlashError, Message: services.UserMessage(err, "Failed to load users")}
	}
	data.Users = models.JoinRoleNames(users, roles)
	data.Roles = roles

	q := r.URL.Query()
	if id := q.Get("edit"); id != "" {
		for i := range data.Users {
			if data.Users[i].ID == id {
				data.Editing = &data.Users[i]
			}
		}
		if data.Editing == nil && data.Flash == nil {
			data.Flash = &views.Flash{Kind: views.FlashError, Message: "User not found"}
		}
	} else {
		data.Adding = q.Get("form") == "add"
	}

	h.render(w, http.StatusOK, "users", data)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := parseUserInput(r, true)
	if err == nil {
		err = h.api.CreateUser(r.Context(), middleware.GetSession(r), in)
	}
	h.finish(w, r, err, "User created successfully", "Failed to save user", usersPath)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	var in models.UserInput
	if err == nil {
		in, err = parseUserInput(r, false)
	}
	if err == nil {
		err = h.api.UpdateUser(r.Context(), middleware.GetSession(r), id, in)
	}
	h.finish(w, r, err, "User updated successfully", "Failed to save user", usersPath)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	if err == nil {
		err = h.api.DeleteUser(r.Context(), middleware.GetSession(r), id)
	}
	h.finish(w, r, err, "User deleted successfully", "Failed to delete user", usersPath)
}

// parseUserInput reads the user form. The password may be left blank on update.
func parseUserInput(r *http.Request, creating bool) (models.UserInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.UserInput{}, &services.ValidationError{Message: "Invalid form submission"}
	}
	in := models.UserInput{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
		Role:     r.PostForm.Get("role"),
	}
	if msg := in.Validate(creating); msg != "" {
		return in, &services.ValidationError{Message: msg}
	}
	return in, nil
}
