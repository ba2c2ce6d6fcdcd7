// ABOUTME: Admin screen for roles and their per-page permissions
// ABOUTME: Lists roles against the defined pages and creates, updates or deletes them

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const rolesPath = middleware.SettingsPath + "/roles"

// RoleSettings lists roles. Pages and roles are fetched concurrently.
func (h *Handler) RoleSettings(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	var (
		pages []models.PageDefinition
		roles []models.Role
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		pages, err = h.api.ListPages(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = h.api.ListRoles(ctx, s)
		return err
	})

	data := views.RolesData{Shell: h.settingsShell(w, r, "Roles", "roles")}
	if err := g.Wait(); err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		slog.Error("Failed to load roles", "error", err)
		data.Flash = &views.Flash{Kind: views.FlashError, Message: services.UserMessage(err, "Failed to load roles")}
	}
	data.Roles = roles
	data.PageNames = make(map[string]string, len(pages))
	for _, p := range pages {
		data.PageNames[p.ID] = p.Name
	}

	q := r.URL.Query()
	if id := q.Get("edit"); id != "" {
		for i := range data.Roles {
			if data.Roles[i].ID == id {
				data.Editing = &data.Roles[i]
			}
		}
		if data.Editing == nil && data.Flash == nil {
			data.Flash = &views.Flash{Kind: views.FlashError, Message: "Role not found"}
		}
	} else {
		data.Adding = q.Get("form") == "add"
	}
	if data.Adding || data.Editing != nil {
		data.Rows = roleRows(pages, data.Editing)
	}

	h.render(w, http.StatusOK, "roles", data)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err == nil {
		err = h.api.CreateRole(r.Context(), middleware.GetSession(r), role)
	}
	h.finish(w, r, err, "Role created successfully", "Failed to save role", rolesPath)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	var role models.Role
	if err == nil {
		role, err = parseRole(r)
	}
	if err == nil {
		err = h.api.UpdateRole(r.Context(), middleware.GetSession(r), id, role)
	}
	h.finish(w, r, err, "Role updated successfully", "Failed to save role", rolesPath)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	if err == nil {
		err = h.api.DeleteRole(r.Context(), middleware.GetSession(r), id)
	}
	h.finish(w, r, err, "Role deleted successfully", "Failed to delete role", rolesPath)
}

// roleRows lays out one permission row per page, seeded from editing.
func roleRows(pages []models.PageDefinition, editing *models.Role) []views.RoleRow {
	rows := make([]views.RoleRow, 0, len(pages))
	for _, p := range pages {
		row := views.RoleRow{PageID: p.ID, PageName: p.Name}
		if editing != nil {
			if perm, ok := editing.Permission(p.ID); ok {
				row.Granted = true
				row.Actions = perm.Actions
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// parseRole reads the role form. A page is granted only when its checkbox is
// ticked; action switches of unticked pages are ignored.
func parseRole(r *http.Request) (models.Role, error) {
	if err := r.ParseForm(); err != nil {
		return models.Role{}, &services.ValidationError{Message: "Invalid form submission"}
	}
	role := models.Role{
		Name:            strings.TrimSpace(r.PostForm.Get("name")),
		PagePermissions: []models.RolePermission{},
	}
	if role.Name == "" {
		return role, &services.ValidationError{Message: "role name is required"}
	}

	seen := make(map[string]bool)
	for _, pageID := range r.PostForm["page"] {
		if pageID == "" || seen[pageID] {
			continue
		}
		seen[pageID] = true
		role.PagePermissions = append(role.PagePermissions, models.RolePermission{
			PageID: pageID,
			Actions: models.Actions{
				Create: formChecked(r, "create_"+pageID),
				Update: formChecked(r, "update_"+pageID),
				Delete: formChecked(r, "delete_"+pageID),
			},
		})
	}
	return role, nil
}

func formChecked(r *http.Request, name string) bool {
	_, ok := r.PostForm[name]
	return ok && crud.IsTruthy(r.PostForm.Get(name))
}
