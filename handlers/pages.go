// ABOUTME: Admin screen for page definitions
// ABOUTME: Edits a page's name, URL and field schema

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const (
	pagesPath = middleware.SettingsPath + "/pages"

	// blankFieldRows are offered below the existing fields for new columns.
	blankFieldRows = 3
)

// PageSettings lists page definitions.
func (h *Handler) PageSettings(w http.ResponseWriter, r *http.Request) {
	data := views.PagesData{
		Shell:      h.settingsShell(w, r, "Pages", "pages"),
		FieldTypes: models.FieldTypes,
	}

	pages, err := h.api.ListPages(r.Context(), middleware.GetSession(r))
	if err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		slog.Error("Failed to load pages", "error", err)
		data.Flash = &views.Flash{Kind: views.FlashError, Message: services.UserMessage(err, "Failed to load pages")}
	}
	data.Pages = pages

	q := r.URL.Query()
	if id := q.Get("edit"); id != "" {
		for i := range data.Pages {
			if data.Pages[i].ID == id {
				data.Editing = &data.Pages[i]
			}
		}
		if data.Editing == nil && data.Flash == nil {
			data.Flash = &views.Flash{Kind: views.FlashError, Message: "Page not found"}
		}
	} else {
		data.Adding = q.Get("form") == "add"
	}

	if data.Editing != nil {
		data.FieldRows = append(data.FieldRows, data.Editing.Fields...)
	}
	if data.Adding || data.Editing != nil {
		for i := 0; i < blankFieldRows; i++ {
			data.FieldRows = append(data.FieldRows, models.Field{Type: models.FieldText})
		}
	}

	h.render(w, http.StatusOK, "pages", data)
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageDefinition(r)
	if err == nil {
		err = h.api.CreatePage(r.Context(), middleware.GetSession(r), page)
	}
	h.finish(w, r, err, "Page created successfully", "Failed to save page", pagesPath)
}

func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	var page models.PageDefinition
	if err == nil {
		page, err = parsePageDefinition(r)
	}
	if err == nil {
		err = h.api.UpdatePage(r.Context(), middleware.GetSession(r), id, page)
	}
	h.finish(w, r, err, "Page updated successfully", "Failed to save page", pagesPath)
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := services.ValidateObjectID(id)
	if err == nil {
		err = h.api.DeletePage(r.Context(), middleware.GetSession(r), id)
	}
	h.finish(w, r, err, "Page deleted successfully", "Failed to delete page", pagesPath)
}

// parsePageDefinition reads the page form. Field rows with a blank name are
// dropped; a blank URL is derived from the name.
func parsePageDefinition(r *http.Request) (models.PageDefinition, error) {
	if err := r.ParseForm(); err != nil {
		return models.PageDefinition{}, &services.ValidationError{Message: "Invalid form submission"}
	}
	page := models.PageDefinition{
		Name:   strings.TrimSpace(r.PostForm.Get("name")),
		URL:    strings.TrimSpace(r.PostForm.Get("url")),
		Fields: []models.Field{},
	}
	if page.Name == "" {
		return page, &services.ValidationError{Message: "page name is required"}
	}
	if page.URL == "" {
		page.URL = services.NormalizePageKey(page.Name)
	}
	if !strings.HasPrefix(page.URL, "/") {
		page.URL = "/" + page.URL
	}

	names := r.PostForm["fieldName"]
	types := r.PostForm["fieldType"]
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag := ""
		if i < len(types) {
			tag = types[i]
		}
		ft, err := models.ParseFieldType(tag)
		if err != nil {
			return page, &services.ValidationError{Message: "field " + name + ": " + err.Error()}
		}
		page.Fields = append(page.Fields, models.Field{Name: name, Type: ft})
	}
	return page, nil
}
