// ABOUTME: Dashboard handlers for dynamic pages
// ABOUTME: Renders the schema-driven table and form and applies record mutations

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
	"github.com/eondash/eon-dashboard/views"
)

const (
	// maxUploadMemory is how much of a multipart body is held in memory;
	// the rest spills to temporary files.
	maxUploadMemory = 8 << 20
	// MaxUploadBytes caps a record submission body.
	MaxUploadBytes = 32 << 20

	formModeField = "_form_mode"
	recordIDField = "_record_id"

	forbiddenMessage = "You do not have permission to perform this action"
)

// Root sends signed-in users to the dashboard.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

// Home renders the welcome view.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.shell(w, r, "Dashboard")
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "home", views.HomeData{Shell: sh})
}

// Page renders a dynamic page. ?form=add opens the add form and ?edit=<id>
// the edit form for that record.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	view := h.pages.Load(r.Context(), s, chi.URLParam(r, "pageKey"))
	if view.State == crud.StateError && h.handleUnauthorized(w, r, view.Err) {
		return
	}

	var notice *views.Flash
	if view.State == crud.StateReady {
		q := r.URL.Query()
		var err error
		switch {
		case q.Get("form") == crud.FormAdd.String():
			err = view.OpenForm(crud.FormAdd, "")
		case q.Get("edit") != "":
			err = view.OpenForm(crud.FormEdit, q.Get("edit"))
		}
		if err != nil {
			slog.Warn("Cannot open form", "page", view.Key, "error", err)
			notice = &views.Flash{Kind: views.FlashError, Message: formErrorMessage(err)}
		}
	}

	h.renderPage(w, r, http.StatusOK, view, notice, "")
}

// SubmitRecord creates or updates a record from the page form.
func (h *Handler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("Invalid record submission", "path", r.URL.Path, "error", err)
		h.writeError(w, r, "Invalid form submission", http.StatusBadRequest)
		return
	}

	view, ok := h.mutablePage(w, r)
	if !ok {
		return
	}
	back := pageBasePath(view)

	mode, err := crud.ParseFormMode(r.PostForm.Get(formModeField))
	if err != nil {
		h.writeError(w, r, "Invalid form mode", http.StatusBadRequest)
		return
	}
	if err := view.OpenForm(mode, r.PostForm.Get(recordIDField)); err != nil {
		if errors.Is(err, services.ErrActionNotPermitted) {
			h.writeError(w, r, forbiddenMessage, http.StatusForbidden)
			return
		}
		h.finish(w, r, err, "", "Failed to save data", back)
		return
	}

	sub, err := submissionFromRequest(r, view.Fields)
	if err != nil {
		slog.Warn("Failed to read uploaded file", "page", view.Key, "error", err)
		h.writeError(w, r, "Invalid file upload", http.StatusBadRequest)
		return
	}

	if err := h.pages.Submit(r.Context(), middleware.GetSession(r), view, sub); err != nil {
		if errors.Is(err, services.ErrActionNotPermitted) {
			h.writeError(w, r, forbiddenMessage, http.StatusForbidden)
			return
		}
		if h.handleUnauthorized(w, r, err) {
			return
		}
		// Keep the form open with what the user typed.
		slog.Error("Failed to save data", "page", view.Key, "error", err)
		h.renderPage(w, r, http.StatusUnprocessableEntity, view, nil, services.UserMessage(err, "Failed to save data"))
		return
	}
	h.finish(w, r, nil, "Data saved successfully", "", back)
}

// DeleteRecord deletes the record named by the form's id field.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	view, ok := h.mutablePage(w, r)
	if !ok {
		return
	}

	id := r.PostFormValue("id")
	err := h.pages.Delete(r.Context(), middleware.GetSession(r), view, id)
	if errors.Is(err, services.ErrActionNotPermitted) {
		h.writeError(w, r, forbiddenMessage, http.StatusForbidden)
		return
	}
	if err == nil && id == "" {
		http.Redirect(w, r, pageBasePath(view), http.StatusSeeOther)
		return
	}
	h.finish(w, r, err, "Data deleted successfully", "Failed to delete data", pageBasePath(view))
}

// mutablePage loads the page a mutation targets. A denied page answers 403.
func (h *Handler) mutablePage(w http.ResponseWriter, r *http.Request) (*crud.PageView, bool) {
	view := h.pages.Load(r.Context(), middleware.GetSession(r), chi.URLParam(r, "pageKey"))
	switch view.State {
	case crud.StateReady:
		return view, true
	case crud.StateDenied:
		h.writeError(w, r, forbiddenMessage, http.StatusForbidden)
	default:
		if !h.handleUnauthorized(w, r, view.Err) {
			h.setFlash(w, views.FlashError, view.ErrorMessage())
			http.Redirect(w, r, pageBasePath(view), http.StatusSeeOther)
		}
	}
	return nil, false
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, view *crud.PageView, notice *views.Flash, formError string) {
	sh, ok := h.shell(w, r, view.Title)
	if !ok {
		return
	}
	if notice != nil {
		sh.Flash = notice
	}

	data := views.PageData{
		Shell:     sh,
		View:      view,
		Denied:    view.State == crud.StateDenied,
		FormError: formError,
		BasePath:  pageBasePath(view),
	}
	switch view.State {
	case crud.StateReady:
		data.Table = view.Table()
	case crud.StateError:
		data.ErrorMessage = view.ErrorMessage()
	}
	h.render(w, status, "page", data)
}

func pageBasePath(view *crud.PageView) string {
	return middleware.DashboardPath + "/" + url.PathEscape(view.Key)
}

func formErrorMessage(err error) string {
	if errors.Is(err, services.ErrActionNotPermitted) {
		return forbiddenMessage
	}
	return services.UserMessage(err, "Unable to open the form")
}

// submissionFromRequest collects the schema's fields from a parsed form.
// Fields absent from the form (an unchecked box, an untouched file) are left out.
func submissionFromRequest(r *http.Request, fields []models.Field) (crud.Submission, error) {
	sub := crud.Submission{
		Values: make(map[string]string, len(fields)),
		Files:  make(map[string]crud.FileUpload),
	}
	for _, f := range fields {
		if f.Type == models.FieldFile {
			up, ok, err := uploadedFile(r, f.Name)
			if err != nil {
				return sub, err
			}
			if ok {
				sub.Files[f.Name] = up
			}
			continue
		}
		if vs, ok := r.PostForm[f.Name]; ok && len(vs) > 0 {
			sub.Values[f.Name] = vs[0]
		}
	}
	return sub, nil
}

func uploadedFile(r *http.Request, name string) (crud.FileUpload, bool, error) {
	if r.MultipartForm == nil {
		return crud.FileUpload{}, false, nil
	}
	headers := r.MultipartForm.File[name]
	if len(headers) == 0 || headers[0].Filename == "" {
		return crud.FileUpload{}, false, nil
	}

	fh := headers[0]
	file, err := fh.Open()
	if err != nil {
		return crud.FileUpload{}, false, fmt.Errorf("opening upload %s: %w", name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return crud.FileUpload{}, false, fmt.Errorf("reading upload %s: %w", name, err)
	}
	return crud.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true, nil
}
