// ABOUTME: Server-rendered HTML views for the dashboard
// ABOUTME: Embeds the page templates and static assets and renders view models into them

package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/models"
)

//go:embed templates/*.html static/*
var files embed.FS

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot notification shown on the next rendered page
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NavItem is one sidebar link
type NavItem struct {
	Name    string
	Href    string
	Initial string
	Color   string
	Active  bool
}

// Shell is the layout chrome shared by every signed-in page.
type Shell struct {
	Title     string
	Username  string
	IsAdmin   bool
	CSRFToken string
	Nav       []NavItem
	Settings  bool // show the settings sidebar instead of the page list
	Active    string
	Flash     *Flash
}

type LoginData struct {
	Email string
	Flash *Flash
}

type HomeData struct {
	Shell
}

// PageData renders one dynamic page
type PageData struct {
	Shell
	View         *crud.PageView
	Table        crud.Table
	Denied       bool
	ErrorMessage string
	FormError    string
	BasePath     string
}

type UsersData struct {
	Shell
	Users   []models.User
	Roles   []models.Role
	Editing *models.User
	Adding  bool
}

// RoleRow is one page line of the role form
type RoleRow struct {
	PageID   string
	PageName string
	Granted  bool
	Actions  models.Actions
}

type RolesData struct {
	Shell
	Roles     []models.Role
	PageNames map[string]string
	Editing   *models.Role
	Adding    bool
	Rows      []RoleRow
}

type PagesData struct {
	Shell
	Pages      []models.PageDefinition
	Editing    *models.PageDefinition
	Adding     bool
	FieldRows  []models.Field
	FieldTypes []models.FieldType
}

var badgeColors = []string{
	"bg-purple", "bg-yellow", "bg-pink", "bg-green", "bg-red",
	"bg-blue", "bg-indigo", "bg-teal", "bg-orange",
}

// BadgeColor picks the sidebar badge class for the i-th page.
func BadgeColor(i int) string {
	if i < 0 {
		i = -i
	}
	return badgeColors[i%len(badgeColors)]
}

// Renderer executes the embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

var pageNames = []string{"login", "home", "page", "users", "roles", "pages"}

var funcs = template.FuncMap{
	"fileHref": func(path string) string {
		u := url.URL{Path: "/files" + path}
		return u.EscapedPath()
	},
	"permName": func(names map[string]string, id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	},
}

// New parses every page template against the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes the named page with status. Output is buffered so a
// template error never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
