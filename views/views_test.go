// ABOUTME: Tests for template rendering
// ABOUTME: Renders each page against representative view models

package views

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func shell() Shell {
	return Shell{
		Title:     "Orders",
		Username:  "alice",
		CSRFToken: "csrf-123",
		Nav:       []NavItem{{Name: "Orders", Href: "/dashboard/orders", Initial: "O", Color: BadgeColor(0), Active: true}},
	}
}

func TestRender_Login(t *testing.T) {
	rec := httptest.NewRecorder()
	err := newRenderer(t).Render(rec, http.StatusUnauthorized, "login", LoginData{
		Email: "a@b.c",
		Flash: &Flash{Kind: FlashError, Message: "Invalid email or password"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `action="/auth"`)
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, `value="a@b.c"`)
}

func TestRender_LayoutShowsSettingsOnlyForAdmins(t *testing.T) {
	r := newRenderer(t)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "home", HomeData{Shell: shell()}))
	assert.NotContains(t, rec.Body.String(), `href="/settings/users"`)
	assert.Contains(t, rec.Body.String(), `href="/dashboard/orders"`)
	assert.Contains(t, rec.Body.String(), `value="csrf-123"`)

	admin := shell()
	admin.IsAdmin = true
	rec = httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "home", HomeData{Shell: admin}))
	assert.Contains(t, rec.Body.String(), `href="/settings/users"`)
}

func TestRender_PageTableAndForm(t *testing.T) {
	fields := []models.Field{
		{Name: "title", Type: models.FieldText},
		{Name: "doc", Type: models.FieldFile},
	}
	view := &crud.PageView{
		Key:     "orders",
		Title:   "Orders",
		State:   crud.StateReady,
		Actions: models.Actions{Create: true, Update: true},
		Fields:  fields,
		Records: []models.PageRecord{{
			ID:     "66f4ef543336e7123f662bd1",
			Values: map[string]any{"title": "First", "doc": "/uploads/a.pdf"},
		}},
	}
	require.NoError(t, view.OpenForm(crud.FormEdit, "66f4ef543336e7123f662bd1"))

	rec := httptest.NewRecorder()
	err := newRenderer(t).Render(rec, http.StatusOK, "page", PageData{
		Shell:    shell(),
		View:     view,
		Table:    view.Table(),
		BasePath: "/dashboard/orders",
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "Add Data")
	assert.Contains(t, body, `href="/files/uploads/a.pdf"`)
	assert.Contains(t, body, "View file")
	assert.Contains(t, body, `href="/dashboard/orders?edit=66f4ef543336e7123f662bd1"`)
	assert.NotContains(t, body, "/dashboard/orders/delete")
	assert.Contains(t, body, "Edit Data")
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `name="_form_mode" value="edit"`)
}

func TestRender_PageRowWithoutIDHasNoControls(t *testing.T) {
	view := &crud.PageView{
		Key:     "orders",
		Title:   "Orders",
		State:   crud.StateReady,
		Actions: models.Actions{Update: true, Delete: true},
		Fields:  []models.Field{{Name: "title", Type: models.FieldText}, {Name: "doc", Type: models.FieldFile}},
		Records: []models.PageRecord{{Values: map[string]any{"title": "orphan", "doc": "/uploads/q3 report?.pdf"}}},
	}

	rec := httptest.NewRecorder()
	err := newRenderer(t).Render(rec, http.StatusOK, "page", PageData{
		Shell:    shell(),
		View:     view,
		Table:    view.Table(),
		BasePath: "/dashboard/orders",
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "<th>Actions</th>")
	assert.Contains(t, body, "orphan")
	assert.NotContains(t, body, "?edit=")
	assert.NotContains(t, body, "/dashboard/orders/delete")
	assert.Contains(t, body, `href="/files/uploads/q3%20report%3F.pdf"`)
}

func TestRender_PagePlaceholderRow(t *testing.T) {
	view := &crud.PageView{
		Title:  "Orders",
		State:  crud.StateReady,
		Fields: []models.Field{{Name: "title", Type: models.FieldText}},
	}

	rec := httptest.NewRecorder()
	err := newRenderer(t).Render(rec, http.StatusOK, "page", PageData{Shell: shell(), View: view, Table: view.Table()})
	require.NoError(t, err)

	assert.Contains(t, rec.Body.String(), `colspan="1"`)
	assert.NotContains(t, rec.Body.String(), "Add Data")
}

func TestRender_PageDenied(t *testing.T) {
	view := &crud.PageView{Title: "secret", State: crud.StateDenied}

	rec := httptest.NewRecorder()
	err := newRenderer(t).Render(rec, http.StatusOK, "page", PageData{Shell: shell(), View: view, Denied: true})
	require.NoError(t, err)

	assert.Contains(t, rec.Body.String(), "You do not have permission")
	assert.NotContains(t, rec.Body.String(), "<table")
}

func TestRender_SettingsScreens(t *testing.T) {
	r := newRenderer(t)
	admin := shell()
	admin.IsAdmin = true
	admin.Settings = true

	roles := []models.Role{{ID: "r1", Name: "Editors", PagePermissions: []models.RolePermission{{PageID: "p1"}}}}
	users := []models.User{{ID: "u1", Username: "bob", Email: "bob@x.io", RoleID: "r1", RoleName: "Editors"}}
	pages := []models.PageDefinition{{ID: "p1", Name: "Orders", URL: "/orders", Fields: []models.Field{{Name: "title", Type: models.FieldText}}}}

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "users", UsersData{Shell: admin, Users: users, Roles: roles, Editing: &users[0]}))
	body := rec.Body.String()
	assert.Contains(t, body, "bob@x.io")
	assert.Contains(t, body, `<option value="r1" selected>Editors</option>`)
	assert.Contains(t, body, "leave blank to keep")

	rec = httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "roles", RolesData{
		Shell:     admin,
		Roles:     roles,
		PageNames: map[string]string{"p1": "Orders"},
		Adding:    true,
		Rows:      []RoleRow{{PageID: "p1", PageName: "Orders"}},
	}))
	body = rec.Body.String()
	assert.Contains(t, body, "<td>Orders</td>")
	assert.Contains(t, body, `name="create_p1"`)

	rec = httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "pages", PagesData{
		Shell:      admin,
		Pages:      pages,
		Adding:     true,
		FieldRows:  []models.Field{{}},
		FieldTypes: models.FieldTypes,
	}))
	body = rec.Body.String()
	assert.Contains(t, body, "title (Text)")
	assert.Equal(t, len(models.FieldTypes), strings.Count(body, "<option"))
	assert.Contains(t, body, "Create Page")
}

func TestRender_UnknownTemplate(t *testing.T) {
	err := newRenderer(t).Render(httptest.NewRecorder(), http.StatusOK, "nope", nil)
	assert.Error(t, err)
}

func TestBadgeColor_Cycles(t *testing.T) {
	assert.Equal(t, BadgeColor(0), BadgeColor(len(badgeColors)))
	assert.NotEqual(t, BadgeColor(0), BadgeColor(1))
}

func TestStatic_ServesStylesheet(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".navbar")
}
