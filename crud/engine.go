// ABOUTME: Schema-driven CRUD engine for dynamically defined pages
// ABOUTME: Loads a page view after a permission check and applies create/update/delete to it

package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
)

// State is where a page view is in its lifecycle
type State int

const (
	StateLoading State = iota
	StateError
	StateDenied
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateDenied:
		return "denied"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RecordAPI is the part of the remote API the engine calls
type RecordAPI interface {
	GetCollection(ctx context.Context, s *models.Session, pageKey string) (*models.Collection, error)
	CreateRecord(ctx context.Context, s *models.Session, pageKey string, payload *models.Payload) (*models.PageRecord, error)
	UpdateRecord(ctx context.Context, s *models.Session, pageKey, id string, payload *models.Payload) (*models.PageRecord, error)
	DeleteRecord(ctx context.Context, s *models.Session, pageKey, id string) error
}

// PermissionSource resolves a page's access entry
type PermissionSource interface {
	Resolve(ctx context.Context, s *models.Session, pageKey string) (*models.PageAccess, error)
}

// PageView is one user's view of one dynamic page.
type PageView struct {
	Key     string // normalized page key used in API paths
	Title   string
	State   State
	Err     error
	Actions models.Actions
	Fields  []models.Field
	Records []models.PageRecord
	Form    *Form
}

// Table lays out the view's records.
func (v *PageView) Table() Table {
	return BuildTable(v.Fields, v.Records, v.Actions)
}

// ErrorMessage is the text shown for a view in the Error state.
func (v *PageView) ErrorMessage() string {
	if v.Err == nil {
		return ""
	}
	var apiErr *services.APIError
	if errors.As(v.Err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return fmt.Sprintf("Error: %d - %s", apiErr.StatusCode, msg)
	}
	var unknown *models.UnknownFieldTypeError
	if errors.As(v.Err, &unknown) {
		return fmt.Sprintf("Error: page schema uses an unsupported field type %q", unknown.Tag)
	}
	var verr *services.ValidationError
	if errors.As(v.Err, &verr) {
		return "Error: " + verr.Message
	}
	return "Unexpected error: " + v.Err.Error()
}

// Record finds a loaded record by id.
func (v *PageView) Record(id string) (*models.PageRecord, bool) {
	for i := range v.Records {
		if v.Records[i].ID == id {
			return &v.Records[i], true
		}
	}
	return nil, false
}

// OpenForm opens an add form, or an edit form for recordID. Opening requires
// the matching action.
func (v *PageView) OpenForm(mode FormMode, recordID string) error {
	if v.State != StateReady {
		return fmt.Errorf("page %s is not ready", v.Key)
	}
	switch mode {
	case FormAdd:
		if !v.Actions.Create {
			return fmt.Errorf("add to %s: %w", v.Key, services.ErrActionNotPermitted)
		}
		form, err := BuildForm(v.Fields, FormAdd, nil)
		if err != nil {
			return err
		}
		v.Form = form
	case FormEdit:
		if !v.Actions.Update {
			return fmt.Errorf("edit in %s: %w", v.Key, services.ErrActionNotPermitted)
		}
		rec, ok := v.Record(recordID)
		if !ok {
			if err := services.ValidateRecordID(recordID); err != nil {
				return err
			}
			return &services.ValidationError{Message: "Record not found"}
		}
		form, err := BuildForm(v.Fields, FormEdit, rec)
		if err != nil {
			return err
		}
		v.Form = form
	default:
		return fmt.Errorf("unknown form mode %v", mode)
	}
	return nil
}

// CloseForm cancels the open form.
func (v *PageView) CloseForm() {
	v.Form = nil
}

func (v *PageView) fail(err error) *PageView {
	v.State = StateError
	v.Err = err
	v.Fields = nil
	v.Records = nil
	return v
}

// Controller runs the CRUD flow for dynamic pages.
type Controller struct {
	api   RecordAPI
	perms PermissionSource
}

func NewController(api RecordAPI, perms PermissionSource) *Controller {
	return &Controller{api: api, perms: perms}
}

// Load resolves the session's permission for pageKey and, only when an entry
// exists, fetches the page's schema and records.
func (c *Controller) Load(ctx context.Context, s *models.Session, pageKey string) *PageView {
	v := &PageView{Key: services.NormalizePageKey(pageKey), Title: pageKey, State: StateLoading}

	if err := services.ValidatePageKey(v.Key); err != nil {
		return v.fail(err)
	}

	access, err := c.perms.Resolve(ctx, s, v.Key)
	if errors.Is(err, services.ErrNoPermission) {
		slog.Info("Page access denied", "page", v.Key, "username", s.Username)
		v.State = StateDenied
		return v
	}
	if err != nil {
		slog.Error("Failed to resolve page permissions", "page", v.Key, "error", err)
		return v.fail(err)
	}
	v.Actions = access.Actions
	if access.Name != "" {
		v.Title = access.Name
	}

	coll, err := c.api.GetCollection(ctx, s, v.Key)
	if err != nil {
		slog.Error("Failed to fetch page data", "page", v.Key, "error", err)
		return v.fail(err)
	}

	v.Fields = coll.Fields
	v.Records = coll.Data
	v.State = StateReady
	return v
}

// Submit sends the open form. On success the view's records reflect the
// change and the form closes; on failure the form stays open with the input.
func (c *Controller) Submit(ctx context.Context, s *models.Session, v *PageView, sub Submission) error {
	form := v.Form
	if form == nil {
		return &services.ValidationError{Message: "No form is open"}
	}
	form.Apply(sub)

	switch form.Mode {
	case FormAdd:
		if !v.Actions.Create {
			return fmt.Errorf("add to %s: %w", v.Key, services.ErrActionNotPermitted)
		}
		payload, err := EncodeSubmission(v.Fields, nil, sub)
		if err != nil {
			return err
		}
		item, err := c.api.CreateRecord(ctx, s, v.Key, payload)
		if err != nil {
			return fmt.Errorf("creating record in %s: %w", v.Key, err)
		}
		if item == nil {
			local := recordFromSubmission(v.Fields, "", nil, sub)
			item = &local
		}
		v.Records = append(v.Records, *item)

	case FormEdit:
		if !v.Actions.Update {
			return fmt.Errorf("edit in %s: %w", v.Key, services.ErrActionNotPermitted)
		}
		if err := services.ValidateRecordID(form.RecordID); err != nil {
			return err
		}
		existing, _ := v.Record(form.RecordID)
		payload, err := EncodeSubmission(v.Fields, existing, sub)
		if err != nil {
			return err
		}
		item, err := c.api.UpdateRecord(ctx, s, v.Key, form.RecordID, payload)
		if err != nil {
			return fmt.Errorf("updating record %s in %s: %w", form.RecordID, v.Key, err)
		}
		if item == nil {
			local := recordFromSubmission(v.Fields, form.RecordID, existing, sub)
			item = &local
		}
		if item.ID == "" {
			item.ID = form.RecordID
		}
		for i := range v.Records {
			if v.Records[i].ID == form.RecordID {
				v.Records[i] = *item
			}
		}

	default:
		return fmt.Errorf("unknown form mode %v", form.Mode)
	}

	v.CloseForm()
	return nil
}

// Delete removes recordID after the API confirms. Without an id it does nothing.
func (c *Controller) Delete(ctx context.Context, s *models.Session, v *PageView, recordID string) error {
	if recordID == "" {
		return nil
	}
	if !v.Actions.Delete {
		return fmt.Errorf("delete in %s: %w", v.Key, services.ErrActionNotPermitted)
	}

	if err := c.api.DeleteRecord(ctx, s, v.Key, recordID); err != nil {
		return fmt.Errorf("deleting record %s in %s: %w", recordID, v.Key, err)
	}

	kept := v.Records[:0:0]
	for _, r := range v.Records {
		if r.ID != recordID {
			kept = append(kept, r)
		}
	}
	v.Records = kept
	return nil
}
