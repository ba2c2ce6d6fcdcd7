// ABOUTME: Builds add/edit forms from a page schema
// ABOUTME: Maps each field type to an input kind and seeds values from the edited record

package crud

import (
	"fmt"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

// FormMode is whether a form adds a new record or edits an existing one
type FormMode int

const (
	FormAdd FormMode = iota + 1
	FormEdit
)

func (m FormMode) String() string {
	switch m {
	case FormAdd:
		return "add"
	case FormEdit:
		return "edit"
	}
	return fmt.Sprintf("FormMode(%d)", int(m))
}

// ParseFormMode accepts "add" or "edit".
func ParseFormMode(s string) (FormMode, error) {
	switch strings.ToLower(s) {
	case "add":
		return FormAdd, nil
	case "edit":
		return FormEdit, nil
	}
	return 0, fmt.Errorf("unknown form mode %q", s)
}

// InputKind is the control rendered for a field
type InputKind int

const (
	InputText InputKind = iota + 1
	InputFile
	InputNumber
	InputCheckbox
	InputDate
)

// HTMLType is the input element's type attribute.
func (k InputKind) HTMLType() string {
	switch k {
	case InputFile:
		return "file"
	case InputNumber:
		return "number"
	case InputCheckbox:
		return "checkbox"
	case InputDate:
		return "date"
	default:
		return "text"
	}
}

// InputKindFor maps a field type to its control. Every FieldType has a case.
func InputKindFor(t models.FieldType) (InputKind, error) {
	switch t {
	case models.FieldText, models.FieldString:
		return InputText, nil
	case models.FieldFile:
		return InputFile, nil
	case models.FieldNumber:
		return InputNumber, nil
	case models.FieldBoolean:
		return InputCheckbox, nil
	case models.FieldDate:
		return InputDate, nil
	default:
		return 0, &models.UnknownFieldTypeError{Tag: t.String()}
	}
}

// Input is one form control
type Input struct {
	Name        string
	Kind        InputKind
	Value       string
	Checked     bool
	CurrentFile string // existing upload shown next to a file picker
}

// Form is an open add or edit form
type Form struct {
	Mode     FormMode
	RecordID string
	Inputs   []Input
}

// Title is the heading shown above the form.
func (f *Form) Title() string {
	if f.Mode == FormEdit {
		return "Edit Data"
	}
	return "Add Data"
}

// BuildForm creates a form for fields. Add forms start empty; edit forms are
// seeded from record.
func BuildForm(fields []models.Field, mode FormMode, record *models.PageRecord) (*Form, error) {
	form := &Form{Mode: mode, Inputs: make([]Input, 0, len(fields))}
	if mode == FormEdit {
		if record == nil {
			return nil, fmt.Errorf("edit form needs a record")
		}
		form.RecordID = record.ID
	}

	for _, f := range fields {
		kind, err := InputKindFor(f.Type)
		if err != nil {
			return nil, err
		}
		in := Input{Name: f.Name, Kind: kind}
		if record != nil {
			seed(&in, record.Values[f.Name])
		}
		form.Inputs = append(form.Inputs, in)
	}
	return form, nil
}

func seed(in *Input, v any) {
	switch in.Kind {
	case InputCheckbox:
		switch b := v.(type) {
		case bool:
			in.Checked = b
		case string:
			in.Checked = IsTruthy(b)
		}
	case InputFile:
		if s, ok := v.(string); ok {
			in.CurrentFile = s
		}
	case InputDate:
		in.Value = dateOnly(DisplayValue(v))
	default:
		in.Value = DisplayValue(v)
	}
}

// Apply copies submitted values back into the inputs so a failed submit can
// be shown again without losing what the user typed.
func (f *Form) Apply(sub Submission) {
	for i := range f.Inputs {
		in := &f.Inputs[i]
		switch in.Kind {
		case InputFile:
			continue
		case InputCheckbox:
			in.Checked = IsTruthy(sub.Values[in.Name])
		default:
			if v, ok := sub.Values[in.Name]; ok {
				in.Value = v
			}
		}
	}
}

// dateOnly trims an ISO timestamp to the YYYY-MM-DD a date input expects.
func dateOnly(s string) string {
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

// IsTruthy reports whether a submitted checkbox or flag value means true.
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
