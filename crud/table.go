// ABOUTME: Builds the generic record table for a page from its schema
// ABOUTME: One column per field plus an Actions column when rows can be edited or deleted

package crud

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

// UploadPrefix marks a string value as a path to an uploaded file.
const UploadPrefix = "/uploads/"

// Cell is one rendered value
type Cell struct {
	Text     string
	FilePath string // set when the value is an uploaded file
}

// IsFile reports whether the cell links to an uploaded file.
func (c Cell) IsFile() bool {
	return c.FilePath != ""
}

// Row is one record as table cells
type Row struct {
	ID        string
	Cells     []Cell
	CanEdit   bool
	CanDelete bool
}

// Table is the view model for a page's record list
type Table struct {
	Headers      []string
	ShowActions  bool
	CanCreate    bool
	Rows         []Row
	EmptyColSpan int // span of the placeholder row when Rows is empty
}

// Empty reports whether the placeholder row should be shown.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// BuildTable lays out records in schema order. The Actions column is present
// only when update or delete is granted. A record without an id gets no row
// controls.
func BuildTable(fields []models.Field, records []models.PageRecord, actions models.Actions) Table {
	t := Table{
		Headers:     make([]string, 0, len(fields)),
		ShowActions: actions.Any(),
		CanCreate:   actions.Create,
	}
	for _, f := range fields {
		t.Headers = append(t.Headers, f.Name)
	}

	t.EmptyColSpan = len(fields)
	if t.ShowActions {
		t.EmptyColSpan++
	}

	for _, rec := range records {
		row := Row{
			ID:        rec.ID,
			Cells:     make([]Cell, 0, len(fields)),
			CanEdit:   actions.Update && rec.ID != "",
			CanDelete: actions.Delete && rec.ID != "",
		}
		for _, f := range fields {
			row.Cells = append(row.Cells, cellFor(rec.Values[f.Name]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellFor(v any) Cell {
	if s, ok := v.(string); ok && strings.HasPrefix(s, UploadPrefix) {
		return Cell{Text: "View file", FilePath: s}
	}
	return Cell{Text: DisplayValue(v)}
}

// DisplayValue renders a record value as text. Missing values are blank;
// numbers drop trailing zeros; booleans render as true/false.
func DisplayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case []any, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
