// ABOUTME: Tests for table layout, action gating and value display
// ABOUTME: Covers placeholder colspan, file cells and number/boolean rendering

package crud

import (
	"testing"

	"github.com/eondash/eon-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable_ActionsColumn(t *testing.T) {
	fields := []models.Field{{Name: "title", Type: models.FieldText}, {Name: "body", Type: models.FieldString}}

	tests := []struct {
		name    string
		actions models.Actions
		want    bool
	}{
		{"none", models.Actions{}, false},
		{"create only", models.Actions{Create: true}, false},
		{"update", models.Actions{Update: true}, true},
		{"delete", models.Actions{Delete: true}, true},
		{"all", models.Actions{Create: true, Update: true, Delete: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := BuildTable(fields, nil, tt.actions)
			assert.Equal(t, []string{"title", "body"}, table.Headers)
			assert.Equal(t, tt.want, table.ShowActions)
		})
	}
}

func TestBuildTable_EmptyPlaceholderColSpan(t *testing.T) {
	fields := []models.Field{{Name: "title", Type: models.FieldText}}

	noActions := BuildTable(fields, []models.PageRecord{}, models.Actions{Create: true})
	assert.True(t, noActions.Empty())
	assert.Equal(t, 1, noActions.EmptyColSpan)

	withActions := BuildTable(fields, []models.PageRecord{}, models.Actions{Delete: true})
	assert.True(t, withActions.Empty())
	assert.Equal(t, 2, withActions.EmptyColSpan)
}

func TestBuildTable_UpdateOnlyControls(t *testing.T) {
	fields := []models.Field{{Name: "title", Type: models.FieldText}}
	records := []models.PageRecord{
		{ID: "a", Values: map[string]any{"title": "one"}},
		{ID: "b", Values: map[string]any{"title": "two"}},
	}

	table := BuildTable(fields, records, models.Actions{Create: false, Update: true, Delete: false})

	assert.False(t, table.CanCreate, "no Add control")
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		assert.True(t, row.CanEdit, "edit control per row")
		assert.False(t, row.CanDelete, "no delete control")
	}
}

func TestBuildTable_RecordWithoutIDHasNoControls(t *testing.T) {
	fields := []models.Field{{Name: "title", Type: models.FieldText}}
	records := []models.PageRecord{
		{ID: "", Values: map[string]any{"title": "orphan"}},
		{ID: "b", Values: map[string]any{"title": "kept"}},
	}

	table := BuildTable(fields, records, models.Actions{Update: true, Delete: true})

	assert.True(t, table.ShowActions)
	require.Len(t, table.Rows, 2)
	assert.False(t, table.Rows[0].CanEdit)
	assert.False(t, table.Rows[0].CanDelete)
	assert.True(t, table.Rows[1].CanEdit)
	assert.True(t, table.Rows[1].CanDelete)
}

func TestBuildTable_SchemaOrderAndFileCells(t *testing.T) {
	fields := []models.Field{
		{Name: "cover", Type: models.FieldFile},
		{Name: "title", Type: models.FieldText},
		{Name: "missing", Type: models.FieldText},
	}
	records := []models.PageRecord{{ID: "a", Values: map[string]any{
		"title": "Hello", "cover": "/uploads/x.png", "extra": "ignored",
	}}}

	table := BuildTable(fields, records, models.Actions{})
	cells := table.Rows[0].Cells
	require.Len(t, cells, 3)

	assert.True(t, cells[0].IsFile())
	assert.Equal(t, "/uploads/x.png", cells[0].FilePath)
	assert.Equal(t, "View file", cells[0].Text)
	assert.Equal(t, "Hello", cells[1].Text)
	assert.False(t, cells[1].IsFile())
	assert.Equal(t, "", cells[2].Text)
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{float64(42), "42"},
		{3.50, "3.5"},
		{float64(0), "0"},
		{true, "true"},
		{false, "false"},
		{[]any{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayValue(tt.in), "DisplayValue(%#v)", tt.in)
	}
}
