// ABOUTME: Page schema and record models for dynamically defined collections
// ABOUTME: Closed FieldType variant, page definitions, records and access entries

package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType is the closed set of field kinds a page schema may declare.
type FieldType int

const (
	FieldText FieldType = iota + 1
	FieldFile
	// Legacy schema-editor variants.
	FieldString
	FieldNumber
	FieldBoolean
	FieldDate
)

// FieldTypes lists every variant in the order the schema editor offers them.
var FieldTypes = []FieldType{FieldText, FieldFile, FieldString, FieldNumber, FieldBoolean, FieldDate}

// String returns the wire tag for the field type.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "Text"
	case FieldFile:
		return "File"
	case FieldString:
		return "String"
	case FieldNumber:
		return "Number"
	case FieldBoolean:
		return "Boolean"
	case FieldDate:
		return "Date"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// UnknownFieldTypeError is returned when a schema carries an unrecognized tag.
type UnknownFieldTypeError struct {
	Tag string
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("unknown field type %q", e.Tag)
}

// ParseFieldType maps a wire tag to its variant, ignoring case.
func ParseFieldType(tag string) (FieldType, error) {
	for _, t := range FieldTypes {
		if strings.EqualFold(tag, t.String()) {
			return t, nil
		}
	}
	return 0, &UnknownFieldTypeError{Tag: tag}
}

func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	parsed, err := ParseFieldType(tag)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Field is one column of a page schema
type Field struct {
	Name string    `json:"fieldName"`
	Type FieldType `json:"fieldType"`
}

// PageDefinition is an admin-defined collection
type PageDefinition struct {
	ID     string  `json:"-"`
	Name   string  `json:"name"`
	URL    string  `json:"url,omitempty"`
	Fields []Field `json:"fields"`
}

func (p *PageDefinition) UnmarshalJSON(data []byte) error {
	type alias PageDefinition
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PageDefinition(a)
	p.ID = objectID(raw)
	return nil
}

// FieldSummary renders the field list as "name (Type), ...".
func (p PageDefinition) FieldSummary() string {
	parts := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Name, f.Type))
	}
	return strings.Join(parts, ", ")
}

// Actions is the per-page capability triple
type Actions struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Any reports whether at least one row-level action (update or delete) is granted.
func (a Actions) Any() bool {
	return a.Update || a.Delete
}

// PageAccess is one entry of GET /pages/role: a page the user's role can see.
type PageAccess struct {
	ID      string  `json:"-"`
	Name    string  `json:"name"`
	URL     string  `json:"url"`
	Actions Actions `json:"actions"`
}

func (p *PageAccess) UnmarshalJSON(data []byte) error {
	type alias PageAccess
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PageAccess(a)
	p.ID = objectID(raw)
	return nil
}

// PageRecord is one document of a dynamic collection
type PageRecord struct {
	ID     string
	Values map[string]any
}

func (r *PageRecord) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	r.ID = ""
	for _, key := range []string{"_id", "id"} {
		if id, ok := values[key].(string); ok && id != "" {
			r.ID = id
			break
		}
	}
	delete(values, "_id")
	r.Values = values
	return nil
}

func (r PageRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		out[k] = v
	}
	if r.ID != "" {
		out["_id"] = r.ID
	}
	return json.Marshal(out)
}

// Collection is the response of GET /dynamic/:pageKey
type Collection struct {
	Fields []Field      `json:"fields"`
	Data   []PageRecord `json:"data"`
}

// recordIDLength is the length of the identifiers the API assigns to records.
const recordIDLength = 24

// ValidRecordID reports whether id has the length of an API record id.
// Dynamic collections may hold ids that are not hex, so only length is checked.
func ValidRecordID(id string) bool {
	return len(id) == recordIDLength
}

// ValidObjectID reports whether id is a hex database object id, the form
// users, roles and page definitions are keyed by.
func ValidObjectID(id string) bool {
	return primitive.IsValidObjectID(id)
}
