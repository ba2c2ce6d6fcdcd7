// ABOUTME: Shared response and payload models
// ABOUTME: Error envelope for JSON endpoints and encoded request bodies

package models

import "encoding/json"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// Payload is an encoded request body ready to send to the remote API.
type Payload struct {
	ContentType string
	Body        []byte
}

// JSONPayload encodes v as an application/json payload.
func JSONPayload(v any) (*Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Payload{ContentType: "application/json", Body: data}, nil
}

// objectID picks the identifier out of a decoded document. The API emits
// "_id" for most resources and "id" for a few.
func objectID(m map[string]json.RawMessage) string {
	for _, key := range []string{"_id", "id"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
