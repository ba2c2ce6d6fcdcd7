// ABOUTME: Encodes form submissions as multipart bodies for the dynamic record API
// ABOUTME: Files travel as file parts; every other value is stringified

package crud

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

// FileUpload is a file chosen in a form
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is the raw input of a submitted form
type Submission struct {
	Values map[string]string
	Files  map[string]FileUpload
}

// EncodeSubmission builds the multipart payload for the schema's fields.
// Only schema fields are sent. An edit that leaves a file untouched re-sends
// the existing path so the server keeps it.
func EncodeSubmission(fields []models.Field, existing *models.PageRecord, sub Submission) (*models.Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		switch f.Type {
		case models.FieldFile:
			if up, ok := sub.Files[f.Name]; ok && up.Filename != "" {
				if err := writeFile(w, f.Name, up); err != nil {
					return nil, err
				}
				continue
			}
			if existing != nil {
				if path, ok := existing.Values[f.Name].(string); ok && path != "" {
					if err := w.WriteField(f.Name, path); err != nil {
						return nil, err
					}
				}
			}
		case models.FieldBoolean:
			if err := w.WriteField(f.Name, fmt.Sprint(IsTruthy(sub.Values[f.Name]))); err != nil {
				return nil, err
			}
		case models.FieldText, models.FieldString, models.FieldNumber, models.FieldDate:
			v, ok := sub.Values[f.Name]
			if !ok {
				continue
			}
			if f.Type == models.FieldNumber {
				v = strings.TrimSpace(v)
			}
			if err := w.WriteField(f.Name, v); err != nil {
				return nil, err
			}
		default:
			return nil, &models.UnknownFieldTypeError{Tag: f.Type.String()}
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return &models.Payload{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

func writeFile(w *multipart.Writer, field string, up FileUpload) error {
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(up.Filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(up.Data)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// recordFromSubmission is the local stand-in for a record when the API
// does not echo the stored item back.
func recordFromSubmission(fields []models.Field, id string, base *models.PageRecord, sub Submission) models.PageRecord {
	rec := models.PageRecord{ID: id, Values: map[string]any{}}
	if base != nil {
		for k, v := range base.Values {
			rec.Values[k] = v
		}
	}
	for _, f := range fields {
		switch f.Type {
		case models.FieldFile:
			continue
		case models.FieldBoolean:
			rec.Values[f.Name] = IsTruthy(sub.Values[f.Name])
		default:
			if v, ok := sub.Values[f.Name]; ok {
				rec.Values[f.Name] = v
			}
		}
	}
	return rec
}
