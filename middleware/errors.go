// ABOUTME: Error response helper for middleware
// ABOUTME: Answers JSON clients with the API error envelope and browsers with plain text

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

// writeError writes an error response with the given status code, as JSON
// when the client asked for it.
func writeError(w http.ResponseWriter, r *http.Request, message string, code int) {
	if !strings.Contains(r.Header.Get("Accept"), "application/json") {
		http.Error(w, message, code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, Code: code})
}
