// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports service status and which session backend is active

package handlers

import "net/http"

// Health returns service status. It never calls the remote API.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"session_store": h.cfg.SessionStore,
		"api_base_url":  h.cfg.APIBaseURL,
	})
}
