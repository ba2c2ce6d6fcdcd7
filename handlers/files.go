// ABOUTME: File proxy for uploaded assets referenced by page records
// ABOUTME: Streams /uploads/ paths from the file host using the session's token

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/middleware"
	"github.com/eondash/eon-dashboard/services"
)

const filesPrefix = "/files/"

// proxiedHeaders are copied from the file host's response
var proxiedHeaders = []string{"Content-Type", "Content-Length", "Content-Disposition", "Last-Modified", "ETag"}

// File streams GET /files/uploads/... from the file host.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	assetPath, ok := uploadPath(strings.TrimPrefix(r.URL.EscapedPath(), filesPrefix))
	if !ok {
		slog.Debug("File proxy: rejected path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	resp, err := h.api.FetchFile(r.Context(), middleware.GetSession(r), assetPath)
	if err != nil {
		if h.handleUnauthorized(w, r, err) {
			return
		}
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		slog.Error("File proxy: request failed", "path", assetPath, "error", err)
		h.writeError(w, r, "File request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, key := range proxiedHeaders {
		if v := resp.Header.Get(key); v != "" {
			w.Header().Set(key, v)
		}
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Stream the response
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("File proxy: copy interrupted", "path", assetPath, "error", err)
	}
}

// uploadPath decodes the escaped remainder of a /files/ request once and
// cleans it. Only paths still under /uploads/ after cleaning are served.
func uploadPath(escaped string) (string, bool) {
	decoded, err := url.PathUnescape(escaped)
	if err != nil || strings.ContainsAny(decoded, "\\\x00") {
		return "", false
	}
	cleaned := path.Clean("/" + decoded)
	if !strings.HasPrefix(cleaned, crud.UploadPrefix) {
		return "", false
	}
	return cleaned, true
}
