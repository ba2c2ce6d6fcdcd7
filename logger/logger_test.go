// ABOUTME: Tests for logger level and format selection
// ABOUTME: Verifies JSON/text output, level filtering and credential redaction

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info("Session created", "username", "alice")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "Session created" || line["username"] != "alice" {
		t.Errorf("Unexpected log line %v", line)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "text")

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("Expected warn line in output")
	}
}

func TestNew_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info("Login", "username", "alice", "password", "hunter2", "Token", "jwt-abc")

	out := buf.String()
	for _, secret := range []string{"hunter2", "jwt-abc"} {
		if strings.Contains(out, secret) {
			t.Errorf("Secret %q leaked into log line %q", secret, out)
		}
	}
	if !strings.Contains(out, "alice") {
		t.Error("Non-sensitive attributes should be kept")
	}
}

func TestNew_RedactsInsideGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "text")

	log.Info("Request", slog.Group("headers", "authorization", "Bearer jwt-abc"))

	if strings.Contains(buf.String(), "jwt-abc") {
		t.Errorf("Grouped secret leaked: %q", buf.String())
	}
}
