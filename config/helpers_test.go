// ABOUTME: Test helpers for config tests
// ABOUTME: Runs a test against an empty environment holding only the given variables

package config

import (
	"os"
	"strings"
	"testing"
)

// cleanEnv empties the process environment for the rest of the test, then
// sets vars. The original environment is restored on cleanup. Clearing
// matters because .env loading skips any key that is already present.
func cleanEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	original := os.Environ()
	os.Clearenv()
	for key, value := range vars {
		os.Setenv(key, value)
	}

	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range original {
			if key, value, ok := strings.Cut(kv, "="); ok {
				os.Setenv(key, value)
			}
		}
	})
}
