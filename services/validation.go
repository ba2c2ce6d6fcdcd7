// ABOUTME: Input validation for identifiers placed into remote API paths
// ABOUTME: Rejects malformed record ids and page keys before any request is sent

package services

import (
	"fmt"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateRecordID checks that a page record id is 24 characters long.
func ValidateRecordID(id string) error {
	if !models.ValidRecordID(id) {
		return &ValidationError{Message: fmt.Sprintf("Invalid record ID format: %q", sanitizeForLog(id))}
	}
	return nil
}

// ValidateObjectID checks that a user, role or page id is a hex object id.
func ValidateObjectID(id string) error {
	if !models.ValidObjectID(id) {
		return &ValidationError{Message: fmt.Sprintf("Invalid ID format: %q", sanitizeForLog(id))}
	}
	return nil
}

// ValidatePageKey checks that a normalized page key is a single safe path segment.
func ValidatePageKey(key string) error {
	if key == "" {
		return &ValidationError{Message: "page key cannot be empty"}
	}
	if key == "." || key == ".." || strings.ContainsAny(key, "/?#\\") {
		return &ValidationError{Message: fmt.Sprintf("invalid page key: %q", sanitizeForLog(key))}
	}
	for _, r := range key {
		if r < 32 || r == 127 {
			return &ValidationError{Message: fmt.Sprintf("invalid page key: %q", sanitizeForLog(key))}
		}
	}
	return nil
}
