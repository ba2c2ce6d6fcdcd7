// ABOUTME: Error taxonomy shared by the API client, CRUD engine and HTTP layer
// ABOUTME: Sentinels for unauthorized/forbidden cases plus typed API and validation errors

package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the remote API rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoPermission means the user's role has no entry for the page.
	ErrNoPermission = errors.New("no permission for page")
	// ErrActionNotPermitted means the page is visible but the action is not granted.
	ErrActionNotPermitted = errors.New("action not permitted")
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Unwrap lets a 401 match ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// ValidationError is a client-side check that failed before any request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserMessage picks the text to show a user for err: the validation message,
// the API's own message, or fallback.
func UserMessage(err error, fallback string) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
