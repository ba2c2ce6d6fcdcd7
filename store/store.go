// ABOUTME: Session persistence contract shared by the memory and sqlite backends
// ABOUTME: Load of a missing or expired session yields ErrSessionNotFound

package store

import (
	"context"
	"errors"

	"github.com/eondash/eon-dashboard/models"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists server-side sessions keyed by their opaque id.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
