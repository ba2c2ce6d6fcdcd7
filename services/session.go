// ABOUTME: Session management service for the BFF pattern
// ABOUTME: Opens sessions from a login result and persists them through a SessionStore

package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/store"
)

// SessionService manages server-side authentication sessions
type SessionService struct {
	store store.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(st store.SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{store: st, ttl: ttl, now: time.Now}
}

// TTL is how long a new session lives.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create opens a session for a successful login and stores it.
func (s *SessionService) Create(ctx context.Context, login models.LoginResult) (*models.Session, error) {
	if !login.Complete() {
		return nil, &ValidationError{Message: "login response is missing token, userId, username or roleId"}
	}

	sessionID, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	csrfToken, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating csrf token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		ID:        sessionID,
		Token:     login.Token,
		UserID:    login.UserID,
		Username:  login.Username,
		RoleID:    login.RoleID,
		CSRFToken: csrfToken,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// Get retrieves a session by ID
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, store.ErrSessionNotFound
	}
	return s.store.Load(ctx, sessionID)
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Delete(ctx, sessionID)
}

// randomToken returns 32 bytes of cryptographically secure random data, base64 URL-encoded
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
