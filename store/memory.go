// ABOUTME: In-memory session store backed by the TTL cache
// ABOUTME: Sessions are lost on restart; expiry follows each session's ExpiresAt

package store

import (
	"context"
	"time"

	"github.com/eondash/eon-dashboard/cache"
	"github.com/eondash/eon-dashboard/models"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore wraps c. Entries written through the store carry their own TTL.
func NewMemoryStore(c *cache.Cache) *MemoryStore {
	return &MemoryStore{cache: c}
}

func (m *MemoryStore) Save(_ context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if session.ExpiresAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl <= 0 {
		m.cache.Clear(sessionKey(session.ID))
		return nil
	}
	stored := *session
	m.cache.SetWithTTL(sessionKey(session.ID), &stored, ttl)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	val, ok := m.cache.Get(sessionKey(id))
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, ok := val.(*models.Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		m.cache.Clear(sessionKey(id))
		return nil, ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Clear(sessionKey(id))
	return nil
}

// sessionKey returns the cache key for a session ID
func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
