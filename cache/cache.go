// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Thread-safe cache using sync.Map with a stoppable cleanup loop

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	data      any
	expiresAt time.Time
}

type Cache struct {
	store    sync.Map
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func New(ttl time.Duration) *Cache {
	return NewWithInterval(ttl, time.Minute)
}

// NewWithInterval creates a cache whose expired entries are swept every interval.
func NewWithInterval(ttl, interval time.Duration) *Cache {
	c := &Cache{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.startCleanup(interval)
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	e := val.(entry)
	if !time.Now().Before(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}

	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Store(key, entry{data: value, expiresAt: time.Now().Add(ttl)})
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

func (c *Cache) Clear(key string) {
	c.store.Delete(key)
}

// Len counts live entries.
func (c *Cache) Len() int {
	now := time.Now()
	n := 0
	c.store.Range(func(_, val any) bool {
		if now.Before(val.(entry).expiresAt) {
			n++
		}
		return true
	})
	return n
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweep(now time.Time) {
	c.store.Range(func(key, val any) bool {
		if !now.Before(val.(entry).expiresAt) {
			c.store.Delete(key)
		}
		return true
	})
}

func (c *Cache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}
