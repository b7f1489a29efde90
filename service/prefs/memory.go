package prefs

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps preferences in process memory. Entries expire after ttl
// without writes, which bounds them to the lifetime of a browser session.
type MemoryStore struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewMemoryStore creates an in-memory store. A ttl <= 0 keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{
		c:   cache.New(ttl, 10*time.Minute),
		ttl: ttl,
	}
}

// Get returns the stored value or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

// Set stores value and refreshes its expiry.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, m.ttl)
	return nil
}
