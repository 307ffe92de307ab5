package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the authenticated flag in process memory. Useful for
// tests and single-process callers that have no Redis.
type MemoryStore struct {
	mu            sync.Mutex
	authenticated bool
	expiresAt     time.Time // zero means no expiry
}

// NewMemoryStore returns an empty, unauthenticated store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetAuthenticated writes or clears the flag.
func (m *MemoryStore) SetAuthenticated(_ context.Context, authenticated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticated = authenticated
	m.expiresAt = time.Time{}
	return nil
}

// SetAuthenticatedUntil writes the flag with an absolute expiry, given as
// a Unix timestamp in seconds.
func (m *MemoryStore) SetAuthenticatedUntil(_ context.Context, until int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline := time.Unix(until, 0)
	if !deadline.After(time.Now()) {
		m.authenticated = false
		m.expiresAt = time.Time{}
		return nil
	}
	m.authenticated = true
	m.expiresAt = deadline
	return nil
}

// Authenticated reports whether the flag is set and unexpired.
func (m *MemoryStore) Authenticated(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.authenticated {
		return false, nil
	}
	if !m.expiresAt.IsZero() && !m.expiresAt.After(time.Now()) {
		m.authenticated = false
		return false, nil
	}
	return true, nil
}
