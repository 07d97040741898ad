// Package lockbackend is the Redis-backed primitive the Lock Manager (C3)
// builds on ("Redis client (used only via the lock-manager and
// connection-pool abstractions)"). Grounded on this
// core/connection_pool.go pooled-backend pattern, generalized to the
// SetNX/Del pair lockmanager needs.
package lockbackend

import (
	"context"
	"sync"
	"time"
)

// Backend is the network-bound primitive lockmanager.Manager depends on.
type Backend interface {
	// SetNX atomically creates key with the given TTL iff absent, returning
	// true on success and false if the key is already held.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Del removes key unconditionally.
	Del(ctx context.Context, key string) error
}

// InMemory is a process-local Backend for tests and single-process wiring,
// grounded on this pooled in-memory fallback in
// core/connection_pool.go.
type InMemory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewInMemory returns an InMemory backend using wall-clock time.
func NewInMemory() *InMemory {
	return &InMemory{expires: make(map[string]time.Time), now: time.Now}
}

// SetNX matches Backend.SetNX.
func (b *InMemory) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if exp, ok := b.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	b.expires[key] = now.Add(ttl)
	return true, nil
}

// Del matches Backend.Del.
func (b *InMemory) Del(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.expires, key)
	return nil
}
