// Package lockmanager implements C3: best-effort, short-TTL mutual
// exclusion per resource key. Acquisition is strictly
// try-only — it never blocks the Wallet Pool.
package lockmanager

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/lockbackend"
)

// TTL is the fixed expiry every lock carries.
const TTL = 60 * time.Second

// Manager mediates try-only exclusive possession of resource keys.
type Manager struct {
	backend lockbackend.Backend
	logger  *log.Entry
}

// New returns a Manager backed by backend.
func New(backend lockbackend.Backend) *Manager {
	return &Manager{backend: backend, logger: log.WithField("component", "lockmanager")}
}

// Lock attempts to acquire key for TTL. It returns false (never an error to
// the caller) when the key is already held or the backend is unreachable —
// the manager must not deadlock the wallet pool.
func (m *Manager) Lock(ctx context.Context, key string) bool {
	ok, err := m.backend.SetNX(ctx, key, TTL)
	if err != nil {
		m.logger.WithError(err).WithField("key", key).Warn("lockmanager: backend unreachable, treating as held")
		return false
	}
	return ok
}

// Unlock releases key. It is idempotent and tolerates backend errors (log
// and continue) since the lock backend is network-bound and release is not
// guaranteed to run on every exit path.
func (m *Manager) Unlock(ctx context.Context, key string) {
	if err := m.backend.Del(ctx, key); err != nil {
		m.logger.WithError(err).WithField("key", key).Warn("lockmanager: unlock failed, TTL will expire it")
	}
}
