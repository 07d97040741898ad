// Package wallet implements C4 (Wallet Pool) and C5 (High-Load Wallet
// Builder): process-lifetime wallet identities, try-only exclusive
// acquisition via the lock manager, and deterministic construction of
// signed external messages carrying 1..254 internal sends.
package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/lockmanager"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/tonaddr"
)

// Wallet is a process-lifetime high-load wallet identity, loaded from
// configuration and never mutated.
type Wallet struct {
	Address    tonaddr.Address
	PublicKey  ed25519.PublicKey
	SecretKey  ed25519.PrivateKey
	SubwalletID uint32
	TimeoutS   uint64
}

// Pool loads N wallet identities and mediates exclusive possession through
// the lock manager; it holds no other mutable state.
type Pool struct {
	wallets []Wallet
	locks   *lockmanager.Manager
	logger  *log.Entry
}

// NewPool returns a Pool over wallets, iterated in the given (deterministic)
// order on every Acquire call.
func NewPool(wallets []Wallet, locks *lockmanager.Manager) *Pool {
	return &Pool{wallets: wallets, locks: locks, logger: log.WithField("component", "wallet_pool")}
}

// Acquire returns the first wallet (in load order) whose lock succeeds, or
// ErrNoAvailableWallet if every wallet is currently held.
func (p *Pool) Acquire(ctx context.Context) (*Wallet, error) {
	for i := range p.wallets {
		w := &p.wallets[i]
		if p.locks.Lock(ctx, w.Address.String()) {
			p.logger.WithField("wallet", w.Address.String()).Debug("wallet_pool: acquired")
			return w, nil
		}
	}
	return nil, fmt.Errorf("wallet: %w", tonerr.ErrNoAvailableWallet)
}

// Release unlocks w. It is safe to call on every exit path (success, error,
// panic-recovery) since Unlock itself is idempotent.
func (p *Pool) Release(ctx context.Context, w *Wallet) {
	p.locks.Unlock(ctx, w.Address.String())
	p.logger.WithField("wallet", w.Address.String()).Debug("wallet_pool: released")
}
