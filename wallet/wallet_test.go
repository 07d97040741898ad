package wallet

import (
	"context"
	"testing"

	"ton-gmp-adapter/lockbackend"
	"ton-gmp-adapter/lockmanager"
	"ton-gmp-adapter/tonaddr"
)

func twoWallets() []Wallet {
	return []Wallet{
		{Address: tonaddr.Address{Workchain: 0, Hash: [32]byte{1}}},
		{Address: tonaddr.Address{Workchain: 0, Hash: [32]byte{2}}},
	}
}

func TestPoolAcquireSkipsHeldWallets(t *testing.T) {
	locks := lockmanager.New(lockbackend.NewInMemory())
	pool := NewPool(twoWallets(), locks)
	ctx := context.Background()

	w1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire #1: %v", err)
	}
	w2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire #2: %v", err)
	}
	if w1.Address == w2.Address {
		t.Fatalf("expected two distinct wallets, got the same one twice")
	}
	if _, err := pool.Acquire(ctx); err == nil {
		t.Fatalf("expected ErrNoAvailableWallet when both wallets are held")
	}

	pool.Release(ctx, w1)
	w3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if w3.Address != w1.Address {
		t.Fatalf("expected the released wallet to be reacquired")
	}
}
