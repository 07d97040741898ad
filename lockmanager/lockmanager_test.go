package lockmanager

import (
	"context"
	"testing"

	"ton-gmp-adapter/lockbackend"
)

func TestLockIsTryOnly(t *testing.T) {
	m := New(lockbackend.NewInMemory())
	ctx := context.Background()

	if !m.Lock(ctx, "wallet-1") {
		t.Fatalf("first lock should succeed")
	}
	if m.Lock(ctx, "wallet-1") {
		t.Fatalf("second lock on the same key should fail, not block")
	}
	m.Unlock(ctx, "wallet-1")
	if !m.Lock(ctx, "wallet-1") {
		t.Fatalf("lock should succeed again after unlock")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	m := New(lockbackend.NewInMemory())
	ctx := context.Background()
	m.Unlock(ctx, "never-locked")
	m.Unlock(ctx, "never-locked")
}
