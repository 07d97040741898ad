package wallet

import (
	"crypto/ed25519"
	"math/big"
	"testing"
	"time"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/tonaddr"
)

func TestBuilderBuildRoundTripsThroughBoC(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	w := &Wallet{
		Address:     tonaddr.Address{Workchain: 0, Hash: [32]byte{9}},
		PublicKey:   pub,
		SecretKey:   priv,
		SubwalletID: 698983191,
		TimeoutS:    60,
	}
	b := &Builder{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }}

	body, err := cell.NewBuilder().StoreUint64(32, 0xabcdef01).Build()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	action := Action{
		Destination: tonaddr.Address{Workchain: 0, Hash: [32]byte{7}},
		Value:       big.NewInt(1_000_000),
		Bounce:      true,
		Body:        body,
	}

	boc, err := b.BuildBase64(w, []Action{action}, 42, big.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("build base64: %v", err)
	}
	if boc == "" {
		t.Fatalf("empty boc output")
	}

	parsed, err := cell.ParseBoCBase64(boc)
	if err != nil {
		t.Fatalf("round trip parse: %v", err)
	}
	if parsed == nil {
		t.Fatalf("parsed cell is nil")
	}
}

func TestBuildRejectsTooManyActions(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	w := &Wallet{
		Address:     tonaddr.Address{Workchain: 0, Hash: [32]byte{9}},
		PublicKey:   pub,
		SecretKey:   priv,
		SubwalletID: 1,
		TimeoutS:    60,
	}
	b := NewBuilder()
	body, _ := cell.NewBuilder().StoreUint64(32, 1).Build()
	actions := make([]Action, MaxActions+1)
	for i := range actions {
		actions[i] = Action{Destination: w.Address, Value: big.NewInt(1), Body: body}
	}
	if _, err := b.Build(w, actions, 1, big.NewInt(1)); err == nil {
		t.Fatalf("expected error for exceeding MaxActions")
	}
}
