package cell

import (
	"bytes"
	"math/big"
	"testing"
)

func buildSample(t *testing.T) *Cell {
	t.Helper()
	leaf, err := NewBuilder().StoreUint64(16, 0xbeef).Build()
	if err != nil {
		t.Fatalf("leaf: %v", err)
	}
	root, err := NewBuilder().
		StoreUint64(32, 0x12345678).
		StoreCoins(big.NewInt(987654321)).
		StoreRef(leaf).
		Build()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	return root
}

func TestBoCRoundTrip(t *testing.T) {
	root := buildSample(t)
	raw, err := SerializeBoC(root)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := ParseBoC(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Hash() != root.Hash() {
		t.Fatal("round-tripped cell hash mismatch")
	}
	if got.RefsCount() != 1 {
		t.Fatalf("expected 1 ref, got %d", got.RefsCount())
	}

	s := NewSlice(got)
	if v, err := s.LoadUint64(32); err != nil || v != 0x12345678 {
		t.Fatalf("opcode: %v %x", err, v)
	}
	if v, err := s.LoadCoins(); err != nil || v.Cmp(big.NewInt(987654321)) != 0 {
		t.Fatalf("coins: %v %v", err, v)
	}
	rs, err := s.LoadRefSlice()
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if v, err := rs.LoadUint64(16); err != nil || v != 0xbeef {
		t.Fatalf("leaf field: %v %x", err, v)
	}
}

func TestBoCBase64RoundTrip(t *testing.T) {
	root := buildSample(t)
	s, err := SerializeBoCBase64(root)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := ParseBoCBase64(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Hash() != root.Hash() {
		t.Fatal("base64 round-tripped cell hash mismatch")
	}
}

func TestBoCNonByteAlignedPayload(t *testing.T) {
	c, err := NewBuilder().StoreUint64(5, 0b10110).StoreUint64(3, 0b101).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	raw, err := SerializeBoC(c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := ParseBoC(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.BitLen() != 8 {
		t.Fatalf("bit length mismatch: got %d want 8", got.BitLen())
	}
	if !bytes.Equal(got.RawBits(), c.RawBits()) {
		t.Fatalf("payload mismatch: got %x want %x", got.RawBits(), c.RawBits())
	}
}

func TestBoCOddBitLength(t *testing.T) {
	c, err := NewBuilder().StoreUint64(11, 0x3AB).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	raw, err := SerializeBoC(c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := ParseBoC(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.BitLen() != 11 {
		t.Fatalf("bit length mismatch: got %d want 11", got.BitLen())
	}
	s := NewSlice(got)
	v, err := s.LoadUint64(11)
	if err != nil || v != 0x3AB {
		t.Fatalf("value mismatch: %v %x", err, v)
	}
}

func TestParseBoCRejectsBadMagic(t *testing.T) {
	if _, err := ParseBoC([]byte{0, 0, 0, 0, 1}); err == nil {
		t.Fatal("expected magic mismatch error")
	}
}
