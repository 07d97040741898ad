package cell

import (
	"bytes"
	"math/big"
	"testing"
)

func TestBuilderSliceRoundTrip(t *testing.T) {
	addr := Address{Workchain: 0, Hash: [32]byte{1, 2, 3}}
	c, err := NewBuilder().
		StoreUint64(32, 0xdeadbeef).
		StoreInt(8, -5).
		StoreCoins(big.NewInt(123456789)).
		StoreAddress(addr).
		StoreBytes([]byte("hi")).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	s := NewSlice(c)
	if v, err := s.LoadUint64(32); err != nil || v != 0xdeadbeef {
		t.Fatalf("opcode field: %v %x", err, v)
	}
	if v, err := s.LoadInt(8); err != nil || v != -5 {
		t.Fatalf("int8 field: %v %d", err, v)
	}
	if v, err := s.LoadCoins(); err != nil || v.Cmp(big.NewInt(123456789)) != 0 {
		t.Fatalf("coins field: %v %v", err, v)
	}
	got, err := s.LoadAddress()
	if err != nil || got.Workchain != 0 || got.Hash != addr.Hash {
		t.Fatalf("address field: %v %+v", err, got)
	}
	if b, err := s.LoadBytes(2); err != nil || string(b) != "hi" {
		t.Fatalf("bytes field: %v %q", err, b)
	}
}

func TestLoadOpcodeGate(t *testing.T) {
	c, err := NewBuilder().StoreUint64(32, 0x00000001).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := NewSlice(c).LoadOpcode(0x00000002); err == nil {
		t.Fatal("expected opcode mismatch error")
	}
	if err := NewSlice(c).LoadOpcode(0x00000001); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestByteChainRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 250) // spans 3 chain cells at 96B each
	c, err := BuildByteChain(data)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	got, err := readChain(c)
	if err != nil {
		t.Fatalf("read chain: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestRefStringRoundTrip(t *testing.T) {
	c, err := NewBuilder().StoreRefString("hello relayer").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := NewSlice(c)
	got, err := s.LoadRefString()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "hello relayer" {
		t.Fatalf("got %q", got)
	}
}

func TestMaxRefsEnforced(t *testing.T) {
	b := NewBuilder()
	leaf, _ := NewBuilder().Build()
	for i := 0; i < MaxRefs; i++ {
		b.StoreRef(leaf)
	}
	b.StoreRef(leaf)
	if b.Err() == nil {
		t.Fatal("expected error exceeding max refs")
	}
}
