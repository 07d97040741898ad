// Package cell implements the bit-granular "bag of cells" (BoC) tree codec
// that every on-chain message schema is built on.
package cell

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"ton-gmp-adapter/pkg/tonerr"
)

// Cell is an immutable node: a 0..1023 bit payload plus up to 4 ordered
// child references. Cells form a DAG; a Bag of Cells is a serialization of
// a rooted DAG of cells.
type Cell struct {
	bits   []byte
	bitLen int
	refs   []*Cell
}

// BitLen returns the number of valid payload bits.
func (c *Cell) BitLen() int { return c.bitLen }

// Refs returns the ordered child references.
func (c *Cell) Refs() []*Cell { return c.refs }

// RefsCount returns len(Refs()).
func (c *Cell) RefsCount() int { return len(c.refs) }

// RawBits returns the packed payload bytes (last byte may be zero-padded).
func (c *Cell) RawBits() []byte { return c.bits }

// NewReader returns a fresh BitReader positioned at the start of the cell's
// payload.
func (c *Cell) NewReader() *BitReader {
	return NewBitReader(c.bits, c.bitLen)
}

// Hash computes a content-addressed identifier for the cell. It is not
// byte-identical to TON's representation hash (which folds in cell
// descriptors and the hashes of every reference recursively per BoC
// serialization rules); it is used for cell-identity comparisons in tests
// and as the digest the high-load wallet Builder signs.
func (c *Cell) Hash() [32]byte {
	h := sha256.New()
	h.Write([]byte{byte(c.bitLen >> 8), byte(c.bitLen)})
	h.Write(c.bits)
	for _, r := range c.refs {
		rh := r.Hash()
		h.Write(rh[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Builder constructs a Cell incrementally.
type Builder struct {
	bw   *BitWriter
	refs []*Cell
	err  error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{bw: NewBitWriter()} }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// StoreUint64 stores an n-bit unsigned integer (n <= 64).
func (b *Builder) StoreUint64(n int, v uint64) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.bw.WriteUint64(n, v); err != nil {
		return b.fail(err)
	}
	return b
}

// StoreInt stores an n-bit two's-complement signed integer.
func (b *Builder) StoreInt(n int, v int64) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.bw.WriteInt(n, v); err != nil {
		return b.fail(err)
	}
	return b
}

// StoreBytes stores raw bytes.
func (b *Builder) StoreBytes(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.bw.WriteBytes(data); err != nil {
		return b.fail(err)
	}
	return b
}

// StoreCoins stores the 4-bit-length-prefixed coins encoding.
func (b *Builder) StoreCoins(v *big.Int) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.bw.WriteCoins(v); err != nil {
		return b.fail(err)
	}
	return b
}

// StoreUint stores an n-bit big.Int-backed unsigned integer (widths > 64).
func (b *Builder) StoreUint(n int, v *big.Int) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.bw.WriteUint(n, v); err != nil {
		return b.fail(err)
	}
	return b
}

// StoreRef appends a child reference.
func (b *Builder) StoreRef(c *Cell) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.refs) >= MaxRefs {
		return b.fail(fmt.Errorf("%w: cell holds at most %d refs", tonerr.ErrBocEncoding, MaxRefs))
	}
	b.refs = append(b.refs, c)
	return b
}

// Build finalizes the cell, returning any accumulated error.
func (b *Builder) Build() (*Cell, error) {
	if b.err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocEncoding, b.err)
	}
	return &Cell{bits: b.bw.Bits(), bitLen: b.bw.Len(), refs: append([]*Cell{}, b.refs...)}, nil
}
