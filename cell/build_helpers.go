package cell

import "fmt"

// BytesPerChainCell is the maximum payload carried by one link of a
// string/bytes child-cell chain.
const BytesPerChainCell = 96

// BuildByteChain builds a chain of child cells (≤96 bytes payload each)
// representing data as a single byte string. The terminating cell has no
// further children, matching the decode contract in Slice.LoadByteChain.
func BuildByteChain(data []byte) (*Cell, error) {
	if len(data) == 0 {
		return NewBuilder().Build()
	}
	n := BytesPerChainCell
	if n > len(data) {
		n = len(data)
	}
	b := NewBuilder().StoreBytes(data[:n])
	if n < len(data) {
		rest, err := BuildByteChain(data[n:])
		if err != nil {
			return nil, err
		}
		b.StoreRef(rest)
	}
	return b.Build()
}

// StoreAddress writes an internal MsgAddress (tag 00 for none, 10 for std).
func (b *Builder) StoreAddress(a Address) *Builder {
	if b.err != nil {
		return b
	}
	if a.None {
		return b.StoreUint64(2, 0b00)
	}
	b.StoreUint64(2, 0b10)
	b.StoreUint64(1, 0) // anycast: none
	b.StoreInt(8, int64(a.Workchain))
	return b.StoreBytes(a.Hash[:])
}

// StoreHash writes a raw 256-bit hash.
func (b *Builder) StoreHash(h [32]byte) *Builder {
	return b.StoreBytes(h[:])
}

// StoreRefString builds a byte-chain cell from s and stores it as a ref.
func (b *Builder) StoreRefString(s string) *Builder {
	if b.err != nil {
		return b
	}
	c, err := BuildByteChain([]byte(s))
	if err != nil {
		return b.fail(err)
	}
	return b.StoreRef(c)
}

// StoreRefBytes builds a byte-chain cell from data and stores it as a ref.
func (b *Builder) StoreRefBytes(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	c, err := BuildByteChain(data)
	if err != nil {
		return b.fail(err)
	}
	return b.StoreRef(c)
}

// Err returns the first error encountered by the builder, if any.
func (b *Builder) Err() error {
	if b.err != nil {
		return fmt.Errorf("cell: build error: %w", b.err)
	}
	return nil
}
