package cell

import (
	"fmt"
	"math/big"

	"ton-gmp-adapter/pkg/tonerr"
)

// Slice is a decode cursor over a Cell: a BitReader over its payload plus
// an index into its ordered child references.
type Slice struct {
	r       *BitReader
	c       *Cell
	refNext int
}

// NewSlice returns a cursor over c.
func NewSlice(c *Cell) *Slice {
	return &Slice{r: c.NewReader(), c: c}
}

// LoadUint64 reads an n-bit unsigned integer (n<=64).
func (s *Slice) LoadUint64(n int) (uint64, error) {
	v, err := s.r.ReadUint64(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	return v, nil
}

// LoadUint reads an n-bit unsigned integer as a big.Int (n<=257).
func (s *Slice) LoadUint(n int) (*big.Int, error) {
	v, err := s.r.ReadUint(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	return v, nil
}

// LoadInt reads an n-bit two's-complement signed integer.
func (s *Slice) LoadInt(n int) (int64, error) {
	v, err := s.r.ReadInt(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	return v, nil
}

// LoadBytes reads n whole bytes.
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	b, err := s.r.ReadBytes(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	return b, nil
}

// LoadHash reads a 256-bit hash.
func (s *Slice) LoadHash() ([32]byte, error) {
	var out [32]byte
	b, err := s.LoadBytes(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// LoadCoins reads the 4-bit-length-prefixed coins encoding.
func (s *Slice) LoadCoins() (*big.Int, error) {
	v, err := s.r.ReadCoins()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	return v, nil
}

// LoadOpcode reads the leading 32-bit opcode and compares it to expected.
// It never consumes input past the 32 bits even on mismatch, matching the
// "opcode gate" invariant every schema decoder relies on.
func (s *Slice) LoadOpcode(expected uint32) error {
	got, err := s.LoadUint64(32)
	if err != nil {
		return fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
	}
	if uint32(got) != expected {
		return fmt.Errorf("%w: expected 0x%08x got 0x%08x", tonerr.ErrInvalidOpCode, expected, uint32(got))
	}
	return nil
}

// LoadRef returns the next ordered child reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.refNext >= len(s.c.refs) {
		return nil, fmt.Errorf("%w: no more references in cell", tonerr.ErrBocParsing)
	}
	r := s.c.refs[s.refNext]
	s.refNext++
	return r, nil
}

// LoadRefSlice is LoadRef wrapped in NewSlice, the common case.
func (s *Slice) LoadRefSlice() (*Slice, error) {
	r, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	return NewSlice(r), nil
}

// LoadAddress reads an internal MsgAddress: a 2-bit tag (00=none,10=std),
// 8-bit signed workchain, 256-bit account id. The none tag yields
// Address{None: true}. External addresses (tag 01), tag 11 and anycast
// addresses are not decoded; they return ErrBocParsing.
func (s *Slice) LoadAddress() (Address, error) {
	tag, err := s.LoadUint64(2)
	if err != nil {
		return Address{}, err
	}
	switch tag {
	case 0b00:
		return Address{None: true}, nil
	case 0b10:
		anycast, err := s.r.ReadBit()
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", tonerr.ErrBocParsing, err)
		}
		if anycast {
			return Address{}, fmt.Errorf("%w: anycast addresses are not supported", tonerr.ErrBocParsing)
		}
		wc, err := s.LoadInt(8)
		if err != nil {
			return Address{}, err
		}
		hash, err := s.LoadHash()
		if err != nil {
			return Address{}, err
		}
		return Address{Workchain: int8(wc), Hash: hash}, nil
	default:
		return Address{}, fmt.Errorf("%w: unsupported MsgAddress tag %02b", tonerr.ErrBocParsing, tag)
	}
}

// LoadByteChain follows a chain of child cells (≤96 bytes of payload each)
// as a single byte string, The chain terminates at the
// first cell without further children.
func (s *Slice) LoadByteChain() ([]byte, error) {
	return readChain(s.c)
}

func readChain(c *Cell) ([]byte, error) {
	if c.bitLen%8 != 0 {
		return nil, fmt.Errorf("%w: byte-chain cell is not byte aligned (%d bits)", tonerr.ErrBocParsing, c.bitLen)
	}
	out := append([]byte{}, c.RawBits()[:c.bitLen/8]...)
	if len(c.refs) == 0 {
		return out, nil
	}
	if len(c.refs) != 1 {
		return nil, fmt.Errorf("%w: byte-chain cell has %d refs, expected 0 or 1", tonerr.ErrBocParsing, len(c.refs))
	}
	rest, err := readChain(c.refs[0])
	if err != nil {
		return nil, err
	}
	return append(out, rest...), nil
}

// LoadRefString is LoadRef + LoadByteChain + string conversion, the common
// "ref <name>:string" field shape seen throughout the message schemas.
func (s *Slice) LoadRefString() (string, error) {
	r, err := s.LoadRef()
	if err != nil {
		return "", err
	}
	b, err := readChain(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LoadRefBytes is LoadRef + LoadByteChain.
func (s *Slice) LoadRefBytes() ([]byte, error) {
	r, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	return readChain(r)
}

// Address mirrors the decoded form of an on-chain MsgAddress.
type Address struct {
	None      bool
	Workchain int8
	Hash      [32]byte
}
