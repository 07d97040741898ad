package cell

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"ton-gmp-adapter/pkg/tonerr"
)

// bocMagic identifies the serialized bag-of-cells header.
const bocMagic = 0xb5ee9c72

// SerializeBoC serializes root (and everything reachable from it) into a
// single-root Bag of Cells. Cells are indexed in first-visit (pre-order) DFS
// order over reference lists, deduplicated by pointer identity; every
// reference therefore points to an index that has already been assigned by
// the time it is written, so decoding never needs a forward patch pass.
//
// This is a faithful, self-consistent implementation of the documented
// cell-descriptor layout (d1/d2 bytes, bit-augmented payload, root list,
// ref-indexed cell table); it is not guaranteed byte-identical to the
// reference TON node's canonical cell ordering (which additionally
// deduplicates cells by content hash across the whole DAG).
func SerializeBoC(root *Cell) ([]byte, error) {
	order, index := topoOrder(root)
	refSize := bytesFor(len(order))

	var body []byte
	for _, c := range order {
		d1 := byte(len(c.refs))
		fullBytes := c.bitLen / 8
		d2 := byte(fullBytes * 2)
		if c.bitLen%8 != 0 {
			d2++
		}
		body = append(body, d1, d2)
		body = append(body, augment(c.bits, c.bitLen)...)
		for _, r := range c.refs {
			body = append(body, encodeIndex(index[r], refSize)...)
		}
	}

	const offBytes = 4
	header := make([]byte, 0, 32)
	header = appendU32(header, bocMagic)
	flags := byte(refSize) // bits0-2: ref_size; has_idx/has_crc32c/has_cache_bits all 0
	header = append(header, flags, offBytes)
	header = append(header, u32n(uint64(len(order)), offBytes)...)
	header = append(header, u32n(1, offBytes)...)             // roots_count
	header = append(header, u32n(0, offBytes)...)             // absent_count
	header = append(header, u32n(uint64(len(body)), offBytes)...)
	header = append(header, encodeIndex(0, refSize)...) // root list: index 0

	return append(header, body...), nil
}

// SerializeBoCBase64 is SerializeBoC followed by standard base64 encoding,
// the wire form used throughout the RPC and message-body fields.
func SerializeBoCBase64(root *Cell) (string, error) {
	raw, err := SerializeBoC(root)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ParseBoC decodes a single-root Bag of Cells produced by SerializeBoC (or an
// equivalent big/little depth-first-ordered encoder using the same
// descriptor conventions) and returns the root cell.
func ParseBoC(data []byte) (*Cell, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: boc too short", tonerr.ErrBocParsing)
	}
	if binary.BigEndian.Uint32(data[:4]) != bocMagic {
		return nil, fmt.Errorf("%w: bad boc magic", tonerr.ErrBocParsing)
	}
	flags := data[4]
	refSize := int(flags & 0x07)
	if refSize == 0 {
		return nil, fmt.Errorf("%w: invalid ref size", tonerr.ErrBocParsing)
	}
	pos := 5
	if pos >= len(data) {
		return nil, fmt.Errorf("%w: truncated boc header", tonerr.ErrBocParsing)
	}
	offBytes := int(data[pos])
	pos++

	readN := func() (uint64, error) {
		if pos+offBytes > len(data) {
			return 0, fmt.Errorf("%w: truncated boc header", tonerr.ErrBocParsing)
		}
		v := beUint(data[pos : pos+offBytes])
		pos += offBytes
		return v, nil
	}

	cellsCount, err := readN()
	if err != nil {
		return nil, err
	}
	if _, err := readN(); err != nil { // roots_count
		return nil, err
	}
	if _, err := readN(); err != nil { // absent_count
		return nil, err
	}
	if _, err := readN(); err != nil { // tot_cells_size
		return nil, err
	}
	if pos+refSize > len(data) {
		return nil, fmt.Errorf("%w: truncated root list", tonerr.ErrBocParsing)
	}
	rootIdx := int(beUint(data[pos : pos+refSize]))
	pos += refSize

	type rawCell struct {
		bits   []byte
		bitLen int
		refIdx []int
	}
	raws := make([]rawCell, cellsCount)
	for i := range raws {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated cell descriptor", tonerr.ErrBocParsing)
		}
		d1, d2 := data[pos], data[pos+1]
		pos += 2
		refCount := int(d1 & 0x07)
		dataLen := int(d2) / 2
		hasTail := d2%2 == 1
		nbytes := dataLen
		if hasTail {
			nbytes++
		}
		if pos+nbytes > len(data) {
			return nil, fmt.Errorf("%w: truncated cell payload", tonerr.ErrBocParsing)
		}
		raw := data[pos : pos+nbytes]
		pos += nbytes
		bits, bitLen, err := unaugment(raw, hasTail)
		if err != nil {
			return nil, err
		}
		refs := make([]int, refCount)
		for j := 0; j < refCount; j++ {
			if pos+refSize > len(data) {
				return nil, fmt.Errorf("%w: truncated cell refs", tonerr.ErrBocParsing)
			}
			refs[j] = int(beUint(data[pos : pos+refSize]))
			pos += refSize
		}
		raws[i] = rawCell{bits: bits, bitLen: bitLen, refIdx: refs}
	}

	cells := make([]*Cell, cellsCount)
	var build func(i int) (*Cell, error)
	building := make([]bool, cellsCount)
	build = func(i int) (*Cell, error) {
		if i < 0 || i >= int(cellsCount) {
			return nil, fmt.Errorf("%w: ref index out of range", tonerr.ErrBocParsing)
		}
		if cells[i] != nil {
			return cells[i], nil
		}
		if building[i] {
			return nil, fmt.Errorf("%w: cyclic cell reference", tonerr.ErrBocParsing)
		}
		building[i] = true
		refs := make([]*Cell, len(raws[i].refIdx))
		for j, ri := range raws[i].refIdx {
			c, err := build(ri)
			if err != nil {
				return nil, err
			}
			refs[j] = c
		}
		c := &Cell{bits: raws[i].bits, bitLen: raws[i].bitLen, refs: refs}
		cells[i] = c
		return c, nil
	}
	return build(rootIdx)
}

// ParseBoCBase64 base64-decodes then calls ParseBoC.
func ParseBoCBase64(s string) (*Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", tonerr.ErrBocParsing, err)
	}
	return ParseBoC(raw)
}

func topoOrder(root *Cell) ([]*Cell, map[*Cell]int) {
	index := make(map[*Cell]int)
	var order []*Cell
	var visit func(c *Cell)
	visit = func(c *Cell) {
		if _, ok := index[c]; ok {
			return
		}
		index[c] = len(order)
		order = append(order, c)
		for _, r := range c.refs {
			visit(r)
		}
	}
	visit(root)
	return order, index
}

func bytesFor(count int) int {
	switch {
	case count <= 1<<8:
		return 1
	case count <= 1<<16:
		return 2
	case count <= 1<<24:
		return 3
	default:
		return 4
	}
}

func encodeIndex(i, size int) []byte {
	return u32n(uint64(i), size)
}

func u32n(v uint64, size int) []byte {
	out := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// augment appends the TON bit-augmentation tail ('1' then zero padding) when
// bitLen is not byte aligned, so the exact bit count survives the d2/byte
// round trip.
func augment(bits []byte, bitLen int) []byte {
	fullBytes := bitLen / 8
	if bitLen%8 == 0 {
		out := make([]byte, fullBytes)
		copy(out, bits[:fullBytes])
		return out
	}
	out := make([]byte, fullBytes+1)
	copy(out, bits[:fullBytes+1])
	rem := bitLen % 8
	// Bits above `rem` in the partial byte are already the real data (the
	// BitWriter zero-pads the remainder); set the augmentation marker bit.
	out[fullBytes] = (bits[fullBytes] &^ (0xFF >> uint(rem))) | (1 << uint(7-rem))
	return out
}

func unaugment(raw []byte, hasTail bool) ([]byte, int, error) {
	if !hasTail {
		return raw, len(raw) * 8, nil
	}
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("%w: missing augmentation byte", tonerr.ErrBocParsing)
	}
	last := raw[len(raw)-1]
	if last == 0 {
		return nil, 0, fmt.Errorf("%w: malformed bit augmentation", tonerr.ErrBocParsing)
	}
	trailingZeros := 0
	for i := 0; i < 8; i++ {
		if last&(1<<uint(i)) != 0 {
			break
		}
		trailingZeros++
	}
	rem := 7 - trailingZeros
	out := make([]byte, len(raw))
	copy(out, raw)
	out[len(out)-1] &^= 0xFF >> uint(rem)
	return out, (len(raw)-1)*8 + rem, nil
}
