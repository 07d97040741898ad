package cell

import (
	"fmt"
	"sort"

	"ton-gmp-adapter/pkg/tonerr"
)

// Dict is a 16-bit-keyed map of cells, the shape used by ApproveMessages'
// per-message dictionary. It is serialized as a chain of
// cells, each holding up to entriesPerChainCell (key, value-ref) pairs plus
// a ref to the next chain cell, so the total entry count is not bounded by
// a single cell's 4-ref limit. This is an internal simplification, not a
// byte-for-byte reproduction of TON's canonical Hashmap patricia-trie
// serialization.
type Dict struct {
	entries map[uint16]*Cell
}

// entriesPerChainCell leaves one ref free per chain cell for the
// "next" pointer.
const entriesPerChainCell = MaxRefs - 1

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[uint16]*Cell)}
}

// Set stores value under key, overwriting any existing entry.
func (d *Dict) Set(key uint16, value *Cell) {
	d.entries[key] = value
}

// Get returns the value stored under key, if any.
func (d *Dict) Get(key uint16) (*Cell, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.entries) }

// Keys returns the stored keys in ascending order.
func (d *Dict) Keys() []uint16 {
	keys := make([]uint16, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Build serializes the dictionary as a 16-bit entry count followed by a ref
// to the entry chain (empty dictionaries carry no chain ref at all).
func (d *Dict) Build() (*Cell, error) {
	keys := d.Keys()
	root := NewBuilder().StoreUint64(16, uint64(len(keys)))
	if len(keys) == 0 {
		return root.Build()
	}
	chain, err := buildDictChain(d, keys)
	if err != nil {
		return nil, err
	}
	root.StoreRef(chain)
	return root.Build()
}

func buildDictChain(d *Dict, keys []uint16) (*Cell, error) {
	n := entriesPerChainCell
	if n > len(keys) {
		n = len(keys)
	}
	b := NewBuilder()
	for _, k := range keys[:n] {
		b.StoreUint64(16, uint64(k))
	}
	for _, k := range keys[:n] {
		b.StoreRef(d.entries[k])
	}
	if n < len(keys) {
		next, err := buildDictChain(d, keys[n:])
		if err != nil {
			return nil, err
		}
		b.StoreRef(next)
	}
	c, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: dict chain cell: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

// LoadDict decodes a Dict previously produced by Dict.Build.
func LoadDict(c *Cell) (*Dict, error) {
	s := NewSlice(c)
	count, err := s.LoadUint64(16)
	if err != nil {
		return nil, fmt.Errorf("%w: dict count: %v", tonerr.ErrBocParsing, err)
	}
	d := NewDict()
	if count == 0 {
		return d, nil
	}
	chain, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("%w: dict chain ref: %v", tonerr.ErrBocParsing, err)
	}
	remaining := int(count)
	for remaining > 0 {
		n := entriesPerChainCell
		if n > remaining {
			n = remaining
		}
		cs := NewSlice(chain)
		keys := make([]uint16, n)
		for i := 0; i < n; i++ {
			k, err := cs.LoadUint64(16)
			if err != nil {
				return nil, fmt.Errorf("%w: dict chain key %d: %v", tonerr.ErrBocParsing, i, err)
			}
			keys[i] = uint16(k)
		}
		for i := 0; i < n; i++ {
			v, err := cs.LoadRef()
			if err != nil {
				return nil, fmt.Errorf("%w: dict chain value %d: %v", tonerr.ErrBocParsing, i, err)
			}
			d.Set(keys[i], v)
		}
		remaining -= n
		if remaining > 0 {
			chain, err = cs.LoadRef()
			if err != nil {
				return nil, fmt.Errorf("%w: dict chain continuation: %v", tonerr.ErrBocParsing, err)
			}
		}
	}
	return d, nil
}
