package boc

import (
	"encoding/hex"
	"fmt"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// SignersRotatedMessage is the gateway's signer-rotation log body.
type SignersRotatedMessage struct {
	SignersHash string // "0x"-prefixed hex of a 256-bit hash
	Epoch       uint64
}

// ParseSignersRotatedMessage decodes a SignersRotatedMessage body cell: an
// opcode, an unused leading ref, then signers_hash and epoch as 256-bit
// integers.
func ParseSignersRotatedMessage(c *cell.Cell) (*SignersRotatedMessage, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpSignersRotatedLog); err != nil {
		return nil, err
	}
	if _, err := s.LoadRef(); err != nil {
		return nil, fmt.Errorf("%w: leading ref: %v", tonerr.ErrBocParsing, err)
	}
	signersHash, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: signers_hash: %v", tonerr.ErrBocParsing, err)
	}
	epoch, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: epoch: %v", tonerr.ErrBocParsing, err)
	}
	if !epoch.IsUint64() {
		return nil, fmt.Errorf("%w: epoch does not fit in u64", tonerr.ErrBocParsing)
	}
	return &SignersRotatedMessage{
		SignersHash: "0x" + hex.EncodeToString(signersHash.Bytes()),
		Epoch:       epoch.Uint64(),
	}, nil
}
