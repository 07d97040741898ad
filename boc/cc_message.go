package boc

import (
	"fmt"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/tonaddr"
)

// TonCCMessage is the gateway's message-approved log body ("approval log").
// Like CallContract it carries no opcode field of its own; the trace
// parser gates on the transaction out-message opcode before decoding.
type TonCCMessage struct {
	MessageID          string
	SourceChain        string
	SourceAddress      string
	DestinationChain   string
	DestinationAddress string // "0x<hex32>" form, fixed TonWorkchain
	PayloadHash        [32]byte
}

// ParseTonCCMessage decodes a TonCCMessage body cell.
func ParseTonCCMessage(c *cell.Cell) (*TonCCMessage, error) {
	s := cell.NewSlice(c)
	messageID, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: message_id: %v", tonerr.ErrBocParsing, err)
	}
	sourceChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: source_chain: %v", tonerr.ErrBocParsing, err)
	}
	sourceAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: source_address: %v", tonerr.ErrBocParsing, err)
	}
	inner, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: inner: %v", tonerr.ErrBocParsing, err)
	}
	payloadHash, err := inner.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: payload_hash: %v", tonerr.ErrBocParsing, err)
	}
	destAddrHash, err := inner.LoadRefBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_address: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := inner.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}

	var hash [32]byte
	copy(hash[32-len(destAddrHash):], destAddrHash)
	addr := tonaddr.Address{Workchain: TonWorkchain, Hash: hash}

	return &TonCCMessage{
		MessageID:          messageID,
		SourceChain:        sourceChain,
		SourceAddress:      sourceAddress,
		DestinationChain:   destChain,
		DestinationAddress: addr.Hex0x(),
		PayloadHash:        payloadHash,
	}, nil
}
