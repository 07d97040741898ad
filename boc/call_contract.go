package boc

import (
	"fmt"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// CallContract is the gateway's outbound call-contract log body. It carries
// no opcode of its own in the reference implementation — opcode matching
// happens one layer up, against the transaction's out-message opcode field.
type CallContract struct {
	DestinationChain   string
	DestinationAddress string
	Payload            []byte
	SourceAddress      cell.Address
	PayloadHash        [32]byte
}

// ParseCallContract decodes a CallContract body cell.
func ParseCallContract(c *cell.Cell) (*CallContract, error) {
	s := cell.NewSlice(c)
	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: dest_chain: %v", tonerr.ErrBocParsing, err)
	}
	destAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: dest_address: %v", tonerr.ErrBocParsing, err)
	}
	payload, err := s.LoadRefBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", tonerr.ErrBocParsing, err)
	}
	sourceAddress, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: source_address: %v", tonerr.ErrBocParsing, err)
	}
	payloadHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: payload_hash: %v", tonerr.ErrBocParsing, err)
	}
	return &CallContract{
		DestinationChain:   destChain,
		DestinationAddress: destAddress,
		Payload:            payload,
		SourceAddress:      sourceAddress,
		PayloadHash:        payloadHash,
	}, nil
}
