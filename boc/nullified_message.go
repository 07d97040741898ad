package boc

import (
	"fmt"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// NullifiedSuccessfullyMessage is the gateway's execution-receipt log body.
type NullifiedSuccessfullyMessage struct {
	MessageID          string
	SourceChain        string
	SourceAddress      string
	DestinationChain   string
	DestinationAddress []byte
	Payload            []byte
}

// ParseNullifiedSuccessfullyMessage decodes a NullifiedSuccessfullyMessage
// body cell.
func ParseNullifiedSuccessfullyMessage(c *cell.Cell) (*NullifiedSuccessfullyMessage, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpNullifiedSuccessfully); err != nil {
		return nil, err
	}
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
	payload, err := inner.LoadRefBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", tonerr.ErrBocParsing, err)
	}
	destAddress, err := inner.LoadRefBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_address: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := inner.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	return &NullifiedSuccessfullyMessage{
		MessageID:          messageID,
		SourceChain:        sourceChain,
		SourceAddress:      sourceAddress,
		DestinationChain:   destChain,
		DestinationAddress: destAddress,
		Payload:            payload,
	}, nil
}
