package boc

import (
	"fmt"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// RelayerExecuteWrappedMessage recovers only (message_id, source_chain)
// from a wallet-wrapped RelayerExecuteMessage body, following the same
// ref-nesting path a high-load wallet's internal-transfer body wraps
// around an outgoing RelayerExecuteMessage.
type RelayerExecuteWrappedMessage struct {
	MessageID   string
	SourceChain string
}

// ParseRelayerExecuteWrappedMessage walks root.ref0, then that cell's ref1
// (skipping ref0), then ref0, then ref0 again, landing on the cell whose
// ref0/ref1 are message_id/source_chain — matching the reference
// implementation's fixed unwrap path.
func ParseRelayerExecuteWrappedMessage(c *cell.Cell) (*RelayerExecuteWrappedMessage, error) {
	s := cell.NewSlice(c)
	x1, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: ref 1: %v", tonerr.ErrBocParsing, err)
	}
	if _, err := x1.LoadRef(); err != nil {
		return nil, fmt.Errorf("%w: skip ref: %v", tonerr.ErrBocParsing, err)
	}
	x2, err := x1.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: ref 2: %v", tonerr.ErrBocParsing, err)
	}
	x3, err := x2.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: ref 3: %v", tonerr.ErrBocParsing, err)
	}
	x4, err := x3.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: ref 4: %v", tonerr.ErrBocParsing, err)
	}
	messageID, err := x4.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: message_id: %v", tonerr.ErrBocParsing, err)
	}
	sourceChain, err := x4.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: source_chain: %v", tonerr.ErrBocParsing, err)
	}
	return &RelayerExecuteWrappedMessage{MessageID: messageID, SourceChain: sourceChain}, nil
}
