package boc

import (
	"fmt"
	"math/big"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// ApproveMessage is one entry of an ApproveMessages batch.
type ApproveMessage struct {
	MessageID          string
	SourceChain        string
	SourceAddress      string
	DestinationChain   string
	DestinationAddress []byte
	PayloadHash        *big.Int
}

// ApproveMessages is the gateway's batch-approve body: a proof cell (opaque
// to this adapter) plus a 16-bit-keyed dictionary of ApproveMessage
// entries.
type ApproveMessages struct {
	Proof    *cell.Cell
	Messages []ApproveMessage
}

// ParseApproveMessages decodes an ApproveMessages body cell.
func ParseApproveMessages(c *cell.Cell) (*ApproveMessages, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpApproveMessages); err != nil {
		return nil, err
	}
	proof, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("%w: proof ref: %v", tonerr.ErrBocParsing, err)
	}
	dictCell, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("%w: messages dict ref: %v", tonerr.ErrBocParsing, err)
	}
	dict, err := cell.LoadDict(dictCell)
	if err != nil {
		return nil, fmt.Errorf("%w: messages dict: %v", tonerr.ErrBocParsing, err)
	}

	msgs := make([]ApproveMessage, 0, dict.Len())
	for _, k := range dict.Keys() {
		entryCell, _ := dict.Get(k)
		msg, err := parseApproveMessage(entryCell)
		if err != nil {
			return nil, fmt.Errorf("%w: approve message entry %d: %v", tonerr.ErrBocParsing, k, err)
		}
		msgs = append(msgs, msg)
	}
	return &ApproveMessages{Proof: proof, Messages: msgs}, nil
}

func parseApproveMessage(c *cell.Cell) (ApproveMessage, error) {
	s := cell.NewSlice(c)
	payloadHash, err := s.LoadUint(256)
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("payload_hash: %w", err)
	}
	messageID, err := s.LoadRefString()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("message_id: %w", err)
	}
	sourceChain, err := s.LoadRefString()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("source_chain: %w", err)
	}
	sourceAddress, err := s.LoadRefString()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("source_address: %w", err)
	}
	inner, err := s.LoadRefSlice()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("inner: %w", err)
	}
	destinationAddress, err := inner.LoadRefBytes()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("destination_address: %w", err)
	}
	destinationChain, err := inner.LoadRefString()
	if err != nil {
		return ApproveMessage{}, fmt.Errorf("destination_chain: %w", err)
	}
	return ApproveMessage{
		MessageID:          messageID,
		SourceChain:        sourceChain,
		SourceAddress:      sourceAddress,
		DestinationChain:   destinationChain,
		DestinationAddress: destinationAddress,
		PayloadHash:        payloadHash,
	}, nil
}

// BuildApproveMessages encodes an ApproveMessages body cell from a proof
// cell and an ordered list of messages; messages are assigned sequential
// dictionary keys starting at 0.
func BuildApproveMessages(proof *cell.Cell, messages []ApproveMessage) (*cell.Cell, error) {
	dict := cell.NewDict()
	for i, m := range messages {
		entry, err := buildApproveMessage(m)
		if err != nil {
			return nil, fmt.Errorf("%w: approve message entry %d: %v", tonerr.ErrBocEncoding, i, err)
		}
		dict.Set(uint16(i), entry)
	}
	dictCell, err := dict.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: messages dict: %v", tonerr.ErrBocEncoding, err)
	}
	c, err := cell.NewBuilder().
		StoreUint64(32, uint64(OpApproveMessages)).
		StoreRef(proof).
		StoreRef(dictCell).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

func buildApproveMessage(m ApproveMessage) (*cell.Cell, error) {
	inner, err := cell.NewBuilder().
		StoreRefBytes(m.DestinationAddress).
		StoreRefString(m.DestinationChain).
		Build()
	if err != nil {
		return nil, fmt.Errorf("inner: %w", err)
	}
	return cell.NewBuilder().
		StoreUint(256, m.PayloadHash).
		StoreRefString(m.MessageID).
		StoreRefString(m.SourceChain).
		StoreRefString(m.SourceAddress).
		StoreRef(inner).
		Build()
}
