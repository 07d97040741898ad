package boc

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/tonaddr"
)

// RelayerExecuteMessage is the egress body submitted to the gateway's
// execute entrypoint, wrapping a resolved GMP call for on-chain execution.
type RelayerExecuteMessage struct {
	MessageID          string
	SourceChain        string
	SourceAddress      string
	DestinationChain   string
	DestinationAddress tonaddr.Address
	Payload            []byte // raw bytes; hex-without-prefix on the wire
	RelayerAddress     tonaddr.Address
}

// PayloadHash computes keccak256(Payload), the value embedded in the
// message body.
func (m RelayerExecuteMessage) PayloadHash() [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(m.Payload)
	copy(out[:], h.Sum(nil))
	return out
}

// PayloadHashHex is PayloadHash formatted as "0x"-prefixed hex.
func (m RelayerExecuteMessage) PayloadHashHex() string {
	h := m.PayloadHash()
	return "0x" + hex.EncodeToString(h[:])
}

// Build encodes the message: opcode + ref(message{message_id, source_chain,
// source_address, ref inner{ref payload, ref destination_address,
// ref destination_chain, payload_hash}}) + relayer_address.
func (m RelayerExecuteMessage) Build() (*cell.Cell, error) {
	inner, err := cell.NewBuilder().
		StoreRefBytes(m.Payload).
		StoreRefBytes(m.DestinationAddress.Hash[:]).
		StoreRefString(m.DestinationChain).
		StoreUint(256, hashToBigInt(m.PayloadHash())).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: inner: %v", tonerr.ErrBocEncoding, err)
	}
	message, err := cell.NewBuilder().
		StoreRefString(m.MessageID).
		StoreRefString(m.SourceChain).
		StoreRefString(m.SourceAddress).
		StoreRef(inner).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", tonerr.ErrBocEncoding, err)
	}
	c, err := cell.NewBuilder().
		StoreUint64(32, uint64(OpRelayerExecute)).
		StoreRef(message).
		StoreAddress(cell.Address{Workchain: m.RelayerAddress.Workchain, Hash: m.RelayerAddress.Hash}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}
