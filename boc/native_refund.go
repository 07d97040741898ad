package boc

import (
	"fmt"
	"math/big"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/tonaddr"
)

// NativeRefundMessage is the egress body submitted to the gas-service's
// native-refund entrypoint.
type NativeRefundMessage struct {
	TxHash  [32]byte
	Address tonaddr.Address
	Amount  *big.Int
}

// Build encodes the message: opcode + tx_hash + address + coins.
func (m NativeRefundMessage) Build() (*cell.Cell, error) {
	c, err := cell.NewBuilder().
		StoreUint64(32, uint64(OpNativeRefund)).
		StoreHash(m.TxHash).
		StoreAddress(cell.Address{Workchain: m.Address.Workchain, Hash: m.Address.Hash}).
		StoreCoins(m.Amount).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

// ParseNativeRefundMessage decodes a NativeRefundMessage body cell.
func ParseNativeRefundMessage(c *cell.Cell) (*NativeRefundMessage, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpNativeRefund); err != nil {
		return nil, err
	}
	txHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: tx_hash: %v", tonerr.ErrBocParsing, err)
	}
	addr, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", tonerr.ErrBocParsing, err)
	}
	amount, err := s.LoadCoins()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", tonerr.ErrBocParsing, err)
	}
	return &NativeRefundMessage{
		TxHash:  txHash,
		Address: tonaddr.Address{Workchain: addr.Workchain, Hash: addr.Hash},
		Amount:  amount,
	}, nil
}
