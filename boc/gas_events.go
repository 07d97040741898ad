package boc

import (
	"fmt"
	"math/big"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// NativeGasPaidMessage is the gas-service's native-gas-paid log body.
type NativeGasPaidMessage struct {
	Sender             cell.Address
	PayloadHash        [32]byte
	MsgValue           *big.Int
	RefundAddress      cell.Address
	DestinationChain   string
	DestinationAddress string
}

// ParseNativeGasPaidMessage decodes a NativeGasPaidMessage body cell. The
// opcode is validated by the caller against the transaction's out-message
// opcode field (OpPayNativeGasForContractCall or OpPayGas), matching the
// reference implementation's trace-level opcode gate.
func ParseNativeGasPaidMessage(c *cell.Cell) (*NativeGasPaidMessage, error) {
	s := cell.NewSlice(c)
	sender, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", tonerr.ErrBocParsing, err)
	}
	payloadHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: payload_hash: %v", tonerr.ErrBocParsing, err)
	}
	msgValueBytes, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: msg_value: %v", tonerr.ErrBocParsing, err)
	}
	msgValue := new(big.Int).SetBytes(msgValueBytes[:])
	refundSlice, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address ref: %v", tonerr.ErrBocParsing, err)
	}
	refundAddress, err := refundSlice.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	destAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_address: %v", tonerr.ErrBocParsing, err)
	}
	return &NativeGasPaidMessage{
		Sender:             sender,
		PayloadHash:        payloadHash,
		MsgValue:           msgValue,
		RefundAddress:      refundAddress,
		DestinationChain:   destChain,
		DestinationAddress: destAddress,
	}, nil
}

// NativeGasAddedMessage is the gas-service's native-gas-added log body: a
// top-up against an already-paid message, so it carries no destination
// fields. Shaped by analogy with JettonGasAddedMessage (same gas_service.fc
// "added" family) since the reference source for this exact struct was not
// present in the retrieved corpus.
type NativeGasAddedMessage struct {
	Sender        cell.Address
	TxHash        [32]byte
	MsgValue      *big.Int
	RefundAddress cell.Address
}

// ParseNativeGasAddedMessage decodes a NativeGasAddedMessage body cell.
func ParseNativeGasAddedMessage(c *cell.Cell) (*NativeGasAddedMessage, error) {
	s := cell.NewSlice(c)
	sender, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", tonerr.ErrBocParsing, err)
	}
	txHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: tx_hash: %v", tonerr.ErrBocParsing, err)
	}
	msgValueBytes, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: msg_value: %v", tonerr.ErrBocParsing, err)
	}
	msgValue := new(big.Int).SetBytes(msgValueBytes[:])
	refundSlice, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address ref: %v", tonerr.ErrBocParsing, err)
	}
	refundAddress, err := refundSlice.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address: %v", tonerr.ErrBocParsing, err)
	}
	return &NativeGasAddedMessage{
		Sender:        sender,
		TxHash:        txHash,
		MsgValue:      msgValue,
		RefundAddress: refundAddress,
	}, nil
}

// NativeGasRefundedMessage is the gas-service's native-refund-issued log
// body.
type NativeGasRefundedMessage struct {
	TxHash  [32]byte
	Address cell.Address
	Amount  *big.Int
}

// ParseNativeGasRefundedMessage decodes a NativeGasRefundedMessage body
// cell.
func ParseNativeGasRefundedMessage(c *cell.Cell) (*NativeGasRefundedMessage, error) {
	s := cell.NewSlice(c)
	txHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: tx_hash: %v", tonerr.ErrBocParsing, err)
	}
	address, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", tonerr.ErrBocParsing, err)
	}
	amount, err := s.LoadCoins()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", tonerr.ErrBocParsing, err)
	}
	return &NativeGasRefundedMessage{TxHash: txHash, Address: address, Amount: amount}, nil
}

// JettonGasPaidMessage is the gas-service's jetton-gas-paid log body.
type JettonGasPaidMessage struct {
	Minter             cell.Address
	Amount             *big.Int
	PayloadHash        [32]byte
	RefundAddress      cell.Address
	DestinationChain   string
	DestinationAddress string
}

// ParseJettonGasPaidMessage decodes a JettonGasPaidMessage body cell.
func ParseJettonGasPaidMessage(c *cell.Cell) (*JettonGasPaidMessage, error) {
	s := cell.NewSlice(c)
	minter, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: minter: %v", tonerr.ErrBocParsing, err)
	}
	amount, err := s.LoadCoins()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", tonerr.ErrBocParsing, err)
	}
	payloadHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: payload_hash: %v", tonerr.ErrBocParsing, err)
	}
	refundSlice, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address ref: %v", tonerr.ErrBocParsing, err)
	}
	refundAddress, err := refundSlice.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	destAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_address: %v", tonerr.ErrBocParsing, err)
	}
	return &JettonGasPaidMessage{
		Minter:             minter,
		Amount:             amount,
		PayloadHash:        payloadHash,
		RefundAddress:      refundAddress,
		DestinationChain:   destChain,
		DestinationAddress: destAddress,
	}, nil
}

// JettonGasAddedMessage is the gas-service's jetton-gas-added log body.
type JettonGasAddedMessage struct {
	Minter        cell.Address
	Sender        cell.Address
	TxHash        [32]byte
	Amount        *big.Int
	RefundAddress cell.Address
}

// ParseJettonGasAddedMessage decodes a JettonGasAddedMessage body cell.
func ParseJettonGasAddedMessage(c *cell.Cell) (*JettonGasAddedMessage, error) {
	s := cell.NewSlice(c)
	minter, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: minter: %v", tonerr.ErrBocParsing, err)
	}
	sender, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", tonerr.ErrBocParsing, err)
	}
	amount, err := s.LoadCoins()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", tonerr.ErrBocParsing, err)
	}
	txHash, err := s.LoadHash()
	if err != nil {
		return nil, fmt.Errorf("%w: tx_hash: %v", tonerr.ErrBocParsing, err)
	}
	refundSlice, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address ref: %v", tonerr.ErrBocParsing, err)
	}
	refundAddress, err := refundSlice.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: refund_address: %v", tonerr.ErrBocParsing, err)
	}
	return &JettonGasAddedMessage{
		Minter:        minter,
		Sender:        sender,
		TxHash:        txHash,
		Amount:        amount,
		RefundAddress: refundAddress,
	}, nil
}
