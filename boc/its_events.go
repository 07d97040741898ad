package boc

import (
	"fmt"
	"math/big"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
)

// ITSInterchainTokenDeploymentStarted is the ITS contract's
// token-deployment-started log body.
type ITSInterchainTokenDeploymentStarted struct {
	DestinationChain string
	TokenID          *big.Int
	TokenName        string
	TokenSymbol      string
	Decimals         uint8
}

// ParseITSInterchainTokenDeploymentStarted decodes the body cell.
func ParseITSInterchainTokenDeploymentStarted(c *cell.Cell) (*ITSInterchainTokenDeploymentStarted, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpInterchainTokenDeploymentStartedLog); err != nil {
		return nil, err
	}
	tokenID, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: token_id: %v", tonerr.ErrBocParsing, err)
	}
	tokenName, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: token_name: %v", tonerr.ErrBocParsing, err)
	}
	tokenSymbol, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: token_symbol: %v", tonerr.ErrBocParsing, err)
	}
	decimals, err := s.LoadUint64(8)
	if err != nil {
		return nil, fmt.Errorf("%w: decimals: %v", tonerr.ErrBocParsing, err)
	}
	if _, err := s.LoadRef(); err != nil { // minter ref: unused by this adapter
		return nil, fmt.Errorf("%w: minter ref: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	return &ITSInterchainTokenDeploymentStarted{
		DestinationChain: destChain,
		TokenID:          tokenID,
		TokenName:        tokenName,
		TokenSymbol:      tokenSymbol,
		Decimals:         uint8(decimals),
	}, nil
}

// ITSInterchainTransfer is the ITS contract's interchain-transfer log body.
type ITSInterchainTransfer struct {
	TokenID            *big.Int
	SenderAddress       cell.Address
	DestinationChain    string
	DestinationAddress  string
	JettonAmount        *big.Int
	Data                []byte
}

// ParseITSInterchainTransfer decodes the body cell.
func ParseITSInterchainTransfer(c *cell.Cell) (*ITSInterchainTransfer, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpInterchainTransferLog); err != nil {
		return nil, err
	}
	tokenID, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: token_id: %v", tonerr.ErrBocParsing, err)
	}
	senderRef, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: sender_address ref: %v", tonerr.ErrBocParsing, err)
	}
	senderHash, err := senderRef.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: sender_address: %v", tonerr.ErrBocParsing, err)
	}
	var senderHashArr [32]byte
	senderHash.FillBytes(senderHashArr[:])
	sender := cell.Address{Workchain: TonWorkchain, Hash: senderHashArr}

	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	destAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_address: %v", tonerr.ErrBocParsing, err)
	}
	jettonAmount, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: jetton_amount: %v", tonerr.ErrBocParsing, err)
	}
	data, err := s.LoadRefBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", tonerr.ErrBocParsing, err)
	}
	return &ITSInterchainTransfer{
		TokenID:            tokenID,
		SenderAddress:      sender,
		DestinationChain:   destChain,
		DestinationAddress: destAddress,
		JettonAmount:       jettonAmount,
		Data:               data,
	}, nil
}

// ITSLinkTokenStarted is the ITS contract's link-token-started log body.
// TokenManagerType is carried as its raw on-chain integer code; the trace
// parser reports that integer as is, with no mapping to a symbolic name.
type ITSLinkTokenStarted struct {
	TokenID               *big.Int
	DestinationChain      string
	SourceTokenAddress    cell.Address
	DestinationTokenAddress string
	TokenManagerType      uint64
}

// ParseITSLinkTokenStarted decodes the body cell.
func ParseITSLinkTokenStarted(c *cell.Cell) (*ITSLinkTokenStarted, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpLinkTokenStartedLog); err != nil {
		return nil, err
	}
	tokenID, err := s.LoadUint(256)
	if err != nil {
		return nil, fmt.Errorf("%w: token_id: %v", tonerr.ErrBocParsing, err)
	}
	destChain, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_chain: %v", tonerr.ErrBocParsing, err)
	}
	sourceRef, err := s.LoadRefSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: source_token_address ref: %v", tonerr.ErrBocParsing, err)
	}
	sourceAddr, err := sourceRef.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: source_token_address: %v", tonerr.ErrBocParsing, err)
	}
	destTokenAddress, err := s.LoadRefString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination_token_address: %v", tonerr.ErrBocParsing, err)
	}
	tokenManagerType, err := s.LoadUint64(8)
	if err != nil {
		return nil, fmt.Errorf("%w: token_manager_type: %v", tonerr.ErrBocParsing, err)
	}
	return &ITSLinkTokenStarted{
		TokenID:                 tokenID,
		DestinationChain:        destChain,
		SourceTokenAddress:      sourceAddr,
		DestinationTokenAddress: destTokenAddress,
		TokenManagerType:        tokenManagerType,
	}, nil
}

// ITSTokenMetadataRegistered is the ITS contract's
// token-metadata-registered log body.
type ITSTokenMetadataRegistered struct {
	Address  cell.Address
	Decimals uint8
}

// ParseITSTokenMetadataRegistered decodes the body cell.
func ParseITSTokenMetadataRegistered(c *cell.Cell) (*ITSTokenMetadataRegistered, error) {
	s := cell.NewSlice(c)
	if err := s.LoadOpcode(OpTokenMetadataRegisteredLog); err != nil {
		return nil, err
	}
	address, err := s.LoadAddress()
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", tonerr.ErrBocParsing, err)
	}
	decimals, err := s.LoadUint64(8)
	if err != nil {
		return nil, fmt.Errorf("%w: decimals: %v", tonerr.ErrBocParsing, err)
	}
	return &ITSTokenMetadataRegistered{Address: address, Decimals: uint8(decimals)}, nil
}
