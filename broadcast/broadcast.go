// Package broadcast implements C9: the three egress task handlers that
// turn a GMP-API task into a signed high-load wallet message posted to the
// chain RPC.
package broadcast

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"ton-gmp-adapter/boc"
	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/gas"
	"ton-gmp-adapter/gmpapi"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/queryid"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tonaddr"
	"ton-gmp-adapter/wallet"
)

// RefundableMultiplier scales the per-message gas budget for approve-batch
// sends, over-provisioning so unused gas is refunded rather than starving
// the send.
const RefundableMultiplier = 2

// RefundDust is the fixed value attached to a native-refund send; the
// gas-service contract forwards the actual refund amount itself.
var RefundDust = big.NewInt(1_000_000) // 0.001 TON

// Pipeline wires the collaborators every broadcast task handler needs.
type Pipeline struct {
	Wallets      *wallet.Pool
	Builder      *wallet.Builder
	QueryIDs     *queryid.Reservations
	RPC          rpcclient.Client
	Estimator    *gas.Estimator
	GatewayAddr  tonaddr.Address
	GasServiceAddr tonaddr.Address
	ChainName    string
	logger       *log.Entry
}

// New returns a Pipeline over the given collaborators.
func New(wallets *wallet.Pool, builder *wallet.Builder, queryIDs *queryid.Reservations, rpc rpcclient.Client, estimator *gas.Estimator, gateway, gasService tonaddr.Address, chainName string) *Pipeline {
	return &Pipeline{
		Wallets:        wallets,
		Builder:        builder,
		QueryIDs:       queryIDs,
		RPC:            rpc,
		Estimator:      estimator,
		GatewayAddr:    gateway,
		GasServiceAddr: gasService,
		ChainName:      chainName,
		logger:         log.WithField("component", "broadcast"),
	}
}

func errResult(err error) gmpapi.TaskResult {
	return gmpapi.TaskResult{Status: gmpapi.StatusError, Err: err}
}

// send acquires a wallet, reserves its next query-id, builds and signs the
// single-action external message, posts it, and releases the wallet on
// every path (success, error, or cancellation).
func (p *Pipeline) send(ctx context.Context, dest tonaddr.Address, value *big.Int, body *cell.Cell) (gmpapi.TaskResult, error) {
	w, err := p.Wallets.Acquire(ctx)
	if err != nil {
		return errResult(err), err
	}
	defer p.Wallets.Release(ctx, w)

	reservation, err := p.QueryIDs.Next(w.Address.String(), w.TimeoutS)
	if err != nil {
		return errResult(err), err
	}

	action := wallet.Action{Destination: dest, Value: value, Bounce: true, Body: body}
	bocBase64, err := p.Builder.BuildBase64(w, []wallet.Action{action}, reservation.QueryID(), value)
	if err != nil {
		return errResult(err), err
	}

	result, err := p.RPC.PostMessage(ctx, bocBase64)
	if err != nil {
		return errResult(err), err
	}
	zap.L().Sugar().Infof("broadcast: posted message from wallet %s, tx_hash=%s", w.Address.String(), result.MessageHash)
	return gmpapi.TaskResult{TxHash: result.MessageHash, Status: gmpapi.StatusSuccess}, nil
}

// BroadcastProverMessage is the approve-batch task handler.
func (p *Pipeline) BroadcastProverMessage(ctx context.Context, txBlobHex string) gmpapi.TaskResult {
	raw, err := hex.DecodeString(txBlobHex)
	if err != nil {
		return errResult(fmt.Errorf("%w: tx_blob_hex: %v", tonerr.ErrBocEncoding, err))
	}
	blobCell, err := cell.ParseBoC(raw)
	if err != nil {
		return errResult(err)
	}
	approved, err := boc.ParseApproveMessages(blobCell)
	if err != nil {
		return errResult(err)
	}
	if len(approved.Messages) == 0 {
		return errResult(fmt.Errorf("%w: approve_messages batch is empty", tonerr.ErrBocParsing))
	}

	value := new(big.Int).SetUint64(p.Estimator.EstimateApproveMessages(len(approved.Messages)) * RefundableMultiplier)

	result, err := p.send(ctx, p.GatewayAddr, value, blobCell)
	if err != nil {
		p.logger.WithError(err).Warn("broadcast: approve batch send failed")
		return result
	}
	first := approved.Messages[0]
	result.MessageID = first.MessageID
	result.SourceChain = first.SourceChain
	return result
}

// BroadcastExecuteMessage is the execute task handler.
func (p *Pipeline) BroadcastExecuteMessage(ctx context.Context, task gmpapi.Task, relayerAddress tonaddr.Address) gmpapi.TaskResult {
	payload, err := base64.StdEncoding.DecodeString(task.Payload)
	if err != nil {
		return errResult(fmt.Errorf("%w: payload: %v", tonerr.ErrBocEncoding, err))
	}

	availableGas, ok := new(big.Int).SetString(task.AvailableGas, 10)
	if !ok {
		return errResult(fmt.Errorf("%w: available_gas %q", tonerr.ErrBocEncoding, task.AvailableGas))
	}
	needed := new(big.Int).SetUint64(p.Estimator.EstimateExecute(len(payload)))
	if availableGas.Cmp(needed) < 0 {
		return errResult(fmt.Errorf("%w", tonerr.ErrInsufficientGas))
	}

	destAddr, err := tonaddr.ParseHex0x(task.DestinationAddr)
	if err != nil {
		return errResult(err)
	}

	msg := boc.RelayerExecuteMessage{
		MessageID:          task.MessageID,
		SourceChain:        task.SourceChain,
		SourceAddress:      task.SourceAddress,
		DestinationChain:   p.ChainName,
		DestinationAddress: destAddr,
		Payload:            payload,
		RelayerAddress:     relayerAddress,
	}
	body, err := msg.Build()
	if err != nil {
		return errResult(err)
	}

	result, err := p.send(ctx, p.GatewayAddr, availableGas, body)
	if err != nil {
		p.logger.WithError(err).Warn("broadcast: execute send failed")
		return result
	}
	result.MessageID = task.MessageID
	result.SourceChain = task.SourceChain
	return result
}

// BroadcastRefundMessage is the native-refund task handler.
// Jetton refunds are rejected: only native TON gas refunds are supported.
func (p *Pipeline) BroadcastRefundMessage(ctx context.Context, task gmpapi.Task, remainingBalance *big.Int) gmpapi.TaskResult {
	if task.TokenID != "" {
		return errResult(fmt.Errorf("%w", tonerr.ErrJettonRefundUnsupported))
	}

	txHashBytes, err := hex.DecodeString(task.MessageID)
	if err != nil || len(txHashBytes) != 32 {
		return errResult(fmt.Errorf("%w: message_id must be a 32-byte hex hash", tonerr.ErrBocEncoding))
	}
	var txHash [32]byte
	copy(txHash[:], txHashBytes)

	destAddr, err := tonaddr.ParseRaw(task.DestinationAddr)
	if err != nil {
		return errResult(err)
	}

	budget := new(big.Int).SetUint64(p.Estimator.EstimateNativeGasRefund())
	amount := new(big.Int).Sub(remainingBalance, budget)
	if amount.Sign() < 0 {
		return errResult(fmt.Errorf("%w: remaining balance below refund budget", tonerr.ErrInsufficientGas))
	}

	msg := boc.NativeRefundMessage{TxHash: txHash, Address: destAddr, Amount: amount}
	body, err := msg.Build()
	if err != nil {
		return errResult(err)
	}

	result, err := p.send(ctx, p.GasServiceAddr, RefundDust, body)
	if err != nil {
		p.logger.WithError(err).Warn("broadcast: refund send failed")
	}
	return result
}
