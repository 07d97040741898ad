package traceparser

import (
	"encoding/hex"
	"fmt"

	"ton-gmp-adapter/boc"
	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/tonaddr"
)

// cellAddrString renders a cell.Address the way tonaddr does, since
// cell.Address itself carries no formatting methods.
func cellAddrString(a cell.Address) string {
	return tonaddr.Address{Workchain: a.Workchain, Hash: a.Hash}.String()
}

// Real TVM/TON exit and action-phase result codes this adapter gates on.
// ExitCodeOutOfGas (13) is the standard TVM compute-phase "out of gas"
// exception code; ActionResultInsufficientGas (37) is the action-phase
// result code pinned by the 5-transaction ExecuteInsufficientGas shape.
const (
	ExitCodeOutOfGas            = 13
	ActionResultInsufficientGas = 37
)

// txContext is what every parser's checkMatch/parse needs: the transaction
// itself, its position, and the full trace (for trace-shaped parsers like
// ExecuteInsufficientGas). The allowed account address the parser is gated
// against is passed to checkMatch separately.
type txContext struct {
	tx    chain.Transaction
	index int
	trace *chain.Trace
}

// parser is implemented once per row of 's parser inventory.
// Ordering of the parsers slice in pipeline.go is the contract: within a
// transaction, the first parser whose checkMatch returns true runs.
//
// allowedAddress picks which of the two watched accounts (gateway or
// gas-service) this parser is gated against — ties each
// parser to one account, never both.
type parser interface {
	allowedAddress(gatewayAddr, gasServiceAddr string) string
	checkMatch(ctx txContext, allowed string) bool
	parse(ctx txContext) (Event, error)
}

// gatewayParser and gasServiceParser are embedded by parser implementations
// to supply the fixed half of the parser interface: which watched account
// ("gateway tx" / "gas-service tx") each parser is gated to.
type gatewayParser struct{}

func (gatewayParser) allowedAddress(gatewayAddr, _ string) string { return gatewayAddr }

type gasServiceParser struct{}

func (gasServiceParser) allowedAddress(_, gasServiceAddr string) string { return gasServiceAddr }

func decodeOutBody(m chain.Message) (*cell.Cell, error) {
	return cell.ParseBoCBase64(m.Body)
}

func hash0x(hexHash string) string {
	return "0x" + hexHash
}

// --- ExecuteInsufficientGas -------------------------------------------------

type executeInsufficientGasParser struct{ gatewayParser }

func (p executeInsufficientGasParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed {
		return false
	}
	txs := ctx.trace.Transactions
	if len(txs) == 3 && ctx.index == 2 {
		return ctx.tx.Description.ComputePhase.ExitCode == ExitCodeOutOfGas &&
			ctx.tx.InMessage != nil && ctx.tx.InMessage.HasOpcode(boc.OpRelayerExecute)
	}
	if len(txs) == 5 && ctx.index == 3 {
		for _, m := range ctx.tx.OutMessages {
			if m.HasOpcode(boc.OpNullifiedSuccessfully) {
				return ctx.tx.Description.Action.ResultCode == ActionResultInsufficientGas
			}
		}
	}
	return false
}

func (p executeInsufficientGasParser) parse(ctx txContext) (Event, error) {
	return Event{
		Kind:    EventCannotExecuteMessageV2,
		TraceID: ctx.trace.TraceID,
		Reason:  ReasonInsufficientGas,
		Details: ctx.trace.TraceID,
	}, nil
}

// --- MessageApproved ---------------------------------------------------

type messageApprovedParser struct{ gatewayParser }

func (p messageApprovedParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed || len(ctx.tx.OutMessages) == 0 {
		return false
	}
	m := ctx.tx.OutMessages[0]
	return m.IsLog() && m.HasOpcode(boc.OpMessageApproved)
}

func (p messageApprovedParser) parse(ctx txContext) (Event, error) {
	c, err := decodeOutBody(ctx.tx.OutMessages[0])
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseTonCCMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:               EventMessageApproved,
		TraceID:            ctx.trace.TraceID,
		MessageID:          msg.MessageID,
		SourceChain:        msg.SourceChain,
		SourceAddress:      msg.SourceAddress,
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	}, nil
}

// --- MessageExecuted -----------------------------------------------------

type messageExecutedParser struct{ gatewayParser }

func (p messageExecutedParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed || len(ctx.tx.OutMessages) < 2 {
		return false
	}
	a, b := ctx.tx.OutMessages[0], ctx.tx.OutMessages[1]
	return (a.HasOpcode(boc.OpNullifiedSuccessfully) && b.HasOpcode(boc.OpGatewayExecute)) ||
		(b.HasOpcode(boc.OpNullifiedSuccessfully) && a.HasOpcode(boc.OpGatewayExecute))
}

func (p messageExecutedParser) parse(ctx txContext) (Event, error) {
	var logMsg chain.Message
	for _, m := range ctx.tx.OutMessages[:2] {
		if m.HasOpcode(boc.OpNullifiedSuccessfully) {
			logMsg = m
			break
		}
	}
	c, err := decodeOutBody(logMsg)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseNullifiedSuccessfullyMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:               EventMessageExecuted,
		TraceID:            ctx.trace.TraceID,
		MessageID:          msg.MessageID,
		SourceChain:        msg.SourceChain,
		SourceAddress:      msg.SourceAddress,
		DestinationChain:   msg.DestinationChain,
		Payload:            msg.Payload,
	}, nil
}

// --- CallContract --------------------------------------------------------

type callContractParser struct{ gatewayParser }

func (p callContractParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed || len(ctx.tx.OutMessages) == 0 {
		return false
	}
	return ctx.tx.OutMessages[0].HasOpcode(boc.OpCallContract)
}

func (p callContractParser) parse(ctx txContext) (Event, error) {
	c, err := decodeOutBody(ctx.tx.OutMessages[0])
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseCallContract(c)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		Kind:               EventCall,
		TraceID:            ctx.trace.TraceID,
		MessageID:          hash0x(ctx.tx.Hash),
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		Payload:            msg.Payload,
		PayloadHash:        msg.PayloadHash,
	}
	ev.pairKey = MessageMatchingKey{
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	}
	ev.hasPairKey = true
	return ev, nil
}

// --- NativeGasPaid (paired) ----------------------------------------------

type nativeGasPaidParser struct{ gasServiceParser }

func (p nativeGasPaidParser) matchMsg(ctx txContext, allowed string) (chain.Message, bool) {
	if ctx.tx.Account != allowed {
		return chain.Message{}, false
	}
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(boc.OpPayNativeGasForContractCall) || m.HasOpcode(boc.OpPayGas) {
			return m, true
		}
	}
	return chain.Message{}, false
}

func (p nativeGasPaidParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := p.matchMsg(ctx, allowed)
	return ok
}

func (p nativeGasPaidParser) parse(ctx txContext) (Event, error) {
	m, _ := p.matchMsg(ctx, ctx.tx.Account)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseNativeGasPaidMessage(c)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		Kind:               EventGasCredit,
		TraceID:            ctx.trace.TraceID,
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
		PaymentAmount:      msg.MsgValue,
	}
	ev.pairKey = MessageMatchingKey{
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	}
	ev.hasPairKey = true
	return ev, nil
}

// --- NativeGasAdded (unpaired) --------------------------------------------

type nativeGasAddedParser struct{ gasServiceParser }

func (p nativeGasAddedParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed {
		return false
	}
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(boc.OpAddNativeGas) {
			return true
		}
	}
	return false
}

func (p nativeGasAddedParser) parse(ctx txContext) (Event, error) {
	var found chain.Message
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(boc.OpAddNativeGas) {
			found = m
			break
		}
	}
	c, err := decodeOutBody(found)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseNativeGasAddedMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:          EventGasCredit,
		TraceID:       ctx.trace.TraceID,
		MessageID:     hash0x(hex.EncodeToString(msg.TxHash[:])),
		PaymentAmount: msg.MsgValue,
	}, nil
}

// --- NativeGasRefunded -----------------------------------------------------

type nativeGasRefundedParser struct{ gasServiceParser }

func (p nativeGasRefundedParser) checkMatch(ctx txContext, allowed string) bool {
	if ctx.tx.Account != allowed || len(ctx.tx.OutMessages) < 2 {
		return false
	}
	return ctx.tx.OutMessages[1].HasOpcode(boc.OpNativeRefund)
}

func (p nativeGasRefundedParser) parse(ctx txContext) (Event, error) {
	c, err := decodeOutBody(ctx.tx.OutMessages[1])
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseNativeRefundMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:          EventGasRefunded,
		TraceID:       ctx.trace.TraceID,
		MessageID:     hash0x(hex.EncodeToString(msg.TxHash[:])),
		PaymentAmount: msg.Amount,
	}, nil
}

// --- JettonGasPaid / JettonGasAdded (share an opcode, disambiguated by
// which schema decodes) ----------------------------------------------------

type jettonGasPaidParser struct{ gasServiceParser }

func (p jettonGasPaidParser) findMsg(ctx txContext, allowed string) (chain.Message, bool) {
	if ctx.tx.Account != allowed {
		return chain.Message{}, false
	}
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(boc.OpUserBalanceSubtracted) {
			return m, true
		}
	}
	return chain.Message{}, false
}

func (p jettonGasPaidParser) checkMatch(ctx txContext, allowed string) bool {
	m, ok := p.findMsg(ctx, allowed)
	if !ok {
		return false
	}
	c, err := decodeOutBody(m)
	if err != nil {
		return false
	}
	_, err = boc.ParseJettonGasPaidMessage(c)
	return err == nil
}

func (p jettonGasPaidParser) parse(ctx txContext) (Event, error) {
	m, _ := p.findMsg(ctx, ctx.tx.Account)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseJettonGasPaidMessage(c)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		Kind:               EventGasCredit,
		TraceID:            ctx.trace.TraceID,
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
		PaymentAmount:      msg.Amount,
		TokenID:            cellAddrString(msg.Minter),
	}
	ev.pairKey = MessageMatchingKey{
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	}
	ev.hasPairKey = true
	return ev, nil
}

type jettonGasAddedParser struct{ gasServiceParser }

func (p jettonGasAddedParser) findMsg(ctx txContext, allowed string) (chain.Message, bool) {
	if ctx.tx.Account != allowed {
		return chain.Message{}, false
	}
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(boc.OpUserBalanceSubtracted) {
			return m, true
		}
	}
	return chain.Message{}, false
}

func (p jettonGasAddedParser) checkMatch(ctx txContext, allowed string) bool {
	m, ok := p.findMsg(ctx, allowed)
	if !ok {
		return false
	}
	c, err := decodeOutBody(m)
	if err != nil {
		return false
	}
	if _, err := boc.ParseJettonGasPaidMessage(c); err == nil {
		return false // the paid schema already claimed this message
	}
	_, err = boc.ParseJettonGasAddedMessage(c)
	return err == nil
}

func (p jettonGasAddedParser) parse(ctx txContext) (Event, error) {
	m, _ := p.findMsg(ctx, ctx.tx.Account)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseJettonGasAddedMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:          EventGasCredit,
		TraceID:       ctx.trace.TraceID,
		MessageID:     hash0x(hex.EncodeToString(msg.TxHash[:])),
		PaymentAmount: msg.Amount,
		TokenID:       cellAddrString(msg.Minter),
	}, nil
}

// --- ITS parsers -----------------------------------------------------------

func findOutMsgWithOpcode(ctx txContext, allowed string, op uint32) (chain.Message, bool) {
	if ctx.tx.Account != allowed {
		return chain.Message{}, false
	}
	for _, m := range ctx.tx.OutMessages {
		if m.HasOpcode(op) {
			return m, true
		}
	}
	return chain.Message{}, false
}

type itsInterchainTokenDeploymentStartedParser struct{ gatewayParser }

func (p itsInterchainTokenDeploymentStartedParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := findOutMsgWithOpcode(ctx, allowed, boc.OpInterchainTokenDeploymentStartedLog)
	return ok
}
func (p itsInterchainTokenDeploymentStartedParser) parse(ctx txContext) (Event, error) {
	m, _ := findOutMsgWithOpcode(ctx, ctx.tx.Account, boc.OpInterchainTokenDeploymentStartedLog)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseITSInterchainTokenDeploymentStarted(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:             EventITSInterchainTokenDeploymentStarted,
		TraceID:          ctx.trace.TraceID,
		DestinationChain: msg.DestinationChain,
		Details:          fmt.Sprintf("%s/%s/%d", msg.TokenName, msg.TokenSymbol, msg.Decimals),
	}, nil
}

type itsInterchainTransferParser struct{ gatewayParser }

func (p itsInterchainTransferParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := findOutMsgWithOpcode(ctx, allowed, boc.OpInterchainTransferLog)
	return ok
}
func (p itsInterchainTransferParser) parse(ctx txContext) (Event, error) {
	m, _ := findOutMsgWithOpcode(ctx, ctx.tx.Account, boc.OpInterchainTransferLog)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseITSInterchainTransfer(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:                EventITSInterchainTransfer,
		TraceID:             ctx.trace.TraceID,
		DestinationChain:    msg.DestinationChain,
		DestinationAddress:  msg.DestinationAddress,
		SourceAddress:       cellAddrString(msg.SenderAddress),
		Payload:             msg.Data,
		PaymentAmount:       msg.JettonAmount,
	}, nil
}

type itsLinkTokenStartedParser struct{ gatewayParser }

func (p itsLinkTokenStartedParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := findOutMsgWithOpcode(ctx, allowed, boc.OpLinkTokenStartedLog)
	return ok
}
func (p itsLinkTokenStartedParser) parse(ctx txContext) (Event, error) {
	m, _ := findOutMsgWithOpcode(ctx, ctx.tx.Account, boc.OpLinkTokenStartedLog)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseITSLinkTokenStarted(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:                EventITSLinkTokenStarted,
		TraceID:             ctx.trace.TraceID,
		DestinationChain:    msg.DestinationChain,
		SourceAddress:       cellAddrString(msg.SourceTokenAddress),
		DestinationAddress:  msg.DestinationTokenAddress,
		Details:             fmt.Sprintf("token_manager_type=%d", msg.TokenManagerType),
	}, nil
}

type itsTokenMetadataRegisteredParser struct{ gatewayParser }

func (p itsTokenMetadataRegisteredParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := findOutMsgWithOpcode(ctx, allowed, boc.OpTokenMetadataRegisteredLog)
	return ok
}
func (p itsTokenMetadataRegisteredParser) parse(ctx txContext) (Event, error) {
	m, _ := findOutMsgWithOpcode(ctx, ctx.tx.Account, boc.OpTokenMetadataRegisteredLog)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseITSTokenMetadataRegistered(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:          EventITSTokenMetadataRegistered,
		TraceID:       ctx.trace.TraceID,
		SourceAddress: cellAddrString(msg.Address),
		Details:       fmt.Sprintf("decimals=%d", msg.Decimals),
	}, nil
}

// --- SignersRotated ----------------------------------------------------

type signersRotatedParser struct{ gatewayParser }

func (p signersRotatedParser) checkMatch(ctx txContext, allowed string) bool {
	_, ok := findOutMsgWithOpcode(ctx, allowed, boc.OpSignersRotatedLog)
	return ok
}
func (p signersRotatedParser) parse(ctx txContext) (Event, error) {
	m, _ := findOutMsgWithOpcode(ctx, ctx.tx.Account, boc.OpSignersRotatedLog)
	c, err := decodeOutBody(m)
	if err != nil {
		return Event{}, err
	}
	msg, err := boc.ParseSignersRotatedMessage(c)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:        EventSignersRotated,
		TraceID:     ctx.trace.TraceID,
		SignersHash: msg.SignersHash,
		Epoch:       msg.Epoch,
	}, nil
}
