package traceparser

import (
	"context"
	"math/big"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/gas"
	"ton-gmp-adapter/price"
	"ton-gmp-adapter/priceoracle"
)

// orderedParsers is the fixed dispatch order: within a
// transaction the first match wins, so more specific shapes (the
// ExecuteInsufficientGas trace-level checks, the two-out-message
// MessageExecuted pair) must precede the single-out-message parsers they
// would otherwise shadow.
var orderedParsers = []parser{
	executeInsufficientGasParser{},
	messageExecutedParser{},
	messageApprovedParser{},
	nativeGasRefundedParser{},
	nativeGasPaidParser{},
	nativeGasAddedParser{},
	jettonGasPaidParser{},
	jettonGasAddedParser{},
	callContractParser{},
	itsInterchainTokenDeploymentStartedParser{},
	itsInterchainTransferParser{},
	itsLinkTokenStartedParser{},
	itsTokenMetadataRegisteredParser{},
	signersRotatedParser{},
}

// ParseTrace runs the ordered parser dispatch over every transaction in
// trace whose account is in ourAddresses, pairs CALL events against their
// GAS_CREDIT counterpart by MessageMatchingKey, and computes the trace's
// net gas cost (steps 1-4).
//
//  1. For each transaction, try each parser in order; the first match
//     produces at most one event for that transaction.
//  2. GAS_CREDIT events carrying a pairing key are matched against CALL
//     events with the same MessageMatchingKey within the trace; a matched
//     CALL event is emitted followed by a copy of the credit whose
//     MessageID is set from the call-contract transaction's hash (see
//     pairEvents).
//  3. Paired GAS_CREDIT events with no matching CALL event are dropped.
//  4. The trace's net cost is computed via package gas.
//
// gatewayAddr and gasServiceAddr are the two watched accounts; each parser
// in orderedParsers is gated against exactly one of them: the allowed
// address is either the gateway or the gas-service, depending on the parser.
func ParseTrace(trace *chain.Trace, gatewayAddr, gasServiceAddr string) ([]Event, *big.Int) {
	ourAddresses := []string{gatewayAddr, gasServiceAddr}
	events := make([]Event, 0, len(trace.Transactions))
	for i, tx := range trace.Transactions {
		ctx := txContext{tx: tx, index: i, trace: trace}
		if !contains(ourAddresses, tx.Account) {
			continue
		}
		for _, pr := range orderedParsers {
			allowed := pr.allowedAddress(gatewayAddr, gasServiceAddr)
			if !pr.checkMatch(ctx, allowed) {
				continue
			}
			ev, err := pr.parse(ctx)
			if err == nil {
				events = append(events, ev)
			}
			break
		}
	}

	cost := gas.CalcMessageGas(trace.Transactions, ourAddresses)
	refundCost := gas.CalcMessageGasNativeGasRefunded(trace.Transactions, ourAddresses)
	return distributeCost(pairEvents(events), cost, refundCost), cost
}

// distributeCost implements step 5's cost-attribution rules:
// every MessageApproved event in the trace shares the trace's total gas
// cost evenly (integer division, so the sum may fall short by up to
// count-1 due to floor rounding); MessageExecuted carries the full total;
// GasRefunded carries the refund-adjusted total.
func distributeCost(events []Event, totalGasUsed, refundGasUsed *big.Int) []Event {
	approvedCount := int64(0)
	for _, ev := range events {
		if ev.Kind == EventMessageApproved {
			approvedCount++
		}
	}
	var perApproved *big.Int
	if approvedCount > 0 {
		perApproved = new(big.Int).Quo(totalGasUsed, big.NewInt(approvedCount))
	}
	for i := range events {
		switch events[i].Kind {
		case EventMessageApproved:
			events[i].Cost = perApproved
		case EventMessageExecuted:
			events[i].Cost = new(big.Int).Set(totalGasUsed)
		case EventGasRefunded:
			events[i].Cost = new(big.Int).Set(refundGasUsed)
		}
	}
	return events
}

// ApplyGasCreditConversion implements the remainder of step 5:
// any GAS_CREDIT event carrying a jetton TokenID has its PaymentAmount
// converted to native units through the price oracle (C11), and TokenID is
// cleared on success. Events are mutated in place; a conversion failure
// (missing price, stale oracle) leaves the event's TokenID/PaymentAmount as
// a jetton amount and logs a warning rather than dropping the event, since
// the gas-credit itself was still observed on-chain.
func ApplyGasCreditConversion(ctx context.Context, events []Event, oracle priceoracle.Oracle) []Event {
	if oracle == nil {
		return events
	}
	for i := range events {
		ev := &events[i]
		if ev.Kind != EventGasCredit || ev.TokenID == "" {
			continue
		}
		native, err := price.ConvertJettonToNative(ctx, ev.TokenID, ev.PaymentAmount, oracle)
		if err != nil {
			log.WithError(err).WithField("trace_id", ev.TraceID).
				WithField("token_id", ev.TokenID).Warn("traceparser: jetton to native conversion failed")
			continue
		}
		ev.PaymentAmount = native
		ev.TokenID = ""
	}
	return events
}

func contains(addrs []string, addr string) bool {
	for _, a := range addrs {
		if a == addr {
			return true
		}
	}
	return false
}

// pairEvents matches each paired GAS_CREDIT event to its CALL event by
// MessageMatchingKey. Per step 4, a match emits the CALL event
// followed by a copy of the GAS_CREDIT event with its message_id set from
// the call-contract transaction's hash; an unmatched paired credit is
// dropped entirely (it never stands alone). Non-paired GAS_CREDIT events
// (NativeGasAdded, JettonGasAdded — keyed by their own tx hash, not a
// MessageMatchingKey) and every other event kind pass through unchanged.
func pairEvents(events []Event) []Event {
	credit := make(map[MessageMatchingKey]Event)
	for _, ev := range events {
		if ev.Kind == EventGasCredit && ev.hasPairKey {
			credit[ev.pairKey] = ev
		}
	}

	out := make([]Event, 0, len(events)+1)
	for _, ev := range events {
		if ev.Kind == EventGasCredit && ev.hasPairKey {
			// Only ever surfaced alongside its matching CALL below; an
			// unmatched paired credit is intentionally dropped here.
			continue
		}

		isPairedCall := ev.Kind == EventCall && ev.hasPairKey
		key := ev.pairKey
		ev.hasPairKey = false
		ev.pairKey = MessageMatchingKey{}
		out = append(out, ev)

		if isPairedCall {
			if paired, ok := credit[key]; ok {
				paired.MessageID = ev.MessageID
				paired.hasPairKey = false
				paired.pairKey = MessageMatchingKey{}
				out = append(out, paired)
			}
		}
	}
	return out
}
