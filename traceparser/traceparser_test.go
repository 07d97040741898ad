package traceparser

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"ton-gmp-adapter/boc"
	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/chain"
)

const (
	gateway    = "gateway"
	gasService = "gas-service"
)

func mustBase64(t *testing.T, c *cell.Cell) string {
	t.Helper()
	s, err := cell.SerializeBoCBase64(c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return s
}

func opcodePtr(op uint32) *uint32 { return &op }

func buildTonCCMessageBody(t *testing.T) *cell.Cell {
	t.Helper()
	inner, err := cell.NewBuilder().
		StoreHash([32]byte{0xaa}).
		StoreRefBytes([]byte{0xbb}).
		StoreRefString("ethereum").
		Build()
	if err != nil {
		t.Fatalf("inner: %v", err)
	}
	c, err := cell.NewBuilder().
		StoreRefString("msg-1").
		StoreRefString("ton2").
		StoreRefString("0xSOURCE").
		StoreRef(inner).
		Build()
	if err != nil {
		t.Fatalf("message approved body: %v", err)
	}
	return c
}

func TestParseTraceMessageApproved(t *testing.T) {
	body := buildTonCCMessageBody(t)
	dest := "nowhere" // unused; the nil Destination below marks the out-message as a log, and the opcode selects the parser
	trace := &chain.Trace{
		TraceID: "trace-1",
		Transactions: []chain.Transaction{
			{
				Account: gateway,
				OutMessages: []chain.Message{
					{Opcode: opcodePtr(boc.OpMessageApproved), Destination: nil, Body: mustBase64(t, body)},
				},
			},
		},
	}
	_ = dest

	events, cost := ParseTrace(trace, gateway, gasService)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != EventMessageApproved {
		t.Fatalf("kind = %s, want MESSAGE_APPROVED", events[0].Kind)
	}
	if events[0].MessageID != "msg-1" {
		t.Fatalf("message_id = %q", events[0].MessageID)
	}
	if cost.Sign() != 0 {
		t.Fatalf("cost = %v, want 0 for a fee-free fixture", cost)
	}
}

func buildCallContractBody(t *testing.T, destChain, destAddr string, payload []byte, payloadHash [32]byte) *cell.Cell {
	t.Helper()
	c, err := cell.NewBuilder().
		StoreRefString(destChain).
		StoreRefString(destAddr).
		StoreRefBytes(payload).
		StoreAddress(cell.Address{Workchain: 0, Hash: [32]byte{0x01}}).
		StoreHash(payloadHash).
		Build()
	if err != nil {
		t.Fatalf("call contract body: %v", err)
	}
	return c
}

func buildNativeGasPaidBody(t *testing.T, destChain, destAddr string, payloadHash [32]byte, value *big.Int) *cell.Cell {
	t.Helper()
	var valueHash [32]byte
	value.FillBytes(valueHash[:])
	refund, err := cell.NewBuilder().StoreAddress(cell.Address{Workchain: 0, Hash: [32]byte{0x02}}).Build()
	if err != nil {
		t.Fatalf("refund cell: %v", err)
	}
	c, err := cell.NewBuilder().
		StoreAddress(cell.Address{Workchain: 0, Hash: [32]byte{0x03}}).
		StoreHash(payloadHash).
		StoreHash(valueHash).
		StoreRef(refund).
		StoreRefString(destChain).
		StoreRefString(destAddr).
		Build()
	if err != nil {
		t.Fatalf("native gas paid body: %v", err)
	}
	return c
}

func TestParseTracePairsCallContractWithGasCredit(t *testing.T) {
	var payloadHash [32]byte
	payloadHash[0] = 0xcd
	payload := []byte("payload")
	value := big.NewInt(5_000_000)

	callBody := buildCallContractBody(t, "ethereum", "0xDEST", payload, payloadHash)
	gasBody := buildNativeGasPaidBody(t, "ethereum", "0xDEST", payloadHash, value)

	trace := &chain.Trace{
		TraceID: "trace-2",
		Transactions: []chain.Transaction{
			{
				Account: gateway,
				Hash:    "aa",
				OutMessages: []chain.Message{
					{Opcode: opcodePtr(boc.OpCallContract), Destination: nil, Body: mustBase64(t, callBody)},
				},
			},
			{
				Account: gasService,
				Hash:    "bb",
				OutMessages: []chain.Message{
					{Opcode: opcodePtr(boc.OpPayNativeGasForContractCall), Destination: nil, Body: mustBase64(t, gasBody)},
				},
			},
		},
	}

	events, _ := ParseTrace(trace, gateway, gasService)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (call followed by its paired credit)", len(events))
	}
	call, credit := events[0], events[1]
	if call.Kind != EventCall {
		t.Fatalf("events[0].kind = %s, want CALL", call.Kind)
	}
	if credit.Kind != EventGasCredit {
		t.Fatalf("events[1].kind = %s, want GAS_CREDIT", credit.Kind)
	}
	if credit.PaymentAmount == nil || credit.PaymentAmount.Cmp(value) != 0 {
		t.Fatalf("payment_amount = %v, want %v", credit.PaymentAmount, value)
	}
	wantMessageID := hash0x("aa")
	if credit.MessageID != wantMessageID {
		t.Fatalf("credit.message_id = %q, want %q (call tx hash)", credit.MessageID, wantMessageID)
	}
	if call.MessageID != wantMessageID {
		t.Fatalf("call.message_id = %q, want %q", call.MessageID, wantMessageID)
	}
}

// An unmatched *paired* gas-credit (one keyed by MessageMatchingKey, as
// opposed to NativeGasAdded/JettonGasAdded which key by tx hash) is dropped
// entirely during pairing — it never stands alone.
func TestParseTraceUnmatchedPairedGasCreditIsDropped(t *testing.T) {
	var payloadHash [32]byte
	payloadHash[0] = 0xef
	value := big.NewInt(1_000)
	gasBody := buildNativeGasPaidBody(t, "polygon", "0xOTHER", payloadHash, value)

	trace := &chain.Trace{
		TraceID: "trace-3",
		Transactions: []chain.Transaction{
			{
				Account: gasService,
				OutMessages: []chain.Message{
					{Opcode: opcodePtr(boc.OpPayGas), Destination: nil, Body: mustBase64(t, gasBody)},
				},
			},
		},
	}

	events, _ := ParseTrace(trace, gateway, gasService)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0 (unmatched paired credit is dropped)", len(events))
	}
}

// TestParseTraceGasServiceOpcodeIgnoredOnGatewayAccount pins the
// per-parser account gating: a gas-service-shaped opcode emitted from the
// gateway account must not be parsed as a GAS_CREDIT, since NativeGasPaid
// is gated to the gas-service account only.
func TestParseTraceGasServiceOpcodeIgnoredOnGatewayAccount(t *testing.T) {
	var payloadHash [32]byte
	payloadHash[0] = 0x11
	gasBody := buildNativeGasPaidBody(t, "ethereum", "0xDEST", payloadHash, big.NewInt(42))

	trace := &chain.Trace{
		TraceID: "trace-4",
		Transactions: []chain.Transaction{
			{
				Account: gateway,
				OutMessages: []chain.Message{
					{Opcode: opcodePtr(boc.OpPayGas), Destination: nil, Body: mustBase64(t, gasBody)},
				},
			},
		},
	}

	events, _ := ParseTrace(trace, gateway, gasService)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0 (gas-service opcode on gateway account must not parse)", len(events))
	}
}

// TestDistributeCostSplitsAcrossMessageApproved pins testable
// property 8: the sum of per-event costs for k MESSAGE_APPROVED events
// equals CalcMessageGas(trace) within floor-division rounding.
func TestDistributeCostSplitsAcrossMessageApproved(t *testing.T) {
	events := []Event{
		{Kind: EventMessageApproved},
		{Kind: EventMessageApproved},
		{Kind: EventMessageExecuted},
		{Kind: EventGasRefunded},
	}
	total := big.NewInt(101)
	refund := big.NewInt(40)
	out := distributeCost(events, total, refund)

	sum := big.NewInt(0)
	for _, ev := range out {
		if ev.Kind == EventMessageApproved {
			sum.Add(sum, ev.Cost)
		}
	}
	// floor(101/2) = 50, two of them sum to 100, within 1 of 101.
	if diff := new(big.Int).Sub(total, sum); diff.Cmp(big.NewInt(2)) >= 0 {
		t.Fatalf("approved cost sum %v too far from total %v", sum, total)
	}
	if out[2].Cost.Cmp(total) != 0 {
		t.Fatalf("message_executed cost = %v, want %v", out[2].Cost, total)
	}
	if out[3].Cost.Cmp(refund) != 0 {
		t.Fatalf("gas_refunded cost = %v, want %v", out[3].Cost, refund)
	}
}

type fakeOracle map[string]decimal.Decimal

func (f fakeOracle) GetPrice(_ context.Context, pair string) (decimal.Decimal, error) {
	p, ok := f[pair]
	if !ok {
		return decimal.Decimal{}, errPriceNotFound{}
	}
	return p, nil
}

type errPriceNotFound struct{}

func (errPriceNotFound) Error() string { return "price not found" }

// TestApplyGasCreditConversionConvertsJetton pins the jetton-to-native
// conversion post-processing step using the 1000/0.5/3 -> 167 example.
func TestApplyGasCreditConversionConvertsJetton(t *testing.T) {
	oracle := fakeOracle{
		"MINTER/USD": decimal.NewFromFloat(0.5),
		"TON/USD":    decimal.NewFromFloat(3),
	}
	events := []Event{
		{Kind: EventGasCredit, TokenID: "MINTER", PaymentAmount: big.NewInt(1000)},
	}
	out := ApplyGasCreditConversion(context.Background(), events, oracle)
	if out[0].TokenID != "" {
		t.Fatalf("token_id not cleared: %q", out[0].TokenID)
	}
	if out[0].PaymentAmount.Cmp(big.NewInt(167)) != 0 {
		t.Fatalf("payment_amount = %v, want 167", out[0].PaymentAmount)
	}
}

func TestApplyGasCreditConversionNilOracleIsNoop(t *testing.T) {
	events := []Event{
		{Kind: EventGasCredit, TokenID: "MINTER", PaymentAmount: big.NewInt(1000)},
	}
	out := ApplyGasCreditConversion(context.Background(), events, nil)
	if out[0].TokenID != "MINTER" {
		t.Fatalf("expected token_id preserved when oracle is nil, got %q", out[0].TokenID)
	}
}

func TestApplyGasCreditConversionMissingPriceLeavesEventUnchanged(t *testing.T) {
	oracle := fakeOracle{"TON/USD": decimal.NewFromFloat(3)}
	events := []Event{
		{Kind: EventGasCredit, TokenID: "MINTER", PaymentAmount: big.NewInt(1000)},
	}
	out := ApplyGasCreditConversion(context.Background(), events, oracle)
	if out[0].TokenID != "MINTER" {
		t.Fatalf("expected token_id preserved on conversion failure, got %q", out[0].TokenID)
	}
	if out[0].PaymentAmount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected payment_amount preserved on conversion failure, got %v", out[0].PaymentAmount)
	}
}
