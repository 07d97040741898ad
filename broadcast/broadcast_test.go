package broadcast

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"ton-gmp-adapter/boc"
	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/gas"
	"ton-gmp-adapter/gmpapi"
	"ton-gmp-adapter/lockbackend"
	"ton-gmp-adapter/lockmanager"
	"ton-gmp-adapter/queryid"
	"ton-gmp-adapter/rowstore"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tonaddr"
	"ton-gmp-adapter/wallet"
)

// fakeRPC implements rpcclient.Client, recording every posted message.
type fakeRPC struct {
	posted []string
}

func (f *fakeRPC) PostMessage(ctx context.Context, bocBase64 string) (rpcclient.PostMessageResult, error) {
	f.posted = append(f.posted, bocBase64)
	return rpcclient.PostMessageResult{MessageHash: "0xdeadbeef"}, nil
}
func (f *fakeRPC) GetTraces(ctx context.Context, accounts []string) ([]chain.Trace, error) {
	return nil, nil
}
func (f *fakeRPC) GetTraceByID(ctx context.Context, traceID string) (chain.Trace, error) {
	return chain.Trace{}, nil
}
func (f *fakeRPC) GetAccountStates(ctx context.Context, addresses []string) ([]rpcclient.AccountState, error) {
	return nil, nil
}

func testPipeline(t *testing.T, rpc rpcclient.Client, estimates gas.Estimates) *Pipeline {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	w := wallet.Wallet{
		Address:     tonaddr.Address{Workchain: 0, Hash: [32]byte{1}},
		PublicKey:   pub,
		SecretKey:   priv,
		SubwalletID: 698983191,
		TimeoutS:    60,
	}
	pool := wallet.NewPool([]wallet.Wallet{w}, lockmanager.New(lockbackend.NewInMemory()))
	builder := &wallet.Builder{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }}
	qids := queryid.New(rowstore.NewInMemory[queryid.Row]())
	estimator := gas.NewEstimator(estimates)

	return New(pool, builder, qids, rpc, estimator,
		tonaddr.Address{Workchain: 0, Hash: [32]byte{0xaa}},
		tonaddr.Address{Workchain: 0, Hash: [32]byte{0xbb}},
		"ton")
}

func TestBroadcastExecuteMessageRejectsInsufficientGas(t *testing.T) {
	rpc := &fakeRPC{}
	p := testPipeline(t, rpc, gas.Estimates{Execute: 42})

	task := gmpapi.Task{
		MessageID:       "msg-1",
		SourceChain:     "ethereum",
		SourceAddress:   "0xSOURCE",
		DestinationAddr: tonaddr.Address{Workchain: 0, Hash: [32]byte{2}}.Hex0x(),
		Payload:         "",
		AvailableGas:    "11",
	}

	result := p.BroadcastExecuteMessage(context.Background(), task, tonaddr.Address{Workchain: 0, Hash: [32]byte{3}})
	if result.Status != gmpapi.StatusError {
		t.Fatalf("status = %v, want error", result.Status)
	}
	if result.TxHash != "" {
		t.Fatalf("tx_hash = %q, want empty on rejection", result.TxHash)
	}
	if len(rpc.posted) != 0 {
		t.Fatalf("expected no message to be posted, got %d", len(rpc.posted))
	}
}

func TestBroadcastExecuteMessageSendsWhenGasSufficient(t *testing.T) {
	rpc := &fakeRPC{}
	p := testPipeline(t, rpc, gas.Estimates{Execute: 10})

	task := gmpapi.Task{
		MessageID:       "msg-2",
		SourceChain:     "ethereum",
		SourceAddress:   "0xSOURCE",
		DestinationAddr: tonaddr.Address{Workchain: 0, Hash: [32]byte{2}}.Hex0x(),
		Payload:         "",
		AvailableGas:    "100",
	}

	result := p.BroadcastExecuteMessage(context.Background(), task, tonaddr.Address{Workchain: 0, Hash: [32]byte{3}})
	if result.Status != gmpapi.StatusSuccess {
		t.Fatalf("status = %v, want success, err=%v", result.Status, result.Err)
	}
	if result.TxHash == "" {
		t.Fatalf("expected a tx hash on success")
	}
	if len(rpc.posted) != 1 {
		t.Fatalf("expected exactly one posted message, got %d", len(rpc.posted))
	}
}

func TestBroadcastRefundMessageRejectsJetton(t *testing.T) {
	rpc := &fakeRPC{}
	p := testPipeline(t, rpc, gas.Estimates{NativeGasRefund: 10})

	task := gmpapi.Task{MessageID: "aa", TokenID: "EQsomeJetton", DestinationAddr: "0:" + hex64}
	result := p.BroadcastRefundMessage(context.Background(), task, big.NewInt(1_000_000))
	if result.Status != gmpapi.StatusError {
		t.Fatalf("status = %v, want error for jetton refund", result.Status)
	}
	if len(rpc.posted) != 0 {
		t.Fatalf("expected no message posted for a rejected jetton refund")
	}
}

func TestBroadcastProverMessageSendsApprovedBatch(t *testing.T) {
	rpc := &fakeRPC{}
	p := testPipeline(t, rpc, gas.Estimates{ApproveMessagesPerEntry: 5})

	entry := boc.ApproveMessage{
		MessageID:          "msg-3",
		SourceChain:        "ethereum",
		SourceAddress:      "0xSOURCE",
		DestinationChain:   "ton",
		DestinationAddress: []byte{0x04},
		PayloadHash:        big.NewInt(0xaa),
	}
	proof, err := cell.NewBuilder().StoreUint64(8, 0).Build()
	if err != nil {
		t.Fatalf("proof cell: %v", err)
	}
	blob, err := boc.BuildApproveMessages(proof, []boc.ApproveMessage{entry})
	if err != nil {
		t.Fatalf("build approve messages: %v", err)
	}
	raw, err := cell.SerializeBoC(blob)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	result := p.BroadcastProverMessage(context.Background(), hex.EncodeToString(raw))
	if result.Status != gmpapi.StatusSuccess {
		t.Fatalf("status = %v, want success, err=%v", result.Status, result.Err)
	}
	if result.MessageID != "msg-3" {
		t.Fatalf("message_id = %q, want msg-3", result.MessageID)
	}
	if len(rpc.posted) != 1 {
		t.Fatalf("expected exactly one posted message, got %d", len(rpc.posted))
	}
}

const hex64 = "0000000000000000000000000000000000000000000000000000000000000002"
