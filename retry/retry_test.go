package retry

import (
	"context"
	"encoding/json"
	"testing"

	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/queue"
	"ton-gmp-adapter/rowstore"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tracestore"
)

// fakeRPC returns a fixed trace per trace id, counting how many times each
// id was re-fetched.
type fakeRPC struct {
	traces map[string]chain.Trace
	calls  map[string]int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{traces: map[string]chain.Trace{}, calls: map[string]int{}}
}

func (f *fakeRPC) PostMessage(ctx context.Context, bocBase64 string) (rpcclient.PostMessageResult, error) {
	return rpcclient.PostMessageResult{}, nil
}
func (f *fakeRPC) GetTraces(ctx context.Context, accounts []string) ([]chain.Trace, error) {
	return nil, nil
}
func (f *fakeRPC) GetTraceByID(ctx context.Context, traceID string) (chain.Trace, error) {
	f.calls[traceID]++
	return f.traces[traceID], nil
}
func (f *fakeRPC) GetAccountStates(ctx context.Context, addresses []string) ([]rpcclient.AccountState, error) {
	return nil, nil
}

func TestPollDecreasesRetryWhileStillIncomplete(t *testing.T) {
	store := tracestore.New(rowstore.NewInMemory[tracestore.Row]())
	seed := tracestore.Row{TraceID: "t1", IsIncomplete: true, Retries: 3}
	if _, err := store.DecreaseRetry(seed); err != nil {
		t.Fatalf("seed via decrease_retry: %v", err)
	}

	rpc := newFakeRPC()
	rpc.traces["t1"] = chain.Trace{TraceID: "t1", IsIncomplete: true}
	q := queue.NewInMemory(4)
	sub := New(store, rpc, q)

	sub.poll(context.Background())

	rows, err := store.FetchRetry(10)
	if err != nil {
		t.Fatalf("fetch_retry: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Retries != 1 {
		t.Fatalf("retries = %d, want 1 (3 seeded -1 initial decrease -1 poll)", rows[0].Retries)
	}

	ch, _ := q.Consume(context.Background())
	select {
	case <-ch:
		t.Fatalf("expected no publish while trace is still incomplete")
	default:
	}
}

func TestPollPublishesOnceWhenTraceCompletes(t *testing.T) {
	store := tracestore.New(rowstore.NewInMemory[tracestore.Row]())
	seed := tracestore.Row{TraceID: "t2", IsIncomplete: true, Retries: 2}
	if _, err := store.DecreaseRetry(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rpc := newFakeRPC()
	rpc.traces["t2"] = chain.Trace{TraceID: "t2", IsIncomplete: false, StartLT: "1", EndLT: "2"}
	q := queue.NewInMemory(4)
	sub := New(store, rpc, q)

	sub.poll(context.Background())

	ch, _ := q.Consume(context.Background())
	var published chain.Trace
	select {
	case raw := <-ch:
		env, err := queue.Unwrap(raw)
		if err != nil {
			t.Fatalf("unwrap envelope: %v", err)
		}
		if env.ID == "" {
			t.Fatalf("expected a non-empty correlation id")
		}
		if err := json.Unmarshal(env.Payload, &published); err != nil {
			t.Fatalf("unmarshal published trace: %v", err)
		}
		if published.TraceID != "t2" {
			t.Fatalf("published trace_id = %q, want t2", published.TraceID)
		}
	default:
		t.Fatalf("expected a publish once the trace completes")
	}

	rows, err := store.FetchRetry(10)
	if err != nil {
		t.Fatalf("fetch_retry: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("completed trace should no longer be retry-eligible, got %d rows", len(rows))
	}

	sub.poll(context.Background())
	select {
	case <-ch:
		t.Fatalf("expected no second publish on a subsequent poll")
	default:
	}
}
