package accountcheck

import (
	"context"
	"testing"

	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/rpcclient"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   rpcclient.AccountState
		want State
	}{
		{"inactive", rpcclient.AccountState{Status: "uninit", Balance: "0"}, StateInactive},
		{"bad balance", rpcclient.AccountState{Status: "active", Balance: "not-a-number"}, StateInvalidBalanceFormat},
		{"below minimum", rpcclient.AccountState{Status: "active", Balance: "-1"}, StateInsufficientBalance},
		{"valid", rpcclient.AccountState{Status: "active", Balance: "1000000"}, StateValid},
		{"zero balance is valid", rpcclient.AccountState{Status: "active", Balance: "0"}, StateValid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.in); got != tc.want {
				t.Fatalf("Classify(%+v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

type fakeRPC struct {
	states []rpcclient.AccountState
	calls  int
}

func (f *fakeRPC) PostMessage(ctx context.Context, bocBase64 string) (rpcclient.PostMessageResult, error) {
	return rpcclient.PostMessageResult{}, nil
}
func (f *fakeRPC) GetTraces(ctx context.Context, accounts []string) ([]chain.Trace, error) {
	return nil, nil
}
func (f *fakeRPC) GetTraceByID(ctx context.Context, traceID string) (chain.Trace, error) {
	return chain.Trace{}, nil
}
func (f *fakeRPC) GetAccountStates(ctx context.Context, addresses []string) ([]rpcclient.AccountState, error) {
	f.calls++
	return f.states, nil
}

func TestRunOnceFetchesAllStatesInOneCall(t *testing.T) {
	rpc := &fakeRPC{states: []rpcclient.AccountState{
		{Address: "a", Status: "active", Balance: "5"},
		{Address: "b", Status: "frozen", Balance: "0"},
	}}
	c := New(rpc, []string{"a", "b"})

	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("run_once: %v", err)
	}
	if rpc.calls != 1 {
		t.Fatalf("get_account_states called %d times, want 1", rpc.calls)
	}
}

func TestRunNonForeverPerformsExactlyOnePass(t *testing.T) {
	rpc := &fakeRPC{states: []rpcclient.AccountState{{Address: "a", Status: "active", Balance: "5"}}}
	c := New(rpc, []string{"a"})
	c.Run(context.Background(), false)
	if rpc.calls != 1 {
		t.Fatalf("get_account_states called %d times, want exactly 1 for a non-forever run", rpc.calls)
	}
}
