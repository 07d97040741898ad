// Package accountcheck implements C12: periodic read-only classification
// of a fixed set of account addresses.
package accountcheck

import (
	"context"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/rpcclient"
)

// DefaultInterval is the poll period when not overridden.
const DefaultInterval = 45 * time.Second

// State is the classification an account state is reduced to.
type State string

const (
	StateValid                 State = "Valid"
	StateInactive               State = "Inactive"
	StateInsufficientBalance    State = "InsufficientBalance"
	StateInvalidBalanceFormat   State = "InvalidBalanceFormat"
)

// MinBalance is the threshold below which an active account is reported
// InsufficientBalance.
var MinBalance = big.NewInt(0)

// Classify reduces one account's raw RPC state to a State.
func Classify(s rpcclient.AccountState) State {
	if s.Status != "active" {
		return StateInactive
	}
	balance, ok := new(big.Int).SetString(s.Balance, 10)
	if !ok {
		return StateInvalidBalanceFormat
	}
	if balance.Cmp(MinBalance) < 0 {
		return StateInsufficientBalance
	}
	return StateValid
}

// Checker periodically reads and classifies a fixed address list,
// mutating nothing.
type Checker struct {
	RPC       rpcclient.Client
	Addresses []string
	Interval  time.Duration
	logger    *log.Entry
}

// New returns a Checker over addresses, using DefaultInterval unless
// overridden on the returned value.
func New(rpc rpcclient.Client, addresses []string) *Checker {
	return &Checker{
		RPC:       rpc,
		Addresses: addresses,
		Interval:  DefaultInterval,
		logger:    log.WithField("component", "account_checker"),
	}
}

// RunOnce performs a single check-and-report pass.
func (c *Checker) RunOnce(ctx context.Context) error {
	states, err := c.RPC.GetAccountStates(ctx, c.Addresses)
	if err != nil {
		c.logger.WithError(err).Error("account_checker: get_account_states failed")
		return err
	}
	for _, s := range states {
		class := Classify(s)
		entry := c.logger.WithField("address", s.Address).WithField("state", string(class))
		if class == StateValid {
			entry.Info("account_checker: checked")
		} else {
			entry.Error("account_checker: checked")
		}
	}
	return nil
}

// Run polls every c.Interval. If forever is false it performs exactly one
// pass and returns.
func (c *Checker) Run(ctx context.Context, forever bool) {
	_ = c.RunOnce(ctx)
	if !forever {
		return
	}
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.RunOnce(ctx)
		}
	}
}
