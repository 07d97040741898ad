// Package gas implements C6: computing the net cost a designated set of
// accounts paid within a trace, and the derived per-event cost-attribution
// helpers the trace parser uses.
package gas

import (
	"math/big"

	"ton-gmp-adapter/chain"
)

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func contains(addrs []string, addr string) bool {
	for _, a := range addrs {
		if a == addr {
			return true
		}
	}
	return false
}

// Cost sums, over every transaction whose account is in ourAddresses, the
// total_fees plus the forwarded/paid-out net flow of its outgoing messages.
// It is signed: a trace where our accounts received more
// value than they paid out yields a negative cost.
func Cost(transactions []chain.Transaction, ourAddresses []string) *big.Int {
	total := big.NewInt(0)
	for _, tx := range transactions {
		if !contains(ourAddresses, tx.Account) {
			continue
		}
		total.Add(total, parseBig(tx.TotalFees))
		for _, m := range tx.OutMessages {
			total.Add(total, parseBig(m.FwdFee))
			value := parseBig(m.Value)
			destOurs := m.Destination != nil && contains(ourAddresses, *m.Destination)
			srcOurs := m.Source != nil && contains(ourAddresses, *m.Source)
			if !destOurs {
				total.Add(total, value)
			} else if !srcOurs {
				total.Sub(total, value)
			}
		}
	}
	return total
}

func maxZero(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return big.NewInt(0)
	}
	return v
}

// CalcMessageGas is max(0, Cost(trace.Transactions, ourAddresses)).
func CalcMessageGas(transactions []chain.Transaction, ourAddresses []string) *big.Int {
	return maxZero(Cost(transactions, ourAddresses))
}

// CalcMessageGasNativeGasRefunded subtracts the first outgoing message
// value of the third transaction (index 2) from CalcMessageGas, clamping to
// >= 0; it returns 0 if there are fewer than three transactions or the
// third has no outgoing message (this
// convention is pinned by tests and preserved literally).
func CalcMessageGasNativeGasRefunded(transactions []chain.Transaction, ourAddresses []string) *big.Int {
	if len(transactions) < 3 {
		return big.NewInt(0)
	}
	third := transactions[2]
	if len(third.OutMessages) == 0 {
		return big.NewInt(0)
	}
	base := CalcMessageGas(transactions, ourAddresses)
	refund := parseBig(third.OutMessages[0].Value)
	out := new(big.Int).Sub(base, refund)
	return maxZero(out)
}
