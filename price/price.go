// Package price implements C11: jetton-to-native value conversion through
// a read-only price oracle.
package price

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/priceoracle"
)

// ConvertJettonToNative converts amount of the jetton identified by
// minterAddress into native TON, as round(amount * p1/p2) where
// p1 = price(minterAddress + "/USD") and p2 = price("TON/USD")
// (amount=1000, p1=0.5, p2=3 -> 167).
func ConvertJettonToNative(ctx context.Context, minterAddress string, amount *big.Int, oracle priceoracle.Oracle) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid amount", tonerr.ErrConversion)
	}

	p1, err := oracle.GetPrice(ctx, minterAddress+"/USD")
	if err != nil {
		return nil, fmt.Errorf("%w: %s price: %v", tonerr.ErrConversion, minterAddress, err)
	}
	p2, err := oracle.GetPrice(ctx, "TON/USD")
	if err != nil {
		return nil, fmt.Errorf("%w: TON/USD price: %v", tonerr.ErrConversion, err)
	}
	if p2.IsZero() {
		return nil, fmt.Errorf("%w: TON/USD price is zero", tonerr.ErrConversion)
	}

	amountDec := decimal.NewFromBigInt(amount, 0)
	result := amountDec.Mul(p1).Div(p2).Round(0)
	return result.BigInt(), nil
}
