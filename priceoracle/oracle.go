// Package priceoracle is the read-only price feed used for jetton→native
// conversion ("Price oracle ... read-only get_price(pair) →
// decimal"). Only its interface is in scope.
package priceoracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Oracle is the external price feed surface price.ConvertJettonToNative
// depends on.
type Oracle interface {
	// GetPrice returns the current ratio for a "BASE/QUOTE" pair, e.g.
	// "TON/USD" or "<minter-address>/USD".
	GetPrice(ctx context.Context, pair string) (decimal.Decimal, error)
}
