package rate

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rate is the price of one unit of Base expressed in Quote.
type Rate struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Rate      decimal.Decimal `json:"rate"`
	Timestamp int64           `json:"timestamp"`
}

type RateProvider interface {
	GetRate(ctx context.Context, base, quote string) (*Rate, error)
}

func pairKey(base, quote string) string {
	return strings.ToUpper(base) + "/" + strings.ToUpper(quote)
}

// Convert multiplies amount by the base->quote rate and rounds the result
// half away from zero to the given number of decimal places.
func Convert(ctx context.Context, p RateProvider, amount decimal.Decimal, base, quote string, places int32) (decimal.Decimal, error) {
	r, err := p.GetRate(ctx, base, quote)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s rate: %w", pairKey(base, quote), err)
	}
	if !r.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive %s rate: %s", pairKey(base, quote), r.Rate)
	}
	return amount.Mul(r.Rate).Round(places), nil
}
