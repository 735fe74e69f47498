package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type staticRateProvider struct {
	rates map[string]decimal.Decimal
	now   func() time.Time
}

// NewStaticRateProvider serves fixed reference rates keyed "BASE/QUOTE".
// Inverse pairs are derived when only one direction is configured.
func NewStaticRateProvider(rates map[string]decimal.Decimal) RateProvider {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for k, v := range rates {
		normalized[strings.ToUpper(k)] = v
	}
	return &staticRateProvider{rates: normalized, now: time.Now}
}

func (p *staticRateProvider) GetRate(ctx context.Context, base, quote string) (*Rate, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	rate, ok := p.rates[pairKey(base, quote)]
	if !ok {
		inverse, ok := p.rates[pairKey(quote, base)]
		if !ok || inverse.IsZero() {
			return nil, fmt.Errorf("no static rate for %s", pairKey(base, quote))
		}
		rate = decimal.NewFromInt(1).DivRound(inverse, 12)
	}
	return &Rate{
		Base:      base,
		Quote:     quote,
		Rate:      rate,
		Timestamp: p.now().Unix(),
	}, nil
}
