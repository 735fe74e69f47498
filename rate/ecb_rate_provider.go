package rate

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/infigaming-com/bpi-log-job/request"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultECBURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

	ecbBaseCurrency = "EUR"
	crossRatePlaces = 12
)

type ecbRateProvider struct {
	lg      *zap.Logger
	url     string
	timeout time.Duration
	http    *http.Client
}

type ecbEnvelope struct {
	Cube struct {
		Cube struct {
			Time  string `xml:"time,attr"`
			Rates []struct {
				Currency string `xml:"currency,attr"`
				Rate     string `xml:"rate,attr"`
			} `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

// NewECBRateProvider reads the European Central Bank's daily euro reference
// rates and derives cross rates through EUR. A nil httpClient uses the
// shared client of the request package.
func NewECBRateProvider(lg *zap.Logger, url string, timeout time.Duration, httpClient *http.Client) RateProvider {
	if url == "" {
		url = DefaultECBURL
	}
	return &ecbRateProvider{
		lg:      lg,
		url:     url,
		timeout: timeout,
		http:    httpClient,
	}
}

func (p *ecbRateProvider) GetRate(ctx context.Context, base, quote string) (*Rate, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)

	rates, published, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	baseRate, ok := rates[base]
	if !ok {
		return nil, fmt.Errorf("currency %s not found in ECB reference rates", base)
	}
	quoteRate, ok := rates[quote]
	if !ok {
		return nil, fmt.Errorf("currency %s not found in ECB reference rates", quote)
	}

	cross := quoteRate.DivRound(baseRate, crossRatePlaces)
	p.lg.Debug("resolved ECB cross rate",
		zap.String("pair", pairKey(base, quote)),
		zap.String("rate", cross.String()),
		zap.Time("published", published),
	)

	return &Rate{
		Base:      base,
		Quote:     quote,
		Rate:      cross,
		Timestamp: published.Unix(),
	}, nil
}

func (p *ecbRateProvider) fetch(ctx context.Context) (map[string]decimal.Decimal, time.Time, error) {
	opts := []request.Option{
		request.WithLogger(p.lg),
		request.WithDebugEnabled(p.lg.Core().Enabled(zapcore.DebugLevel)),
	}
	if p.timeout > 0 {
		opts = append(opts, request.WithRequestTimeout(p.timeout))
	}
	if p.http != nil {
		opts = append(opts, request.WithHttpClient(p.http))
	}
	statusCode, responseBody, err := request.Get(ctx, p.url, opts...)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !request.IsSuccessStatus(statusCode) {
		return nil, time.Time{}, fmt.Errorf("status code: %d, response: %s", statusCode, string(responseBody))
	}

	return parseECBRates(responseBody)
}

func parseECBRates(body []byte) (map[string]decimal.Decimal, time.Time, error) {
	var envelope ecbEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode ECB rates: %w", err)
	}

	daily := envelope.Cube.Cube
	if len(daily.Rates) == 0 {
		return nil, time.Time{}, fmt.Errorf("ECB rates document has no rates")
	}

	published, err := time.Parse(time.DateOnly, daily.Time)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid ECB publication date %q: %w", daily.Time, err)
	}

	rates := make(map[string]decimal.Decimal, len(daily.Rates)+1)
	rates[ecbBaseCurrency] = decimal.NewFromInt(1)
	for _, r := range daily.Rates {
		value, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid ECB rate for %s: %w", r.Currency, err)
		}
		if !value.IsPositive() {
			return nil, time.Time{}, fmt.Errorf("non-positive ECB rate for %s: %s", r.Currency, r.Rate)
		}
		rates[strings.ToUpper(r.Currency)] = value
	}

	return rates, published, nil
}
