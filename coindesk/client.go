// Package coindesk fetches the Bitcoin Price Index current-price document.
package coindesk

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultURL = "https://api.coindesk.com/v1/bpi/currentprice.json"

type Client struct {
	lg      *zap.Logger
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a client for url. A nil httpClient falls back to the
// shared client of the request package.
func NewClient(lg *zap.Logger, url string, timeout time.Duration, httpClient *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		lg:      lg,
		url:     url,
		timeout: timeout,
		http:    httpClient,
	}
}

// FetchCurrentPrice issues one GET and returns the decoded body. Numbers are
// kept as json.Number so rates are not rounded through float64.
func (c *Client) FetchCurrentPrice(ctx context.Context) (map[string]any, error) {
	opts := []request.Option{
		request.WithLogger(c.lg),
		request.WithRequestHeaders(map[string]string{"Accept": "application/json"}),
		request.WithDebugEnabled(c.lg.Core().Enabled(zapcore.DebugLevel)),
	}
	if c.timeout > 0 {
		opts = append(opts, request.WithRequestTimeout(c.timeout))
	}
	if c.http != nil {
		opts = append(opts, request.WithHttpClient(c.http))
	}

	statusCode, responseBody, err := request.Get(ctx, c.url, opts...)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeUpstreamRequest, "failed to fetch current price", err)
	}
	if !request.IsSuccessStatus(statusCode) {
		return nil, errors.NewErrorf(errors.ErrCodeUpstreamStatus, nil, "unexpected status code %d from current price endpoint", statusCode).
			WithDetails(string(responseBody))
	}

	dec := json.NewDecoder(bytes.NewReader(responseBody))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.NewError(errors.ErrCodeUpstreamPayload, "failed to decode current price", err)
	}
	if payload == nil {
		return nil, errors.NewError(errors.ErrCodeUpstreamPayload, "current price body is not a JSON object", nil)
	}

	c.lg.Info("fetched current price", zap.String("url", c.url), zap.Int("bytes", len(responseBody)))
	return payload, nil
}
