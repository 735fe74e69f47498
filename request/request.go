package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"maps"

	commonerrors "github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/util"
	"go.uber.org/zap"
)

var (
	httpClient *http.Client
	once       sync.Once
)

type requestOption struct {
	lg                   *zap.Logger
	debugEnabled         bool
	requestHeaders       map[string]string
	correlationIdKey     string
	requestTimeout       time.Duration
	slowRequestThreshold time.Duration
	client               *http.Client
}

type Option interface {
	apply(option *requestOption) error
}

type optionFunc func(option *requestOption) error

func (f optionFunc) apply(option *requestOption) error {
	return f(option)
}

func defaultRequestOption() *requestOption {
	return &requestOption{
		lg:                   zap.L(),
		debugEnabled:         false,
		requestHeaders:       make(map[string]string),
		correlationIdKey:     "X-Correlation-ID",
		requestTimeout:       30 * time.Second,
		slowRequestThreshold: 5 * time.Second,
	}
}

func WithLogger(lg *zap.Logger) Option {
	return optionFunc(func(option *requestOption) error {
		option.lg = lg
		return nil
	})
}

func WithDebugEnabled(debugEnabled bool) Option {
	return optionFunc(func(option *requestOption) error {
		option.debugEnabled = debugEnabled
		return nil
	})
}

func WithRequestHeaders(requestHeaders map[string]string) Option {
	return optionFunc(func(option *requestOption) error {
		maps.Copy(option.requestHeaders, requestHeaders)
		return nil
	})
}

func WithRequestTimeout(requestTimeout time.Duration) Option {
	return optionFunc(func(option *requestOption) error {
		if requestTimeout <= 0 {
			return ErrInvalidRequestTimeout
		}
		option.requestTimeout = requestTimeout
		return nil
	})
}

// WithHttpClient replaces the shared client, e.g. to set a transport.
func WithHttpClient(client *http.Client) Option {
	return optionFunc(func(option *requestOption) error {
		option.client = client
		return nil
	})
}

func getHttpClient() *http.Client {
	once.Do(func() {
		httpClient = &http.Client{
			Timeout: 0,
		}
	})
	return httpClient
}

// Request performs a single HTTP call and returns the status code and body.
// Non-2xx statuses are not errors at this layer; callers decide.
func Request(ctx context.Context, method string, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	start := time.Now()

	option := defaultRequestOption()
	for _, opt := range options {
		if err := opt.apply(option); err != nil {
			return 0, nil, err
		}
	}

	defer func() {
		if err != nil {
			option.lg.Error("[HTTP-REQUEST-ERROR]",
				zap.Error(err),
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}

		if option.debugEnabled {
			option.lg.Debug("[HTTP-REQUEST-DEBUG]",
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Any("requestHeaders", option.requestHeaders),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.ByteString("responseBody", responseBody),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return doRequest(ctx, method, requestUrl, option)
}

func doRequest(ctx context.Context, method string, requestUrl string, option *requestOption) (httpStatusCode int, responseBody []byte, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, option.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, method, requestUrl, nil)
	if err != nil {
		return 0, nil, commonerrors.NewError(ErrCodeFailedToCreateRequest, "failed to create request", err)
	}

	correlationId, ctxErr := util.CorrelationIdFromCtx(ctx)
	if ctxErr != nil {
		correlationId = util.NewRunId()
	}
	req.Header.Set(option.correlationIdKey, correlationId)

	for k, v := range option.requestHeaders {
		req.Header.Set(k, v)
	}

	client := option.client
	if client == nil {
		client = getHttpClient()
	}

	requestStart := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, commonerrors.NewError(ErrCodeFailedToSendRequest, fmt.Sprintf("request timeout after %s", option.requestTimeout), err)
		}
		return 0, nil, commonerrors.NewError(ErrCodeFailedToSendRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	httpStatusCode = resp.StatusCode

	responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return httpStatusCode, nil, commonerrors.NewError(ErrCodeFailedToReadResponseBody, "failed to read response body", err)
	}

	if requestDuration := time.Since(requestStart); requestDuration > option.slowRequestThreshold {
		option.lg.Warn("[HTTP-REQUEST-SLOW]",
			zap.String("method", method),
			zap.String("url", requestUrl),
			zap.Int("httpStatusCode", httpStatusCode),
			zap.Duration("duration", requestDuration),
		)
	}

	return httpStatusCode, responseBody, nil
}

func Get(ctx context.Context, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	return Request(ctx, http.MethodGet, requestUrl, options...)
}
