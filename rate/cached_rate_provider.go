package rate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/infigaming-com/bpi-log-job/cache"
	"go.uber.org/zap"
)

type cachedRateProvider struct {
	lg    *zap.Logger
	inner RateProvider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRateProvider memoises rates from inner for ttl. Cache failures are
// logged and never fail the lookup.
func NewCachedRateProvider(lg *zap.Logger, inner RateProvider, c cache.Cache, ttl time.Duration) RateProvider {
	return &cachedRateProvider{
		lg:    lg,
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

func cacheKey(base, quote string) string {
	return "rate:" + strings.ToUpper(base) + ":" + strings.ToUpper(quote)
}

func (p *cachedRateProvider) GetRate(ctx context.Context, base, quote string) (*Rate, error) {
	key := cacheKey(base, quote)

	cached, err := cache.GetTyped[Rate](ctx, p.cache, key)
	if err == nil {
		p.lg.Debug("rate cache hit", zap.String("key", key))
		return &cached, nil
	}
	switch {
	case errors.Is(err, cache.ErrKeyNotFound):
	case errors.Is(err, cache.ErrJsonUnmarshal):
		p.lg.Warn("dropping unreadable rate cache entry", zap.String("key", key), zap.Error(err))
		if err := p.cache.Delete(ctx, key); err != nil {
			p.lg.Warn("failed to delete rate cache entry", zap.String("key", key), zap.Error(err))
		}
	default:
		p.lg.Warn("failed to read rate cache", zap.String("key", key), zap.Error(err))
	}

	r, err := p.inner.GetRate(ctx, base, quote)
	if err != nil {
		return nil, err
	}

	if err := cache.SetTyped(ctx, p.cache, key, *r, p.ttl); err != nil {
		p.lg.Warn("failed to write rate cache", zap.String("key", key), zap.Error(err))
	}
	return r, nil
}
