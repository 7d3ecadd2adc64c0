package marketdata

import (
	"context"
	"time"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
	"github.com/wonny/chartsignal/pkg/redis"
)

// SeriesCache is the subset of redis.Cache used here
type SeriesCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedProvider memoizes fetched series for ttl.
// Cache failures are logged and never fail a fetch.
type CachedProvider struct {
	inner  Provider
	cache  SeriesCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps inner with a series cache
func NewCachedProvider(inner Provider, cache SeriesCache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("marketdata"),
	}
}

// Name reports the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Fetch implements contracts.MarketDataProvider
func (p *CachedProvider) Fetch(ctx context.Context, symbol, period, interval string) (contracts.Series, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	key := redis.SeriesKey(p.inner.Name(), symbol, period, interval)

	var cached contracts.Series
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Series cache read failed")
	}
	if found && len(cached) > 0 {
		p.logger.WithField("key", key).Debug("Series cache hit")
		return cached, nil
	}

	series, err := p.inner.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Series cache write failed")
	}
	return series, nil
}
