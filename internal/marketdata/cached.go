package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
)

// Cached serves series from the market data cache table, falling back to
// a stale entry when the wrapped provider fails
type Cached struct {
	next  domain.MarketDataProvider
	store clientdata.Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCached wraps next. A zero ttl uses the table default.
func NewCached(next domain.MarketDataProvider, store clientdata.Store, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		next:  next,
		store: store,
		ttl:   ttl,
		log:   log.With().Str("component", "marketdata_cache").Logger(),
	}
}

// Name implements domain.MarketDataProvider
func (c *Cached) Name() string { return c.next.Name() }

func cacheKey(symbol, period string) string {
	return "history:" + symbol + ":" + period
}

// GetDailyHistory implements domain.MarketDataProvider
func (c *Cached) GetDailyHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	key := cacheKey(symbol, period)

	var cached domain.PriceSeries
	ok, err := c.store.GetIfFresh(ctx, clientdata.TableMarketData, key, &cached)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	} else if ok && !cached.IsEmpty() {
		return &cached, nil
	}

	series, fetchErr := c.next.GetDailyHistory(ctx, symbol, period)
	if fetchErr == nil {
		if err := c.store.Store(ctx, clientdata.TableMarketData, key, series, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache series")
		}
		return series, nil
	}

	// No data is an answer, not an outage
	if errors.Is(fetchErr, domain.ErrNoData) || errors.Is(fetchErr, context.Canceled) {
		return nil, fetchErr
	}

	var stale domain.PriceSeries
	if ok, err := c.store.Get(ctx, clientdata.TableMarketData, key, &stale); err == nil && ok && !stale.IsEmpty() {
		c.log.Warn().Err(fetchErr).
			Str("symbol", symbol).
			Int("bars", len(stale.Bars)).
			Msg("Providers failed, serving stale series")
		return &stale, nil
	}
	return nil, fetchErr
}
