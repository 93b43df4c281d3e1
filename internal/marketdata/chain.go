// Package marketdata combines market data providers into one
// domain.MarketDataProvider with circuit breaking, fallback and caching.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Observer receives per-provider call outcomes and breaker transitions
type Observer interface {
	ObserveProviderCall(provider string, err error, d time.Duration)
	ObserveBreakerState(provider string, state int)
}

// BreakerConfig tunes the circuit breaker put in front of every provider
type BreakerConfig struct {
	MaxRequests         uint32        // probes allowed while half-open
	Interval            time.Duration // closed-state counter reset period
	Timeout             time.Duration // open -> half-open delay
	ConsecutiveFailures uint32        // failures that trip the breaker
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes again after a minute
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 5,
	}
}

type link struct {
	provider domain.MarketDataProvider
	breaker  *gobreaker.CircuitBreaker
}

// Chain asks providers in order and returns the first non-empty series.
// A provider whose breaker is open is skipped until the breaker half-opens.
type Chain struct {
	links []link
	obs   Observer
	log   zerolog.Logger
}

// NewChain wraps each provider in its own breaker. obs may be nil.
func NewChain(log zerolog.Logger, obs Observer, cfg BreakerConfig, providers ...domain.MarketDataProvider) *Chain {
	c := &Chain{
		obs: obs,
		log: log.With().Str("component", "marketdata_chain").Logger(),
	}

	for _, p := range providers {
		name := p.Name()
		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: isBreakerSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn().
					Str("provider", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Provider circuit breaker changed state")
				if c.obs != nil {
					c.obs.ObserveBreakerState(name, int(to))
				}
			},
		}
		c.links = append(c.links, link{provider: p, breaker: gobreaker.NewCircuitBreaker(settings)})
		if obs != nil {
			obs.ObserveBreakerState(name, int(gobreaker.StateClosed))
		}
	}
	return c
}

// isBreakerSuccess keeps "this symbol has no data" and caller cancellation
// from counting against a provider's health
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrNoData) ||
		errors.Is(err, domain.ErrInvalidSymbol) ||
		errors.Is(err, domain.ErrNotConfigured) ||
		errors.Is(err, context.Canceled)
}

// Name implements domain.MarketDataProvider
func (c *Chain) Name() string { return "chain" }

// GetDailyHistory implements domain.MarketDataProvider.
// When every provider reports no data the error wraps domain.ErrNoData.
func (c *Chain) GetDailyHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	if len(c.links) == 0 {
		return nil, fmt.Errorf("no market data providers configured: %w", domain.ErrNotConfigured)
	}

	var errs []error
	allNoData := true
	for _, l := range c.links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := l.provider.Name()
		start := time.Now()
		result, err := l.breaker.Execute(func() (interface{}, error) {
			return l.provider.GetDailyHistory(ctx, symbol, period)
		})
		if c.obs != nil && !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.obs.ObserveProviderCall(name, err, time.Since(start))
		}

		if err == nil {
			series, _ := result.(*domain.PriceSeries)
			if !series.IsEmpty() {
				return series, nil
			}
			err = domain.ErrNoData
		}

		if !errors.Is(err, domain.ErrNoData) && !errors.Is(err, domain.ErrInvalidSymbol) {
			allNoData = false
		}
		c.log.Debug().Err(err).
			Str("provider", name).
			Str("symbol", symbol).
			Msg("Provider returned no series, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	joined := errors.Join(errs...)
	if allNoData {
		return nil, fmt.Errorf("no provider has %s: %w", symbol, domain.ErrNoData)
	}
	return nil, fmt.Errorf("all providers failed for %s: %w", symbol, joined)
}

// BreakerStates reports each provider's breaker state (closed, half-open, open)
func (c *Chain) BreakerStates() map[string]string {
	states := make(map[string]string, len(c.links))
	for _, l := range c.links {
		states[l.provider.Name()] = l.breaker.State().String()
	}
	return states
}
