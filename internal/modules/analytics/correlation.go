package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/pkg/formulas"
	"github.com/rs/zerolog"
)

// AssetCorrelationCalculator correlates daily percent changes across a
// fixed cross-asset basket
type AssetCorrelationCalculator struct {
	provider domain.MarketDataProvider
	basket   []string
	period   string
	log      zerolog.Logger
}

// NewAssetCorrelationCalculator creates a calculator over basket
func NewAssetCorrelationCalculator(provider domain.MarketDataProvider, basket []string, period string, log zerolog.Logger) *AssetCorrelationCalculator {
	return &AssetCorrelationCalculator{
		provider: provider,
		basket:   basket,
		period:   period,
		log:      log.With().Str("component", "asset_correlation").Logger(),
	}
}

// Calculate fetches every basket symbol and correlates those with data.
// Fewer than two usable symbols yields the identity over the full basket.
func (c *AssetCorrelationCalculator) Calculate(ctx context.Context) CorrelationResult {
	var (
		symbols []string
		closes  []map[string]float64
		dropped []string
	)

	for _, symbol := range c.basket {
		byDate, err := c.fetch(ctx, symbol)
		if err != nil || len(byDate) == 0 {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Dropping symbol from correlation")
			dropped = append(dropped, symbol)
			continue
		}
		symbols = append(symbols, symbol)
		closes = append(closes, byDate)
	}

	if len(symbols) < 2 {
		return c.fallback(dropped, "fewer than two symbols with data")
	}

	changes := make([]map[string]float64, len(closes))
	for i, byDate := range closes {
		changes[i] = changesByDate(byDate)
	}

	return CorrelationResult{
		Matrix:  newCorrelationMatrix(symbols, correlate(changes)),
		Dropped: dropped,
	}
}

func (c *AssetCorrelationCalculator) fallback(dropped []string, reason string) CorrelationResult {
	c.log.Warn().Str("reason", reason).Strs("basket", c.basket).Msg("Using identity correlation")
	return CorrelationResult{
		Matrix:   Identity(c.basket),
		Dropped:  dropped,
		Fallback: true,
	}
}

func (c *AssetCorrelationCalculator) fetch(ctx context.Context, symbol string) (byDate map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic fetching %s: %v", symbol, r)
		}
	}()

	series, err := c.provider.GetDailyHistory(ctx, symbol, c.period)
	if err != nil {
		return nil, err
	}
	return series.ClosesByDate(), nil
}

// changesByDate returns each day's percent change against the series'
// previous close, keyed by the later date
func changesByDate(closes map[string]float64) map[string]float64 {
	dates := make([]string, 0, len(closes))
	for d := range closes {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make(map[string]float64, len(dates))
	for i := 1; i < len(dates); i++ {
		out[dates[i]] = closes[dates[i]]/closes[dates[i-1]] - 1
	}
	return out
}

// correlate builds the raw matrix. Series covering the same dates are
// correlated in one pass; otherwise every pair uses the dates it shares.
func correlate(changes []map[string]float64) [][]float64 {
	if dates, ok := commonDates(changes); ok {
		series := make([][]float64, len(changes))
		for i, byDate := range changes {
			series[i] = make([]float64, len(dates))
			for j, d := range dates {
				series[i][j] = byDate[d]
			}
			if !formulas.AllFinite(series[i]) {
				return formulas.PairwiseCorrelation(changes)
			}
		}
		if raw := formulas.CorrelationMatrix(series); raw != nil {
			return raw
		}
	}
	return formulas.PairwiseCorrelation(changes)
}

// commonDates returns the sorted dates when every series has exactly the same ones
func commonDates(changes []map[string]float64) ([]string, bool) {
	first := changes[0]
	for _, other := range changes[1:] {
		if len(other) != len(first) {
			return nil, false
		}
		for d := range first {
			if _, ok := other[d]; !ok {
				return nil, false
			}
		}
	}

	dates := make([]string, 0, len(first))
	for d := range first {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, true
}
