package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/pkg/formulas"
	"github.com/rs/zerolog"
)

// SectorPerformanceCalculator scores each configured sector from its ETF's
// daily closes over the lookback period
type SectorPerformanceCalculator struct {
	provider domain.MarketDataProvider
	sectors  []config.Instrument
	period   string
	log      zerolog.Logger
}

// NewSectorPerformanceCalculator creates a calculator over sectors
func NewSectorPerformanceCalculator(provider domain.MarketDataProvider, sectors []config.Instrument, period string, log zerolog.Logger) *SectorPerformanceCalculator {
	return &SectorPerformanceCalculator{
		provider: provider,
		sectors:  sectors,
		period:   period,
		log:      log.With().Str("component", "sector_performance").Logger(),
	}
}

// Calculate returns a metric for every configured sector. Sectors whose
// data cannot be fetched or yields a non-finite statistic get
// DefaultSectorMetric and are listed in Defaulted.
func (c *SectorPerformanceCalculator) Calculate(ctx context.Context) SectorPerformance {
	result := SectorPerformance{
		Sectors: make([]string, 0, len(c.sectors)),
		Metrics: make(map[string]SectorMetric, len(c.sectors)),
	}

	for _, sector := range c.sectors {
		result.Sectors = append(result.Sectors, sector.Name)

		metric, err := c.sectorMetric(ctx, sector.Symbol)
		if err != nil {
			c.log.Warn().Err(err).
				Str("sector", sector.Name).
				Str("symbol", sector.Symbol).
				Msg("Using default sector metric")
			metric = DefaultSectorMetric()
			result.Defaulted = append(result.Defaulted, sector.Name)
		}
		result.Metrics[sector.Name] = metric
	}

	return result
}

func (c *SectorPerformanceCalculator) sectorMetric(ctx context.Context, symbol string) (metric SectorMetric, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic fetching %s: %v", symbol, r)
		}
	}()

	series, err := c.provider.GetDailyHistory(ctx, symbol, c.period)
	if err != nil {
		return SectorMetric{}, err
	}
	return ComputeSectorMetric(series.Closes())
}

// ComputeSectorMetric derives the metric from chronological closes:
// return = (last/first - 1) * 100, volatility = stddev(daily % change) *
// sqrt(252) * 100, sharpe = return / volatility (0 when volatility is 0).
func ComputeSectorMetric(closes []float64) (SectorMetric, error) {
	if len(closes) < 3 {
		return SectorMetric{}, fmt.Errorf("need at least 3 closes, have %d: %w", len(closes), domain.ErrNoData)
	}

	returns := formulas.TotalReturn(closes) * 100
	changes := formulas.PercentChanges(closes)
	if !formulas.IsFinite(returns) || !formulas.AllFinite(changes) {
		return SectorMetric{}, fmt.Errorf("non-finite return statistic")
	}

	volatility := formulas.StdDev(changes) * math.Sqrt(formulas.TradingDaysPerYear) * 100
	if !formulas.IsFinite(volatility) {
		return SectorMetric{}, fmt.Errorf("non-finite volatility")
	}

	return SectorMetric{
		Returns:     returns,
		Volatility:  volatility,
		SharpeRatio: formulas.ReturnToVolatility(returns, volatility),
	}, nil
}
