package allocation

import (
	"time"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DefaultRecommendation is the fixed fallback: the default allocation split,
// an equal default weight per configured sector, default sector metrics and
// the identity correlation over the configured basket.
func DefaultRecommendation(tables config.Tables, capital decimal.Decimal) Recommendation {
	names := tables.SectorNames()

	breakdown := make(map[string]float64, len(names))
	metrics := make(map[string]analytics.SectorMetric, len(names))
	for _, name := range names {
		breakdown[name] = tables.DefaultSectorWeight
		metrics[name] = analytics.DefaultSectorMetric()
	}

	allocation := tables.DefaultAllocation
	return Recommendation{
		Capital:         capital,
		RiskLevel:       domain.RiskMedium,
		Allocation:      allocation,
		SectorBreakdown: breakdown,
		Amounts:         buildAmounts(capital, BaseCurrency, 1, allocation, breakdown),
		MarketAnalysis: analytics.MarketAnalysis{
			SectorPerformance: analytics.SectorPerformance{
				Sectors:   names,
				Metrics:   metrics,
				Defaulted: names,
			},
			Correlation: analytics.CorrelationResult{
				Matrix:   analytics.Identity(tables.CorrelationBasket),
				Fallback: true,
			},
			GeneratedAt: time.Now().UTC(),
		},
	}
}

// buildAmounts applies the fractions to capital, already expressed in currency
func buildAmounts(capital decimal.Decimal, currency string, rate float64, allocation domain.AssetAllocation, breakdown map[string]float64) Amounts {
	out := Amounts{
		Currency:   currency,
		Rate:       rate,
		Capital:    newAmount(capital, currency),
		Allocation: make(map[string]Amount, len(domain.AssetClasses)),
		Sectors:    make(map[string]Amount, len(breakdown)),
	}
	for class, frac := range allocation.Map() {
		out.Allocation[class] = newAmount(capital.Mul(decimal.NewFromFloat(frac)), currency)
	}
	for sector, frac := range breakdown {
		out.Sectors[sector] = newAmount(capital.Mul(decimal.NewFromFloat(frac)), currency)
	}
	return out
}

// newAmount rounds v to cents and formats it like "USD 12,345.67"
func newAmount(v decimal.Decimal, currency string) Amount {
	rounded := v.Round(2)
	f, _ := rounded.Float64()
	return Amount{
		Value:   rounded,
		Display: currency + " " + humanize.FormatFloat("#,###.##", f),
	}
}
