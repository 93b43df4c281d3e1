package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
)

// Overview groups
const (
	GroupIndices     = "indices"
	GroupCommodities = "commodities"
	GroupForex       = "forex"
)

// InstrumentSnapshot is the latest close and day change of one instrument
type InstrumentSnapshot struct {
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	Date          time.Time `json:"date"`
	Error         string    `json:"error,omitempty"`
}

// MarketOverview reports snapshots of the configured indices, commodities and FX pairs
type MarketOverview struct {
	provider domain.MarketDataProvider
	groups   map[string][]config.Instrument
	log      zerolog.Logger
}

// NewMarketOverview creates an overview over the instrument tables
func NewMarketOverview(provider domain.MarketDataProvider, tables config.Tables, log zerolog.Logger) *MarketOverview {
	return &MarketOverview{
		provider: provider,
		groups: map[string][]config.Instrument{
			GroupIndices:     tables.MarketIndices,
			GroupCommodities: tables.Commodities,
			GroupForex:       tables.ForexPairs,
		},
		log: log.With().Str("component", "market_overview").Logger(),
	}
}

// Groups lists the available overview groups
func (o *MarketOverview) Groups() []string {
	return []string{GroupIndices, GroupCommodities, GroupForex}
}

// Snapshot returns one entry per instrument in group. Instruments without
// data carry an Error instead of failing the whole group.
func (o *MarketOverview) Snapshot(ctx context.Context, group string) ([]InstrumentSnapshot, error) {
	instruments, ok := o.groups[group]
	if !ok {
		return nil, fmt.Errorf("unknown market group %q", group)
	}

	out := make([]InstrumentSnapshot, 0, len(instruments))
	for _, inst := range instruments {
		snap := InstrumentSnapshot{Name: inst.Name, Symbol: inst.Symbol}

		series, err := o.provider.GetDailyHistory(ctx, inst.Symbol, "5d")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("No snapshot data")
			snap.Error = err.Error()
			out = append(out, snap)
			continue
		}

		closes := series.Closes()
		if bar, ok := series.Last(); ok {
			snap.Date = bar.Date
		}
		if n := len(closes); n > 0 {
			snap.Price = closes[n-1]
			if n > 1 && closes[n-2] != 0 {
				snap.ChangePercent = (closes[n-1]/closes[n-2] - 1) * 100
			}
		}
		out = append(out, snap)
	}
	return out, nil
}
