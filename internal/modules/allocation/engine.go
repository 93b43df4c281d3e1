package allocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency capital is entered in
const BaseCurrency = "USD"

// AnalysisSource supplies the market analysis a recommendation embeds
type AnalysisSource interface {
	MarketAnalysis(ctx context.Context) *analytics.MarketAnalysis
}

// Observer is notified of every generated result
type Observer interface {
	ObserveRecommendation(status string)
}

// Engine generates portfolio recommendations
type Engine struct {
	analysis AnalysisSource
	tables   config.Tables
	rates    domain.RateProvider
	obs      Observer
	log      zerolog.Logger
}

// NewEngine creates an engine. rates and obs may be nil; without rates
// amounts are always reported in BaseCurrency.
func NewEngine(analysis AnalysisSource, tables config.Tables, rates domain.RateProvider, obs Observer, log zerolog.Logger) *Engine {
	return &Engine{
		analysis: analysis,
		tables:   tables,
		rates:    rates,
		obs:      obs,
		log:      log.With().Str("component", "allocation_engine").Logger(),
	}
}

// Generate builds a recommendation for req. It never fails: a request
// that cannot be served yields the default recommendation with
// StatusFatal and Err set.
func (e *Engine) Generate(ctx context.Context, req Request) (res Result) {
	id := uuid.NewString()
	log := e.log.With().Str("run_id", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			res = e.fatal(id, req, fmt.Errorf("recommendation panicked: %v", r), log)
		}
		if e.obs != nil {
			e.obs.ObserveRecommendation(string(res.Status))
		}
	}()

	rec, notes, err := e.generate(ctx, req)
	if err != nil {
		return e.fatal(id, req, err, log)
	}

	res = Result{
		ID:             id,
		Status:         StatusComplete,
		Recommendation: *rec,
		Notes:          notes,
	}
	if len(notes) > 0 {
		res.Status = StatusDegraded
	}

	log.Info().
		Str("status", string(res.Status)).
		Str("risk_level", string(rec.RiskLevel)).
		Str("horizon", string(rec.InvestmentHorizon)).
		Int("sectors", len(rec.SectorBreakdown)).
		Int("notes", len(notes)).
		Msg("Recommendation generated")

	return res
}

func (e *Engine) generate(ctx context.Context, req Request) (*Recommendation, []string, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	risk, horizon, err := req.Parsed()
	if err != nil {
		return nil, nil, err
	}

	base, ok := e.tables.RiskLevels[risk]
	if !ok {
		return nil, nil, fmt.Errorf("no allocation configured for risk level %s", risk)
	}
	months, ok := e.tables.Horizons[horizon]
	if !ok {
		return nil, nil, fmt.Errorf("no duration configured for horizon %s", horizon)
	}

	allocation := AdjustForHorizon(base, months, e.tables.ShortHorizonMonths, e.tables.LongHorizonMonths)

	analysis := e.analysis.MarketAnalysis(ctx)
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("market analysis interrupted: %w", err)
	}
	if analysis == nil {
		return nil, nil, fmt.Errorf("market analysis unavailable")
	}
	notes := append([]string(nil), analysis.Notes...)

	sectors, skipped := e.selectSectors(req.PreferredSectors)
	for _, s := range skipped {
		notes = append(notes, "preferred sector "+s+": unknown, skipped")
	}
	if len(sectors) == 0 {
		sectors = e.tables.SectorNames()
		notes = append(notes, "no known preferred sectors, using all sectors")
	}

	weights := SectorWeights(sectors, analysis.SectorPerformance)
	breakdown := SectorBreakdown(weights, allocation.Equity)

	amounts, amountNotes := e.amounts(ctx, req.Capital, req.Currency, allocation, breakdown)
	notes = append(notes, amountNotes...)

	return &Recommendation{
		Capital:           req.Capital,
		RiskLevel:         risk,
		InvestmentHorizon: horizon,
		HorizonMonths:     months,
		Allocation:        allocation,
		SectorBreakdown:   breakdown,
		Amounts:           amounts,
		MarketAnalysis:    *analysis,
	}, notes, nil
}

// selectSectors keeps the preferred sectors that are configured, in the
// order given and without duplicates. No preference selects every sector.
func (e *Engine) selectSectors(preferred []string) (selected, skipped []string) {
	if len(preferred) == 0 {
		return e.tables.SectorNames(), nil
	}

	seen := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		name := strings.TrimSpace(p)
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := e.tables.SectorSymbol(name); ok {
			selected = append(selected, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	return selected, skipped
}

func (e *Engine) amounts(
	ctx context.Context,
	capital decimal.Decimal,
	currency string,
	allocation domain.AssetAllocation,
	breakdown map[string]float64,
) (Amounts, []string) {
	var notes []string

	currency = strings.ToUpper(currency)
	rate := 1.0
	if currency == "" {
		currency = BaseCurrency
	}
	if currency != BaseCurrency {
		converted := false
		if e.rates != nil {
			r, err := e.rates.GetRate(ctx, BaseCurrency, currency)
			if err == nil && r > 0 {
				rate = r
				converted = true
			} else {
				e.log.Warn().Err(err).Str("currency", currency).Msg("Currency conversion failed")
			}
		}
		if !converted {
			notes = append(notes, "currency "+currency+": conversion unavailable, amounts in "+BaseCurrency)
			currency = BaseCurrency
		}
	}

	return buildAmounts(capital.Mul(decimal.NewFromFloat(rate)), currency, rate, allocation, breakdown), notes
}

func (e *Engine) fatal(id string, req Request, err error, log zerolog.Logger) Result {
	log.Error().Err(err).Msg("Recommendation failed, substituting default")

	capital := req.Capital
	if capital.IsNegative() {
		capital = decimal.Zero
	}
	rec := DefaultRecommendation(e.tables, capital)
	if risk, rerr := domain.ParseRiskLevel(req.RiskLevel); rerr == nil {
		rec.RiskLevel = risk
	}
	if horizon, herr := domain.ParseHorizon(req.InvestmentHorizon); herr == nil {
		rec.InvestmentHorizon = horizon
		rec.HorizonMonths = e.tables.Horizons[horizon]
	}

	return Result{
		ID:             id,
		Status:         StatusFatal,
		Recommendation: rec,
		Error:          err.Error(),
		Err:            err,
	}
}
