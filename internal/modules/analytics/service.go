package analytics

import (
	"context"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/utils"
	"github.com/rs/zerolog"
)

const marketAnalysisKey = "market_analysis"

// StepObserver records how long analysis steps take
type StepObserver interface {
	ObserveStep(step string, d time.Duration)
}

// Service produces the market analysis, caching complete results under the
// portfolio analysis TTL and degraded ones under the shorter degradedTTL
type Service struct {
	sectors     *SectorPerformanceCalculator
	correlation *AssetCorrelationCalculator
	store       clientdata.Store
	ttl         time.Duration
	degradedTTL time.Duration
	steps       StepObserver
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates the analysis service. store and steps may be nil.
func NewService(
	sectors *SectorPerformanceCalculator,
	correlation *AssetCorrelationCalculator,
	store clientdata.Store,
	ttl, degradedTTL time.Duration,
	steps StepObserver,
	log zerolog.Logger,
) *Service {
	if store == nil {
		store = clientdata.NopStore{}
	}
	return &Service{
		sectors:     sectors,
		correlation: correlation,
		store:       store,
		ttl:         ttl,
		degradedTTL: degradedTTL,
		steps:       steps,
		now:         time.Now,
		log:         log.With().Str("component", "market_analysis").Logger(),
	}
}

// MarketAnalysis returns the cached analysis when fresh, otherwise computes
// sector performance and correlation. It never fails: missing data degrades
// to defaults, recorded in Notes.
func (s *Service) MarketAnalysis(ctx context.Context) *MarketAnalysis {
	var cached MarketAnalysis
	if ok, err := s.store.GetIfFresh(ctx, clientdata.TablePortfolioAnalysis, marketAnalysisKey, &cached); err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cached market analysis")
	} else if ok {
		return &cached
	}

	analysis := s.Compute(ctx)

	ttl := s.ttl
	if analysis.Degraded() {
		ttl = s.degradedTTL
	}
	if ctx.Err() == nil {
		if err := s.store.Store(ctx, clientdata.TablePortfolioAnalysis, marketAnalysisKey, analysis, ttl); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache market analysis")
		}
	}
	return analysis
}

// Compute always recalculates, bypassing the cache
func (s *Service) Compute(ctx context.Context) *MarketAnalysis {
	stop := utils.OperationTimer("sector_performance", s.log)
	perf := s.sectors.Calculate(ctx)
	s.observe("sector_performance", stop())

	stop = utils.OperationTimer("correlation", s.log)
	corr := s.correlation.Calculate(ctx)
	s.observe("correlation", stop())

	analysis := &MarketAnalysis{
		SectorPerformance: perf,
		Correlation:       corr,
		GeneratedAt:       s.now().UTC(),
	}
	for _, sector := range perf.Defaulted {
		analysis.Notes = append(analysis.Notes, "sector "+sector+": default metrics applied")
	}
	for _, symbol := range corr.Dropped {
		analysis.Notes = append(analysis.Notes, "correlation: "+symbol+" dropped (no data)")
	}
	if corr.Fallback {
		analysis.Notes = append(analysis.Notes, "correlation: identity matrix applied")
	}

	s.log.Info().
		Int("sectors", len(perf.Sectors)).
		Int("defaulted", len(perf.Defaulted)).
		Int("correlated", corr.Matrix.Size()).
		Bool("identity_fallback", corr.Fallback).
		Msg("Market analysis computed")

	return analysis
}

// Invalidate drops the cached analysis
func (s *Service) Invalidate(ctx context.Context) error {
	return s.store.Delete(ctx, clientdata.TablePortfolioAnalysis, marketAnalysisKey)
}

func (s *Service) observe(step string, d time.Duration) {
	if s.steps != nil {
		s.steps.ObserveStep(step, d)
	}
}
