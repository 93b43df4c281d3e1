// Package allocation turns a risk profile, horizon and sector preferences
// into a capital allocation.
package allocation

import (
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/shopspring/decimal"
)

// Status classifies how a Result was produced
type Status string

const (
	// StatusComplete means every input was real data
	StatusComplete Status = "complete"
	// StatusDegraded means some inputs fell back to defaults, listed in Notes
	StatusDegraded Status = "degraded"
	// StatusFatal means the default recommendation was substituted
	StatusFatal Status = "fatal"
)

// Amount is a money value with its display string
type Amount struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// Amounts are the allocation fractions applied to capital
type Amounts struct {
	Currency   string            `json:"currency"`
	Rate       float64           `json:"rate"`
	Capital    Amount            `json:"capital"`
	Allocation map[string]Amount `json:"allocation"`
	Sectors    map[string]Amount `json:"sectors"`
}

// Recommendation is a suggested portfolio
type Recommendation struct {
	Capital           decimal.Decimal          `json:"capital"`
	RiskLevel         domain.RiskLevel         `json:"risk_level"`
	InvestmentHorizon domain.Horizon           `json:"investment_horizon"`
	HorizonMonths     int                      `json:"horizon_months"`
	Allocation        domain.AssetAllocation   `json:"allocation"`
	SectorBreakdown   map[string]float64       `json:"sector_breakdown"`
	Amounts           Amounts                  `json:"amounts"`
	MarketAnalysis    analytics.MarketAnalysis `json:"market_analysis"`
}

// Result wraps a recommendation with how it was produced
type Result struct {
	ID             string         `json:"id"`
	Status         Status         `json:"status"`
	Recommendation Recommendation `json:"recommendation"`
	Notes          []string       `json:"notes,omitempty"`
	Error          string         `json:"error,omitempty"`
	Err            error          `json:"-"`
}
