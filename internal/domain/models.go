// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RiskLevel is the user's stated risk tolerance
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevels lists the supported risk levels in ascending order
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// ParseRiskLevel accepts any casing of LOW, MEDIUM or HIGH
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range RiskLevels {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Horizon names an investment horizon. Its length in months comes from configuration.
type Horizon string

const (
	HorizonShort  Horizon = "SHORT_TERM"
	HorizonMedium Horizon = "MEDIUM_TERM"
	HorizonLong   Horizon = "LONG_TERM"
)

// Horizons lists the supported horizons from shortest to longest
var Horizons = []Horizon{HorizonShort, HorizonMedium, HorizonLong}

// ParseHorizon accepts any casing of the horizon names
func ParseHorizon(s string) (Horizon, error) {
	h := Horizon(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Horizons {
		if h == known {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown investment horizon %q", s)
}

// Asset class keys used in allocation maps.
const (
	AssetEquity      = "equity"
	AssetCommodities = "commodities"
	AssetForex       = "forex"
	AssetFixedIncome = "fixed_income"
)

// AssetClasses lists the allocation keys in display order
var AssetClasses = []string{AssetEquity, AssetCommodities, AssetForex, AssetFixedIncome}

// AssetAllocation is a split of capital across the four asset classes.
// Values are fractions of capital.
type AssetAllocation struct {
	Equity      float64 `json:"equity" yaml:"equity"`
	Commodities float64 `json:"commodities" yaml:"commodities"`
	Forex       float64 `json:"forex" yaml:"forex"`
	FixedIncome float64 `json:"fixed_income" yaml:"fixed_income"`
}

// Sum returns the total fraction allocated
func (a AssetAllocation) Sum() float64 {
	return a.Equity + a.Commodities + a.Forex + a.FixedIncome
}

// Map returns the allocation keyed by asset class
func (a AssetAllocation) Map() map[string]float64 {
	return map[string]float64{
		AssetEquity:      a.Equity,
		AssetCommodities: a.Commodities,
		AssetForex:       a.Forex,
		AssetFixedIncome: a.FixedIncome,
	}
}

// PriceBar is one trading day of OHLCV data
type PriceBar struct {
	Date     time.Time `json:"date" msgpack:"date"`
	Open     float64   `json:"open" msgpack:"open"`
	High     float64   `json:"high" msgpack:"high"`
	Low      float64   `json:"low" msgpack:"low"`
	Close    float64   `json:"close" msgpack:"close"`
	AdjClose float64   `json:"adj_close" msgpack:"adj_close"`
	Volume   int64     `json:"volume" msgpack:"volume"`
}

// PriceSeries is a date-ascending daily history for one symbol.
// A missing close is stored as NaN.
type PriceSeries struct {
	Symbol string     `json:"symbol" msgpack:"symbol"`
	Source string     `json:"source" msgpack:"source"`
	Bars   []PriceBar `json:"bars" msgpack:"bars"`
}

// Closes returns the closing prices, skipping missing ones
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, 0, len(s.Bars))
	for _, b := range s.Bars {
		if !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) {
			out = append(out, b.Close)
		}
	}
	return out
}

// ClosesByDate returns closing prices keyed by calendar day (YYYY-MM-DD)
func (s *PriceSeries) ClosesByDate() map[string]float64 {
	out := make(map[string]float64)
	if s == nil {
		return out
	}
	for _, b := range s.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		out[b.Date.Format("2006-01-02")] = b.Close
	}
	return out
}

// IsEmpty reports whether the series has no usable closing price
func (s *PriceSeries) IsEmpty() bool {
	return s == nil || len(s.Closes()) == 0
}

// Last returns the most recent bar with a usable close
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s == nil {
		return PriceBar{}, false
	}
	for i := len(s.Bars) - 1; i >= 0; i-- {
		c := s.Bars[i].Close
		if !math.IsNaN(c) && !math.IsInf(c, 0) {
			return s.Bars[i], true
		}
	}
	return PriceBar{}, false
}

// Article is a news item returned by a news provider
type Article struct {
	Title       string    `json:"title" msgpack:"title"`
	Description string    `json:"description" msgpack:"description"`
	URL         string    `json:"url" msgpack:"url"`
	Source      string    `json:"source" msgpack:"source"`
	PublishedAt time.Time `json:"published_at" msgpack:"published_at"`
}

// Text is the string fed to the sentiment model and entity extractor
func (a Article) Text() string {
	return a.Title + " " + a.Description
}

// SentimentLabel is the classifier output class
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POS"
	SentimentNeutral  SentimentLabel = "NEU"
	SentimentNegative SentimentLabel = "NEG"
)

// SentimentScore is a single classification result
type SentimentScore struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// EntityLabel is the named-entity class
type EntityLabel string

const (
	EntityOrg    EntityLabel = "ORG"
	EntityPerson EntityLabel = "PERSON"
	EntityPlace  EntityLabel = "GPE"
	EntityMoney  EntityLabel = "MONEY"
)

// KeptEntityLabels are the entity classes surfaced to callers
var KeptEntityLabels = map[EntityLabel]bool{
	EntityOrg:    true,
	EntityPerson: true,
	EntityPlace:  true,
	EntityMoney:  true,
}

// Entity is a named entity found in article text
type Entity struct {
	Text  string      `json:"text"`
	Label EntityLabel `json:"label"`
}
