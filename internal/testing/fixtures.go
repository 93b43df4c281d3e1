package testing

import (
	"math"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
)

// FixtureStart is the first trading day used by price fixtures
var FixtureStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// TradingDays returns n weekdays starting at start
func TradingDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	for d := start; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// NewPriceSeries builds a series with one bar per close on consecutive
// trading days from FixtureStart. NaN closes model missing data.
func NewPriceSeries(symbol string, closes ...float64) *domain.PriceSeries {
	days := TradingDays(FixtureStart, len(closes))
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Date:     days[i],
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1_000_000,
		}
	}
	return &domain.PriceSeries{Symbol: symbol, Source: "fixture", Bars: bars}
}

// GeometricSeries grows start by dailyReturn for n closes
func GeometricSeries(symbol string, start, dailyReturn float64, n int) *domain.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start * math.Pow(1+dailyReturn, float64(i))
	}
	return NewPriceSeries(symbol, closes...)
}

// ReturnsSeries rebuilds closes from a starting price and a list of daily returns
func ReturnsSeries(symbol string, start float64, returns ...float64) *domain.PriceSeries {
	closes := make([]float64, len(returns)+1)
	closes[0] = start
	for i, r := range returns {
		closes[i+1] = closes[i] * (1 + r)
	}
	return NewPriceSeries(symbol, closes...)
}

// NewArticles builds n articles whose titles are "<prefix> <i>"
func NewArticles(prefix string, n int) []domain.Article {
	out := make([]domain.Article, n)
	for i := range out {
		out[i] = domain.Article{
			Title:       prefix + " " + string(rune('A'+i)),
			Description: "description",
			URL:         "https://news.example.com/" + prefix,
			Source:      "Example",
			PublishedAt: FixtureStart.AddDate(0, 0, i),
		}
	}
	return out
}
