package domain

import (
	"context"
	"time"
)

// MarketDataProvider returns daily price history for a ticker.
// period uses range notation ("1mo", "6mo", "1y", "5y").
// Implementations return ErrNoData when the symbol has no history.
type MarketDataProvider interface {
	Name() string
	GetDailyHistory(ctx context.Context, symbol, period string) (*PriceSeries, error)
}

// NewsQuery describes a news search
type NewsQuery struct {
	Query    string
	From     time.Time
	Language string
	SortBy   string
	PageSize int
}

// NewsProvider searches news articles
type NewsProvider interface {
	Everything(ctx context.Context, q NewsQuery) ([]Article, error)
}

// SentimentModel classifies a piece of text as positive, neutral or negative
type SentimentModel interface {
	Classify(ctx context.Context, text string) (SentimentScore, error)
}

// EntityExtractor finds named entities in text.
// Implementations may return any labels; callers filter to KeptEntityLabels.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
}

// RateProvider converts between currencies
type RateProvider interface {
	GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}
