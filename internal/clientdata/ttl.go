package clientdata

import "time"

// Cache tables. Each holds msgpack blobs keyed by cache_key with an expires_at timestamp.
const (
	TableMarketData          = "market_data"
	TableNewsData            = "news_data"
	TableTechnicalIndicators = "technical_indicators"
	TablePortfolioAnalysis   = "portfolio_analysis"
	TableExchangeRates       = "exchange_rates"
)

// Default freshness windows. Services normally pass the configured value;
// these apply when a caller stores with a zero TTL.
const (
	TTLMarketData          = 5 * time.Minute  // daily history and quotes
	TTLNewsData            = 15 * time.Minute // news searches and their sentiment
	TTLTechnicalIndicators = 5 * time.Minute
	TTLPortfolioAnalysis   = time.Hour // sector performance + correlation snapshot
	TTLExchangeRate        = time.Hour
)

// DefaultTTL returns the default freshness window for a table
func DefaultTTL(table string) time.Duration {
	switch table {
	case TableMarketData:
		return TTLMarketData
	case TableNewsData:
		return TTLNewsData
	case TableTechnicalIndicators:
		return TTLTechnicalIndicators
	case TablePortfolioAnalysis:
		return TTLPortfolioAnalysis
	case TableExchangeRates:
		return TTLExchangeRate
	default:
		return TTLMarketData
	}
}
