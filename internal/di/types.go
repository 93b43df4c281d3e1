// Package di constructs every dependency once at process start.
package di

import (
	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/clients/alphavantage"
	"github.com/aristath/marketadvisor/internal/clients/exchangerate"
	"github.com/aristath/marketadvisor/internal/clients/huggingface"
	"github.com/aristath/marketadvisor/internal/clients/newsapi"
	"github.com/aristath/marketadvisor/internal/clients/openai"
	"github.com/aristath/marketadvisor/internal/clients/yahoo"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/database"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/marketdata"
	"github.com/aristath/marketadvisor/internal/metrics"
	"github.com/aristath/marketadvisor/internal/modules/allocation"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/aristath/marketadvisor/internal/modules/market_hours"
	"github.com/aristath/marketadvisor/internal/modules/sentiment"
	"github.com/aristath/marketadvisor/internal/modules/technical"
	"github.com/aristath/marketadvisor/internal/scheduler"
	"github.com/redis/go-redis/v9"
)

// Container holds all dependencies for the application.
// It is created by Wire and handed to the server and cmd/server.
type Container struct {
	Config  *config.Config
	Metrics *metrics.Registry

	// Cache backend: exactly one of CacheDB / RedisClient is set, or
	// neither when CACHE_BACKEND=none
	CacheDB     *database.DB
	RedisClient *redis.Client
	Store       clientdata.Store

	// Clients - External API integrations
	YahooClient        *yahoo.Client
	AlphaVantageClient *alphavantage.Client
	NewsClient         *newsapi.Client
	SentimentModel     *huggingface.Client
	EntityExtractor    *openai.Extractor
	RateClient         *exchangerate.Client

	// Market data: breaker chain over the clients, cached
	MarketDataChain *marketdata.Chain
	MarketData      domain.MarketDataProvider

	// Services
	AnalyticsService   *analytics.Service
	MarketOverview     *analytics.MarketOverview
	AllocationEngine   *allocation.Engine
	SentimentService   *sentiment.Service
	TechnicalAnalyzer  *technical.Analyzer
	MarketHoursService *market_hours.Service

	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the scheduled jobs so they can be triggered manually
type JobInstances struct {
	CacheCleanup     scheduler.Job
	CacheMaintenance scheduler.Job // nil unless the SQLite cache is in use
	SentimentRefresh scheduler.Job
}

// Close releases the cache connections
func (c *Container) Close() error {
	var firstErr error
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil {
			firstErr = err
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
