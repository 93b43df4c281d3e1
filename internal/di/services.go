package di

import (
	"github.com/aristath/marketadvisor/internal/clients/alphavantage"
	"github.com/aristath/marketadvisor/internal/clients/exchangerate"
	"github.com/aristath/marketadvisor/internal/clients/huggingface"
	"github.com/aristath/marketadvisor/internal/clients/newsapi"
	"github.com/aristath/marketadvisor/internal/clients/openai"
	"github.com/aristath/marketadvisor/internal/clients/yahoo"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/marketdata"
	"github.com/aristath/marketadvisor/internal/modules/allocation"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/aristath/marketadvisor/internal/modules/market_hours"
	"github.com/aristath/marketadvisor/internal/modules/sentiment"
	"github.com/aristath/marketadvisor/internal/modules/technical"
	"github.com/rs/zerolog"
)

// InitializeServices creates the API clients and the domain services.
// container.Store and container.Metrics must be set.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	tables := cfg.Tables
	store := container.Store
	marketTTL := tables.Cache.TTL(tables.Cache.MarketData)

	// Clients
	container.YahooClient = yahoo.NewClient(log, yahoo.WithRetry(cfg.MaxRetries, cfg.RetryDelay))
	container.AlphaVantageClient = alphavantage.NewClient(cfg.AlphaVantageAPIKey, log,
		alphavantage.WithCache(store, marketTTL))
	container.NewsClient = newsapi.NewClient(cfg.NewsAPIKey, log, newsapi.WithSources(cfg.NewsSources))
	container.SentimentModel = huggingface.NewClient(cfg.HuggingFaceAPIToken, cfg.SentimentModel, log)
	container.EntityExtractor = openai.NewExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, log)
	container.RateClient = exchangerate.NewClient(store, log)

	for name, configured := range map[string]bool{
		"alphavantage": cfg.AlphaVantageAPIKey != "",
		"newsapi":      cfg.NewsAPIKey != "",
		"huggingface":  cfg.HuggingFaceAPIToken != "",
		"openai":       cfg.OpenAIAPIKey != "",
	} {
		if !configured {
			log.Warn().Str("client", name).Msg("API key not set, client disabled")
		}
	}

	// Market data: Yahoo first, Alpha Vantage as fallback
	container.MarketDataChain = marketdata.NewChain(log, container.Metrics, marketdata.DefaultBreakerConfig(),
		container.YahooClient, container.AlphaVantageClient)
	container.MarketData = marketdata.NewCached(container.MarketDataChain, store, marketTTL, log)

	// Analytics
	sectors := analytics.NewSectorPerformanceCalculator(container.MarketData, tables.Sectors, tables.LookbackPeriod, log)
	correlation := analytics.NewAssetCorrelationCalculator(container.MarketData, tables.CorrelationBasket, tables.LookbackPeriod, log)
	container.AnalyticsService = analytics.NewService(
		sectors,
		correlation,
		store,
		tables.Cache.TTL(tables.Cache.PortfolioAnalysis),
		marketTTL, // degraded analyses are retried sooner
		container.Metrics,
		log,
	)
	container.MarketOverview = analytics.NewMarketOverview(container.MarketData, tables, log)

	// Allocation
	container.AllocationEngine = allocation.NewEngine(
		container.AnalyticsService,
		tables,
		container.RateClient,
		container.Metrics,
		log,
	)

	// Sentiment
	container.SentimentService = sentiment.NewService(
		container.NewsClient,
		container.SentimentModel,
		container.EntityExtractor,
		store,
		tables,
		log,
	)

	// Technical analysis and market hours
	container.TechnicalAnalyzer = technical.NewAnalyzer(container.MarketData, tables, store, log)
	container.MarketHoursService = market_hours.NewService(container.YahooClient, log)

	log.Info().Msg("Services initialized")
	return nil
}
