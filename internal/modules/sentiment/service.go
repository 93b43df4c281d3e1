package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// DefaultDays is the news window when none is given
	DefaultDays = 7
	// MaxDays bounds the news window
	MaxDays = 30

	marketSentimentKey = "market_sentiment"
)

// Service runs the news sentiment pipeline
type Service struct {
	news       domain.NewsProvider
	model      domain.SentimentModel
	entities   domain.EntityExtractor
	store      clientdata.Store
	ttl        time.Duration
	queries    []string
	marketDays int
	now        func() time.Time
	log        zerolog.Logger
}

// NewService creates the sentiment service. entities and store may be nil.
func NewService(
	news domain.NewsProvider,
	model domain.SentimentModel,
	entities domain.EntityExtractor,
	store clientdata.Store,
	tables config.Tables,
	log zerolog.Logger,
) *Service {
	if store == nil {
		store = clientdata.NopStore{}
	}
	return &Service{
		news:       news,
		model:      model,
		entities:   entities,
		store:      store,
		ttl:        tables.Cache.TTL(tables.Cache.NewsData),
		queries:    tables.MarketQueries,
		marketDays: tables.MarketSentimentDays,
		now:        time.Now,
		log:        log.With().Str("component", "sentiment").Logger(),
	}
}

// AnalyzeQuery classifies the English articles matching query over the last
// days. Articles the model fails on are skipped. Returns domain.ErrNoData
// when nothing could be classified.
func (s *Service) AnalyzeQuery(ctx context.Context, query string, days int) (*QuerySentiment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}

	key := "query:" + strings.ToLower(query) + ":" + strconv.Itoa(days)
	var cached QuerySentiment
	if ok, err := s.store.GetIfFresh(ctx, clientdata.TableNewsData, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("Failed to read cached sentiment")
	} else if ok {
		return &cached, nil
	}

	articles, err := s.news.Everything(ctx, domain.NewsQuery{
		Query:    query,
		From:     s.now().AddDate(0, 0, -days),
		Language: "en",
		SortBy:   "relevancy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %q: %w", query, err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles for %q: %w", query, domain.ErrNoData)
	}

	result := &QuerySentiment{Query: query, Days: days}
	counts := make(map[domain.SentimentLabel]int, 3)

	for _, article := range articles {
		text := article.Text()

		score, err := s.model.Classify(ctx, text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.Warn().Err(err).Str("title", article.Title).Msg("Sentiment classification failed, skipping article")
			result.Skipped++
			continue
		}

		counts[score.Label]++
		result.Articles = append(result.Articles, ArticleSentiment{
			Title:       article.Title,
			Source:      article.Source,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
			Sentiment:   score.Label,
			Score:       score.Score,
			Entities:    s.extract(ctx, text),
		})
	}

	total := len(result.Articles)
	if total == 0 {
		return nil, fmt.Errorf("no classifiable articles for %q: %w", query, domain.ErrNoData)
	}
	result.Positive = percent(counts[domain.SentimentPositive], total)
	result.Neutral = percent(counts[domain.SentimentNeutral], total)
	result.Negative = percent(counts[domain.SentimentNegative], total)

	if err := s.store.Store(ctx, clientdata.TableNewsData, key, result, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("Failed to cache sentiment")
	}

	s.log.Debug().
		Str("query", query).
		Int("articles", total).
		Int("skipped", result.Skipped).
		Msg("Query sentiment analyzed")

	return result, nil
}

// MarketSentiment averages the configured market queries. The overall label
// is positive only when the summed positive share exceeds the negative one.
func (s *Service) MarketSentiment(ctx context.Context) (*MarketSentiment, error) {
	var cached MarketSentiment
	if ok, err := s.store.GetIfFresh(ctx, clientdata.TableNewsData, marketSentimentKey, &cached); err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cached market sentiment")
	} else if ok {
		return &cached, nil
	}
	return s.computeMarketSentiment(ctx)
}

// RefreshMarketSentiment recomputes and re-caches the market sentiment
func (s *Service) RefreshMarketSentiment(ctx context.Context) (*MarketSentiment, error) {
	return s.computeMarketSentiment(ctx)
}

func (s *Service) computeMarketSentiment(ctx context.Context) (*MarketSentiment, error) {
	result := &MarketSentiment{}
	var totalPositive, totalNeutral, totalNegative float64
	var lastErr error

	for _, q := range s.queries {
		qs, err := s.AnalyzeQuery(ctx, q, s.marketDays)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !errors.Is(err, domain.ErrNoData) {
				s.log.Warn().Err(err).Str("query", q).Msg("Market query failed")
				lastErr = err
			}
			result.Missing = append(result.Missing, q)
			continue
		}
		totalPositive += qs.Positive
		totalNeutral += qs.Neutral
		totalNegative += qs.Negative
		result.Queries = append(result.Queries, q)
	}

	n := float64(len(result.Queries))
	if n == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no market query returned sentiment: %w", lastErr)
		}
		return nil, fmt.Errorf("no market query returned sentiment: %w", domain.ErrNoData)
	}

	result.Positive = totalPositive / n
	result.Neutral = totalNeutral / n
	result.Negative = totalNegative / n
	result.Overall = OverallNegative
	if totalPositive > totalNegative {
		result.Overall = OverallPositive
	}
	result.GeneratedAt = s.now().UTC()

	if err := s.store.Store(ctx, clientdata.TableNewsData, marketSentimentKey, result, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache market sentiment")
	}

	s.log.Info().
		Str("overall", result.Overall).
		Float64("positive", result.Positive).
		Float64("negative", result.Negative).
		Int("queries", len(result.Queries)).
		Msg("Market sentiment computed")

	return result, nil
}

// extract returns the kept entities of text, or none when extraction fails
func (s *Service) extract(ctx context.Context, text string) []domain.Entity {
	if s.entities == nil {
		return nil
	}
	found, err := s.entities.Extract(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrNotConfigured) {
			s.log.Warn().Err(err).Msg("Entity extraction failed")
		}
		return nil
	}

	kept := make([]domain.Entity, 0, len(found))
	for _, e := range found {
		if domain.KeptEntityLabels[e.Label] {
			kept = append(kept, e)
		}
	}
	return kept
}

func percent(count, total int) float64 {
	return float64(count) / float64(total) * 100
}
