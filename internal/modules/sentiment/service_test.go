package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newService(news domain.NewsProvider, model domain.SentimentModel, entities domain.EntityExtractor, store clientdata.Store) *Service {
	s := NewService(news, model, entities, store, config.DefaultTables(), zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAnalyzeQuery(t *testing.T) {
	articles := testutil.NewArticles("fed", 4)
	news := testutil.NewMockNewsProvider().SetArticles("federal reserve", articles)
	model := testutil.NewMockSentimentModel().
		SetLabel(articles[0].Text(), domain.SentimentPositive).
		SetLabel(articles[1].Text(), domain.SentimentNegative).
		SetFailing(articles[3].Text())
	entities := &testutil.MockEntityExtractor{Entities: []domain.Entity{
		{Text: "Federal Reserve", Label: domain.EntityOrg},
		{Text: "Tuesday", Label: "DATE"},
	}}

	svc := newService(news, model, entities, nil)
	result, err := svc.AnalyzeQuery(context.Background(), "  federal reserve ", 3)
	require.NoError(t, err)

	assert.Equal(t, "federal reserve", result.Query)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Articles, 3)
	assert.InDelta(t, 100.0/3, result.Positive, 1e-9)
	assert.InDelta(t, 100.0/3, result.Neutral, 1e-9)
	assert.InDelta(t, 100.0/3, result.Negative, 1e-9)
	assert.Equal(t, []domain.Entity{{Text: "Federal Reserve", Label: domain.EntityOrg}}, result.Articles[0].Entities)
	assert.Equal(t, 0.9, result.Articles[0].Score)

	require.Len(t, news.Queries, 1)
	q := news.Queries[0]
	assert.Equal(t, "en", q.Language)
	assert.Equal(t, "relevancy", q.SortBy)
	assert.Equal(t, fixedNow.AddDate(0, 0, -3), q.From)
}

func TestAnalyzeQuery_Days(t *testing.T) {
	news := testutil.NewMockNewsProvider().SetArticles("economy", testutil.NewArticles("eco", 1))
	svc := newService(news, testutil.NewMockSentimentModel(), nil, nil)

	tests := []struct {
		days int
		want int
	}{
		{0, DefaultDays},
		{-2, DefaultDays},
		{45, MaxDays},
		{10, 10},
	}
	for _, tt := range tests {
		result, err := svc.AnalyzeQuery(context.Background(), "economy", tt.days)
		require.NoError(t, err)
		assert.Equal(t, tt.want, result.Days)
	}
}

func TestAnalyzeQuery_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		svc := newService(testutil.NewMockNewsProvider(), testutil.NewMockSentimentModel(), nil, nil)
		_, err := svc.AnalyzeQuery(context.Background(), " ", 3)
		assert.Error(t, err)
	})

	t.Run("no articles", func(t *testing.T) {
		svc := newService(testutil.NewMockNewsProvider(), testutil.NewMockSentimentModel(), nil, nil)
		_, err := svc.AnalyzeQuery(context.Background(), "nothing", 3)
		assert.ErrorIs(t, err, domain.ErrNoData)
	})

	t.Run("every classification fails", func(t *testing.T) {
		articles := testutil.NewArticles("x", 2)
		model := testutil.NewMockSentimentModel().SetFailing(articles[0].Text()).SetFailing(articles[1].Text())
		svc := newService(testutil.NewMockNewsProvider().SetArticles("x", articles), model, nil, nil)
		_, err := svc.AnalyzeQuery(context.Background(), "x", 3)
		assert.ErrorIs(t, err, domain.ErrNoData)
	})

	t.Run("provider error", func(t *testing.T) {
		news := testutil.NewMockNewsProvider()
		news.SetError(domain.ErrRateLimited)
		svc := newService(news, testutil.NewMockSentimentModel(), nil, nil)
		_, err := svc.AnalyzeQuery(context.Background(), "x", 3)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("extractor failure keeps article", func(t *testing.T) {
		news := testutil.NewMockNewsProvider().SetArticles("x", testutil.NewArticles("x", 1))
		entities := &testutil.MockEntityExtractor{Err: errors.New("llm down")}
		svc := newService(news, testutil.NewMockSentimentModel(), entities, nil)
		result, err := svc.AnalyzeQuery(context.Background(), "x", 3)
		require.NoError(t, err)
		require.Len(t, result.Articles, 1)
		assert.Empty(t, result.Articles[0].Entities)
	})
}

func TestAnalyzeQuery_Cached(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()

	news := testutil.NewMockNewsProvider().SetArticles("inflation", testutil.NewArticles("cpi", 2))
	model := testutil.NewMockSentimentModel()
	svc := newService(news, model, nil, clientdata.NewRepository(db.Conn()))

	first, err := svc.AnalyzeQuery(context.Background(), "inflation", 3)
	require.NoError(t, err)
	second, err := svc.AnalyzeQuery(context.Background(), "Inflation", 3)
	require.NoError(t, err)

	assert.Len(t, news.Queries, 1)
	assert.Equal(t, 2, model.Calls)
	assert.Equal(t, first.Neutral, second.Neutral)
	assert.Len(t, second.Articles, 2)

	// A different window is a different entry
	_, err = svc.AnalyzeQuery(context.Background(), "inflation", 5)
	require.NoError(t, err)
	assert.Len(t, news.Queries, 2)
}

func marketNews() (*testutil.MockNewsProvider, *testutil.MockSentimentModel) {
	news := testutil.NewMockNewsProvider()
	model := testutil.NewMockSentimentModel()

	// stock market: 2 POS of 2; economy: 1 NEG of 2; inflation: 2 NEG of 2.
	sm := testutil.NewArticles("stocks", 2)
	eco := testutil.NewArticles("eco", 2)
	inf := testutil.NewArticles("inf", 2)
	news.SetArticles("stock market", sm).SetArticles("economy", eco).SetArticles("inflation", inf)
	model.SetLabel(sm[0].Text(), domain.SentimentPositive).
		SetLabel(sm[1].Text(), domain.SentimentPositive).
		SetLabel(eco[0].Text(), domain.SentimentNegative).
		SetLabel(inf[0].Text(), domain.SentimentNegative).
		SetLabel(inf[1].Text(), domain.SentimentNegative)
	return news, model
}

func TestMarketSentiment(t *testing.T) {
	news, model := marketNews()
	svc := newService(news, model, nil, nil)

	result, err := svc.MarketSentiment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"stock market", "economy", "inflation"}, result.Queries)
	assert.Equal(t, []string{"interest rates", "federal reserve"}, result.Missing)
	assert.InDelta(t, 100.0/3, result.Positive, 1e-9)
	assert.InDelta(t, 50.0/3, result.Neutral, 1e-9)
	assert.InDelta(t, 150.0/3, result.Negative, 1e-9)
	assert.Equal(t, OverallNegative, result.Overall)

	for _, q := range news.Queries {
		assert.Equal(t, fixedNow.AddDate(0, 0, -3), q.From)
	}
}

func TestMarketSentiment_PositiveOnlyWhenStrictlyGreater(t *testing.T) {
	news := testutil.NewMockNewsProvider()
	model := testutil.NewMockSentimentModel()
	a := testutil.NewArticles("a", 2)
	news.SetArticles("economy", a)
	model.SetLabel(a[0].Text(), domain.SentimentPositive).SetLabel(a[1].Text(), domain.SentimentNegative)

	result, err := newService(news, model, nil, nil).MarketSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Positive)
	assert.Equal(t, 50.0, result.Negative)
	assert.Equal(t, OverallNegative, result.Overall)

	model.SetLabel(a[1].Text(), domain.SentimentNeutral)
	result, err = newService(news, model, nil, nil).MarketSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OverallPositive, result.Overall)
}

func TestMarketSentiment_NoData(t *testing.T) {
	svc := newService(testutil.NewMockNewsProvider(), testutil.NewMockSentimentModel(), nil, nil)
	_, err := svc.MarketSentiment(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestMarketSentiment_Cancelled(t *testing.T) {
	news, model := marketNews()
	news.SetError(context.Canceled)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(news, model, nil, nil).MarketSentiment(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshJob(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()
	store := clientdata.NewRepository(db.Conn())

	news, model := marketNews()
	svc := newService(news, model, nil, store)
	job := NewRefreshJob(svc, zerolog.Nop())

	assert.Equal(t, "sentiment_refresh", job.Name())
	require.NoError(t, job.Run())

	var cached MarketSentiment
	ok, err := store.GetIfFresh(context.Background(), clientdata.TableNewsData, marketSentimentKey, &cached)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, OverallNegative, cached.Overall)

	queries := len(news.Queries)
	_, err = svc.MarketSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, queries, len(news.Queries), "served from cache")
}

func TestRefreshJob_Failure(t *testing.T) {
	svc := newService(testutil.NewMockNewsProvider(), testutil.NewMockSentimentModel(), nil, nil)
	assert.Error(t, NewRefreshJob(svc, zerolog.Nop()).Run())
}
