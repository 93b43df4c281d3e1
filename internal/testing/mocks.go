package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/aristath/marketadvisor/internal/domain"
)

// MockMarketDataProvider serves fixed series per symbol
type MockMarketDataProvider struct {
	mu     sync.Mutex
	name   string
	series map[string]*domain.PriceSeries
	errs   map[string]error
	calls  map[string]int
	panics map[string]bool
}

// NewMockMarketDataProvider creates an empty provider; unknown symbols return ErrNoData
func NewMockMarketDataProvider(name string) *MockMarketDataProvider {
	return &MockMarketDataProvider{
		name:   name,
		series: make(map[string]*domain.PriceSeries),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
		panics: make(map[string]bool),
	}
}

// SetSeries registers the series returned for its symbol
func (m *MockMarketDataProvider) SetSeries(s *domain.PriceSeries) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.Symbol] = s
	return m
}

// SetError makes GetDailyHistory fail for symbol
func (m *MockMarketDataProvider) SetError(symbol string, err error) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// SetPanic makes GetDailyHistory panic for symbol
func (m *MockMarketDataProvider) SetPanic(symbol string) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[symbol] = true
	return m
}

// Calls returns how many times symbol was requested
func (m *MockMarketDataProvider) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// Name implements domain.MarketDataProvider
func (m *MockMarketDataProvider) Name() string { return m.name }

// GetDailyHistory implements domain.MarketDataProvider
func (m *MockMarketDataProvider) GetDailyHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	m.mu.Lock()
	m.calls[symbol]++
	s, ok := m.series[symbol]
	err := m.errs[symbol]
	shouldPanic := m.panics[symbol]
	m.mu.Unlock()

	if shouldPanic {
		panic("mock provider panic for " + symbol)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoData
	}
	return s, nil
}

// MockNewsProvider returns fixed articles per query
type MockNewsProvider struct {
	mu       sync.Mutex
	articles map[string][]domain.Article
	err      error
	Queries  []domain.NewsQuery
}

// NewMockNewsProvider creates an empty news provider
func NewMockNewsProvider() *MockNewsProvider {
	return &MockNewsProvider{articles: make(map[string][]domain.Article)}
}

// SetArticles registers the articles for query
func (m *MockNewsProvider) SetArticles(query string, articles []domain.Article) *MockNewsProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[query] = articles
	return m
}

// SetError makes every search fail
func (m *MockNewsProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Everything implements domain.NewsProvider
func (m *MockNewsProvider) Everything(_ context.Context, q domain.NewsQuery) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.articles[q.Query], nil
}

// ErrMockClassify is returned by MockSentimentModel for texts marked as failing
var ErrMockClassify = errors.New("mock classifier failure")

// MockSentimentModel classifies by exact text match, defaulting to neutral
type MockSentimentModel struct {
	mu      sync.Mutex
	labels  map[string]domain.SentimentLabel
	failing map[string]bool
	Calls   int
}

// NewMockSentimentModel creates a classifier that labels everything NEU
func NewMockSentimentModel() *MockSentimentModel {
	return &MockSentimentModel{
		labels:  make(map[string]domain.SentimentLabel),
		failing: make(map[string]bool),
	}
}

// SetLabel sets the label returned for text
func (m *MockSentimentModel) SetLabel(text string, label domain.SentimentLabel) *MockSentimentModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[text] = label
	return m
}

// SetFailing makes Classify fail for text
func (m *MockSentimentModel) SetFailing(text string) *MockSentimentModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[text] = true
	return m
}

// Classify implements domain.SentimentModel
func (m *MockSentimentModel) Classify(_ context.Context, text string) (domain.SentimentScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.failing[text] {
		return domain.SentimentScore{}, ErrMockClassify
	}
	label, ok := m.labels[text]
	if !ok {
		label = domain.SentimentNeutral
	}
	return domain.SentimentScore{Label: label, Score: 0.9}, nil
}

// MockEntityExtractor returns the same entities for every text
type MockEntityExtractor struct {
	Entities []domain.Entity
	Err      error
}

// Extract implements domain.EntityExtractor
func (m *MockEntityExtractor) Extract(_ context.Context, _ string) ([]domain.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entities, nil
}

// MockRateProvider returns a fixed rate
type MockRateProvider struct {
	Rate float64
	Err  error
}

// GetRate implements domain.RateProvider
func (m *MockRateProvider) GetRate(_ context.Context, from, to string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if from == to {
		return 1, nil
	}
	return m.Rate, nil
}
