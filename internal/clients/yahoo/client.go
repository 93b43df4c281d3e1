// Package yahoo implements domain.MarketDataProvider over the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client is a Yahoo Finance API client
type Client struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another host (tests)
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.client = h } }

// WithRetry sets the attempt count and the initial backoff, which doubles per attempt
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		maxRetries: 3,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements domain.MarketDataProvider
func (c *Client) Name() string { return "yahoo" }

// chartResponse mirrors the subset of /v8/finance/chart we read.
// Pointer slices distinguish JSON null (missing bar) from zero.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       chartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	ExchangeName       string   `json:"exchangeName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64    `json:"regularMarketTime"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
}

// Quote is the latest price snapshot for a symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	ChangePercent float64   `json:"change_percent"`
	MarketTime    time.Time `json:"market_time"`
}

// GetDailyHistory fetches daily OHLCV bars for symbol over period
// (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max).
// Transient failures are retried with exponential backoff.
func (c *Client) GetDailyHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		series, err := c.fetchHistory(ctx, symbol, period)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries-1 {
			break
		}

		wait := c.retryDelay * time.Duration(1<<uint(attempt))
		c.log.Warn().Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("Failed to fetch history, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	return !errors.Is(err, domain.ErrNoData) &&
		!errors.Is(err, domain.ErrInvalidSymbol) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// GetQuote returns the latest regular-market price for symbol.
// A symbol without a current price returns domain.ErrNoData.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	result, err := c.fetchChart(ctx, symbol, "1d")
	if err != nil {
		return nil, err
	}

	meta := result.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("yahoo %s: no market price: %w", symbol, domain.ErrNoData)
	}

	q := &Quote{
		Symbol:   symbol,
		Currency: meta.Currency,
		Exchange: meta.ExchangeName,
		Price:    *meta.RegularMarketPrice,
	}
	if meta.RegularMarketTime > 0 {
		q.MarketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	switch {
	case meta.PreviousClose != nil:
		q.PreviousClose = *meta.PreviousClose
	case meta.ChartPreviousClose != nil:
		q.PreviousClose = *meta.ChartPreviousClose
	}
	if q.PreviousClose != 0 {
		q.ChangePercent = (q.Price/q.PreviousClose - 1) * 100
	}
	return q, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol, period string) (*chartResponse, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)
	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrNoData)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrNoData)
		}
		return nil, fmt.Errorf("Yahoo Finance API error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrNoData)
	}
	return &result, nil
}

func (c *Client) fetchHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	result, err := c.fetchChart(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrNoData)
	}

	chart := result.Chart.Result[0]
	quote := chart.Indicators.Quote[0]
	var adjClose []*float64
	if len(chart.Indicators.AdjClose) > 0 {
		adjClose = chart.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		open, high, low, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		// Bars where Yahoo returned nothing at all are dropped; a bar with
		// only the close missing is kept with a NaN close.
		if math.IsNaN(open) && math.IsNaN(high) && math.IsNaN(low) && math.IsNaN(cl) {
			continue
		}

		adj := at(adjClose, i)
		if math.IsNaN(adj) {
			adj = cl
		}

		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		bars = append(bars, domain.PriceBar{
			Date:     time.Unix(ts, 0).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cl,
			AdjClose: adj,
			Volume:   volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domain.ErrNoData)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("period", period).
		Int("count", len(bars)).
		Msg("Fetched historical prices")

	return &domain.PriceSeries{Symbol: symbol, Source: c.Name(), Bars: bars}, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
