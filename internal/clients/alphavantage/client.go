// Package alphavantage provides a daily-quota-aware Alpha Vantage client
// implementing domain.MarketDataProvider for equities and FX pairs.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	// Free tier: 25 requests per day, 5 per minute
	defaultDailyLimit = 25
	defaultPerMinute  = 5
)

var fxSymbol = regexp.MustCompile(`^([A-Z]{3})([A-Z]{3})=X$`)

// ErrRateLimitExceeded is returned when the daily quota is used up or the API says so
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string { return "alpha vantage rate limit exceeded" }

// Unwrap lets errors.Is match domain.ErrRateLimited
func (ErrRateLimitExceeded) Unwrap() error { return domain.ErrRateLimited }

// ErrInvalidAPIKey is returned when the API rejects the key
type ErrInvalidAPIKey struct{}

func (ErrInvalidAPIKey) Error() string { return "alpha vantage: invalid API key" }

// ErrSymbolNotFound is returned for symbols the API does not know
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("alpha vantage: symbol not found: %s", e.Symbol)
}

// Unwrap lets errors.Is match domain.ErrNoData
func (ErrSymbolNotFound) Unwrap() error { return domain.ErrNoData }

// Client is an Alpha Vantage API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	cache    clientdata.Store
	cacheTTL time.Duration

	mu           sync.Mutex
	dailyLimit   int
	requestCount int
	resetTime    time.Time
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another host (tests)
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithLimiter replaces the per-minute limiter
func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithCache stores raw API responses so repeated lookups do not spend quota.
// A zero ttl uses the market data default.
func WithCache(store clientdata.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/defaultPerMinute), 1),
		log:        log.With().Str("client", "alphavantage").Logger(),
		dailyLimit: defaultDailyLimit,
		resetTime:  nextMidnightUTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements domain.MarketDataProvider
func (c *Client) Name() string { return "alphavantage" }

// GetRemainingRequests returns how many calls are left today
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	return c.dailyLimit - c.requestCount
}

// ResetDailyCounter restores the full daily quota
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.resetTime = nextMidnightUTC()
}

func (c *Client) maybeResetLocked() {
	if time.Now().UTC().After(c.resetTime) {
		c.requestCount = 0
		c.resetTime = nextMidnightUTC()
	}
}

// checkRateLimit consumes one unit of the daily quota
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	if c.requestCount >= c.dailyLimit {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// GetDailyHistory implements domain.MarketDataProvider.
// FX symbols of the form EURUSD=X are served by FX_DAILY; indices (^GSPC)
// and futures (GC=F) are not available and return domain.ErrInvalidSymbol.
func (c *Client) GetDailyHistory(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: %w", domain.ErrNotConfigured)
	}

	params := map[string]string{"outputsize": outputSize(period)}
	function := "TIME_SERIES_DAILY"
	switch {
	case fxSymbol.MatchString(symbol):
		m := fxSymbol.FindStringSubmatch(symbol)
		function = "FX_DAILY"
		params["from_symbol"] = m[1]
		params["to_symbol"] = m[2]
	case strings.HasPrefix(symbol, "^") || strings.Contains(symbol, "="):
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, domain.ErrInvalidSymbol)
	default:
		params["symbol"] = symbol
	}

	body, err := c.query(ctx, function, params)
	if err != nil {
		var notFound ErrSymbolNotFound
		if errors.As(err, &notFound) {
			notFound.Symbol = symbol
			return nil, notFound
		}
		return nil, err
	}

	bars, err := parseDailyTimeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, err)
	}
	if cutoff, ok := periodStart(period, time.Now().UTC()); ok {
		idx := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(cutoff) })
		bars = bars[idx:]
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, domain.ErrNoData)
	}

	return &domain.PriceSeries{Symbol: symbol, Source: c.Name(), Bars: bars}, nil
}

// query performs one API call, serving from the cache when possible
func (c *Client) query(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	key := buildCacheKey(function, params)
	if c.cache != nil {
		var cached []byte
		if ok, err := c.cache.GetIfFresh(ctx, clientdata.TableMarketData, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", function)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}
	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("function", function).
		Int("remaining", c.GetRemainingRequests()).
		Msg("Alpha Vantage request")

	if c.cache != nil {
		if err := c.cache.Store(ctx, clientdata.TableMarketData, key, body, c.cacheTTL); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}
	return body, nil
}

// checkAPIError detects error payloads, which Alpha Vantage sends with status 200
func (c *Client) checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "Thank you for using Alpha Vantage") {
		return ErrRateLimitExceeded{}
	}

	var probe map[string]interface{}
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	for _, field := range []string{"Note", "Information"} {
		if msg, ok := probe[field].(string); ok {
			lower := strings.ToLower(msg)
			if strings.Contains(lower, "frequency") || strings.Contains(lower, "rate limit") ||
				strings.Contains(lower, "requests per day") {
				return ErrRateLimitExceeded{}
			}
			if strings.Contains(lower, "apikey") || strings.Contains(lower, "api key") {
				return ErrInvalidAPIKey{}
			}
		}
	}

	if msg, ok := probe["Error Message"].(string); ok {
		if strings.Contains(msg, "Invalid API call") {
			return ErrSymbolNotFound{}
		}
		return fmt.Errorf("alpha vantage error: %s", msg)
	}
	return nil
}

// buildCacheKey derives a stable key from the function and its parameters.
// The API key is never part of the key.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("av:")
	b.WriteString(function)
	for _, k := range keys {
		b.WriteString(":")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

// outputSize picks "compact" (last 100 points) when that covers the period
func outputSize(period string) string {
	switch period {
	case "1d", "5d", "1mo", "3mo":
		return "compact"
	}
	return "full"
}

// periodStart maps a Yahoo-style period to its first included date
func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "1d":
		return now.AddDate(0, 0, -1), true
	case "5d":
		return now.AddDate(0, 0, -5), true
	case "1mo":
		return now.AddDate(0, -1, 0), true
	case "3mo":
		return now.AddDate(0, -3, 0), true
	case "6mo":
		return now.AddDate(0, -6, 0), true
	case "1y":
		return now.AddDate(-1, 0, 0), true
	case "2y":
		return now.AddDate(-2, 0, 0), true
	case "5y":
		return now.AddDate(-5, 0, 0), true
	case "10y":
		return now.AddDate(-10, 0, 0), true
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseDailyTimeSeries parses TIME_SERIES_DAILY and FX_DAILY payloads into
// bars sorted oldest first
func parseDailyTimeSeries(body []byte) ([]domain.PriceBar, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse time series: %w", err)
	}

	var series map[string]map[string]string
	for key, value := range raw {
		if strings.HasPrefix(key, "Time Series") {
			if err := json.Unmarshal(value, &series); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", key, err)
			}
			break
		}
	}
	if series == nil {
		return nil, domain.ErrNoData
	}

	bars := make([]domain.PriceBar, 0, len(series))
	for date, fields := range series {
		d := parseDate(date)
		if d.IsZero() {
			continue
		}
		cl := parseFloat64Ptr(fields["4. close"])
		closeVal := math.NaN()
		if cl != nil {
			closeVal = *cl
		}
		bars = append(bars, domain.PriceBar{
			Date:     d,
			Open:     parseFloat64(fields["1. open"]),
			High:     parseFloat64(fields["2. high"]),
			Low:      parseFloat64(fields["3. low"]),
			Close:    closeVal,
			AdjClose: closeVal,
			Volume:   parseInt64(fields["5. volume"]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func isNullString(s string) bool {
	switch s {
	case "", "None", "null", "-":
		return true
	}
	return false
}

func parseFloat64(s string) float64 {
	if isNullString(s) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat64Ptr(s string) *float64 {
	if isNullString(s) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt64(s string) int64 {
	if isNullString(s) {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
