// Package exchangerate provides currency exchange rate fetching and caching functionality.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Client for exchangerate-api.com. Implements domain.RateProvider.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	cache   clientdata.Store
}

// NewClient creates a new exchangerate-api.com client.
// cache is optional; nil disables caching and the stale fallback.
func NewClient(cache clientdata.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
		cache:   cache,
	}
}

// SetBaseURL overrides the API endpoint (tests)
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type cachedRate struct {
	Rate float64 `msgpack:"rate"`
}

// GetRate returns the fromCurrency -> toCurrency rate, preferring a fresh
// cache entry. When the API fails, a stale cached rate is returned instead.
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	key := fromCurrency + ":" + toCurrency

	if c.cache != nil {
		var cached cachedRate
		if ok, err := c.cache.GetIfFresh(ctx, clientdata.TableExchangeRates, key, &cached); err == nil && ok {
			c.log.Debug().Str("pair", key).Float64("rate", cached.Rate).Msg("Cache hit")
			return cached.Rate, nil
		}
	}

	rate, err := c.fetchRate(ctx, fromCurrency, toCurrency)
	if err != nil {
		if c.cache != nil {
			var stale cachedRate
			if ok, cerr := c.cache.Get(ctx, clientdata.TableExchangeRates, key, &stale); cerr == nil && ok {
				c.log.Warn().Err(err).
					Str("pair", key).
					Float64("rate", stale.Rate).
					Msg("API failed, using stale cached rate")
				return stale.Rate, nil
			}
		}
		return 0, err
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, clientdata.TableExchangeRates, key, cachedRate{Rate: rate}, clientdata.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("pair", key).Msg("Failed to cache exchange rate")
		}
	}

	c.log.Info().Str("pair", key).Float64("rate", rate).Msg("Fetched rate")
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+fromCurrency, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, ok := result.Rates[toCurrency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}
	return rate, nil
}
