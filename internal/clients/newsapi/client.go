// Package newsapi is a client for the NewsAPI.org /v2/everything endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://newsapi.org"

// Client searches news articles
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	sources    []string
	log        zerolog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another host (tests)
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithLimiter replaces the default request limiter
func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithSources restricts every search to the given domains (reuters.com, ...)
func WithSources(domains []string) Option { return func(c *Client) { c.sources = domains } }

// NewClient creates a NewsAPI client. An empty apiKey yields a client whose
// searches fail with domain.ErrNotConfigured.
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		log:        log.With().Str("client", "newsapi").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type everythingResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Everything implements domain.NewsProvider
func (c *Client) Everything(ctx context.Context, q domain.NewsQuery) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("newsapi: empty query")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.Query)
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format("2006-01-02"))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if len(c.sources) > 0 {
		params.Set("domains", strings.Join(c.sources, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	var result everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse news response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || result.Code == "rateLimited" {
		return nil, fmt.Errorf("newsapi: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK || result.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %d %s: %s", resp.StatusCode, result.Code, result.Message)
	}

	articles := make([]domain.Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		// Removed articles come back as placeholders
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: published,
		})
	}

	c.log.Debug().
		Str("query", q.Query).
		Int("total", result.TotalResults).
		Int("returned", len(articles)).
		Msg("Fetched news articles")

	return articles, nil
}
