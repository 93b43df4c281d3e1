// Package huggingface classifies text sentiment through the Hugging Face
// inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	// Tweet-sized models truncate far below this; it only bounds the request body
	maxInputChars = 2000
)

// Client implements domain.SentimentModel
type Client struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another host (tests)
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// NewClient creates a sentiment client for model
func NewClient(token, model string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		token:      token,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("client", "huggingface").Str("model", model).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify implements domain.SentimentModel
func (c *Client) Classify(ctx context.Context, text string) (domain.SentimentScore, error) {
	if c.token == "" || c.model == "" {
		return domain.SentimentScore{}, fmt.Errorf("huggingface: %w", domain.ErrNotConfigured)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.SentimentScore{}, fmt.Errorf("huggingface: empty input")
	}
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	payload, err := json.Marshal(inferenceRequest{Inputs: text, Options: inferenceOptions{WaitForModel: true}})
	if err != nil {
		return domain.SentimentScore{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+c.model, bytes.NewReader(payload))
	if err != nil {
		return domain.SentimentScore{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SentimentScore{}, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SentimentScore{}, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.SentimentScore{}, fmt.Errorf("huggingface: %w", domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return domain.SentimentScore{}, fmt.Errorf("huggingface returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	scores, err := parseScores(body)
	if err != nil {
		return domain.SentimentScore{}, err
	}
	return pickTop(scores)
}

// parseScores accepts both [[{label,score}]] and [{label,score}] shapes
func parseScores(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("huggingface: empty response")
		}
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse inference response: %w", err)
	}
	return flat, nil
}

func pickTop(scores []labelScore) (domain.SentimentScore, error) {
	best := -1
	for i, s := range scores {
		if best < 0 || s.Score > scores[best].Score {
			best = i
		}
	}
	if best < 0 {
		return domain.SentimentScore{}, fmt.Errorf("huggingface: no labels returned")
	}

	label, ok := mapLabel(scores[best].Label)
	if !ok {
		return domain.SentimentScore{}, fmt.Errorf("huggingface: unknown label %q", scores[best].Label)
	}
	return domain.SentimentScore{Label: label, Score: scores[best].Score}, nil
}

// mapLabel normalizes the label vocabularies of common sentiment models
func mapLabel(raw string) (domain.SentimentLabel, bool) {
	switch strings.ToUpper(raw) {
	case "POS", "POSITIVE", "LABEL_2":
		return domain.SentimentPositive, true
	case "NEU", "NEUTRAL", "LABEL_1":
		return domain.SentimentNeutral, true
	case "NEG", "NEGATIVE", "LABEL_0":
		return domain.SentimentNegative, true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
