// Package openai extracts named entities from news text with a chat
// completion model.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	gopenai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a named-entity recognizer for financial news.
Return a JSON object {"entities": [{"text": "...", "label": "..."}]}.
Use only these labels: ORG (companies, agencies, institutions), PERSON,
GPE (countries, cities, states) and MONEY (monetary amounts).
Copy entity text exactly as it appears. Return {"entities": []} when there are none.`

// Extractor implements domain.EntityExtractor
type Extractor struct {
	client *gopenai.Client
	model  string
	log    zerolog.Logger
}

// NewExtractor creates an extractor. baseURL may point at any
// OpenAI-compatible endpoint; empty uses the public API.
func NewExtractor(apiKey, model, baseURL string, log zerolog.Logger) *Extractor {
	if apiKey == "" {
		return &Extractor{model: model, log: log.With().Str("client", "openai").Logger()}
	}

	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Extractor{
		client: gopenai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.With().Str("client", "openai").Str("model", model).Logger(),
	}
}

type entityPayload struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// Extract implements domain.EntityExtractor
func (e *Extractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	if e.client == nil {
		return nil, fmt.Errorf("openai: %w", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("entity extraction returned no choices")
	}

	return parseEntities(resp.Choices[0].Message.Content)
}

// parseEntities decodes the model output and keeps ORG, PERSON, GPE and MONEY
// entities, deduplicated in order of appearance
func parseEntities(content string) ([]domain.Entity, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload entityPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse entities: %w", err)
	}

	seen := make(map[domain.Entity]bool)
	entities := make([]domain.Entity, 0, len(payload.Entities))
	for _, raw := range payload.Entities {
		ent := domain.Entity{
			Text:  strings.TrimSpace(raw.Text),
			Label: domain.EntityLabel(strings.ToUpper(strings.TrimSpace(raw.Label))),
		}
		if ent.Text == "" || !domain.KeptEntityLabels[ent.Label] || seen[ent] {
			continue
		}
		seen[ent] = true
		entities = append(entities, ent)
	}
	return entities, nil
}
