package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const model = "finiteautomata/bertweet-base-sentiment-analysis"

func TestClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/"+model, r.URL.Path)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))

		var req inferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Stocks rally", req.Inputs)
		assert.True(t, req.Options.WaitForModel)

		_, _ = w.Write([]byte(`[[{"label":"POS","score":0.91},{"label":"NEU","score":0.07},{"label":"NEG","score":0.02}]]`))
	}))
	defer server.Close()

	client := NewClient("hf-token", model, zerolog.Nop(), WithBaseURL(server.URL))
	score, err := client.Classify(context.Background(), "  Stocks rally ")
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, score.Label)
	assert.Equal(t, 0.91, score.Score)
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		label domain.SentimentLabel
		err   bool
	}{
		{"nested", `[[{"label":"NEG","score":0.8},{"label":"POS","score":0.2}]]`, domain.SentimentNegative, false},
		{"flat", `[{"label":"neutral","score":0.6},{"label":"positive","score":0.4}]`, domain.SentimentNeutral, false},
		{"numbered labels", `[[{"label":"LABEL_0","score":0.1},{"label":"LABEL_2","score":0.9}]]`, domain.SentimentPositive, false},
		{"unknown label", `[[{"label":"JOY","score":0.9}]]`, "", true},
		{"empty", `[]`, "", true},
		{"error object", `{"error":"Model is loading"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := parseScores([]byte(tt.body))
			if err == nil {
				var score domain.SentimentScore
				score, err = pickTop(scores)
				if !tt.err {
					require.NoError(t, err)
					assert.Equal(t, tt.label, score.Label)
					return
				}
			}
			assert.True(t, tt.err, "unexpected error: %v", err)
			assert.Error(t, err)
		})
	}
}

func TestClassify_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient("hf-token", model, zerolog.Nop(), WithBaseURL(server.URL)).Classify(context.Background(), "text")
	assert.True(t, errors.Is(err, domain.ErrRateLimited))

	_, err = NewClient("", model, zerolog.Nop()).Classify(context.Background(), "text")
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))

	_, err = NewClient("hf-token", model, zerolog.Nop(), WithBaseURL(server.URL)).Classify(context.Background(), "   ")
	assert.Error(t, err)
}
