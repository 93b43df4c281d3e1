// Package sentiment classifies news coverage of a topic and of the market
// as a whole.
package sentiment

import (
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
)

// Overall market mood labels
const (
	OverallPositive = "positive"
	OverallNegative = "negative"
)

// ArticleSentiment is one classified article
type ArticleSentiment struct {
	Title       string                `json:"title" msgpack:"title"`
	Source      string                `json:"source" msgpack:"source"`
	URL         string                `json:"url" msgpack:"url"`
	PublishedAt time.Time             `json:"published_at" msgpack:"published_at"`
	Sentiment   domain.SentimentLabel `json:"sentiment" msgpack:"sentiment"`
	Score       float64               `json:"sentiment_score" msgpack:"sentiment_score"`
	Entities    []domain.Entity       `json:"entities" msgpack:"entities"`
}

// QuerySentiment is the label split across the articles of one query.
// Percentages are of the classified articles.
type QuerySentiment struct {
	Query    string             `json:"query" msgpack:"query"`
	Days     int                `json:"days" msgpack:"days"`
	Positive float64            `json:"positive" msgpack:"positive"`
	Neutral  float64            `json:"neutral" msgpack:"neutral"`
	Negative float64            `json:"negative" msgpack:"negative"`
	Articles []ArticleSentiment `json:"articles" msgpack:"articles"`
	Skipped  int                `json:"skipped" msgpack:"skipped"` // articles the model could not classify
}

// MarketSentiment is the mean split over the market queries
type MarketSentiment struct {
	Positive    float64   `json:"positive" msgpack:"positive"`
	Neutral     float64   `json:"neutral" msgpack:"neutral"`
	Negative    float64   `json:"negative" msgpack:"negative"`
	Overall     string    `json:"overall_sentiment" msgpack:"overall_sentiment"`
	Queries     []string  `json:"queries" msgpack:"queries"`
	Missing     []string  `json:"missing,omitempty" msgpack:"missing"`
	GeneratedAt time.Time `json:"generated_at" msgpack:"generated_at"`
}
