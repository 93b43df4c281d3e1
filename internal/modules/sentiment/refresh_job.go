package sentiment

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshJob keeps the market sentiment cache warm
type RefreshJob struct {
	service *Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshJob creates the market sentiment refresh job
func NewRefreshJob(service *Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		timeout: 2 * time.Minute,
		log:     log.With().Str("job", "sentiment_refresh").Logger(),
	}
}

// Run recomputes the market sentiment
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.service.RefreshMarketSentiment(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to refresh market sentiment")
		return err
	}

	j.log.Info().
		Str("overall", result.Overall).
		Strs("missing", result.Missing).
		Msg("Market sentiment refreshed")
	return nil
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "sentiment_refresh"
}
