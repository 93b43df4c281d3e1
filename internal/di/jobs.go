package di

import (
	"fmt"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/modules/sentiment"
	"github.com/aristath/marketadvisor/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules (cron with seconds)
const (
	cacheCleanupSchedule     = "0 0 3 * * *"  // 03:00 daily
	cacheMaintenanceSchedule = "0 30 * * * *" // hourly at :30
)

// RegisterJobs creates the background jobs and registers them with a new scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)
	jobs := &JobInstances{
		CacheCleanup:     clientdata.NewCleanupJob(container.Store, log),
		SentimentRefresh: sentiment.NewRefreshJob(container.SentimentService, log),
	}
	if container.CacheDB != nil {
		jobs.CacheMaintenance = scheduler.NewCacheMaintenanceJob(container.CacheDB, log)
	}

	if err := sched.AddJob(cacheCleanupSchedule, jobs.CacheCleanup); err != nil {
		return err
	}
	if jobs.CacheMaintenance != nil {
		if err := sched.AddJob(cacheMaintenanceSchedule, jobs.CacheMaintenance); err != nil {
			return err
		}
	}

	// Market sentiment needs the news and model clients
	if cfg.NewsAPIKey != "" && cfg.HuggingFaceAPIToken != "" {
		if err := sched.AddJob(scheduler.Every(cfg.ScrapingInterval), jobs.SentimentRefresh); err != nil {
			return fmt.Errorf("failed to register sentiment refresh: %w", err)
		}
	} else {
		log.Info().Msg("Sentiment refresh not scheduled: news or model client not configured")
	}

	container.Scheduler = sched
	container.Jobs = jobs
	return nil
}
