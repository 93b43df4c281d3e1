package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/marketadvisor/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size, in frames, above which a checkpoint is forced
const walWarnFrames = 1000

// CacheMaintenanceJob checks the SQLite cache database: integrity, then WAL
// growth, truncating the WAL when it has grown past walWarnFrames.
type CacheMaintenanceJob struct {
	db      *database.DB
	log     zerolog.Logger
	timeout time.Duration
}

// NewCacheMaintenanceJob creates a new CacheMaintenanceJob
func NewCacheMaintenanceJob(db *database.DB, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		db:      db,
		log:     log.With().Str("job", "cache_maintenance").Logger(),
		timeout: time.Minute,
	}
}

// Name returns the job name
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run executes the maintenance pass
func (j *CacheMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		// Cache contents are rebuildable; corruption is reported, not repaired
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Cache database integrity check failed")
		return fmt.Errorf("database %s failed integrity check: %w", j.db.Name(), err)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walWarnFrames {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Msg("WAL checkpoint status OK")
	}

	return nil
}
