package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/database"
)

// walWarnFrames is the WAL size above which a checkpoint is logged as overdue
const walWarnFrames = 1000

// CacheMaintenanceJob checkpoints the candle cache WAL so it cannot grow unbounded
type CacheMaintenanceJob struct {
	cacheDB *database.DB
	log     zerolog.Logger
}

// NewCacheMaintenanceJob creates a new CacheMaintenanceJob. A nil database makes Run a no-op.
func NewCacheMaintenanceJob(cacheDB *database.DB, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		cacheDB: cacheDB,
		log:     log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run truncates the WAL after checkpointing it
func (j *CacheMaintenanceJob) Run() error {
	if j.cacheDB == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, walFrames, checkpointed int
	err := j.cacheDB.Conn().QueryRow("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &walFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("failed to checkpoint %s: %w", j.cacheDB.Name(), err)
	}

	event := j.log.Debug()
	if walFrames > walWarnFrames {
		event = j.log.Warn()
	}
	event.
		Str("database", j.cacheDB.Name()).
		Int("busy", busy).
		Int("wal_frames", walFrames).
		Int("checkpointed", checkpointed).
		Msg("Cache checkpoint completed")

	return nil
}
