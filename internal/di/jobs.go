package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/scheduler"
)

// CacheMaintenanceSchedule checkpoints the cache WAL once an hour
const CacheMaintenanceSchedule = "@hourly"

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	AdvisoryCycle    *scheduler.AdvisoryCycleJob // nil when periodic cycles are disabled
	CacheMaintenance *scheduler.CacheMaintenanceJob
}

// RegisterJobs adds the periodic jobs to sched
func RegisterJobs(sched *scheduler.Scheduler, container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	if cfg.CycleSchedule != "" {
		instances.AdvisoryCycle = scheduler.NewAdvisoryCycleJob(container.AdvisoryService, scheduler.DefaultCycleTimeout, log)
		if err := sched.AddJob(cfg.CycleSchedule, instances.AdvisoryCycle); err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("Periodic advisory cycles disabled")
	}

	instances.CacheMaintenance = scheduler.NewCacheMaintenanceJob(container.CacheDB, log)
	if err := sched.AddJob(CacheMaintenanceSchedule, instances.CacheMaintenance); err != nil {
		return nil, err
	}

	return instances, nil
}
