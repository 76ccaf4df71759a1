package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager starts and stops the background jobs of the service.
type JobManager struct {
	poolStatsJob *PoolStatsJob
}

// NewJobManager wires the jobs. A non-positive poolStatsInterval disables the pool
// stats job.
func NewJobManager(stats StatsSource, poolStatsInterval time.Duration, logger *slog.Logger) *JobManager {
	jm := &JobManager{}
	if poolStatsInterval > 0 {
		jm.poolStatsJob = NewPoolStatsJob(stats, poolStatsInterval, logger)
	}
	return jm
}

// StartAll starts every configured job.
func (jm *JobManager) StartAll() error {
	if jm.poolStatsJob == nil {
		return nil
	}
	if err := jm.poolStatsJob.Start(); err != nil {
		return fmt.Errorf("failed to start pool stats job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.poolStatsJob != nil {
		jm.poolStatsJob.Stop()
	}
}
