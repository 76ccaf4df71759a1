package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StatsSource returns the current connection pool statistics.
type StatsSource func() sql.DBStats

// PoolStatsJob periodically logs connection pool usage. Every open unit of work
// holds one connection, so a saturated pool means allocations are queueing.
type PoolStatsJob struct {
	stats    StatsSource
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
	last     sql.DBStats
}

// NewPoolStatsJob creates a job that reports every interval.
func NewPoolStatsJob(stats StatsSource, interval time.Duration, logger *slog.Logger) *PoolStatsJob {
	return &PoolStatsJob{
		stats:    stats,
		interval: interval,
		cron:     cron.New(),
		logger:   logger.With("component", "pool_stats_job"),
	}
}

// Start schedules the job.
func (j *PoolStatsJob) Start() error {
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Pool stats job started", "interval", j.interval.String())
	return nil
}

// Stop stops the schedule and waits for a running report to finish.
func (j *PoolStatsJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Pool stats job stopped")
}

// Run logs one report. Waits are reported as the delta since the previous run.
func (j *PoolStatsJob) Run(ctx context.Context) {
	stats := j.stats()
	waits := stats.WaitCount - j.last.WaitCount
	waited := stats.WaitDuration - j.last.WaitDuration
	j.last = stats

	attrs := []any{
		"open", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle,
		"max_open", stats.MaxOpenConnections,
		"waits", waits,
		"waited", waited.String(),
	}

	if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		j.logger.WarnContext(ctx, "Connection pool exhausted", attrs...)
		return
	}
	j.logger.DebugContext(ctx, "Connection pool stats", attrs...)
}
