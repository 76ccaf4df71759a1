// Package jobs provides scheduled background tasks for the allocation service.
//
// Jobs are built on github.com/robfig/cron/v3 and managed through JobManager:
//
//	jobManager := jobs.NewJobManager(sqlDB.Stats, 30*time.Second, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// PoolStatsJob logs connection pool usage at debug level and warns when every
// connection is checked out.
package jobs
