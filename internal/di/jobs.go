package di

import (
	"fmt"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/modules/reports"
	"github.com/aristath/forecast/internal/reliability"
	"github.com/aristath/forecast/internal/scheduler"
	"github.com/rs/zerolog"
)

// Maintenance schedules that are not configurable. Six fields, seconds first.
const (
	databaseCheckSchedule = "0 15 * * * *"
	walCheckpointSchedule = "0 */30 * * * *"
)

// RegisterJobs creates the scheduler and registers all maintenance jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)
	container.Scheduler = sched

	add := func(schedule string, job scheduler.Job) error {
		if err := sched.AddJob(schedule, job); err != nil {
			return fmt.Errorf("failed to register %s job: %w", job.Name(), err)
		}
		return nil
	}

	if err := add(cfg.CacheCleanupSchedule, clientdata.NewCleanupJob(container.ClientDataRepo, log)); err != nil {
		return err
	}
	if maxAge := reportMaxAge(cfg); maxAge > 0 {
		// Same window as the cache sweep.
		if err := add(cfg.CacheCleanupSchedule, reports.NewRetentionJob(container.ReportRepo, maxAge, log)); err != nil {
			return err
		}
	}
	if err := add(databaseCheckSchedule, scheduler.NewCheckDatabasesJob(log, container.Databases()...)); err != nil {
		return err
	}
	if err := add(walCheckpointSchedule, scheduler.NewWALCheckpointJob(log, container.Databases()...)); err != nil {
		return err
	}
	if container.BackupService != nil {
		if err := add(cfg.Backup.Schedule, reliability.NewBackupJob(container.BackupService, cfg.Backup.Retention, log)); err != nil {
			return err
		}
	}

	log.Info().Strs("jobs", sched.Jobs()).Msg("Jobs registered")
	return nil
}
