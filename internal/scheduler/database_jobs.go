package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/database"
)

// CheckDatabasesJob verifies the integrity of the SQLite databases
type CheckDatabasesJob struct {
	log       zerolog.Logger
	databases []*database.DB
}

// NewCheckDatabasesJob creates a new CheckDatabasesJob
func NewCheckDatabasesJob(log zerolog.Logger, databases ...*database.DB) *CheckDatabasesJob {
	return &CheckDatabasesJob{
		log:       log.With().Str("job", "check_databases").Logger(),
		databases: databases,
	}
}

// Name returns the job name
func (j *CheckDatabasesJob) Name() string {
	return "check_databases"
}

// Run executes the integrity check. The first corrupt database fails the job.
func (j *CheckDatabasesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().
				Err(err).
				Str("database", db.Name()).
				Msg("Database integrity check failed")
			return fmt.Errorf("database %s is unhealthy: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}

	j.log.Info().Int("checked", len(j.databases)).Msg("Database integrity check passed")
	return nil
}

// WALCheckpointJob truncates the write-ahead logs so they do not grow unbounded
type WALCheckpointJob struct {
	log       zerolog.Logger
	databases []*database.DB
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
		databases: databases,
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every database. Failures are logged and the rest still run.
func (j *WALCheckpointJob) Run() error {
	var failed int
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			failed++
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("WAL checkpoint failed for %d database(s)", failed)
	}
	j.log.Debug().Int("checkpointed", len(j.databases)).Msg("WAL checkpoint completed")
	return nil
}
