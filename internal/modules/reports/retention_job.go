package reports

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetentionJob deletes reports older than maxAge.
type RetentionJob struct {
	repo   *Repository
	maxAge time.Duration
	log    zerolog.Logger
}

// NewRetentionJob creates a new report retention job
func NewRetentionJob(repo *Repository, maxAge time.Duration, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		repo:   repo,
		maxAge: maxAge,
		log:    log.With().Str("job", "report_retention").Logger(),
	}
}

// Run removes expired reports.
func (j *RetentionJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.repo.DeleteOlderThan(ctx, time.Now().Add(-j.maxAge))
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete old reports")
		return err
	}

	j.log.Info().Int64("deleted", deleted).Msg("Report retention completed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RetentionJob) Name() string {
	return "report_retention"
}
