package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BackupJob uploads a fresh archive and prunes old ones.
type BackupJob struct {
	service   *BackupService
	retention int
	log       zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retention int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:   service,
		retention: retention,
		log:       log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates the backup, then prunes. A pruning failure does not fail the job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := j.service.CreateAndUpload(ctx); err != nil {
		return err
	}

	if _, err := j.service.Prune(ctx, j.retention); err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune old backups")
	}
	return nil
}
