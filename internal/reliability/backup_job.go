package reliability

import (
	"context"
	"time"
)

// Backups older than this are rotated out, keeping a minimum of 3.
const backupRetentionDays = 30

// BackupJob runs the nightly cloud backup
type BackupJob struct {
	service *BackupService
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService) *BackupJob {
	return &BackupJob{service: service}
}

// Run creates and uploads a backup, then rotates old ones
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	return j.service.RotateOldBackups(ctx, backupRetentionDays)
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "cloud_backup"
}
