package snapshots

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotJob captures the daily snapshot for every active owner. Scheduled
// shortly after midnight UTC; safe to rerun within the same day.
type SnapshotJob struct {
	service *Service
	log     zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(service *Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		log:     log.With().Str("job", "daily_snapshot").Logger(),
	}
}

// Run executes the snapshot job
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return j.service.CaptureAll(ctx, time.Now())
}

// Name returns the job name for scheduling and logging
func (j *SnapshotJob) Name() string {
	return "daily_snapshot"
}
