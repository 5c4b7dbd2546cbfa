package reliability

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/database"
)

// MaintenanceJob performs weekly database maintenance: WAL checkpoints to
// prevent bloat and VACUUM to reclaim space freed by cache expiry and
// snapshot rotation.
type MaintenanceJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases []*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			// Not critical, continue
		}

		if err := j.vacuumDatabase(db); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			// Continue with other databases
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database maintenance completed")

	return nil
}

// Name returns the job name for the scheduler
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// vacuumDatabase performs VACUUM and logs how much space was reclaimed
func (j *MaintenanceJob) vacuumDatabase(db *database.DB) error {
	statsBefore, err := db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats before vacuum: %w", err)
	}
	sizeBefore := float64(statsBefore.PageCount*statsBefore.PageSize) / 1024 / 1024

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	statsAfter, err := db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats after vacuum: %w", err)
	}
	sizeAfter := float64(statsAfter.PageCount*statsAfter.PageSize) / 1024 / 1024

	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}
