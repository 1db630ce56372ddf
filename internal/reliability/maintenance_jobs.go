package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/database"
)

// DailyMaintenanceJob performs daily database maintenance (2 AM):
// integrity checks, WAL truncation and a disk space check.
type DailyMaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for name, db := range j.databases {
		j.log.Debug().Str("database", name).Msg("Running integrity check")
		if err := db.QuickCheck(ctx); err != nil {
			return fmt.Errorf("integrity check failed for %s: %w", name, err)
		}

		j.log.Debug().Str("database", name).Msg("Running WAL checkpoint")
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, a later checkpoint will catch up.
			j.log.Warn().Str("database", name).Err(err).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")
	return nil
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// checkDiskSpace verifies sufficient disk space is available
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	availableGB := float64(availableBytes) / 1e9

	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	// CRITICAL: Less than 500MB
	if availableGB < 0.5 {
		return fmt.Errorf("only %.2f GB free on data volume", availableGB)
	}

	if availableGB < 5.0 {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Msg("Disk space running low")
	}
	return nil
}

// WeeklyVacuumJob rebuilds the databases to reclaim free pages.
type WeeklyVacuumJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWeeklyVacuumJob creates a new weekly vacuum job
func NewWeeklyVacuumJob(databases map[string]*database.DB, log zerolog.Logger) *WeeklyVacuumJob {
	return &WeeklyVacuumJob{
		databases: databases,
		log:       log.With().Str("job", "weekly_vacuum").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *WeeklyVacuumJob) Name() string {
	return "weekly_vacuum"
}

// Run vacuums every registered database.
func (j *WeeklyVacuumJob) Run() error {
	for name, db := range j.databases {
		started := time.Now()
		if err := db.Vacuum(); err != nil {
			return fmt.Errorf("vacuum failed for %s: %w", name, err)
		}
		j.log.Info().
			Str("database", name).
			Dur("duration_ms", time.Since(started)).
			Msg("Database vacuumed")
	}
	return nil
}

// BackupJob runs a full backup cycle: create, upload and rotate.
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup, then rotates old ones.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.service.RotateOldBackups(ctx, j.retentionDays)
}
