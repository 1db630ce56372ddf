package scheduler

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/database"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/runs"
)

// RetentionJob prunes runs older than the retention window, together
// with their artifact directories and iteration traces.
type RetentionJob struct {
	runs          *runs.Repository
	history       *history.Repository
	resultsDir    string
	retentionDays int
	log           zerolog.Logger
}

// NewRetentionJob creates a retention prune job.
func NewRetentionJob(runRepo *runs.Repository, historyRepo *history.Repository, resultsDir string, retentionDays int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		runs:          runRepo,
		history:       historyRepo,
		resultsDir:    resultsDir,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "retention_prune").Logger(),
	}
}

// Name returns the job name.
func (j *RetentionJob) Name() string { return "retention_prune" }

// Run deletes expired runs and their on-disk artifacts.
func (j *RetentionJob) Run() error {
	if j.retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)

	dirs, err := j.runs.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		// Directories are stored relative to the results root; anything
		// else is left alone.
		if dir != filepath.Base(dir) {
			j.log.Warn().Str("directory", dir).Msg("Skipping suspicious artifact directory")
			continue
		}
		if err := os.RemoveAll(filepath.Join(j.resultsDir, dir)); err != nil {
			j.log.Warn().Err(err).Str("directory", dir).Msg("Failed to remove artifact directory")
		}
	}

	pruned, err := j.history.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	if len(dirs) > 0 || pruned > 0 {
		j.log.Info().
			Int("runs", len(dirs)).
			Int64("iterations", pruned).
			Time("cutoff", cutoff).
			Msg("Retention prune finished")
	}
	return nil
}

// CheckpointJob truncates the WALs of both databases so they do not
// grow without bound between restarts.
type CheckpointJob struct {
	db      *database.DB
	history *history.Repository
	log     zerolog.Logger
}

// NewCheckpointJob creates a WAL checkpoint job.
func NewCheckpointJob(db *database.DB, historyRepo *history.Repository, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:      db,
		history: historyRepo,
		log:     log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name.
func (j *CheckpointJob) Name() string { return "wal_checkpoint" }

// Run performs a truncating WAL checkpoint on both databases.
func (j *CheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}
	return j.history.Checkpoint()
}
