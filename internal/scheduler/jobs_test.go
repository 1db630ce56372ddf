package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/database"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/runs"
)

func newTestStores(t *testing.T) (*runs.Repository, *history.Repository, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(database.Config{
		Path: filepath.Join(dir, "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runRepo, err := runs.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	historyRepo, err := history.NewRepository(filepath.Join(dir, "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { historyRepo.Close() })

	resultsDir := filepath.Join(dir, "results")
	require.NoError(t, os.MkdirAll(resultsDir, 0755))
	return runRepo, historyRepo, resultsDir
}

func createRun(t *testing.T, repo *runs.Repository, id, artifactDir string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(&runs.Run{
		ID: id, MainChain: "APRLQ", SideChain: "_____",
		Encoding: "dense", Interaction: "mj", Optimizer: "nelder-mead",
		Backend: "local", Status: runs.StatusPending, CreatedAt: createdAt,
	}))
	if artifactDir != "" {
		require.NoError(t, repo.Complete(id, &runs.Outcome{Directory: artifactDir}))
	}
}

func TestRetentionJobPrunesExpiredRuns(t *testing.T) {
	runRepo, historyRepo, resultsDir := newTestStores(t)

	oldDir := "2020_01_01-00_00_00-APRLQ-_____"
	require.NoError(t, os.MkdirAll(filepath.Join(resultsDir, oldDir), 0755))
	createRun(t, runRepo, "old", oldDir, time.Now().AddDate(0, 0, -60))

	freshDir := "2099_01_01-00_00_00-APRLQ-_____"
	require.NoError(t, os.MkdirAll(filepath.Join(resultsDir, freshDir), 0755))
	createRun(t, runRepo, "fresh", freshDir, time.Now())

	require.NoError(t, historyRepo.Append("old", history.Point{Iteration: 0, Energy: -1}))

	job := NewRetentionJob(runRepo, historyRepo, resultsDir, 30, zerolog.Nop())
	assert.Equal(t, "retention_prune", job.Name())
	require.NoError(t, job.Run())

	gone, err := runRepo.Get("old")
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.NoDirExists(t, filepath.Join(resultsDir, oldDir))

	kept, err := runRepo.Get("fresh")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.DirExists(t, filepath.Join(resultsDir, freshDir))
}

func TestRetentionJobDisabled(t *testing.T) {
	runRepo, historyRepo, resultsDir := newTestStores(t)
	createRun(t, runRepo, "old", "", time.Now().AddDate(0, 0, -365))

	job := NewRetentionJob(runRepo, historyRepo, resultsDir, 0, zerolog.Nop())
	require.NoError(t, job.Run())

	kept, err := runRepo.Get("old")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestCheckpointJob(t *testing.T) {
	dir := t.TempDir()

	db, err := database.New(database.Config{
		Path: filepath.Join(dir, "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	historyRepo, err := history.NewRepository(filepath.Join(dir, "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { historyRepo.Close() })

	job := NewCheckpointJob(db, historyRepo, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
	require.NoError(t, job.Run())
}

func TestSchedulerRunNow(t *testing.T) {
	runRepo, historyRepo, resultsDir := newTestStores(t)
	sched := New(zerolog.Nop())

	job := NewRetentionJob(runRepo, historyRepo, resultsDir, 30, zerolog.Nop())
	require.NoError(t, sched.AddJob("0 30 2 * * *", job))
	require.NoError(t, sched.RunNow(job))
}
