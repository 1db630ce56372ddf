package runs

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func pendingRun(id string, createdAt time.Time) *Run {
	return &Run{
		ID: id, MainChain: "APRLQ", SideChain: "_____",
		Encoding: "dense", Interaction: "mj", Optimizer: "nelder-mead",
		Backend: "local", Status: StatusPending, CreatedAt: createdAt,
	}
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	created := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)

	require.NoError(t, repo.Create(pendingRun("r1", created)))

	run, err := repo.Get("r1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusPending, run.Status)
	assert.Equal(t, created, run.CreatedAt)
	assert.True(t, run.FinishedAt.IsZero())

	require.NoError(t, repo.MarkRunning("r1"))
	run, err = repo.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)

	outcome := &Outcome{
		Directory:       "2024_03_07-15_04_05-APRLQ-_____",
		NumQubits:       3,
		OptimalValue:    1.25,
		BestBitstring:   "010",
		BestEnergy:      -2.5,
		BestProbability: 0.75,
		Turns:           []int{1, 0, 1, 0},
		Contacts:        [][2]int{},
		ElapsedSeconds:  4.2,
		Distribution:    map[string]float64{"010": 0.75, "111": 0.25},
	}
	require.NoError(t, repo.Complete("r1", outcome))

	run, err = repo.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, outcome.Directory, run.Directory)
	assert.Equal(t, []int{1, 0, 1, 0}, run.Turns)
	assert.InDelta(t, -2.5, run.BestEnergy, 1e-12)
	assert.False(t, run.FinishedAt.IsZero())

	dist, err := repo.Distribution("r1")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, dist["010"], 1e-12)
	assert.InDelta(t, 0.25, dist["111"], 1e-12)
}

func TestFailRecordsError(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Create(pendingRun("r1", time.Now().UTC())))

	require.NoError(t, repo.Fail("r1", errors.New("sampler unavailable")))

	run, err := repo.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "sampler unavailable", run.Error)
}

func TestGetMissingRun(t *testing.T) {
	repo := newTestRepository(t)

	run, err := repo.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, run)

	dist, err := repo.Distribution("missing")
	require.NoError(t, err)
	assert.Nil(t, dist)
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(pendingRun("older", base)))
	require.NoError(t, repo.Create(pendingRun("newer", base.Add(time.Hour))))

	list, err := repo.List(10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)

	list, err = repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "older", list[0].ID)
}

func TestCountByStatus(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(pendingRun("r1", now)))
	require.NoError(t, repo.Create(pendingRun("r2", now)))
	require.NoError(t, repo.Fail("r2", errors.New("boom")))

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{StatusPending: 1, StatusFailed: 1}, counts)
}

func TestDeleteOlderThanReturnsArtifactDirs(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(pendingRun("old", base)))
	require.NoError(t, repo.Complete("old", &Outcome{Directory: "dir-old"}))
	require.NoError(t, repo.Create(pendingRun("fresh", base.Add(48*time.Hour))))

	dirs, err := repo.DeleteOlderThan(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"dir-old"}, dirs)

	gone, err := repo.Get("old")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.Get("fresh")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
