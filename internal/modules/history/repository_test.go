package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndTrace(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Append("r1", Point{Iteration: 0, Energy: 3.5}))
	require.NoError(t, repo.Append("r1", Point{Iteration: 1, Energy: 1.25}))
	require.NoError(t, repo.Append("r2", Point{Iteration: 0, Energy: -1}))

	trace, err := repo.Trace("r1")
	require.NoError(t, err)
	assert.Equal(t, []Point{{Iteration: 0, Energy: 3.5}, {Iteration: 1, Energy: 1.25}}, trace)

	// Re-appending an iteration replaces it.
	require.NoError(t, repo.Append("r1", Point{Iteration: 1, Energy: 0.5}))
	trace, err = repo.Trace("r1")
	require.NoError(t, err)
	require.Len(t, trace, 2)
	assert.InDelta(t, 0.5, trace[1].Energy, 1e-12)
}

func TestAppendBatch(t *testing.T) {
	repo := newTestRepository(t)

	points := make([]Point, 100)
	for i := range points {
		points[i] = Point{Iteration: i, Energy: float64(100 - i)}
	}
	require.NoError(t, repo.AppendBatch("r1", points))

	trace, err := repo.Trace("r1")
	require.NoError(t, err)
	require.Len(t, trace, 100)
	assert.Equal(t, Point{Iteration: 99, Energy: 1}, trace[99])
}

func TestDeleteRun(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Append("r1", Point{Iteration: 0, Energy: 1}))
	require.NoError(t, repo.Append("r2", Point{Iteration: 0, Energy: 2}))

	require.NoError(t, repo.DeleteRun("r1"))

	trace, err := repo.Trace("r1")
	require.NoError(t, err)
	assert.Empty(t, trace)

	trace, err = repo.Trace("r2")
	require.NoError(t, err)
	assert.Len(t, trace, 1)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Append("r1", Point{Iteration: 0, Energy: 1}))

	// Everything was recorded just now, so an old cutoff prunes nothing.
	pruned, err := repo.DeleteOlderThan(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned)

	pruned, err = repo.DeleteOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}

func TestBackupCreatesSnapshot(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Append("r1", Point{Iteration: 0, Energy: 1}))

	snapshotPath := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, repo.Backup(snapshotPath))

	snapshot, err := NewRepository(snapshotPath, zerolog.Nop())
	require.NoError(t, err)
	defer snapshot.Close()

	trace, err := snapshot.Trace("r1")
	require.NoError(t, err)
	assert.Len(t, trace, 1)
}
