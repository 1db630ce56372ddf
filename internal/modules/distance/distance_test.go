package distance

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/modules/protein"
)

var symbols = map[byte]bool{'A': true, 'P': true, 'R': true, 'L': true, 'Q': true}

func newProtein(t *testing.T, main string) *protein.Protein {
	t.Helper()
	side := make([]byte, len(main))
	for i := range side {
		side[i] = '_'
	}
	p, err := protein.New(main, string(side), symbols, protein.EncodingDense, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func evalAt(t *testing.T, m *Map, lower, upper int, state uint64) float64 {
	t.Helper()
	op, err := m.DistanceSquared(lower, upper)
	require.NoError(t, err)
	v, err := op.Eval(state)
	require.NoError(t, err)
	return v
}

func TestNearestNeighborsHaveUnitDistance(t *testing.T) {
	m, err := New(newProtein(t, "APRLQ"), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 8, m.NumQubits())

	// Adjacent beads sit one bond apart whatever the turns are: exactly
	// one direction indicator fires per bond, so the squared sum is 1.
	for state := uint64(0); state < 1<<8; state++ {
		assert.InDelta(t, 1.0, evalAt(t, m, 0, 1, state), 1e-9)
		assert.InDelta(t, 1.0, evalAt(t, m, 1, 2, state), 1e-9)
	}
}

func TestFixedTurnsGiveConstantDistance(t *testing.T) {
	m, err := New(newProtein(t, "APRLQ"), zerolog.Nop())
	require.NoError(t, err)

	// The first two turns are pinned to distinct directions, so the
	// two-bond squared distance between beads 0 and 2 is the constant 2.
	for state := uint64(0); state < 1<<8; state++ {
		assert.InDelta(t, 2.0, evalAt(t, m, 0, 2, state), 1e-9)
	}
}

func TestThreeBondDistanceDependsOnFreeTurn(t *testing.T) {
	m, err := New(newProtein(t, "APRLQ"), zerolog.Nop())
	require.NoError(t, err)

	// Bead 2's turn has qubit 5 pinned set and qubit 4 free. The pinned
	// turns give displacement e1 - e0 over the first two bonds; the third
	// bond adds e1 (squared distance 5) or e3 (squared distance 3).
	assert.InDelta(t, 5.0, evalAt(t, m, 0, 3, 0), 1e-9)
	assert.InDelta(t, 3.0, evalAt(t, m, 0, 3, 1<<4), 1e-9)
}

func TestMissingPair(t *testing.T) {
	m, err := New(newProtein(t, "APRLQ"), zerolog.Nop())
	require.NoError(t, err)

	_, err = m.DistanceSquared(3, 2)
	assert.Error(t, err)
	_, err = m.DistanceSquared(2, 2)
	assert.Error(t, err)
}
