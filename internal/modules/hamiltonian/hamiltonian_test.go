package hamiltonian

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/modules/interaction"
	"github.com/qfold/qfold/internal/modules/protein"
)

func build(t *testing.T, main string) *Hamiltonian {
	t.Helper()
	inter, err := interaction.NewMiyazawaJernigan()
	require.NoError(t, err)

	side := make([]byte, len(main))
	for i := range side {
		side[i] = '_'
	}
	p, err := protein.New(main, string(side), inter.ValidSymbols(), protein.EncodingDense, zerolog.Nop())
	require.NoError(t, err)

	h, err := NewBuilder(p, inter, zerolog.Nop()).Build()
	require.NoError(t, err)
	return h
}

func TestFiveBeadChainIsBacktrackingOnly(t *testing.T) {
	// A 5-bead chain admits no contacts, so the Hamiltonian reduces to
	// the backtracking penalty on the free turn qubits 4, 6 and 7.
	h := build(t, "APRLQ")

	assert.Equal(t, 24, h.TotalQubits)
	assert.Equal(t, 8, h.TurnQubits)
	require.Equal(t, 3, h.Op.NumQubits())
	assert.Equal(t, []int{4, 6, 7}, h.KeptQubits)

	// With turn qubit 5 pinned set, bead 2 walks along axis 1+2*q4;
	// bead 3 walks along 2*q6+q7. The penalty fires when the axes
	// coincide.
	for state := uint64(0); state < 8; state++ {
		q4 := state & 1
		q6 := (state >> 1) & 1
		q7 := (state >> 2) & 1
		want := 0.0
		if 1+2*q4 == 2*q6+q7 {
			want = penaltyBack
		}
		v, err := h.Op.Eval(state)
		require.NoError(t, err)
		assert.InDeltaf(t, want, v, 1e-9, "state=%03b", state)
	}
}

func TestSevenBeadChain(t *testing.T) {
	h := build(t, "APRLQAP")

	assert.Equal(t, 48, h.TotalQubits)
	assert.Equal(t, 12, h.TurnQubits)
	// 7 free turn qubits plus the 2 admissible contact qubits survive
	// compression.
	require.Equal(t, 9, h.Op.NumQubits())

	var contactQubits int
	for _, q := range h.KeptQubits {
		if q >= h.TurnQubits {
			contactQubits++
		}
	}
	assert.Equal(t, 2, contactQubits)

	// All free qubits zero: both contacts are off, beads 3..5 all walk
	// axis 0 and the two coinciding bond pairs are penalized.
	v, err := h.Op.Eval(0)
	require.NoError(t, err)
	assert.InDelta(t, 2*penaltyBack, v, 1e-9)
}

func TestBuildSparseEncoding(t *testing.T) {
	inter, err := interaction.NewHydrophobicPolar()
	require.NoError(t, err)

	p, err := protein.New("LFSKL", "_____", inter.ValidSymbols(), protein.EncodingSparse, zerolog.Nop())
	require.NoError(t, err)

	h, err := NewBuilder(p, inter, zerolog.Nop()).Build()
	require.NoError(t, err)

	assert.Equal(t, 16, h.TurnQubits)
	assert.Equal(t, 16+16, h.TotalQubits)
	assert.Greater(t, h.Op.NumQubits(), 0)
	assert.LessOrEqual(t, h.Op.NumQubits(), 16)
}
