// Package distance builds operators for the squared lattice distance
// between bead pairs, expressed over the turn qubit register.
package distance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/pauli"
)

// Map holds the squared-distance operator for every ordered main-chain
// bead pair (lower < upper).
type Map struct {
	distances map[int]map[int]*pauli.Op
	numQubits int
}

// New walks the chain once per bead pair, accumulating per-axis
// displacements with alternating sign (the two sublattices point their
// bond vectors in opposite directions), and squares the result. Pinned
// turn qubits are preset both on the per-axis displacements and on the
// final sum.
func New(p *protein.Protein, log zerolog.Logger) (*Map, error) {
	n := p.MainChain.Len()
	numQubits := p.NumTurnQubits()
	hasSideSecond := p.SecondBeadHasSideBead()

	m := &Map{
		distances: make(map[int]map[int]*pauli.Op),
		numQubits: numQubits,
	}

	for lower := 0; lower < n-1; lower++ {
		m.distances[lower] = make(map[int]*pauli.Op)
		// Per-axis displacement accumulators, reused across upper beads
		// so the pair loop stays O(n^2) operator sums.
		var axes [protein.NumTurnDirections]*pauli.Op
		for a := range axes {
			axes[a] = pauli.IdentityWithCoeff(numQubits, 0)
		}

		for upper := lower + 1; upper < n; upper++ {
			bead := p.MainChain.Beads[upper-1]
			ops, ok := bead.TurnOperators()
			if !ok {
				return nil, fmt.Errorf("distance: bead %d has no turn operators", upper-1)
			}
			sign := 1.0
			if (upper-1)%2 == 1 {
				sign = -1.0
			}
			for a := range axes {
				sum, err := axes[a].Add(ops[a].Scale(sign))
				if err != nil {
					return nil, fmt.Errorf("distance: accumulating axis %d: %w", a, err)
				}
				axes[a] = sum.Simplify()
			}

			total := pauli.IdentityWithCoeff(numQubits, 0)
			for a := range axes {
				fixed := pauli.FixQubits(axes[a], hasSideSecond)
				sum, err := total.Add(fixed.Square())
				if err != nil {
					return nil, fmt.Errorf("distance: summing axis %d: %w", a, err)
				}
				total = sum
			}
			m.distances[lower][upper] = pauli.FixQubits(total.Simplify(), hasSideSecond)
		}
	}

	logger := log.With().Str("component", "distance_map").Logger()
	logger.Debug().
		Int("chain_length", n).
		Int("turn_qubits", numQubits).
		Msg("Distance map built")

	return m, nil
}

// NumQubits returns the turn register width the operators act on.
func (m *Map) NumQubits() int { return m.numQubits }

// DistanceSquared returns the squared-distance operator for the pair
// (lower, upper) with lower < upper.
func (m *Map) DistanceSquared(lower, upper int) (*pauli.Op, error) {
	row, ok := m.distances[lower]
	if !ok {
		return nil, fmt.Errorf("distance: no distances from bead %d", lower)
	}
	op, ok := row[upper]
	if !ok {
		return nil, fmt.Errorf("distance: no distance for pair (%d, %d)", lower, upper)
	}
	return op, nil
}
