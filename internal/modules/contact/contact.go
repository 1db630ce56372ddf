// Package contact enumerates the bead pairs of a lattice protein that
// can come into direct contact and assigns each pair a contact qubit.
package contact

import (
	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/pauli"
)

// minSequenceSeparation is the smallest |i-j| at which two main-chain
// beads can touch on the tetrahedral lattice.
const minSequenceSeparation = 5

// Map assigns a contact qubit operator to every admissible main-chain
// bead pair. The contact register is (N-1)^2 qubits wide, pair (i, j)
// occupying index i*(N-1)+j.
type Map struct {
	// LowerMainUpperMain maps lower bead index -> upper bead index ->
	// contact indicator operator.
	LowerMainUpperMain map[int]map[int]*pauli.Op

	numQubits   int
	numContacts int
}

// New builds the contact map for the protein's main chain. Beads on the
// same sublattice can never touch and are skipped, as are pairs closer
// than five positions along the chain.
func New(p *protein.Protein, log zerolog.Logger) *Map {
	n := p.MainChain.Len()
	m := &Map{
		LowerMainUpperMain: make(map[int]map[int]*pauli.Op),
		numQubits:          (n - 1) * (n - 1),
	}

	for i := 0; i < n; i++ {
		for j := i + minSequenceSeparation; j < n; j++ {
			if p.MainChain.Beads[i].Sublattice == p.MainChain.Beads[j].Sublattice {
				continue
			}
			if m.LowerMainUpperMain[i] == nil {
				m.LowerMainUpperMain[i] = make(map[int]*pauli.Op)
			}
			m.LowerMainUpperMain[i][j] = pauli.TurnQubit(i*(n-1)+j, m.numQubits)
			m.numContacts++
		}
	}

	logger := log.With().Str("component", "contact_map").Logger()
	logger.Debug().
		Int("chain_length", n).
		Int("contacts", m.numContacts).
		Msg("Contact map built")

	return m
}

// NumQubits returns the contact register width.
func (m *Map) NumQubits() int { return m.numQubits }

// NumContacts returns the number of admissible contact pairs.
func (m *Map) NumContacts() int { return m.numContacts }

// Operator returns the contact indicator for pair (lower, upper), or
// ok=false when the pair is not admissible.
func (m *Map) Operator(lower, upper int) (*pauli.Op, bool) {
	row, ok := m.LowerMainUpperMain[lower]
	if !ok {
		return nil, false
	}
	op, ok := row[upper]
	return op, ok
}
