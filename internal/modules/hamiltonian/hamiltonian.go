// Package hamiltonian assembles the folding Hamiltonian of a lattice
// protein as a diagonal Pauli operator over the combined contact and
// turn registers.
package hamiltonian

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/contact"
	"github.com/qfold/qfold/internal/modules/distance"
	"github.com/qfold/qfold/internal/modules/interaction"
	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/pauli"
)

const (
	// penaltyBack discourages consecutive bonds along the same axis,
	// which would fold the chain back onto itself.
	penaltyBack = 10.0
	// penalty1 scales the distance constraints tied to each contact.
	penalty1 = 10.0
	// energyMultiplier rescales the tabulated pair energies.
	energyMultiplier = 0.1
	// minInteractionSeparation is the smallest chain separation at which
	// a bead pair contributes an interaction term.
	minInteractionSeparation = 5
)

// Hamiltonian is the assembled folding operator after removal of qubits
// that carry identity in every term.
type Hamiltonian struct {
	// Op is the compressed operator the sampler evaluates.
	Op *pauli.Op
	// KeptQubits maps each compressed qubit to its index in the full
	// register, ascending.
	KeptQubits []int
	// TotalQubits is the full register width before compression: the
	// contact register stacked above the turn register.
	TotalQubits int
	// TurnQubits is the turn register width. Kept qubits below this
	// bound are turn qubits, the rest contact qubits.
	TurnQubits int
}

// Builder constructs the Hamiltonian for a protein under an interaction
// model.
type Builder struct {
	protein *protein.Protein
	inter   interaction.Interaction
	log     zerolog.Logger
}

// NewBuilder returns a Builder for the given protein and energy model.
func NewBuilder(p *protein.Protein, inter interaction.Interaction, log zerolog.Logger) *Builder {
	return &Builder{
		protein: p,
		inter:   inter,
		log:     log.With().Str("component", "hamiltonian").Logger(),
	}
}

// Build derives the contact and distance maps, assembles the
// backtracking and interaction terms, and compresses the sum.
func (b *Builder) Build() (*Hamiltonian, error) {
	contacts := contact.New(b.protein, b.log)
	distances, err := distance.New(b.protein, b.log)
	if err != nil {
		return nil, err
	}

	turnQubits := b.protein.NumTurnQubits()
	totalQubits := contacts.NumQubits() + turnQubits

	hBack, err := b.backtrackingTerm()
	if err != nil {
		return nil, err
	}

	hInteraction, err := b.interactionTerm(contacts, distances, totalQubits)
	if err != nil {
		return nil, err
	}

	total, err := hBack.PadTo(totalQubits).Add(hInteraction)
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: summing terms: %w", err)
	}
	total = total.Simplify()

	compressed, kept := total.Compress()

	b.log.Info().
		Int("total_qubits", totalQubits).
		Int("compressed_qubits", compressed.NumQubits()).
		Int("terms", len(compressed.Terms())).
		Int("contacts", contacts.NumContacts()).
		Msg("Hamiltonian built")

	return &Hamiltonian{
		Op:          compressed,
		KeptQubits:  kept,
		TotalQubits: totalQubits,
		TurnQubits:  turnQubits,
	}, nil
}

// backtrackingTerm penalizes consecutive bonds pointing along the same
// lattice axis. The first bond pair is pinned by the preset turns and
// contributes only a constant, so the sum starts at the second bead.
func (b *Builder) backtrackingTerm() (*pauli.Op, error) {
	beads := b.protein.MainChain.Beads
	acc := pauli.IdentityWithCoeff(b.protein.NumTurnQubits(), 0)

	for i := 1; i < len(beads)-2; i++ {
		cur, ok := beads[i].TurnOperators()
		if !ok {
			return nil, fmt.Errorf("hamiltonian: bead %d has no turn operators", i)
		}
		next, ok := beads[i+1].TurnOperators()
		if !ok {
			return nil, fmt.Errorf("hamiltonian: bead %d has no turn operators", i+1)
		}
		for a := 0; a < protein.NumTurnDirections; a++ {
			prod, err := cur[a].Mul(next[a])
			if err != nil {
				return nil, fmt.Errorf("hamiltonian: backtracking axis %d: %w", a, err)
			}
			sum, err := acc.Add(prod.Scale(penaltyBack))
			if err != nil {
				return nil, err
			}
			acc = sum.Simplify()
		}
	}

	return pauli.FixQubits(acc, b.protein.SecondBeadHasSideBead()), nil
}

// interactionTerm accumulates, for every admissible contact (i, j), the
// first-neighbor distance constraint plus second-neighbor constraints
// for the beads adjacent to the pair, each gated by the contact qubit.
func (b *Builder) interactionTerm(contacts *contact.Map, distances *distance.Map, totalQubits int) (*pauli.Op, error) {
	n := b.protein.MainChain.Len()
	acc := pauli.IdentityWithCoeff(totalQubits, 0)

	for i := 0; i < n; i++ {
		for j := i + minInteractionSeparation; j < n; j++ {
			cop, ok := contacts.Operator(i, j)
			if !ok {
				continue
			}

			h1, err := b.firstNeighbor(i, j, distances)
			if err != nil {
				return nil, err
			}
			if acc, err = addGated(acc, cop, h1); err != nil {
				return nil, err
			}

			for _, pair := range [][2]int{{i - 1, j}, {i + 1, j}, {i, j - 1}, {i, j + 1}} {
				lo, hi := pair[0], pair[1]
				if lo < 0 || hi >= n || hi-lo < 1 {
					continue
				}
				h2, err := b.secondNeighbor(lo, hi, distances)
				if err != nil {
					return nil, err
				}
				if acc, err = addGated(acc, cop, h2); err != nil {
					return nil, err
				}
			}
		}
	}

	return acc.Simplify(), nil
}

// addGated adds contact (tensor) h to the accumulator, the turn-register
// operand on the low qubits.
func addGated(acc, contactOp, h *pauli.Op) (*pauli.Op, error) {
	gated := contactOp.Tensor(h)
	sum, err := acc.Add(gated)
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: gating interaction term: %w", err)
	}
	return sum.Simplify(), nil
}

// firstNeighbor rewards pair (i, j) sitting at unit distance when its
// contact qubit is set, with a penalty growing in the chain separation.
func (b *Builder) firstNeighbor(i, j int, distances *distance.Map) (*pauli.Op, error) {
	lambda0 := 7 * float64(j-i+1) * penalty1
	return b.neighborTerm(i, j, distances, func(x, id *pauli.Op) (*pauli.Op, error) {
		diff, err := x.Sub(id)
		if err != nil {
			return nil, err
		}
		return diff.Scale(lambda0), nil
	})
}

// secondNeighbor keeps the beads adjacent to a contact pair at a
// distance of at least two bonds.
func (b *Builder) secondNeighbor(i, j int, distances *distance.Map) (*pauli.Op, error) {
	return b.neighborTerm(i, j, distances, func(x, id *pauli.Op) (*pauli.Op, error) {
		diff, err := id.Scale(2).Sub(x)
		if err != nil {
			return nil, err
		}
		return diff.Scale(penalty1), nil
	})
}

func (b *Builder) neighborTerm(i, j int, distances *distance.Map, shape func(x, id *pauli.Op) (*pauli.Op, error)) (*pauli.Op, error) {
	x, err := distances.DistanceSquared(i, j)
	if err != nil {
		return nil, err
	}

	e, err := b.inter.Energy(b.protein.MainChain.SymbolAt(i), b.protein.MainChain.SymbolAt(j))
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: pair (%d, %d): %w", i, j, err)
	}

	id := pauli.Identity(x.NumQubits())
	expr, err := shape(x, id)
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: pair (%d, %d): %w", i, j, err)
	}

	withEnergy, err := expr.Add(id.Scale(energyMultiplier * e))
	if err != nil {
		return nil, err
	}

	return pauli.FixQubits(withEnergy.Simplify(), b.protein.SecondBeadHasSideBead()), nil
}
