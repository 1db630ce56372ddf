// Package protein models a lattice protein: a main chain of beads on the
// tetrahedral lattice, an optional (currently placeholder-only) side
// chain, and the turn qubit operators each bead contributes to the
// folding Hamiltonian.
package protein

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// PlaceholderSymbol marks a main-chain position without a side bead.
const PlaceholderSymbol = '_'

// MinChainLength is the shortest chain the folding model supports.
const MinChainLength = 5

// SideChainFifthPositionIndex is the zero-based index of the fifth bead,
// whose side-bead occupancy decides whether turn qubit 5 is pinned.
const SideChainFifthPositionIndex = 4

var (
	ErrChainLength           = errors.New("protein: invalid chain length")
	ErrUnsupportedSymbol     = errors.New("protein: unsupported amino acid symbol")
	ErrSideChainsUnsupported = errors.New("protein: side chains are not supported")
)

// MainChain is the protein backbone.
type MainChain struct {
	Beads []*Bead

	sequence string
}

func newMainChain(sequence string, encoding Encoding) *MainChain {
	beads := make([]*Bead, len(sequence))
	for i := 0; i < len(sequence); i++ {
		beads[i] = newBead(sequence[i], i, len(sequence), encoding)
	}
	return &MainChain{Beads: beads, sequence: sequence}
}

// Len returns the number of beads in the chain.
func (c *MainChain) Len() int { return len(c.Beads) }

// SymbolAt returns the residue symbol at the given index.
func (c *MainChain) SymbolAt(index int) byte { return c.Beads[index].Symbol }

func (c *MainChain) String() string { return c.sequence }

// SideChain records side-bead occupancy along the main chain. Only
// placeholder positions are accepted for now.
type SideChain struct {
	sequence string
}

// Len returns the side chain length (equal to the main chain length).
func (c *SideChain) Len() int { return len(c.sequence) }

// IsPlaceholderAt reports whether position index carries no side bead.
func (c *SideChain) IsPlaceholderAt(index int) bool {
	return index < len(c.sequence) && c.sequence[index] == PlaceholderSymbol
}

func (c *SideChain) String() string { return c.sequence }

// Protein combines the main and side chains under a turn encoding.
type Protein struct {
	MainChain *MainChain
	SideChain *SideChain

	encoding Encoding
	log      zerolog.Logger
}

// New validates the sequences against the interaction model's symbol set
// and builds the chains. Side chains must consist solely of placeholders;
// a concrete side residue returns ErrSideChainsUnsupported.
func New(mainSequence, sideSequence string, validSymbols map[byte]bool, encoding Encoding, log zerolog.Logger) (*Protein, error) {
	if len(mainSequence) != len(sideSequence) {
		return nil, fmt.Errorf("%w: main and side sequences must be of the same length (%d vs %d)",
			ErrChainLength, len(mainSequence), len(sideSequence))
	}

	if len(mainSequence) < MinChainLength {
		return nil, fmt.Errorf("%w: sequences must have at least %d residues, got %d",
			ErrChainLength, MinChainLength, len(mainSequence))
	}

	var invalid []string
	seen := map[byte]bool{}
	for i := 0; i < len(mainSequence); i++ {
		sym := mainSequence[i]
		if !validSymbols[sym] && !seen[sym] {
			invalid = append(invalid, string(sym))
			seen[sym] = true
		}
	}
	for i := 0; i < len(sideSequence); i++ {
		sym := sideSequence[i]
		if sym == PlaceholderSymbol {
			continue
		}
		return nil, fmt.Errorf("%w: side residue %q at position %d", ErrSideChainsUnsupported, string(sym), i)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, strings.Join(invalid, ", "))
	}

	p := &Protein{
		MainChain: newMainChain(mainSequence, encoding),
		SideChain: &SideChain{sequence: sideSequence},
		encoding:  encoding,
		log:       log.With().Str("component", "protein").Logger(),
	}

	p.log.Debug().
		Str("main_chain", mainSequence).
		Str("side_chain", sideSequence).
		Str("encoding", encoding.String()).
		Int("beads", p.MainChain.Len()).
		Msg("Protein initialized")

	return p, nil
}

// Encoding returns the turn encoding the protein was built with.
func (p *Protein) Encoding() Encoding { return p.encoding }

// NumTurnQubits returns the width of the main chain's turn register.
func (p *Protein) NumTurnQubits() int {
	return (p.MainChain.Len() - 1) * p.encoding.QubitsPerTurn()
}

// SecondBeadHasSideBead reports whether the second main-chain bead carries
// a side bead, which changes how the sixth turn qubit is pinned.
func (p *Protein) SecondBeadHasSideBead() bool {
	return p.SideChain.Len() >= 2 && !p.SideChain.IsPlaceholderAt(1)
}

// FifthBeadHasNoSideBead reports whether the fifth main-chain bead lacks
// a side bead, which pins one further turn qubit in dense encoding.
func (p *Protein) FifthBeadHasNoSideBead() bool {
	return p.SideChain.Len() >= SideChainFifthPositionIndex+1 &&
		p.SideChain.IsPlaceholderAt(SideChainFifthPositionIndex)
}
