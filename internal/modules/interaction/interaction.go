// Package interaction provides pairwise contact energy models for
// amino acid beads. Energies are read from embedded matrix files so
// the binaries stay self-contained.
package interaction

import (
	"errors"
	"fmt"
)

// ErrUnknownSymbol is returned when an amino acid symbol is not covered
// by the selected energy model.
var ErrUnknownSymbol = errors.New("interaction: unknown amino acid symbol")

// ErrUnknownModel is returned by New for unrecognized model names.
var ErrUnknownModel = errors.New("interaction: unknown model")

// Interaction yields the contact energy between two residues in direct
// lattice contact.
type Interaction interface {
	// Energy returns the pair contact energy for residues a and b.
	Energy(a, b byte) (float64, error)
	// ValidSymbols reports the residue symbols the model covers.
	ValidSymbols() map[byte]bool
	// Name identifies the model ("mj" or "hp").
	Name() string
}

// New returns the interaction model for the given configuration name.
func New(name string) (Interaction, error) {
	switch name {
	case "mj":
		return NewMiyazawaJernigan()
	case "hp":
		return NewHydrophobicPolar()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}
