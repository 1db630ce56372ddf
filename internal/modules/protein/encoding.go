package protein

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is returned for unrecognized conformation encodings.
var ErrInvalidEncoding = errors.New("protein: invalid conformation encoding")

// Encoding selects how turn directions are mapped onto qubits.
type Encoding int

const (
	// EncodingDense packs a turn into 2 qubits (binary direction index).
	EncodingDense Encoding = iota
	// EncodingSparse uses 4 one-hot qubits per turn.
	EncodingSparse
)

// ParseEncoding parses a configuration string into an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "dense":
		return EncodingDense, nil
	case "sparse":
		return EncodingSparse, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEncoding, s)
	}
}

// QubitsPerTurn returns the number of qubits encoding a single turn.
func (e Encoding) QubitsPerTurn() int {
	if e == EncodingSparse {
		return 4
	}
	return 2
}

// TurnIndicators returns the bitstring encoding each turn direction.
func (e Encoding) TurnIndicators() [4]string {
	if e == EncodingSparse {
		return [4]string{"0001", "0010", "0100", "1000"}
	}
	return [4]string{"00", "01", "10", "11"}
}

func (e Encoding) String() string {
	if e == EncodingSparse {
		return "sparse"
	}
	return "dense"
}

// Sublattice identifies which of the two interpenetrating sublattices of
// the tetrahedral lattice a bead occupies, alternating along the chain.
type Sublattice int

const (
	SublatticeA Sublattice = 0
	SublatticeB Sublattice = 1
)

func (s Sublattice) String() string {
	if s == SublatticeB {
		return "B"
	}
	return "A"
}
