package protein

import (
	"github.com/qfold/qfold/internal/pauli"
)

// NumTurnDirections is the coordination number of the tetrahedral lattice.
const NumTurnDirections = 4

// Bead is a single residue of the main chain. Every bead except the last
// owns a block of turn qubits describing the bond leaving it.
type Bead struct {
	Symbol     byte
	Index      int
	Sublattice Sublattice

	encoding      Encoding
	numTurnQubits int
	turnQubits    []*pauli.Op
}

func newBead(symbol byte, index, chainLen int, encoding Encoding) *Bead {
	b := &Bead{
		Symbol:        symbol,
		Index:         index,
		Sublattice:    Sublattice(index % 2),
		encoding:      encoding,
		numTurnQubits: (chainLen - 1) * encoding.QubitsPerTurn(),
	}

	// The last bead has no outgoing bond and therefore no turn qubits.
	if index == chainLen-1 {
		return b
	}

	qpt := encoding.QubitsPerTurn()
	b.turnQubits = make([]*pauli.Op, qpt)
	for k := 0; k < qpt; k++ {
		b.turnQubits[k] = pauli.TurnQubit(qpt*index+k, b.numTurnQubits)
	}
	return b
}

// HasTurnOperators reports whether the bead encodes an outgoing turn.
func (b *Bead) HasTurnOperators() bool {
	return len(b.turnQubits) > 0
}

// TurnOperators returns the four direction indicator operators for the
// bond leaving this bead, or ok=false for the final bead.
func (b *Bead) TurnOperators() (ops [NumTurnDirections]*pauli.Op, ok bool) {
	if !b.HasTurnOperators() {
		return ops, false
	}
	if b.encoding == EncodingSparse {
		for k := 0; k < NumTurnDirections; k++ {
			ops[k] = b.turnQubits[k]
		}
		return ops, true
	}
	ops[0] = b.denseTurn0()
	ops[1] = b.denseTurn1()
	ops[2] = b.denseTurn2()
	ops[3] = b.denseTurn3()
	return ops, true
}

// Dense direction functions over the two turn qubits t0, t1:
// direction 0 is (1-t0)(1-t1), 1 is t1(t1-t0), 2 is t0(t0-t1), 3 is t0*t1.
// Each evaluates to 1 exactly on its own 2-bit pattern.

func (b *Bead) denseTurn0() *pauli.Op {
	id := pauli.Identity(b.numTurnQubits)
	a, _ := id.Sub(b.turnQubits[0])
	c, _ := id.Sub(b.turnQubits[1])
	prod, _ := a.Mul(c)
	return prod.Simplify()
}

func (b *Bead) denseTurn1() *pauli.Op {
	diff, _ := b.turnQubits[1].Sub(b.turnQubits[0])
	prod, _ := b.turnQubits[1].Mul(diff)
	return prod.Simplify()
}

func (b *Bead) denseTurn2() *pauli.Op {
	diff, _ := b.turnQubits[0].Sub(b.turnQubits[1])
	prod, _ := b.turnQubits[0].Mul(diff)
	return prod.Simplify()
}

func (b *Bead) denseTurn3() *pauli.Op {
	prod, _ := b.turnQubits[0].Mul(b.turnQubits[1])
	return prod.Simplify()
}
