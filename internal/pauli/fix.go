package pauli

// Turn qubits that are pinned by lattice symmetry: the first two turns of
// the main chain can be fixed without loss of generality, which pins the
// first four turn qubits, and qubit 5 is pinned whenever the second bead
// carries no side bead.
var fixedQubitIndices = []int{0, 1, 2, 3, 5}

const (
	signFlipSecondQubit = 1
	signFlipSixthQubit  = 5
)

// FixQubits presets the pinned turn qubits of the operator to their fixed
// values. Z factors on pinned qubits are replaced by their eigenvalues:
// for a multi-term operator a Z on qubit 1 (and, absent a side bead on the
// second position, qubit 5) negates the term's coefficient before the Z
// support is cleared. Single-term operators only have their support
// cleared, mirroring the upstream behavior.
func FixQubits(op *Op, hasSideChainSecondBead bool) *Op {
	out := op.Clone()

	if len(out.terms) == 1 {
		presetMask(out.terms[0].Mask, out.numQubits)
		return out.Simplify()
	}

	for i := range out.terms {
		m := out.terms[i].Mask
		if out.numQubits > signFlipSecondQubit && m.Bit(signFlipSecondQubit) {
			out.terms[i].Coeff = -out.terms[i].Coeff
		}
		if !hasSideChainSecondBead && out.numQubits > signFlipSixthQubit+1 && m.Bit(signFlipSixthQubit) {
			out.terms[i].Coeff = -out.terms[i].Coeff
		}
		presetMask(m, out.numQubits)
	}
	return out.Simplify()
}

func presetMask(m Mask, numQubits int) {
	for _, idx := range fixedQubitIndices {
		if idx < numQubits {
			m.SetBit(idx, false)
		}
	}
}
