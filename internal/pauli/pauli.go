// Package pauli implements arithmetic on diagonal Pauli operators.
//
// Every operator produced by the folding model is a real linear combination
// of tensor products of I and Z, so an operator is stored as a list of
// terms, each holding a Z-support bitmask and a float64 coefficient.
// Products of diagonal Paulis compose by XOR of their masks, which keeps
// the whole Hamiltonian pipeline allocation-light and exact.
package pauli

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// Errors returned by operator arithmetic.
var (
	ErrQubitMismatch = errors.New("pauli: operators act on different qubit counts")
	ErrTooManyQubits = errors.New("pauli: operator too large for basis-state evaluation")
)

// atol is the coefficient tolerance below which terms are dropped during
// simplification. Matches the tolerance used by the upstream operator type.
const atol = 1e-10

// Mask is a Z-support bitmask. Bit i set means a Z factor on qubit i.
// Operators routinely exceed 64 qubits (the backbone register is
// (N-1)^2 + (N-1)*qubitsPerTurn wide), hence the multi-word layout.
type Mask []uint64

const wordBits = 64

func newMask(numQubits int) Mask {
	return make(Mask, (numQubits+wordBits-1)/wordBits)
}

// Bit reports whether bit i is set.
func (m Mask) Bit(i int) bool {
	w := i / wordBits
	if w >= len(m) {
		return false
	}
	return m[w]&(1<<(i%wordBits)) != 0
}

// SetBit sets or clears bit i.
func (m Mask) SetBit(i int, v bool) {
	w := i / wordBits
	if w >= len(m) {
		return
	}
	if v {
		m[w] |= 1 << (i % wordBits)
	} else {
		m[w] &^= 1 << (i % wordBits)
	}
}

func (m Mask) clone() Mask {
	out := make(Mask, len(m))
	copy(out, m)
	return out
}

func (m Mask) xor(other Mask) Mask {
	out := m.clone()
	for i := range other {
		if i < len(out) {
			out[i] ^= other[i]
		}
	}
	return out
}

func (m Mask) isZero() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

// key returns a comparable representation for term merging.
func (m Mask) key() string {
	buf := make([]byte, 0, len(m)*8)
	for _, w := range m {
		for s := 0; s < 64; s += 8 {
			buf = append(buf, byte(w>>s))
		}
	}
	return string(buf)
}

func (m Mask) less(other Mask) bool {
	for i := len(m) - 1; i >= 0; i-- {
		var a, b uint64
		if i < len(m) {
			a = m[i]
		}
		if i < len(other) {
			b = other[i]
		}
		if a != b {
			return a < b
		}
	}
	return false
}

// Term is a single I/Z product with a real coefficient.
type Term struct {
	Mask  Mask
	Coeff float64
}

// Op is a diagonal Pauli operator: a sum of Terms over a fixed register.
type Op struct {
	numQubits int
	terms     []Term
}

// Identity returns the full-identity operator with coefficient 1.
func Identity(numQubits int) *Op {
	return IdentityWithCoeff(numQubits, 1.0)
}

// IdentityWithCoeff returns c*I on the given register. A zero coefficient
// yields the canonical empty accumulator used when summing terms.
func IdentityWithCoeff(numQubits int, coeff float64) *Op {
	return &Op{
		numQubits: numQubits,
		terms:     []Term{{Mask: newMask(numQubits), Coeff: coeff}},
	}
}

// ZAt returns the operator with Z factors at the given qubit indices.
func ZAt(numQubits int, indices ...int) *Op {
	m := newMask(numQubits)
	for _, idx := range indices {
		m.SetBit(idx, true)
	}
	return &Op{numQubits: numQubits, terms: []Term{{Mask: m, Coeff: 1.0}}}
}

// TurnQubit builds the turn qubit operator 0.5*(I - Z_zIndex). Its
// eigenvalues are 0 on |0> and 1 on |1>, so it acts as a bit indicator.
func TurnQubit(zIndex, numQubits int) *Op {
	return ToQubit(ZAt(numQubits, zIndex))
}

// ToQubit converts a Pauli product into a binary indicator: 0.5*(I - op).
func ToQubit(op *Op) *Op {
	id := Identity(op.numQubits)
	diff, _ := id.Sub(op)
	return diff.Scale(0.5)
}

// NumQubits returns the register width.
func (op *Op) NumQubits() int { return op.numQubits }

// Terms returns the operator's terms. The slice must not be mutated.
func (op *Op) Terms() []Term { return op.terms }

// Clone returns a deep copy.
func (op *Op) Clone() *Op {
	terms := make([]Term, len(op.terms))
	for i, t := range op.terms {
		terms[i] = Term{Mask: t.Mask.clone(), Coeff: t.Coeff}
	}
	return &Op{numQubits: op.numQubits, terms: terms}
}

// Add returns op + other.
func (op *Op) Add(other *Op) (*Op, error) {
	if op.numQubits != other.numQubits {
		return nil, fmt.Errorf("%w: %d vs %d", ErrQubitMismatch, op.numQubits, other.numQubits)
	}
	terms := make([]Term, 0, len(op.terms)+len(other.terms))
	for _, t := range op.terms {
		terms = append(terms, Term{Mask: t.Mask.clone(), Coeff: t.Coeff})
	}
	for _, t := range other.terms {
		terms = append(terms, Term{Mask: t.Mask.clone(), Coeff: t.Coeff})
	}
	return &Op{numQubits: op.numQubits, terms: terms}, nil
}

// Sub returns op - other.
func (op *Op) Sub(other *Op) (*Op, error) {
	return op.Add(other.Scale(-1))
}

// Scale returns c*op.
func (op *Op) Scale(c float64) *Op {
	out := op.Clone()
	for i := range out.terms {
		out.terms[i].Coeff *= c
	}
	return out
}

// Mul returns the operator product op*other. Diagonal Paulis commute and
// compose by XOR of Z masks.
func (op *Op) Mul(other *Op) (*Op, error) {
	if op.numQubits != other.numQubits {
		return nil, fmt.Errorf("%w: %d vs %d", ErrQubitMismatch, op.numQubits, other.numQubits)
	}
	terms := make([]Term, 0, len(op.terms)*len(other.terms))
	for _, a := range op.terms {
		for _, b := range other.terms {
			terms = append(terms, Term{Mask: a.Mask.xor(b.Mask), Coeff: a.Coeff * b.Coeff})
		}
	}
	return &Op{numQubits: op.numQubits, terms: terms}, nil
}

// Square returns op*op.
func (op *Op) Square() *Op {
	sq, _ := op.Mul(op)
	return sq
}

// Tensor returns op (tensor) other, with other occupying the low qubit
// indices of the combined register.
func (op *Op) Tensor(other *Op) *Op {
	total := op.numQubits + other.numQubits
	terms := make([]Term, 0, len(op.terms)*len(other.terms))
	for _, a := range op.terms {
		for _, b := range other.terms {
			m := newMask(total)
			for i := 0; i < other.numQubits; i++ {
				if b.Mask.Bit(i) {
					m.SetBit(i, true)
				}
			}
			for i := 0; i < op.numQubits; i++ {
				if a.Mask.Bit(i) {
					m.SetBit(i+other.numQubits, true)
				}
			}
			terms = append(terms, Term{Mask: m, Coeff: a.Coeff * b.Coeff})
		}
	}
	return &Op{numQubits: total, terms: terms}
}

// Simplify merges terms with identical Z support and drops terms whose
// coefficient magnitude falls below the tolerance. The identity term is
// retained even at zero coefficient so accumulators keep their register.
func (op *Op) Simplify() *Op {
	merged := make(map[string]*Term, len(op.terms))
	order := make([]string, 0, len(op.terms))
	for _, t := range op.terms {
		k := t.Mask.key()
		if existing, ok := merged[k]; ok {
			existing.Coeff += t.Coeff
			continue
		}
		cp := Term{Mask: t.Mask.clone(), Coeff: t.Coeff}
		merged[k] = &cp
		order = append(order, k)
	}

	terms := make([]Term, 0, len(merged))
	for _, k := range order {
		t := merged[k]
		if math.Abs(t.Coeff) <= atol && !t.Mask.isZero() {
			continue
		}
		terms = append(terms, *t)
	}
	if len(terms) == 0 {
		terms = append(terms, Term{Mask: newMask(op.numQubits), Coeff: 0})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Mask.less(terms[j].Mask)
	})
	return &Op{numQubits: op.numQubits, terms: terms}
}

// PadTo extends the operator with identity qubits up to target width.
func (op *Op) PadTo(target int) *Op {
	if op.numQubits >= target {
		return op.Clone()
	}
	out := op.Clone()
	out.numQubits = target
	words := (target + wordBits - 1) / wordBits
	for i := range out.terms {
		for len(out.terms[i].Mask) < words {
			out.terms[i].Mask = append(out.terms[i].Mask, 0)
		}
	}
	return out
}

// UnusedQubits returns the indices of qubits that carry identity in every
// term of the operator.
func (op *Op) UnusedQubits() []int {
	used := make([]bool, op.numQubits)
	for _, t := range op.terms {
		for i := 0; i < op.numQubits; i++ {
			if t.Mask.Bit(i) {
				used[i] = true
			}
		}
	}
	var unused []int
	for i, u := range used {
		if !u {
			unused = append(unused, i)
		}
	}
	return unused
}

// Compress removes qubits that are identity in all terms and returns the
// reduced operator together with the original indices of the kept qubits,
// in ascending order.
func (op *Op) Compress() (*Op, []int) {
	unused := op.UnusedQubits()
	if len(unused) == 0 {
		return op.Clone(), identityMapping(op.numQubits)
	}

	drop := make(map[int]bool, len(unused))
	for _, i := range unused {
		drop[i] = true
	}

	kept := make([]int, 0, op.numQubits-len(unused))
	for i := 0; i < op.numQubits; i++ {
		if !drop[i] {
			kept = append(kept, i)
		}
	}

	terms := make([]Term, len(op.terms))
	for ti, t := range op.terms {
		m := newMask(len(kept))
		for newIdx, oldIdx := range kept {
			if t.Mask.Bit(oldIdx) {
				m.SetBit(newIdx, true)
			}
		}
		terms[ti] = Term{Mask: m, Coeff: t.Coeff}
	}

	reduced := &Op{numQubits: len(kept), terms: terms}
	return reduced.Simplify(), kept
}

func identityMapping(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Eval returns the diagonal matrix element of the operator on the given
// computational basis state. Bit i of state is the measured value of
// qubit i; a Z factor contributes -1 on a set bit. Only valid for
// compressed operators that fit a single machine word.
func (op *Op) Eval(state uint64) (float64, error) {
	if op.numQubits > wordBits {
		return 0, fmt.Errorf("%w: %d qubits", ErrTooManyQubits, op.numQubits)
	}
	var sum float64
	for _, t := range op.terms {
		var mask uint64
		if len(t.Mask) > 0 {
			mask = t.Mask[0]
		}
		if bits.OnesCount64(mask&state)%2 == 1 {
			sum -= t.Coeff
		} else {
			sum += t.Coeff
		}
	}
	return sum, nil
}

// Diagonal materializes the operator's diagonal over all 2^n basis states.
func (op *Op) Diagonal() ([]float64, error) {
	if op.numQubits > 30 {
		return nil, fmt.Errorf("%w: %d qubits", ErrTooManyQubits, op.numQubits)
	}
	size := 1 << op.numQubits
	diag := make([]float64, size)
	for s := 0; s < size; s++ {
		v, err := op.Eval(uint64(s))
		if err != nil {
			return nil, err
		}
		diag[s] = v
	}
	return diag, nil
}
