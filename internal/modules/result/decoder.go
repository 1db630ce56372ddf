// Package result turns the best measured basis state of a folding run
// into a lattice conformation and writes the run's output artifacts.
package result

import (
	"errors"
	"fmt"
	"math"

	"github.com/qfold/qfold/internal/modules/hamiltonian"
	"github.com/qfold/qfold/internal/modules/protein"
)

// ErrInvalidConformation is returned when a measured state does not
// decode to a valid turn sequence.
var ErrInvalidConformation = errors.New("result: measured state does not encode a valid conformation")

// latticeBasis holds the four bond vectors of the tetrahedral lattice,
// scaled to unit length.
var latticeBasis = [protein.NumTurnDirections][3]float64{
	{-1, 1, 1},
	{1, 1, -1},
	{-1, -1, -1},
	{1, -1, 1},
}

func init() {
	norm := math.Sqrt(3)
	for i := range latticeBasis {
		for k := range latticeBasis[i] {
			latticeBasis[i][k] /= norm
		}
	}
}

// Conformation is a decoded fold: the turn sequence, bead coordinates
// and the contacts realized by the measured state.
type Conformation struct {
	Turns       []int         `json:"turns"`
	Coordinates [][3]float64  `json:"coordinates"`
	Contacts    [][2]int      `json:"contacts"`
	Bitstring   string        `json:"bitstring"`
}

// Decoder maps compressed-register basis states back onto the full
// register and decodes turns and contacts.
type Decoder struct {
	protein     *protein.Protein
	hamiltonian *hamiltonian.Hamiltonian
}

// NewDecoder returns a Decoder for the protein the Hamiltonian was
// built from.
func NewDecoder(p *protein.Protein, h *hamiltonian.Hamiltonian) *Decoder {
	return &Decoder{protein: p, hamiltonian: h}
}

// Decode expands the compressed state, reads the turn sequence off the
// turn register and the realized contacts off the contact register, and
// places the beads on the lattice.
func (d *Decoder) Decode(state uint64, bitstring string) (*Conformation, error) {
	bits := d.fullRegister(state)

	turns, err := d.decodeTurns(bits)
	if err != nil {
		return nil, err
	}

	return &Conformation{
		Turns:       turns,
		Coordinates: Coordinates(turns),
		Contacts:    d.decodeContacts(bits),
		Bitstring:   bitstring,
	}, nil
}

// fullRegister expands a compressed basis state: kept qubits take their
// measured values, pinned turn qubits their preset values, and qubits
// removed as unused stay zero.
func (d *Decoder) fullRegister(state uint64) []bool {
	bits := make([]bool, d.hamiltonian.TotalQubits)

	// Presets mirror the qubit fixing applied while building the
	// Hamiltonian: the first two turns are pinned, and qubit 5 is set
	// whenever the second bead carries no side bead.
	bits[1] = true
	if !d.protein.SecondBeadHasSideBead() && d.hamiltonian.TurnQubits > 5 {
		bits[5] = true
	}

	for k, orig := range d.hamiltonian.KeptQubits {
		bits[orig] = state&(1<<k) != 0
	}
	return bits
}

// decodeTurns reads one direction per bond off the turn register.
func (d *Decoder) decodeTurns(bits []bool) ([]int, error) {
	qpt := d.protein.Encoding().QubitsPerTurn()
	numTurns := d.hamiltonian.TurnQubits / qpt

	turns := make([]int, numTurns)
	for i := 0; i < numTurns; i++ {
		group := bits[i*qpt : (i+1)*qpt]
		turn, err := decodeTurn(group, d.protein.Encoding())
		if err != nil {
			return nil, fmt.Errorf("%w: turn %d", err, i)
		}
		turns[i] = turn
	}
	return turns, nil
}

func decodeTurn(group []bool, encoding protein.Encoding) (int, error) {
	if encoding == protein.EncodingDense {
		turn := 0
		if group[0] {
			turn += 2
		}
		if group[1] {
			turn++
		}
		return turn, nil
	}

	// Sparse turns are one-hot.
	turn := -1
	for k, set := range group {
		if !set {
			continue
		}
		if turn >= 0 {
			return 0, ErrInvalidConformation
		}
		turn = k
	}
	if turn < 0 {
		return 0, ErrInvalidConformation
	}
	return turn, nil
}

// decodeContacts reads the realized bead contacts off the contact
// register, enumerating the same pairs the contact map admits.
func (d *Decoder) decodeContacts(bits []bool) [][2]int {
	n := d.protein.MainChain.Len()
	contacts := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := i + 5; j < n; j += 2 {
			idx := d.hamiltonian.TurnQubits + i*(n-1) + j
			if idx < len(bits) && bits[idx] {
				contacts = append(contacts, [2]int{i, j})
			}
		}
	}
	return contacts
}

// Coordinates places the beads on the tetrahedral lattice, walking the
// chain from the origin and alternating the bond vector's sign with the
// bead's sublattice.
func Coordinates(turns []int) [][3]float64 {
	coords := make([][3]float64, len(turns)+1)
	for i, turn := range turns {
		sign := 1.0
		if i%2 == 1 {
			sign = -1.0
		}
		for k := 0; k < 3; k++ {
			coords[i+1][k] = coords[i][k] + sign*latticeBasis[turn][k]
		}
	}
	return coords
}
