package vqe

import (
	"fmt"
	"math"
)

// RealAmplitudes is the hardware-efficient trial circuit used by the
// folding solver: alternating layers of Ry rotations and a linear CX
// entangling chain. All gates are real, so the state is simulated as a
// float64 amplitude vector.
type RealAmplitudes struct {
	numQubits int
	reps      int
}

// NewRealAmplitudes returns the ansatz for the given register width and
// number of entangling repetitions.
func NewRealAmplitudes(numQubits, reps int) *RealAmplitudes {
	return &RealAmplitudes{numQubits: numQubits, reps: reps}
}

// NumQubits returns the register width.
func (a *RealAmplitudes) NumQubits() int { return a.numQubits }

// NumParameters returns the number of rotation angles: one Ry per qubit
// per rotation layer, with reps+1 layers.
func (a *RealAmplitudes) NumParameters() int {
	return a.numQubits * (a.reps + 1)
}

// Statevector simulates the circuit on |0...0> and returns the real
// amplitude vector, indexed by basis state with qubit i at bit i.
func (a *RealAmplitudes) Statevector(params []float64) ([]float64, error) {
	if len(params) != a.NumParameters() {
		return nil, fmt.Errorf("vqe: ansatz expects %d parameters, got %d", a.NumParameters(), len(params))
	}

	state := make([]float64, 1<<a.numQubits)
	state[0] = 1

	next := 0
	for q := 0; q < a.numQubits; q++ {
		applyRy(state, q, params[next])
		next++
	}
	for r := 0; r < a.reps; r++ {
		for q := 0; q < a.numQubits-1; q++ {
			applyCX(state, q, q+1)
		}
		for q := 0; q < a.numQubits; q++ {
			applyRy(state, q, params[next])
			next++
		}
	}
	return state, nil
}

// Probabilities returns the measurement distribution of the circuit.
func (a *RealAmplitudes) Probabilities(params []float64) ([]float64, error) {
	state, err := a.Statevector(params)
	if err != nil {
		return nil, err
	}
	for i, amp := range state {
		state[i] = amp * amp
	}
	return state, nil
}

// applyRy rotates qubit q by angle theta in place.
func applyRy(state []float64, q int, theta float64) {
	c := math.Cos(theta / 2)
	s := math.Sin(theta / 2)
	bit := 1 << q
	for i := range state {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		lo, hi := state[i], state[j]
		state[i] = c*lo - s*hi
		state[j] = s*lo + c*hi
	}
}

// applyCX flips the target bit of every amplitude whose control bit is
// set.
func applyCX(state []float64, control, target int) {
	cbit := 1 << control
	tbit := 1 << target
	for i := range state {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			state[i], state[j] = state[j], state[i]
		}
	}
}
