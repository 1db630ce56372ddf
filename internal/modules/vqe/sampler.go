package vqe

import (
	"context"
	"sort"
)

// Distribution maps basis states to probabilities (or shot frequencies
// normalized to 1).
type Distribution map[uint64]float64

// Sampler produces the measurement distribution of the trial circuit at
// a parameter point. Implementations may simulate locally or defer to a
// remote sampling service.
type Sampler interface {
	// Sample returns the measurement distribution for the given ansatz
	// parameters.
	Sample(ctx context.Context, params []float64) (Distribution, error)
	// NumQubits returns the register width the sampler measures.
	NumQubits() int
	// Name identifies the backend ("local" or "remote").
	Name() string
}

// States returns the distribution's support sorted ascending, for
// deterministic iteration.
func (d Distribution) States() []uint64 {
	states := make([]uint64, 0, len(d))
	for s := range d {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
