package vqe

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/pauli"
)

func TestRealAmplitudesSingleQubit(t *testing.T) {
	// On one qubit the two Ry layers compose, so the amplitudes are
	// cos and sin of half the angle sum.
	a := NewRealAmplitudes(1, 1)
	require.Equal(t, 2, a.NumParameters())

	state, err := a.Statevector([]float64{math.Pi / 3, math.Pi / 6})
	require.NoError(t, err)
	assert.InDelta(t, math.Cos(math.Pi/4), state[0], 1e-12)
	assert.InDelta(t, math.Sin(math.Pi/4), state[1], 1e-12)
}

func TestRealAmplitudesEntangles(t *testing.T) {
	// Ry(pi/2) on qubit 0 followed by CX(0->1) yields (|00>+|11>)/sqrt(2).
	a := NewRealAmplitudes(2, 1)
	probs, err := a.Probabilities([]float64{math.Pi / 2, 0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, probs[0b00], 1e-12)
	assert.InDelta(t, 0.5, probs[0b11], 1e-12)
	assert.InDelta(t, 0.0, probs[0b01], 1e-12)
	assert.InDelta(t, 0.0, probs[0b10], 1e-12)
}

func TestRealAmplitudesParameterCount(t *testing.T) {
	a := NewRealAmplitudes(3, 1)
	_, err := a.Statevector([]float64{0, 0})
	require.Error(t, err)
}

func TestCVaRPicksLowEnergyTail(t *testing.T) {
	op := pauli.ZAt(2, 0) // energies: +1 on even states, -1 on odd

	dist := Distribution{
		0b00: 0.5,
		0b01: 0.5,
	}

	// The lowest-energy 50% of the mass is entirely on state 01.
	v, err := cvarEnergy(op, dist, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, v, 1e-12)

	// Expectation over the whole distribution is 0.
	v, err = cvarEnergy(op, dist, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-12)

	// A tail spanning both states mixes them 25/75.
	dist = Distribution{0b00: 0.75, 0b01: 0.25}
	v, err = cvarEnergy(op, dist, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, (-1.0*0.25+1.0*0.25)/0.5, v, 1e-12)
}

func TestBestMeasurement(t *testing.T) {
	op := pauli.ZAt(2, 1)
	dist := Distribution{
		0b00: 0.7,
		0b10: 0.2,
		0b11: 0.1,
	}

	state, energy, prob, err := bestMeasurement(op, dist)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b10), state)
	assert.InDelta(t, -1.0, energy, 1e-12)
	assert.InDelta(t, 0.2, prob, 1e-12)
}

func TestBitstring(t *testing.T) {
	assert.Equal(t, "0101", Bitstring(0b0101, 4))
	assert.Equal(t, "100", Bitstring(4, 3))
	assert.Equal(t, "000000", Bitstring(0, 6))
}

func TestSPSAConvergesOnQuadratic(t *testing.T) {
	s := &spsa{maxIterations: 200, a: 0.2, c: 0.1, rng: rand.New(rand.NewSource(7))}

	objective := func(x []float64) float64 {
		var sum float64
		for _, v := range x {
			sum += v * v
		}
		return sum
	}

	x, f, err := s.Minimize(objective, []float64{1, -1, 0.5})
	require.NoError(t, err)
	assert.Less(t, f, 0.5)
	assert.Len(t, x, 3)
}

func TestNewOptimizerUnknown(t *testing.T) {
	_, err := NewOptimizer("adam", 10, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrUnknownOptimizer)
}

// exactSampler simulates the ansatz without shot noise.
type exactSampler struct {
	ansatz *RealAmplitudes
}

func (s *exactSampler) NumQubits() int { return s.ansatz.NumQubits() }
func (s *exactSampler) Name() string   { return "exact" }

func (s *exactSampler) Sample(_ context.Context, params []float64) (Distribution, error) {
	probs, err := s.ansatz.Probabilities(params)
	if err != nil {
		return nil, err
	}
	dist := make(Distribution, len(probs))
	for state, p := range probs {
		if p > 0 {
			dist[uint64(state)] = p
		}
	}
	return dist, nil
}

func TestSolverFindsGroundState(t *testing.T) {
	// Single-qubit Z: ground state |1> with energy -1.
	op := pauli.ZAt(1, 0)
	sampler := &exactSampler{ansatz: NewRealAmplitudes(1, 1)}

	var callbacks int
	solver, err := NewSolver(op, sampler, Options{
		Optimizer:     "nelder-mead",
		MaxIterations: 100,
		Seed:          42,
		Callback:      func(Iteration) { callbacks++ },
	}, zerolog.Nop())
	require.NoError(t, err)

	result, err := solver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", result.BestBitstring)
	assert.InDelta(t, -1.0, result.BestEnergy, 1e-9)
	assert.InDelta(t, -1.0, result.OptimalValue, 1e-6)
	assert.NotEmpty(t, result.Iterations)
	assert.Equal(t, len(result.Iterations), callbacks)
}

func TestSolverValidatesOptions(t *testing.T) {
	op := pauli.ZAt(1, 0)
	sampler := &exactSampler{ansatz: NewRealAmplitudes(2, 1)}

	_, err := NewSolver(op, sampler, Options{MaxIterations: 10}, zerolog.Nop())
	require.Error(t, err)

	sampler = &exactSampler{ansatz: NewRealAmplitudes(1, 1)}
	_, err = NewSolver(op, sampler, Options{MaxIterations: 0}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewSolver(op, sampler, Options{MaxIterations: 10, Alpha: 1.5}, zerolog.Nop())
	require.Error(t, err)
}

func TestSolverCancelledContext(t *testing.T) {
	op := pauli.ZAt(1, 0)
	sampler := &exactSampler{ansatz: NewRealAmplitudes(1, 1)}

	solver, err := NewSolver(op, sampler, Options{Optimizer: "spsa", MaxIterations: 50, Seed: 1}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
