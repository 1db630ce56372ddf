// Package vqe implements the variational ground-state search over the
// folding Hamiltonian: a real-amplitudes trial circuit, a CVaR energy
// objective and a small registry of gradient-free classical optimizers.
package vqe

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/pauli"
)

// defaultReps is the number of entangling repetitions in the ansatz.
const defaultReps = 1

// Iteration is one objective evaluation of the optimization trace.
type Iteration struct {
	Index  int     `json:"index"`
	Energy float64 `json:"energy"`
}

// Result holds the outcome of a variational run.
type Result struct {
	OptimalParameters []float64    `json:"optimal_parameters"`
	OptimalValue      float64      `json:"optimal_value"`
	BestState         uint64       `json:"best_state"`
	BestBitstring     string       `json:"best_bitstring"`
	BestEnergy        float64      `json:"best_energy"`
	BestProbability   float64      `json:"best_probability"`
	NumQubits         int          `json:"num_qubits"`
	Iterations        []Iteration  `json:"-"`
	Distribution      Distribution `json:"-"`
}

// Options configures a Solver.
type Options struct {
	Optimizer     string
	MaxIterations int
	Alpha         float64 // CVaR tail fraction; 0 selects the default
	Seed          int64   // 0 seeds from the clock
	// Callback receives every objective evaluation as it happens.
	Callback func(iteration Iteration)
}

// Solver runs the variational loop for one Hamiltonian.
type Solver struct {
	op      *pauli.Op
	sampler Sampler
	opts    Options
	log     zerolog.Logger
}

// NewSolver validates the options and returns a Solver.
func NewSolver(op *pauli.Op, sampler Sampler, opts Options, log zerolog.Logger) (*Solver, error) {
	if sampler.NumQubits() != op.NumQubits() {
		return nil, fmt.Errorf("vqe: sampler width %d does not match operator width %d",
			sampler.NumQubits(), op.NumQubits())
	}
	if opts.Alpha == 0 {
		opts.Alpha = defaultCVaRAlpha
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("vqe: alpha must be in (0, 1], got %v", opts.Alpha)
	}
	if opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("vqe: max iterations must be positive, got %d", opts.MaxIterations)
	}
	if opts.Optimizer == "" {
		opts.Optimizer = "nelder-mead"
	}
	return &Solver{
		op:      op,
		sampler: sampler,
		opts:    opts,
		log:     log.With().Str("component", "vqe").Logger(),
	}, nil
}

// Run minimizes the CVaR energy and returns the optimum together with
// the lowest-energy measured state at the optimal parameters.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ansatz := NewRealAmplitudes(s.op.NumQubits(), defaultReps)
	initial := make([]float64, ansatz.NumParameters())
	for i := range initial {
		initial[i] = (rng.Float64()*2 - 1) * math.Pi
	}

	optimizer, err := NewOptimizer(s.opts.Optimizer, s.opts.MaxIterations, rng)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("optimizer", optimizer.Name()).
		Str("backend", s.sampler.Name()).
		Int("qubits", s.op.NumQubits()).
		Int("parameters", len(initial)).
		Float64("alpha", s.opts.Alpha).
		Msg("Starting variational optimization")

	var (
		trace    []Iteration
		evalErr  error
		numEvals int
	)
	objective := func(params []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		if err := ctx.Err(); err != nil {
			evalErr = err
			return math.Inf(1)
		}
		dist, err := s.sampler.Sample(ctx, params)
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		energy, err := cvarEnergy(s.op, dist, s.opts.Alpha)
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		numEvals++
		it := Iteration{Index: numEvals, Energy: energy}
		trace = append(trace, it)
		if s.opts.Callback != nil {
			s.opts.Callback(it)
		}
		return energy
	}

	optimalParams, optimalValue, err := optimizer.Minimize(objective, initial)
	if evalErr != nil {
		return nil, fmt.Errorf("vqe: objective evaluation failed: %w", evalErr)
	}
	if err != nil {
		return nil, err
	}

	dist, err := s.sampler.Sample(ctx, optimalParams)
	if err != nil {
		return nil, fmt.Errorf("vqe: sampling optimal parameters: %w", err)
	}
	state, energy, prob, err := bestMeasurement(s.op, dist)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("evaluations", numEvals).
		Float64("optimal_value", optimalValue).
		Str("best_bitstring", Bitstring(state, s.op.NumQubits())).
		Float64("best_energy", energy).
		Msg("Variational optimization finished")

	return &Result{
		OptimalParameters: optimalParams,
		OptimalValue:      optimalValue,
		BestState:         state,
		BestBitstring:     Bitstring(state, s.op.NumQubits()),
		BestEnergy:        energy,
		BestProbability:   prob,
		NumQubits:         s.op.NumQubits(),
		Iterations:        trace,
		Distribution:      dist,
	}, nil
}

// Bitstring renders a basis state with the highest qubit leftmost.
func Bitstring(state uint64, numQubits int) string {
	var b strings.Builder
	for q := numQubits - 1; q >= 0; q-- {
		if state&(1<<q) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
