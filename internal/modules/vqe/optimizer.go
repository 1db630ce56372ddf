package vqe

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// ErrUnknownOptimizer is returned for unrecognized optimizer names.
var ErrUnknownOptimizer = errors.New("vqe: unknown optimizer")

// Optimizer minimizes a noisy scalar objective without gradients.
type Optimizer interface {
	Minimize(objective func([]float64) float64, initial []float64) ([]float64, float64, error)
	Name() string
}

// NewOptimizer returns the optimizer registered under name.
func NewOptimizer(name string, maxIterations int, rng *rand.Rand) (Optimizer, error) {
	switch name {
	case "nelder-mead":
		return &nelderMead{maxIterations: maxIterations}, nil
	case "spsa":
		return &spsa{maxIterations: maxIterations, a: 0.2, c: 0.1, rng: rng}, nil
	case "cmaes":
		return &cmaes{maxIterations: maxIterations}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
	}
}

// OptimizerNames lists the registered optimizer names.
func OptimizerNames() []string {
	return []string{"nelder-mead", "spsa", "cmaes"}
}

// nelderMead wraps gonum's derivative-free simplex method.
type nelderMead struct {
	maxIterations int
}

func (n *nelderMead) Name() string { return "nelder-mead" }

func (n *nelderMead) Minimize(objective func([]float64) float64, initial []float64) ([]float64, float64, error) {
	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{MajorIterations: n.maxIterations}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if result == nil {
		return nil, 0, fmt.Errorf("nelder-mead failed: %w", err)
	}
	// Iteration-budget exits are expected; only hard failures matter.
	if err != nil && result.Status != optimize.IterationLimit && result.Status != optimize.FunctionEvaluationLimit {
		return nil, 0, fmt.Errorf("nelder-mead exited with status %v: %w", result.Status, err)
	}
	return result.X, result.F, nil
}

// spsa is simultaneous perturbation stochastic approximation with the
// standard power-law gain schedules. It probes the objective twice per
// iteration regardless of dimension, which suits shot-sampled energies.
type spsa struct {
	maxIterations int
	a             float64
	c             float64
	rng           *rand.Rand
}

func (s *spsa) Name() string { return "spsa" }

func (s *spsa) Minimize(objective func([]float64) float64, initial []float64) ([]float64, float64, error) {
	x := append([]float64(nil), initial...)
	dim := len(x)
	stability := float64(s.maxIterations) / 10

	delta := make([]float64, dim)
	probe := make([]float64, dim)

	bestX := append([]float64(nil), x...)
	bestF := objective(x)

	for k := 0; k < s.maxIterations; k++ {
		ak := s.a / math.Pow(float64(k+1)+stability, 0.602)
		ck := s.c / math.Pow(float64(k+1), 0.101)

		for i := range delta {
			if s.rng.Intn(2) == 0 {
				delta[i] = 1
			} else {
				delta[i] = -1
			}
		}

		for i := range probe {
			probe[i] = x[i] + ck*delta[i]
		}
		yPlus := objective(probe)
		for i := range probe {
			probe[i] = x[i] - ck*delta[i]
		}
		yMinus := objective(probe)

		for i := range x {
			x[i] -= ak * (yPlus - yMinus) / (2 * ck * delta[i])
		}

		if f := objective(x); f < bestF {
			bestF = f
			copy(bestX, x)
		}
	}

	return bestX, bestF, nil
}

// cmaes wraps gonum's Cholesky-based CMA-ES.
type cmaes struct {
	maxIterations int
}

func (c *cmaes) Name() string { return "cmaes" }

func (c *cmaes) Minimize(objective func([]float64) float64, initial []float64) ([]float64, float64, error) {
	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{MajorIterations: c.maxIterations}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.CmaEsChol{})
	if result == nil {
		return nil, 0, fmt.Errorf("cmaes failed: %w", err)
	}
	if err != nil && result.Status != optimize.IterationLimit && result.Status != optimize.FunctionEvaluationLimit {
		return nil, 0, fmt.Errorf("cmaes exited with status %v: %w", result.Status, err)
	}
	return result.X, result.F, nil
}
