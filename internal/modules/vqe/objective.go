package vqe

import (
	"sort"

	"github.com/qfold/qfold/internal/pauli"
)

// defaultCVaRAlpha is the tail fraction of the sampled energy
// distribution the objective averages over. Optimizing the conditional
// value at risk instead of the plain expectation steers the search
// toward the ground state of diagonal Hamiltonians.
const defaultCVaRAlpha = 0.1

// cvarEnergy computes the CVaR_alpha of the operator's energy under the
// sampled distribution: the mean of the lowest-energy alpha tail.
func cvarEnergy(op *pauli.Op, dist Distribution, alpha float64) (float64, error) {
	type sample struct {
		energy float64
		prob   float64
	}

	samples := make([]sample, 0, len(dist))
	for state, prob := range dist {
		if prob <= 0 {
			continue
		}
		e, err := op.Eval(state)
		if err != nil {
			return 0, err
		}
		samples = append(samples, sample{energy: e, prob: prob})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].energy < samples[j].energy })

	var acc, weight float64
	for _, s := range samples {
		p := s.prob
		if weight+p > alpha {
			p = alpha - weight
		}
		acc += p * s.energy
		weight += p
		if weight >= alpha {
			break
		}
	}
	if weight == 0 {
		return 0, nil
	}
	return acc / weight, nil
}

// bestMeasurement returns the lowest-energy state in the distribution's
// support together with its energy and probability.
func bestMeasurement(op *pauli.Op, dist Distribution) (state uint64, energy, prob float64, err error) {
	first := true
	for _, s := range dist.States() {
		p := dist[s]
		if p <= 0 {
			continue
		}
		e, evalErr := op.Eval(s)
		if evalErr != nil {
			return 0, 0, 0, evalErr
		}
		if first || e < energy {
			state, energy, prob = s, e, p
			first = false
		}
	}
	return state, energy, prob, nil
}
