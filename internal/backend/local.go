package backend

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/vqe"
)

// LocalSampler simulates the trial circuit exactly. With shots == 0 it
// returns the full probability vector; otherwise it draws that many
// samples from it, reproducing hardware-style shot noise.
type LocalSampler struct {
	ansatz *vqe.RealAmplitudes
	shots  int
	log    zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalSampler returns a simulator for the given register width.
// A zero seed seeds the shot sampler from the clock.
func NewLocalSampler(numQubits, shots int, seed int64, log zerolog.Logger) *LocalSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LocalSampler{
		ansatz: vqe.NewRealAmplitudes(numQubits, 1),
		shots:  shots,
		log:    log.With().Str("component", "local_sampler").Logger(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// NumQubits returns the simulated register width.
func (s *LocalSampler) NumQubits() int { return s.ansatz.NumQubits() }

func (s *LocalSampler) Name() string { return "local" }

// Sample simulates the circuit and returns the measurement distribution.
func (s *LocalSampler) Sample(ctx context.Context, params []float64) (vqe.Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs, err := s.ansatz.Probabilities(params)
	if err != nil {
		return nil, err
	}

	if s.shots <= 0 {
		dist := make(vqe.Distribution, len(probs))
		for state, p := range probs {
			if p > 0 {
				dist[uint64(state)] = p
			}
		}
		return dist, nil
	}

	return s.sampleShots(probs), nil
}

// sampleShots draws shot outcomes by inverse transform over the
// cumulative distribution.
func (s *LocalSampler) sampleShots(probs []float64) vqe.Distribution {
	cumulative := make([]float64, len(probs))
	var total float64
	for i, p := range probs {
		total += p
		cumulative[i] = total
	}

	counts := make(map[int]int)
	s.mu.Lock()
	for i := 0; i < s.shots; i++ {
		r := s.rng.Float64() * total
		lo, hi := 0, len(cumulative)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cumulative[mid] < r {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		counts[lo]++
	}
	s.mu.Unlock()

	dist := make(vqe.Distribution, len(counts))
	for state, c := range counts {
		dist[uint64(state)] = float64(c) / float64(s.shots)
	}
	return dist
}
