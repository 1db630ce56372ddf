// Package backend provides sampler implementations for the variational
// solver: an exact local statevector simulator with optional shot noise
// and a client for a remote sampling service.
package backend

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/modules/vqe"
)

var (
	// ErrTooManyQubits is returned when the compressed Hamiltonian
	// exceeds the configured simulation budget.
	ErrTooManyQubits = errors.New("backend: problem exceeds the qubit budget")
	// ErrRemoteNotConfigured is returned when the remote backend is
	// selected without a sampler URL and token.
	ErrRemoteNotConfigured = errors.New("backend: remote sampler not configured")
)

// New returns the sampler selected by the configuration, sized for a
// register of numQubits.
func New(cfg *config.Config, numQubits int, log zerolog.Logger) (vqe.Sampler, error) {
	if numQubits > cfg.MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits, budget %d", ErrTooManyQubits, numQubits, cfg.MaxQubits)
	}

	switch cfg.Backend {
	case "local":
		return NewLocalSampler(numQubits, cfg.Shots, 0, log), nil
	case "remote":
		if cfg.SamplerURL == "" || cfg.SamplerToken == "" {
			return nil, ErrRemoteNotConfigured
		}
		return NewRemoteSampler(cfg.SamplerURL, cfg.SamplerToken, numQubits, cfg.Shots, log), nil
	default:
		return nil, fmt.Errorf("backend: unknown backend %q", cfg.Backend)
	}
}
