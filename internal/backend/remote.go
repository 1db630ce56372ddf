package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/vqe"
)

const (
	remoteMaxAttempts    = 3
	remoteInitialBackoff = 500 * time.Millisecond
	remoteRequestTimeout = 2 * time.Minute
	remoteDefaultShots   = 1024
)

// RemoteSampler delegates circuit sampling to an external service. The
// request carries the full circuit description so the service needs no
// per-run state.
type RemoteSampler struct {
	url    string
	token  string
	ansatz *vqe.RealAmplitudes
	shots  int
	client *http.Client
	log    zerolog.Logger
}

type sampleRequest struct {
	NumQubits  int       `json:"num_qubits"`
	Reps       int       `json:"reps"`
	Parameters []float64 `json:"parameters"`
	Shots      int       `json:"shots"`
}

type sampleResponse struct {
	// Counts maps measurement bitstrings (highest qubit leftmost) to
	// the number of shots that produced them.
	Counts map[string]int `json:"counts"`
}

// NewRemoteSampler returns a client for the sampling service at url.
func NewRemoteSampler(url, token string, numQubits, shots int, log zerolog.Logger) *RemoteSampler {
	if shots <= 0 {
		shots = remoteDefaultShots
	}
	return &RemoteSampler{
		url:    url,
		token:  token,
		ansatz: vqe.NewRealAmplitudes(numQubits, 1),
		shots:  shots,
		client: &http.Client{Timeout: remoteRequestTimeout},
		log:    log.With().Str("component", "remote_sampler").Logger(),
	}
}

// NumQubits returns the sampled register width.
func (s *RemoteSampler) NumQubits() int { return s.ansatz.NumQubits() }

func (s *RemoteSampler) Name() string { return "remote" }

// Sample posts the circuit to the service, retrying transient failures
// with exponential backoff.
func (s *RemoteSampler) Sample(ctx context.Context, params []float64) (vqe.Distribution, error) {
	if len(params) != s.ansatz.NumParameters() {
		return nil, fmt.Errorf("backend: remote sampler expects %d parameters, got %d",
			s.ansatz.NumParameters(), len(params))
	}

	body, err := json.Marshal(sampleRequest{
		NumQubits:  s.ansatz.NumQubits(),
		Reps:       1,
		Parameters: params,
		Shots:      s.shots,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: encoding sample request: %w", err)
	}

	backoff := remoteInitialBackoff
	var lastErr error
	for attempt := 1; attempt <= remoteMaxAttempts; attempt++ {
		dist, err := s.doRequest(ctx, body)
		if err == nil {
			return dist, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.log.Warn().Err(err).Int("attempt", attempt).Msg("Remote sampling attempt failed")
		if attempt < remoteMaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("backend: remote sampling failed after %d attempts: %w", remoteMaxAttempts, lastErr)
}

func (s *RemoteSampler) doRequest(ctx context.Context, body []byte) (vqe.Distribution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sampler service returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed sampleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding sampler response: %w", err)
	}

	var total int
	for _, c := range parsed.Counts {
		total += c
	}
	if total == 0 {
		return nil, fmt.Errorf("sampler service returned empty counts")
	}

	dist := make(vqe.Distribution, len(parsed.Counts))
	for bits, c := range parsed.Counts {
		state, err := strconv.ParseUint(bits, 2, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bitstring %q in sampler response: %w", bits, err)
		}
		dist[state] = float64(c) / float64(total)
	}
	return dist, nil
}
