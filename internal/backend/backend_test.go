package backend

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/config"
)

func TestLocalSamplerExact(t *testing.T) {
	s := NewLocalSampler(2, 0, 1, zerolog.Nop())
	require.Equal(t, 2, s.NumQubits())

	dist, err := s.Sample(context.Background(), []float64{math.Pi / 2, 0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, dist[0b00], 1e-12)
	assert.InDelta(t, 0.5, dist[0b11], 1e-12)
	assert.NotContains(t, dist, uint64(0b01))

	var total float64
	for _, p := range dist {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestLocalSamplerShots(t *testing.T) {
	s := NewLocalSampler(2, 500, 7, zerolog.Nop())

	dist, err := s.Sample(context.Background(), []float64{math.Pi / 2, 0, 0, 0})
	require.NoError(t, err)

	var total float64
	for state, p := range dist {
		assert.Contains(t, []uint64{0b00, 0b11}, state)
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	// Both branches should show up in 500 shots of a 50/50 split.
	assert.Greater(t, dist[0b00], 0.2)
	assert.Greater(t, dist[0b11], 0.2)
}

func TestRemoteSampler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"counts": {"00": 250, "11": 750}}`))
	}))
	defer srv.Close()

	s := NewRemoteSampler(srv.URL, "secret", 2, 1000, zerolog.Nop())
	dist, err := s.Sample(context.Background(), []float64{0, 0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, dist[0b00], 1e-12)
	assert.InDelta(t, 0.75, dist[0b11], 1e-12)
}

func TestRemoteSamplerRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"counts": {"0": 10}}`))
	}))
	defer srv.Close()

	s := NewRemoteSampler(srv.URL, "secret", 1, 10, zerolog.Nop())
	dist, err := s.Sample(context.Background(), []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 1.0, dist[0], 1e-12)
}

func TestRemoteSamplerParameterMismatch(t *testing.T) {
	s := NewRemoteSampler("http://localhost:0", "secret", 2, 10, zerolog.Nop())
	_, err := s.Sample(context.Background(), []float64{0})
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	cfg := &config.Config{Backend: "local", MaxQubits: 10}

	s, err := New(cfg, 4, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name())

	_, err = New(cfg, 11, zerolog.Nop())
	require.ErrorIs(t, err, ErrTooManyQubits)

	cfg = &config.Config{Backend: "remote", MaxQubits: 10}
	_, err = New(cfg, 4, zerolog.Nop())
	require.ErrorIs(t, err, ErrRemoteNotConfigured)

	cfg = &config.Config{Backend: "quantum", MaxQubits: 10}
	_, err = New(cfg, 4, zerolog.Nop())
	require.Error(t, err)
}
