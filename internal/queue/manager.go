// Package queue runs folding jobs sequentially on a background worker
// and publishes their progress.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/folding"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/modules/vqe"
)

// ErrQueueFull is returned when the job buffer is saturated.
var ErrQueueFull = errors.New("queue: job queue is full")

const jobBuffer = 16

type job struct {
	runID string
	req   folding.Request
}

// Manager owns the worker goroutine executing folding jobs.
type Manager struct {
	service *folding.Service
	runs    *runs.Repository
	history *history.Repository
	hub     *Hub
	log     zerolog.Logger

	jobs   chan job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewManager wires the queue to its collaborators.
func NewManager(service *folding.Service, runRepo *runs.Repository, historyRepo *history.Repository, hub *Hub, log zerolog.Logger) *Manager {
	return &Manager{
		service: service,
		runs:    runRepo,
		history: historyRepo,
		hub:     hub,
		log:     log.With().Str("component", "queue").Logger(),
		jobs:    make(chan job, jobBuffer),
	}
}

// Hub returns the progress hub.
func (m *Manager) Hub() *Hub { return m.hub }

// Start launches the worker.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.worker(ctx)
	}()
	m.log.Info().Msg("Queue worker started")
}

// Stop cancels the running job and waits for the worker to exit.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.log.Info().Msg("Queue worker stopped")
}

// Enqueue registers a pending run and schedules it.
func (m *Manager) Enqueue(req folding.Request) (*runs.Run, error) {
	m.service.Normalize(&req)

	run := &runs.Run{
		ID:          uuid.NewString(),
		MainChain:   req.MainChain,
		SideChain:   req.SideChain,
		Encoding:    req.Encoding,
		Interaction: req.Interaction,
		Optimizer:   req.Optimizer,
		Backend:     req.Backend,
		Status:      runs.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.runs.Create(run); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		_ = m.runs.Fail(run.ID, ErrQueueFull)
		return nil, ErrQueueFull
	}

	select {
	case m.jobs <- job{runID: run.ID, req: req}:
		m.log.Info().Str("run_id", run.ID).Str("main_chain", req.MainChain).Msg("Run enqueued")
		return run, nil
	default:
		_ = m.runs.Fail(run.ID, ErrQueueFull)
		return nil, ErrQueueFull
	}
}

func (m *Manager) worker(ctx context.Context) {
	for j := range m.jobs {
		if ctx.Err() != nil {
			_ = m.runs.Fail(j.runID, ctx.Err())
			continue
		}
		m.execute(ctx, j)
	}
}

func (m *Manager) execute(ctx context.Context, j job) {
	log := m.log.With().Str("run_id", j.runID).Logger()

	if err := m.runs.MarkRunning(j.runID); err != nil {
		log.Error().Err(err).Msg("Failed to mark run running")
	}
	m.hub.Publish(Event{RunID: j.runID, Type: EventStarted})

	throttle := newProgressThrottle()
	best := 0.0
	haveBest := false

	onIteration := func(it vqe.Iteration) {
		if err := m.history.Append(j.runID, history.Point{Iteration: it.Index, Energy: it.Energy}); err != nil {
			log.Warn().Err(err).Msg("Failed to record iteration")
		}
		if !haveBest || it.Energy < best {
			best = it.Energy
			haveBest = true
		}
		if throttle.allow() {
			m.hub.Publish(Event{
				RunID:      j.runID,
				Type:       EventIteration,
				Iteration:  it.Index,
				Energy:     it.Energy,
				BestEnergy: best,
			})
		}
	}

	outcome, err := m.service.Fold(ctx, j.req, onIteration)
	if err != nil {
		log.Error().Err(err).Msg("Folding run failed")
		if dbErr := m.runs.Fail(j.runID, err); dbErr != nil {
			log.Error().Err(dbErr).Msg("Failed to record run failure")
		}
		m.hub.Publish(Event{RunID: j.runID, Type: EventFailed, Error: err.Error()})
		return
	}

	if err := m.runs.Complete(j.runID, outcome); err != nil {
		log.Error().Err(err).Msg("Failed to record run outcome")
	}
	m.hub.Publish(Event{RunID: j.runID, Type: EventCompleted, BestEnergy: outcome.BestEnergy})
}
