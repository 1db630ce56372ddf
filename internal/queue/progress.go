package queue

import (
	"sync"
	"time"
)

// Event types published on the progress hub.
const (
	EventStarted   = "started"
	EventIteration = "iteration"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event is one progress update of a folding run.
type Event struct {
	RunID      string    `json:"run_id"`
	Type       string    `json:"type"`
	Iteration  int       `json:"iteration,omitempty"`
	Energy     float64   `json:"energy,omitempty"`
	BestEnergy float64   `json:"best_energy,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Hub fans progress events out to subscribers. Slow subscribers drop
// events rather than blocking the worker.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned cancel function must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// progressThrottle limits how often iteration events reach the hub.
// Terminal events always pass.
type progressThrottle struct {
	minInterval time.Duration
	last        time.Time
}

func newProgressThrottle() *progressThrottle {
	return &progressThrottle{minInterval: 100 * time.Millisecond}
}

func (t *progressThrottle) allow() bool {
	now := time.Now()
	if now.Sub(t.last) < t.minInterval {
		return false
	}
	t.last = now
	return true
}
