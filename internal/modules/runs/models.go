// Package runs persists folding runs and serves them over HTTP.
package runs

import (
	"time"
)

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one folding job and, once finished, its outcome.
type Run struct {
	ID          string `json:"id"`
	MainChain   string `json:"main_chain"`
	SideChain   string `json:"side_chain"`
	Encoding    string `json:"encoding"`
	Interaction string `json:"interaction"`
	Optimizer   string `json:"optimizer"`
	Backend     string `json:"backend"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`

	// Directory is the run's artifact directory, relative to the
	// results root.
	Directory string `json:"directory,omitempty"`

	NumQubits       int       `json:"num_qubits,omitempty"`
	OptimalValue    float64   `json:"optimal_value,omitempty"`
	BestBitstring   string    `json:"best_bitstring,omitempty"`
	BestEnergy      float64   `json:"best_energy,omitempty"`
	BestProbability float64   `json:"best_probability,omitempty"`
	Turns           []int     `json:"turns,omitempty"`
	Contacts        [][2]int  `json:"contacts,omitempty"`
	ElapsedSeconds  float64   `json:"elapsed_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at,omitempty"`
}

// Outcome carries the results recorded when a run completes.
type Outcome struct {
	Directory       string
	NumQubits       int
	OptimalValue    float64
	BestBitstring   string
	BestEnergy      float64
	BestProbability float64
	Turns           []int
	Contacts        [][2]int
	ElapsedSeconds  float64
	// Distribution maps bitstrings to probabilities at the optimal
	// parameters; stored msgpack-encoded.
	Distribution map[string]float64
}
