// Package benchmark compares the classical optimizers on a single
// folding problem and reports their outcomes.
package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/backend"
	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/modules/hamiltonian"
	"github.com/qfold/qfold/internal/modules/interaction"
	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/modules/vqe"
)

// Request selects the problem and the optimizers to compare. An empty
// optimizer list benchmarks every registered optimizer.
type Request struct {
	MainChain     string   `json:"main_chain"`
	Encoding      string   `json:"encoding,omitempty"`
	Interaction   string   `json:"interaction,omitempty"`
	Optimizers    []string `json:"optimizers,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`
	Seed          int64    `json:"seed,omitempty"`
}

// Entry is one optimizer's outcome.
type Entry struct {
	Optimizer      string  `json:"optimizer"`
	BestEnergy     float64 `json:"best_energy"`
	OptimalValue   float64 `json:"optimal_value"`
	BestBitstring  string  `json:"best_bitstring"`
	Evaluations    int     `json:"evaluations"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
}

// Report is a complete benchmark outcome.
type Report struct {
	MainChain   string    `json:"main_chain"`
	Encoding    string    `json:"encoding"`
	Interaction string    `json:"interaction"`
	NumQubits   int       `json:"num_qubits"`
	Entries     []Entry   `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service runs benchmarks and writes their reports.
type Service struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewService returns a benchmark service.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, log: log.With().Str("component", "benchmark").Logger()}
}

// Run builds the problem once, then solves it with each optimizer using
// the same seed so comparisons start from identical initial points.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Encoding == "" {
		req.Encoding = s.cfg.Encoding
	}
	if req.Interaction == "" {
		req.Interaction = s.cfg.Interaction
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = s.cfg.MaxIterations
	}
	if len(req.Optimizers) == 0 {
		req.Optimizers = vqe.OptimizerNames()
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	encoding, err := protein.ParseEncoding(req.Encoding)
	if err != nil {
		return nil, err
	}
	inter, err := interaction.New(req.Interaction)
	if err != nil {
		return nil, err
	}

	side := strings.Repeat(string(protein.PlaceholderSymbol), len(req.MainChain))
	p, err := protein.New(req.MainChain, side, inter.ValidSymbols(), encoding, s.log)
	if err != nil {
		return nil, err
	}
	h, err := hamiltonian.NewBuilder(p, inter, s.log).Build()
	if err != nil {
		return nil, err
	}

	report := &Report{
		MainChain:   req.MainChain,
		Encoding:    req.Encoding,
		Interaction: req.Interaction,
		NumQubits:   h.Op.NumQubits(),
		CreatedAt:   time.Now().UTC(),
	}

	for _, name := range req.Optimizers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, s.runOne(ctx, name, h, seed, req.MaxIterations))
	}
	return report, nil
}

func (s *Service) runOne(ctx context.Context, optimizer string, h *hamiltonian.Hamiltonian, seed int64, maxIterations int) Entry {
	entry := Entry{Optimizer: optimizer}
	started := time.Now()

	sampler, err := backend.New(s.cfg, h.Op.NumQubits(), s.log)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	solver, err := vqe.NewSolver(h.Op, sampler, vqe.Options{
		Optimizer:     optimizer,
		MaxIterations: maxIterations,
		Seed:          seed,
	}, s.log)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	result, err := solver.Run(ctx)
	entry.ElapsedSeconds = time.Since(started).Seconds()
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	entry.BestEnergy = result.BestEnergy
	entry.OptimalValue = result.OptimalValue
	entry.BestBitstring = result.BestBitstring
	entry.Evaluations = len(result.Iterations)

	s.log.Info().
		Str("optimizer", optimizer).
		Float64("best_energy", entry.BestEnergy).
		Int("evaluations", entry.Evaluations).
		Msg("Benchmark entry finished")
	return entry
}

// Write persists the report as JSON and CSV under the data directory
// and returns the two file paths.
func (s *Service) Write(report *Report) (jsonPath, csvPath string, err error) {
	dir := filepath.Join(s.cfg.DataDir, "benchmarks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("benchmark: creating output directory: %w", err)
	}

	stem := fmt.Sprintf("benchmark_%s_%s", report.CreatedAt.Format("2006_01_02-15_04_05"), report.MainChain)
	jsonPath = filepath.Join(dir, stem+".json")
	csvPath = filepath.Join(dir, stem+".csv")

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("benchmark: encoding report: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(payload, '\n'), 0644); err != nil {
		return "", "", fmt.Errorf("benchmark: writing JSON report: %w", err)
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("benchmark: creating CSV report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"optimizer", "best_energy", "optimal_value", "evaluations", "elapsed_seconds", "error"}); err != nil {
		return "", "", err
	}
	for _, e := range report.Entries {
		record := []string{
			e.Optimizer,
			strconv.FormatFloat(e.BestEnergy, 'f', -1, 64),
			strconv.FormatFloat(e.OptimalValue, 'f', -1, 64),
			strconv.Itoa(e.Evaluations),
			strconv.FormatFloat(e.ElapsedSeconds, 'f', -1, 64),
			e.Error,
		}
		if err := w.Write(record); err != nil {
			return "", "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("benchmark: writing CSV report: %w", err)
	}
	return jsonPath, csvPath, nil
}
