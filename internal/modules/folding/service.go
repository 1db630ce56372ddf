// Package folding orchestrates a complete folding run: problem
// construction, the variational search, decoding and artifact output.
package folding

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/backend"
	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/modules/hamiltonian"
	"github.com/qfold/qfold/internal/modules/interaction"
	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/modules/result"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/modules/visualization"
	"github.com/qfold/qfold/internal/modules/vqe"
)

// Request describes one folding job. Empty option fields fall back to
// the service configuration.
type Request struct {
	MainChain     string `json:"main_chain"`
	SideChain     string `json:"side_chain,omitempty"`
	Encoding      string `json:"encoding,omitempty"`
	Interaction   string `json:"interaction,omitempty"`
	Optimizer     string `json:"optimizer,omitempty"`
	Backend       string `json:"backend,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
}

// Service folds proteins and writes run artifacts.
type Service struct {
	cfg      *config.Config
	renderer *visualization.Renderer
	log      zerolog.Logger
}

// NewService returns a folding service.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		renderer: visualization.NewRenderer(log),
		log:      log.With().Str("component", "folding").Logger(),
	}
}

// Normalize fills a request's defaults in from the configuration.
func (s *Service) Normalize(req *Request) {
	if req.SideChain == "" {
		req.SideChain = strings.Repeat(string(protein.PlaceholderSymbol), len(req.MainChain))
	}
	if req.Encoding == "" {
		req.Encoding = s.cfg.Encoding
	}
	if req.Interaction == "" {
		req.Interaction = s.cfg.Interaction
	}
	if req.Optimizer == "" {
		req.Optimizer = s.cfg.Optimizer
	}
	if req.Backend == "" {
		req.Backend = s.cfg.Backend
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = s.cfg.MaxIterations
	}
}

// Fold runs the full pipeline for a request. Every objective evaluation
// is passed to onIteration as it happens; the returned outcome points at
// the run directory holding the written artifacts.
func (s *Service) Fold(ctx context.Context, req Request, onIteration func(vqe.Iteration)) (*runs.Outcome, error) {
	s.Normalize(&req)
	startedAt := time.Now()

	encoding, err := protein.ParseEncoding(req.Encoding)
	if err != nil {
		return nil, err
	}

	inter, err := interaction.New(req.Interaction)
	if err != nil {
		return nil, err
	}

	p, err := protein.New(req.MainChain, req.SideChain, inter.ValidSymbols(), encoding, s.log)
	if err != nil {
		return nil, err
	}

	h, err := hamiltonian.NewBuilder(p, inter, s.log).Build()
	if err != nil {
		return nil, err
	}

	samplerCfg := *s.cfg
	samplerCfg.Backend = req.Backend
	sampler, err := backend.New(&samplerCfg, h.Op.NumQubits(), s.log)
	if err != nil {
		return nil, err
	}

	solver, err := vqe.NewSolver(h.Op, sampler, vqe.Options{
		Optimizer:     req.Optimizer,
		MaxIterations: req.MaxIterations,
		Seed:          req.Seed,
		Callback:      onIteration,
	}, s.log)
	if err != nil {
		return nil, err
	}

	vqeResult, err := solver.Run(ctx)
	if err != nil {
		return nil, err
	}

	conformation, err := result.NewDecoder(p, h).Decode(vqeResult.BestState, vqeResult.BestBitstring)
	if err != nil {
		return nil, err
	}

	writer, err := result.NewWriter(s.cfg.ResultsDir(), p, startedAt, s.log)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(startedAt).Seconds()
	if err := s.writeArtifacts(writer, p, conformation, vqeResult, &req, elapsed, startedAt); err != nil {
		return nil, err
	}

	dist := make(map[string]float64, len(vqeResult.Distribution))
	for state, prob := range vqeResult.Distribution {
		dist[vqe.Bitstring(state, vqeResult.NumQubits)] = prob
	}

	s.log.Info().
		Str("main_chain", req.MainChain).
		Str("directory", writer.Dir()).
		Float64("best_energy", vqeResult.BestEnergy).
		Float64("elapsed_seconds", elapsed).
		Msg("Folding run finished")

	return &runs.Outcome{
		Directory:       filepath.Base(writer.Dir()),
		NumQubits:       vqeResult.NumQubits,
		OptimalValue:    vqeResult.OptimalValue,
		BestBitstring:   vqeResult.BestBitstring,
		BestEnergy:      vqeResult.BestEnergy,
		BestProbability: vqeResult.BestProbability,
		Turns:           conformation.Turns,
		Contacts:        conformation.Contacts,
		ElapsedSeconds:  elapsed,
		Distribution:    dist,
	}, nil
}

func (s *Service) writeArtifacts(writer *result.Writer, p *protein.Protein, conformation *result.Conformation, vqeResult *vqe.Result, req *Request, elapsed float64, startedAt time.Time) error {
	if err := writer.WriteConformationXYZ(p, conformation); err != nil {
		return err
	}
	if err := writer.WriteIterations(vqeResult.Iterations); err != nil {
		return err
	}
	if err := writer.WriteSparseResults(vqeResult.Distribution, vqeResult.NumQubits); err != nil {
		return err
	}
	if err := writer.WriteRawResults(&result.RawResults{
		MainChain:      req.MainChain,
		SideChain:      req.SideChain,
		Encoding:       req.Encoding,
		Interaction:    req.Interaction,
		Optimizer:      req.Optimizer,
		Backend:        req.Backend,
		VQE:            vqeResult,
		Turns:          conformation.Turns,
		Contacts:       conformation.Contacts,
		ElapsedSeconds: elapsed,
		StartedAt:      startedAt.UTC(),
	}); err != nil {
		return err
	}
	return s.renderer.WriteAll(writer.Dir(), p, conformation)
}
