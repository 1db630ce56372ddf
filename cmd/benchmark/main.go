// Package main compares the classical optimizers on one folding
// problem and writes the report to the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/modules/benchmark"
	"github.com/qfold/qfold/pkg/logger"
)

func main() {
	mainChain := flag.String("main-chain", "", "Main chain residue sequence (required)")
	encoding := flag.String("encoding", "", "Turn encoding: dense or sparse")
	interaction := flag.String("interaction", "", "Interaction model: mj or hp")
	optimizers := flag.String("optimizers", "", "Comma-separated optimizer list (default: all)")
	maxIterations := flag.Int("max-iterations", 0, "Optimizer iteration budget")
	seed := flag.Int64("seed", 0, "Random seed shared by all optimizers (0 = time-based)")
	flag.Parse()

	if *mainChain == "" {
		fmt.Fprintln(os.Stderr, "usage: benchmark -main-chain SEQUENCE [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := benchmark.Request{
		MainChain:     *mainChain,
		Encoding:      *encoding,
		Interaction:   *interaction,
		MaxIterations: *maxIterations,
		Seed:          *seed,
	}
	if *optimizers != "" {
		for _, name := range strings.Split(*optimizers, ",") {
			req.Optimizers = append(req.Optimizers, strings.TrimSpace(name))
		}
	}

	service := benchmark.NewService(cfg, log)
	report, err := service.Run(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Benchmark failed")
	}

	jsonPath, csvPath, err := service.Write(report)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write benchmark report")
	}

	fmt.Printf("%-12s  %14s  %14s  %12s  %10s\n", "optimizer", "best_energy", "optimal_value", "evaluations", "elapsed_s")
	for _, entry := range report.Entries {
		if entry.Error != "" {
			fmt.Printf("%-12s  failed: %s\n", entry.Optimizer, entry.Error)
			continue
		}
		fmt.Printf("%-12s  %14.6f  %14.6f  %12d  %10.2f\n",
			entry.Optimizer, entry.BestEnergy, entry.OptimalValue, entry.Evaluations, entry.ElapsedSeconds)
	}
	fmt.Printf("\nreports: %s, %s\n", jsonPath, csvPath)
}
