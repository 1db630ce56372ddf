// Package main is a one-shot folding CLI: it folds a single sequence
// and prints where the artifacts were written.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/modules/folding"
	"github.com/qfold/qfold/internal/modules/vqe"
	"github.com/qfold/qfold/pkg/logger"
)

func main() {
	mainChain := flag.String("main-chain", "", "Main chain residue sequence (required)")
	sideChain := flag.String("side-chain", "", "Side chain sequence ('_' for absent beads)")
	encoding := flag.String("encoding", "", "Turn encoding: dense or sparse")
	interaction := flag.String("interaction", "", "Interaction model: mj or hp")
	optimizer := flag.String("optimizer", "", "Classical optimizer: nelder-mead, spsa or cmaes")
	maxIterations := flag.Int("max-iterations", 0, "Optimizer iteration budget")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	verbose := flag.Bool("verbose", false, "Print every objective evaluation")
	flag.Parse()

	if *mainChain == "" {
		fmt.Fprintln(os.Stderr, "usage: fold -main-chain SEQUENCE [options]")
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

	var onIteration func(vqe.Iteration)
	if *verbose {
		onIteration = func(it vqe.Iteration) {
			fmt.Printf("iteration %d: energy %.6f\n", it.Index, it.Energy)
		}
	}

	service := folding.NewService(cfg, log)
	outcome, err := service.Fold(ctx, folding.Request{
		MainChain:     *mainChain,
		SideChain:     *sideChain,
		Encoding:      *encoding,
		Interaction:   *interaction,
		Optimizer:     *optimizer,
		MaxIterations: *maxIterations,
		Seed:          *seed,
	}, onIteration)
	if err != nil {
		log.Fatal().Err(err).Msg("Folding failed")
	}

	fmt.Printf("best bitstring:   %s\n", outcome.BestBitstring)
	fmt.Printf("best energy:      %.6f\n", outcome.BestEnergy)
	fmt.Printf("best probability: %.6f\n", outcome.BestProbability)
	fmt.Printf("turns:            %v\n", outcome.Turns)
	if len(outcome.Contacts) > 0 {
		fmt.Printf("contacts:         %v\n", outcome.Contacts)
	}
	fmt.Printf("artifacts:        %s\n", outcome.Directory)
}
