// Package main is the entry point for the qfold folding service. It
// wires the stores, the folding queue, the maintenance scheduler and
// the HTTP API together, then waits for a shutdown signal.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/database"
	"github.com/qfold/qfold/internal/modules/benchmark"
	"github.com/qfold/qfold/internal/modules/folding"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
	"github.com/qfold/qfold/internal/reliability"
	"github.com/qfold/qfold/internal/scheduler"
	"github.com/qfold/qfold/internal/server"
	"github.com/qfold/qfold/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info"})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("encoding", cfg.Encoding).
		Str("interaction", cfg.Interaction).
		Str("backend", cfg.Backend).
		Msg("Starting qfold")

	// Stores.
	runsDB, err := database.New(database.Config{
		Path:    cfg.RunsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	runRepo, err := runs.NewRepository(runsDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize runs repository")
	}

	historyRepo, err := history.NewRepository(cfg.HistoryDBPath(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyRepo.Close()

	// Folding pipeline.
	foldingService := folding.NewService(cfg, log)
	hub := queue.NewHub()
	manager := queue.NewManager(foldingService, runRepo, historyRepo, hub, log)
	manager.Start()
	defer manager.Stop()

	// Maintenance jobs.
	sched := scheduler.New(log)
	databases := map[string]*database.DB{"runs": runsDB}

	retention := scheduler.NewRetentionJob(runRepo, historyRepo, cfg.ResultsDir(), cfg.RetentionDays, log)
	if err := sched.AddJob("0 30 2 * * *", retention); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retention job")
	}
	if err := sched.AddJob("0 0 * * * *", scheduler.NewCheckpointJob(runsDB, historyRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register checkpoint job")
	}
	if err := sched.AddJob("0 0 2 * * *", reliability.NewDailyMaintenanceJob(databases, cfg.DataDir, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	if err := sched.AddJob("0 0 4 * * 0", reliability.NewWeeklyVacuumJob(databases, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register vacuum job")
	}

	if cfg.Backup.Enabled {
		store, err := reliability.NewObjectStore(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup object store")
		}
		backupService := reliability.NewBackupService(store, cfg.DataDir, map[string]reliability.SnapshotFunc{
			"runs":    runsDB.VacuumInto,
			"history": historyRepo.Backup,
		}, log)
		backupJob := reliability.NewBackupJob(backupService, cfg.RetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// HTTP API.
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		RunsDB:    runsDB,
		Runs:      runRepo,
		History:   historyRepo,
		Queue:     manager,
		Benchmark: benchmark.NewService(cfg, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
