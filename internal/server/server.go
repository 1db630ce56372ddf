// Package server provides the HTTP server and routing for qfold.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/database"
	"github.com/qfold/qfold/internal/modules/benchmark"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
)

// Config holds everything the server needs.
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	RunsDB    *database.DB
	Runs      *runs.Repository
	History   *history.Repository
	Queue     *queue.Manager
	Benchmark *benchmark.Service
}

// Server represents the HTTP server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	runsDB    *database.DB
	runs      *runs.Repository
	history   *history.Repository
	queue     *queue.Manager
	benchmark *benchmark.Service
	startedAt time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		runsDB:    cfg.RunsDB,
		runs:      cfg.Runs,
		history:   cfg.History,
		queue:     cfg.Queue,
		benchmark: cfg.Benchmark,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
	}
	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// Per-route deadlines. The progress websocket carries no timeout at
// all: it stays open until the run's terminal event or the client
// disconnects. Benchmark sweeps fold many chains in one request, so
// they get a far larger budget than ordinary API calls.
const (
	requestTimeout   = 60 * time.Second
	benchmarkTimeout = 30 * time.Minute
)

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	timeout := middleware.Timeout(requestTimeout)

	s.router.With(timeout).Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.With(timeout).Post("/fold", s.handleFold)
		r.With(middleware.Timeout(benchmarkTimeout)).Post("/benchmark", s.handleBenchmark)

		r.Route("/runs", func(r chi.Router) {
			r.With(timeout).Get("/", s.handleListRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Get("/", s.handleGetRun)
					r.Get("/distribution", s.handleGetDistribution)
					r.Get("/iterations", s.handleGetIterations)
					r.Get("/artifacts/{name}", s.handleGetArtifact)
				})
				r.Get("/progress", s.handleProgress)
			})
		})

		r.Route("/system", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/status", s.handleSystemStatus)
			r.Get("/database/stats", s.handleDatabaseStats)
		})
	})
}

// Start begins listening for requests.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
