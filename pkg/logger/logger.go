// Package logger builds the zerolog loggers used across qfold. Every
// component derives its own child logger from the one returned here.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level  string    // debug, info, warn, error; defaults to info
	Pretty bool      // human-readable console output for development
	Writer io.Writer // destination, os.Stderr when nil
}

// New creates a structured logger. The level gate lives on the logger
// itself, not the zerolog global, so callers can hold loggers at
// different levels.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger routes the zerolog package-level logger through l so
// code using log.Logger shares the service's sink.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
