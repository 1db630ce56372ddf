// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for databases and run outputs (always absolute)
	Port          int
	LogLevel      string
	DevMode       bool
	Encoding      string // Turn encoding: "dense" (2 qubits/turn) or "sparse" (4 qubits/turn)
	Interaction   string // Interaction model: "mj" or "hp"
	Optimizer     string // Default classical optimizer for VQE
	MaxIterations int    // Optimizer iteration budget
	Shots         int    // Measurement shots (0 = exact probabilities)
	MaxQubits     int    // Refuse to simulate compressed Hamiltonians above this size
	Backend       string // Sampler backend: "local" or "remote"
	SamplerURL    string // Remote sampler service URL
	SamplerToken  string // Remote sampler access token
	RetentionDays int    // Run directories older than this are pruned
	Backup        *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration
type BackupConfig struct {
	Enabled         bool
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // cron expression (with seconds field)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check QFOLD_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("QFOLD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("QFOLD_PORT", 8001),
		LogLevel:      getEnv("QFOLD_LOG_LEVEL", "info"),
		DevMode:       getEnvAsBool("QFOLD_DEV_MODE", false),
		Encoding:      getEnv("QFOLD_ENCODING", "dense"),
		Interaction:   getEnv("QFOLD_INTERACTION", "mj"),
		Optimizer:     getEnv("QFOLD_OPTIMIZER", "nelder-mead"),
		MaxIterations: getEnvAsInt("QFOLD_MAX_ITERATIONS", 50),
		Shots:         getEnvAsInt("QFOLD_SHOTS", 0),
		MaxQubits:     getEnvAsInt("QFOLD_MAX_QUBITS", 26),
		Backend:       getEnv("QFOLD_BACKEND", "local"),
		SamplerURL:    getEnv("QFOLD_SAMPLER_URL", ""),
		SamplerToken:  getEnv("QFOLD_SAMPLER_TOKEN", ""),
		RetentionDays: getEnvAsInt("QFOLD_RETENTION_DAYS", 30),
		Backup:        loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and consistent
func (c *Config) Validate() error {
	switch c.Encoding {
	case "dense", "sparse":
	default:
		return fmt.Errorf("invalid encoding %q (must be dense or sparse)", c.Encoding)
	}

	switch c.Interaction {
	case "mj", "hp":
	default:
		return fmt.Errorf("invalid interaction model %q (must be mj or hp)", c.Interaction)
	}

	switch c.Backend {
	case "local":
	case "remote":
		if c.SamplerURL == "" {
			return fmt.Errorf("remote backend requires QFOLD_SAMPLER_URL")
		}
		if c.SamplerToken == "" {
			return fmt.Errorf("remote backend requires QFOLD_SAMPLER_TOKEN")
		}
	default:
		return fmt.Errorf("invalid backend %q (must be local or remote)", c.Backend)
	}

	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("backup enabled but QFOLD_BACKUP_BUCKET not set")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup enabled but access credentials not set")
		}
	}

	return nil
}

// RunsDBPath returns the path of the runs database file
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// HistoryDBPath returns the path of the iteration history database file
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// ResultsDir returns the directory holding per-run output directories
func (c *Config) ResultsDir() string {
	return filepath.Join(c.DataDir, "results")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("QFOLD_BACKUP_ENABLED", false),
		Endpoint:        getEnv("QFOLD_BACKUP_ENDPOINT", ""),
		Bucket:          getEnv("QFOLD_BACKUP_BUCKET", ""),
		AccessKeyID:     getEnv("QFOLD_BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("QFOLD_BACKUP_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("QFOLD_BACKUP_SCHEDULE", "0 0 3 * * *"),
	}
}
