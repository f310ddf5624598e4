// Package config loads runtime configuration from the environment. A
// local .env file is honored when present so development machines do
// not need exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every knob the binaries read at startup.
type Config struct {
	// GCPProjectID and BQDataset locate the ledger store.
	GCPProjectID string
	BQDataset    string

	// GeminiModel overrides the default extraction/repair model.
	GeminiModel string

	// StatementYear is assumed for rows whose dates omit a year.
	StatementYear int

	// SimilarityThreshold and AmbiguityMargin tune historical-reference
	// matching. Zero values fall back to the matcher defaults.
	SimilarityThreshold float64
	AmbiguityMargin     float64

	// WorkerCount and QueueSize size the in-memory job queue.
	WorkerCount int
	QueueSize   int

	LogLevel string
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; exported variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		GCPProjectID:        os.Getenv("GCP_PROJECT_ID"),
		BQDataset:           getEnv("BQ_DATASET", "bankrecon"),
		GeminiModel:         os.Getenv("GEMINI_MODEL"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StatementYear:       getEnvInt("STATEMENT_YEAR", 0),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0),
		AmbiguityMargin:     getEnvFloat("AMBIGUITY_MARGIN", 0),
		WorkerCount:         getEnvInt("WORKER_COUNT", 5),
		QueueSize:           getEnvInt("QUEUE_SIZE", 100),
	}

	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("config.Load: GCP_PROJECT_ID is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
