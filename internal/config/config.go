// Package config collects the service configuration from environment
// variables into one explicit struct handed to the components that need it.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries everything the intake endpoint, worker pool, and cleanup
// janitor need at construction time.
type Config struct {
	Port               string
	UploadDir          string
	WorkerCount        int
	WorkerPollInterval time.Duration
	// CleanupSchedule is a cron expression (with seconds); empty disables
	// the upload-file janitor.
	CleanupSchedule  string
	CleanupRetention time.Duration
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() Config {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		WorkerCount:        getIntEnv("IMPORT_WORKERS", 4),
		WorkerPollInterval: time.Duration(getIntEnv("IMPORT_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		CleanupSchedule:    getEnv("CLEANUP_SCHEDULE", "0 0 * * * *"),
		CleanupRetention:   time.Duration(getIntEnv("CLEANUP_RETENTION_MINUTES", 60)) * time.Minute,
	}

	log.Printf("Configuration:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  Upload directory: %s", cfg.UploadDir)
	log.Printf("  Import workers: %d", cfg.WorkerCount)
	log.Printf("  Worker poll interval: %s", cfg.WorkerPollInterval)
	log.Printf("  Cleanup schedule: %q (retention %s)", cfg.CleanupSchedule, cfg.CleanupRetention)

	return cfg
}

// getEnv reads an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getIntEnv reads an integer environment variable, falling back on unset or
// unparseable values.
func getIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}
