// Package config loads runtime configuration from environment variables.
// A local .env file is applied first when present. Only values the service
// cannot run without are validated fail-fast; optional backends (Redis,
// Postgres) are left empty and the callers degrade gracefully.
package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the agent service.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ProfilePath is the JSON file holding the candidate profile. It is
	// read at startup and rewritten whenever the profile is replaced.
	ProfilePath string `env:"PROFILE_PATH" envDefault:"profile.json"`

	// RedisURL enables checkpoint persistence and live event publishing.
	RedisURL string `env:"REDIS_URL"`
	// DatabaseURL enables the job-set snapshot archive.
	DatabaseURL string `env:"DATABASE_URL"`

	// PollInterval is the fixed scheduler cadence; CycleEvery is the
	// elapsed-time threshold that actually triggers an autonomous cycle.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
	CycleEvery   time.Duration `env:"CYCLE_EVERY" envDefault:"24h"`

	// DigestJobs caps how many of the newest postings the daily digest
	// summarizes.
	DigestJobs int `env:"DIGEST_JOBS" envDefault:"5"`
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", cfg.PollInterval)
	}
	if cfg.CycleEvery < cfg.PollInterval {
		return nil, fmt.Errorf("CYCLE_EVERY (%s) must not be shorter than POLL_INTERVAL (%s)",
			cfg.CycleEvery, cfg.PollInterval)
	}
	if cfg.DigestJobs < 1 {
		return nil, fmt.Errorf("DIGEST_JOBS must be a positive integer, got %d", cfg.DigestJobs)
	}

	return cfg, nil
}
