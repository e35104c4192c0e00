// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Queue backends.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config holds the settings of a running server.
type Config struct {
	DBPath            string `env:"QA_DB_PATH"`
	Port              int    `env:"QA_PORT" envDefault:"8080"`
	DevMode           bool   `env:"QA_DEV_MODE"`
	RequireAuthorship bool   `env:"QA_REQUIRE_AUTHORSHIP"`
	QueueBackend      string `env:"QA_QUEUE_BACKEND" envDefault:"memory"`
	QueueSize         int    `env:"QA_QUEUE_SIZE" envDefault:"64"`
	RedisURL          string `env:"QA_REDIS_URL"`
	RedisQueueKey     string `env:"QA_REDIS_QUEUE_KEY" envDefault:"qa:reputation:jobs"`
	Workers           int    `env:"QA_WORKERS" envDefault:"1"`
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment, then parses Config. Missing dotenv files are ignored;
// variables already set in the environment win.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	switch c.QueueBackend {
	case QueueMemory:
		if c.QueueSize < 1 {
			return fmt.Errorf("QA_QUEUE_SIZE must be positive, got %d", c.QueueSize)
		}
	case QueueRedis:
		if c.RedisURL == "" {
			return errors.New("QA_REDIS_URL is required for the redis queue backend")
		}
	default:
		return fmt.Errorf("unknown QA_QUEUE_BACKEND %q (want %s or %s)", c.QueueBackend, QueueMemory, QueueRedis)
	}
	if c.Workers < 1 {
		return fmt.Errorf("QA_WORKERS must be positive, got %d", c.Workers)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("QA_PORT out of range: %d", c.Port)
	}
	return nil
}
