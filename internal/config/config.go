// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the full service configuration.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Search struct {
		// Workers bounds the parallel evaluation phase of each search.
		Workers int `env:"SEARCH_WORKERS" envDefault:"8"`
		// Particles is the default swarm size for API requests that
		// omit n_particles.
		Particles int `env:"SEARCH_PARTICLES" envDefault:"20"`
		// Iterations is the default generation budget.
		Iterations int `env:"SEARCH_ITERATIONS" envDefault:"50"`
		// Folds is the default cross-validation fold count.
		Folds int `env:"SEARCH_CV_FOLDS" envDefault:"5"`
		// Strategy is the default swarm update rule.
		Strategy string `env:"SEARCH_STRATEGY" envDefault:"vanilla"`
	}
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
