// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
// The policy strings are validated and resolved into their typed forms by
// Load.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Commune reference dataset: a GeoJSON file path or HTTP(S) URL.
	DatasetSource         string        `env:"DATASET_SOURCE"`
	DatasetTimeout        time.Duration `env:"DATASET_TIMEOUT" envDefault:"30s"`
	DatasetDropIncomplete bool          `env:"DATASET_DROP_INCOMPLETE" envDefault:"true"`

	// Numeric policies applied to every computation.
	StdDevModeRaw         string `env:"STDDEV_MODE" envDefault:"population"`
	DegeneratePolicyRaw   string `env:"DEGENERATE_POLICY" envDefault:"fail"`
	MissingValuePolicyRaw string `env:"MISSING_VALUE_POLICY" envDefault:"fail"`
	ContributionPolicyRaw string `env:"CONTRIBUTION_POLICY" envDefault:"absolute_share"`
	CacheSize             int    `env:"CACHE_SIZE" envDefault:"128"`

	// Optional snapshot publishing.
	KafkaEnabled   bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC" envDefault:"commune-vi-snapshots"`

	// Typed forms of the policy strings, set by Load.
	StdDevMode         domain.StdDevMode         `env:"-"`
	DegeneratePolicy   domain.DegeneratePolicy   `env:"-"`
	MissingValuePolicy domain.MissingValuePolicy `env:"-"`
	ContributionPolicy domain.ContributionPolicy `env:"-"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatasetSource == "" {
		return nil, errors.New("DATASET_SOURCE is required")
	}
	if cfg.DatasetTimeout <= 0 {
		return nil, errors.New("DATASET_TIMEOUT must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.CacheSize <= 0 {
		return nil, errors.New("CACHE_SIZE must be positive")
	}

	var err error
	if cfg.StdDevMode, err = domain.ParseStdDevMode(cfg.StdDevModeRaw); err != nil {
		return nil, fmt.Errorf("STDDEV_MODE: %w", err)
	}
	if cfg.DegeneratePolicy, err = domain.ParseDegeneratePolicy(cfg.DegeneratePolicyRaw); err != nil {
		return nil, fmt.Errorf("DEGENERATE_POLICY: %w", err)
	}
	if cfg.MissingValuePolicy, err = domain.ParseMissingValuePolicy(cfg.MissingValuePolicyRaw); err != nil {
		return nil, fmt.Errorf("MISSING_VALUE_POLICY: %w", err)
	}
	if cfg.ContributionPolicy, err = domain.ParseContributionPolicy(cfg.ContributionPolicyRaw); err != nil {
		return nil, fmt.Errorf("CONTRIBUTION_POLICY: %w", err)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
		}
	}

	return cfg, nil
}
