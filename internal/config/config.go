// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package config loads the membership service configuration from a YAML file
// with environment variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/pkg/constants"
	"github.com/commercekit/membership-service/pkg/errors"
)

// Duration wraps time.Duration with YAML string parsing ("30s", "12h").
type Duration time.Duration

// UnmarshalYAML parses a duration string from YAML.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// HTTPConfig holds the HTTP server settings
type HTTPConfig struct {
	Port string `yaml:"port"`
}

// NATSConfig holds the NATS connection settings
type NATSConfig struct {
	URL           string   `yaml:"url"`
	Timeout       Duration `yaml:"timeout"`
	MaxReconnect  int      `yaml:"max_reconnect"`
	ReconnectWait Duration `yaml:"reconnect_wait"`
}

// SweepConfig holds the expiry sweep settings. Jitter spreads concurrent
// replicas so their passes do not start at the same instant.
type SweepConfig struct {
	Interval Duration `yaml:"interval"`
	Jitter   Duration `yaml:"jitter"`
	Timeout  Duration `yaml:"timeout"`
}

// SavingsConfig holds the savings estimate responder settings
type SavingsConfig struct {
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// TracingConfig holds the OpenTelemetry tracing settings
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full service configuration
type Config struct {
	HTTP       HTTPConfig             `yaml:"http"`
	NATS       NATSConfig             `yaml:"nats"`
	Sweep      SweepConfig            `yaml:"sweep"`
	Savings    SavingsConfig          `yaml:"savings"`
	Tracing    TracingConfig          `yaml:"tracing"`
	Membership model.MembershipConfig `yaml:"membership"`
}

// defaults returns the built-in configuration. The membership section has no
// default: the service runs as a configured no-op until it is supplied.
func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port: "8080",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Timeout:       Duration(10 * time.Second),
			MaxReconnect:  3,
			ReconnectWait: Duration(2 * time.Second),
		},
		Sweep: SweepConfig{
			Interval: Duration(12 * time.Hour),
			Jitter:   Duration(5 * time.Minute),
			Timeout:  Duration(10 * time.Minute),
		},
		Savings: SavingsConfig{
			RateLimit: 50,
			Burst:     100,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment overrides, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv(constants.EnvConfigFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.NewValidation(fmt.Sprintf("failed to read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.NewValidation(fmt.Sprintf("failed to parse config file %s", path), err)
		}
	}

	if url := os.Getenv(constants.EnvNATSURL); url != "" {
		cfg.NATS.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.NewValidation("http port is required")
	}
	if c.NATS.URL == "" {
		return errors.NewValidation("nats url is required")
	}
	if c.Sweep.Interval.Std() <= 0 {
		return errors.NewValidation("sweep interval must be positive")
	}
	if c.Sweep.Timeout.Std() <= 0 {
		return errors.NewValidation("sweep timeout must be positive")
	}
	if c.Sweep.Jitter.Std() < 0 {
		return errors.NewValidation("sweep jitter cannot be negative")
	}
	if c.Savings.RateLimit <= 0 || c.Savings.Burst <= 0 {
		return errors.NewValidation("savings rate limit and burst must be positive")
	}
	if err := c.Membership.Validate(); err != nil {
		return err
	}
	return nil
}
