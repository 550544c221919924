package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yugr/gaplan/pkg/eta"
)

// Config holds user defaults. Command-line flags take precedence.
type Config struct {
	Bias      eta.Bias `yaml:"bias"`
	RiskAware *bool    `yaml:"risk_aware,omitempty"`
	// Warnings above zero enable the advisory plan checks.
	Warnings  int    `yaml:"warnings"`
	Start     string `yaml:"start,omitempty"`
	HistoryDB string `yaml:"history_db,omitempty"`
	// Plan is the plan file used when none is given on the command line.
	Plan string `yaml:"plan,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{Bias: eta.None}
}

// LoadConfig reads the YAML config at path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Start != "" {
		if _, err := ParseDate(cfg.Start); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Estimator builds the effort estimator the config asks for.
func (c *Config) Estimator() eta.Estimator {
	est := eta.NewEstimator(c.Bias)
	if c.RiskAware != nil {
		est.RiskAware = *c.RiskAware
	}
	return est
}

// StartDate returns the configured start date, if any.
func (c *Config) StartDate() (time.Time, bool) {
	if c.Start == "" {
		return time.Time{}, false
	}
	t, err := ParseDate(c.Start)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
