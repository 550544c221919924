// Package store loads plan files and keeps gaplan's per-user data: the
// config file and the schedule history database.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store manages the filesystem-backed user data.
type Store struct {
	Root string // e.g., ~/.local/share/gaplan
}

// NewStore creates a Store rooted at the given directory.
// It creates the directory if it doesn't exist.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{Root: root}, nil
}

// ConfigPath returns the path to config.yaml.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.Root, "config.yaml")
}

// HistoryPath returns the default path of the run history database.
func (s *Store) HistoryPath() string {
	return filepath.Join(s.Root, "history.db")
}

// LoadConfig reads config.yaml, falling back to defaults.
func (s *Store) LoadConfig() (*Config, error) {
	return LoadConfig(s.ConfigPath())
}

// SaveConfig writes config.yaml to disk.
func (s *Store) SaveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	return os.WriteFile(s.ConfigPath(), data, 0644)
}
