package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jobsift/jobsift/internal/models"
)

const scrapeConfigFileMode = 0o644

// ScrapeConfigStore holds the mutable scrape configuration and persists it
// as a JSON file so it survives restarts. Reads and writes are safe for
// concurrent use by handlers and the scheduler.
type ScrapeConfigStore struct {
	mu      sync.RWMutex
	path    string
	current models.ScrapeConfig
}

// NewScrapeConfigStore loads the config from path. When the file does not
// exist the defaults are written out, so the file always reflects the
// effective config; a file that exists but cannot be parsed is an error.
func NewScrapeConfigStore(path string) (*ScrapeConfigStore, error) {
	s := &ScrapeConfigStore{
		path:    path,
		current: models.DefaultScrapeConfig(),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg := models.DefaultScrapeConfig()
		if unmarshalErr := json.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse scrape config %s: %w", path, unmarshalErr)
		}
		s.current = cfg
	case os.IsNotExist(err):
		if writeErr := s.persist(); writeErr != nil {
			return nil, writeErr
		}
	default:
		return nil, fmt.Errorf("read scrape config %s: %w", path, err)
	}

	return s, nil
}

// Get returns a copy of the current config.
func (s *ScrapeConfigStore) Get() models.ScrapeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the current config and persists it.
func (s *ScrapeConfigStore) Set(cfg models.ScrapeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cfg
	return s.persist()
}

// persist writes the current config; callers must hold the lock (or be the
// constructor, which has exclusive access).
func (s *ScrapeConfigStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create scrape config dir: %w", err)
	}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scrape config: %w", err)
	}
	if err := os.WriteFile(s.path, data, scrapeConfigFileMode); err != nil {
		return fmt.Errorf("write scrape config %s: %w", s.path, err)
	}
	return nil
}
