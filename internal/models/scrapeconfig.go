package models

import (
	"errors"
	"fmt"
	"time"
)

// Default scrape configuration values.
const (
	DefaultSearchKeyword  = "junior"
	DefaultMaxPages       = 5
	DefaultDelaySeconds   = 1.0
	DefaultPracujPlDomain = "it"
	DefaultSchedule       = "daily"
)

// Schedule values accepted in ScrapeConfig.Schedule.
var validSchedules = map[string]bool{
	"": true, "off": true, "hourly": true, "daily": true, "weekly": true,
}

// ScrapeConfig is the input to a scrape run. It is a value object: the only
// identity it has is "the config currently in effect".
type ScrapeConfig struct {
	SearchKeyword    string   `json:"search_keyword"`
	MaxPages         int      `json:"max_pages"`
	Delay            float64  `json:"delay"`
	PracujPlDomain   string   `json:"pracuj_pl_domain"`
	ExcludedKeywords []string `json:"excluded_keywords"`
	Schedule         string   `json:"schedule"`
	Sources          []string `json:"sources"`
}

// DefaultScrapeConfig returns the configuration used before the first PUT.
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		SearchKeyword:    DefaultSearchKeyword,
		MaxPages:         DefaultMaxPages,
		Delay:            DefaultDelaySeconds,
		PracujPlDomain:   DefaultPracujPlDomain,
		ExcludedKeywords: []string{},
		Schedule:         DefaultSchedule,
		Sources:          []string{"pracuj_pl"},
	}
}

// Validate checks the config for a scrape run start.
func (c *ScrapeConfig) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources selected")
	}
	if c.MaxPages <= 0 {
		return errors.New("max_pages must be positive")
	}
	if c.Delay < 0 {
		return errors.New("delay must be non-negative")
	}
	if !validSchedules[c.Schedule] {
		return fmt.Errorf("unknown schedule %q", c.Schedule)
	}
	return nil
}

// DelayDuration returns the inter-page politeness delay.
func (c *ScrapeConfig) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}
