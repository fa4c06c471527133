// Package scheduler triggers scrape runs on the cadence carried by the
// scrape configuration.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jobsift/jobsift/internal/logger"
)

// Schedule cadences accepted from the scrape configuration.
const (
	ScheduleOff    = "off"
	ScheduleHourly = "hourly"
	ScheduleDaily  = "daily"
	ScheduleWeekly = "weekly"
)

var cronSpecs = map[string]string{
	ScheduleHourly: "@hourly",
	ScheduleDaily:  "@daily",
	ScheduleWeekly: "@weekly",
}

// Scheduler wraps a cron runner with a single reschedulable entry. Apply
// swaps the cadence in place, so a config update takes effect without a
// restart.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger
	run    func()

	mu      sync.Mutex
	entryID cron.EntryID
	active  bool
}

// New creates a stopped scheduler that invokes run on each tick.
func New(run func(), log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log,
		run:    run,
	}
}

// Apply sets the cadence. "off" and "" clear any scheduled entry.
func (s *Scheduler) Apply(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.cron.Remove(s.entryID)
		s.active = false
	}

	if schedule == "" || schedule == ScheduleOff {
		s.logger.Info("scheduled scraping disabled")
		return nil
	}

	spec, ok := cronSpecs[schedule]
	if !ok {
		return fmt.Errorf("unknown schedule %q", schedule)
	}

	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", schedule, err)
	}
	s.entryID = id
	s.active = true
	s.logger.Info("scheduled scraping enabled", logger.String("schedule", schedule))
	return nil
}

// Start begins dispatching ticks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts dispatching and waits for a running tick to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}
