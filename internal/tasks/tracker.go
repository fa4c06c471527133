// Package tasks tracks asynchronous scrape runs behind opaque task ids.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/scraper"
)

// ErrTaskNotFound is returned for unknown or already-evicted task ids.
var ErrTaskNotFound = errors.New("task not found")

// Status is the lifecycle state of a tracked run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultRetention is how long terminal tasks stay pollable.
const DefaultRetention = time.Hour

// Snapshot is an immutable view of a task returned to pollers.
type Snapshot struct {
	ID          string            `json:"id"`
	Status      Status            `json:"status"`
	Results     map[string]int    `json:"results,omitempty"`
	Diagnostics map[string]string `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// RunFunc performs the actual scrape run for a launched task.
type RunFunc func(ctx context.Context) (*scraper.RunReport, error)

type task struct {
	snapshot Snapshot
}

// Tracker owns the task table. Terminal tasks are kept for the retention
// window and evicted lazily on access; the tracker never spawns a janitor.
type Tracker struct {
	mu        sync.Mutex
	tasks     map[string]*task
	retention time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewTracker(retention time.Duration, log logger.Logger) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{
		tasks:     make(map[string]*task),
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Launch registers a new running task and executes run on its own goroutine.
// The given context should be the application's lifetime context, not a
// request context: the run outlives the request that started it.
func (t *Tracker) Launch(ctx context.Context, run RunFunc) string {
	id := uuid.NewString()

	t.mu.Lock()
	t.evictExpiredLocked()
	t.tasks[id] = &task{snapshot: Snapshot{
		ID:        id,
		Status:    StatusRunning,
		StartedAt: t.now().UTC(),
	}}
	t.mu.Unlock()

	t.logger.Info("scrape task started", logger.String("task_id", id))

	go func() {
		report, err := run(ctx)
		t.finish(id, report, err)
	}()

	return id
}

// Get returns a snapshot of the task, or ErrTaskNotFound when the id is
// unknown or the task aged out of the retention window.
func (t *Tracker) Get(id string) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()

	tk, ok := t.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	return cloneSnapshot(tk.snapshot), nil
}

// finish transitions a task to its terminal state exactly once.
func (t *Tracker) finish(id string, report *scraper.RunReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tk, ok := t.tasks[id]
	if !ok || tk.snapshot.Status != StatusRunning {
		return
	}

	done := t.now().UTC()
	tk.snapshot.CompletedAt = &done
	if err != nil {
		tk.snapshot.Status = StatusFailed
		tk.snapshot.Error = err.Error()
		t.logger.Warn("scrape task failed",
			logger.String("task_id", id),
			logger.Error(err))
		return
	}

	tk.snapshot.Status = StatusCompleted
	saved := 0
	if report != nil {
		tk.snapshot.Results = report.Counts
		tk.snapshot.Diagnostics = report.Diagnostics
		saved = report.Total()
	}
	t.logger.Info("scrape task completed",
		logger.String("task_id", id),
		logger.Int("saved", saved))
}

func (t *Tracker) evictExpiredLocked() {
	cutoff := t.now().Add(-t.retention)
	for id, tk := range t.tasks {
		if tk.snapshot.Status == StatusRunning {
			continue
		}
		if tk.snapshot.CompletedAt != nil && tk.snapshot.CompletedAt.Before(cutoff) {
			delete(t.tasks, id)
		}
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s.Results != nil {
		results := make(map[string]int, len(s.Results))
		for k, v := range s.Results {
			results[k] = v
		}
		s.Results = results
	}
	if s.Diagnostics != nil {
		diags := make(map[string]string, len(s.Diagnostics))
		for k, v := range s.Diagnostics {
			diags[k] = v
		}
		s.Diagnostics = diags
	}
	return s
}
