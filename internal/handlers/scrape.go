package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/events"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/scraper"
	"github.com/jobsift/jobsift/internal/tasks"
)

// ScrapeHandler starts scrape runs and answers status polls. Runs execute
// against appCtx so an HTTP client disconnecting never cancels them.
type ScrapeHandler struct {
	appCtx       context.Context
	orchestrator *scraper.Orchestrator
	tracker      *tasks.Tracker
	publisher    *events.Publisher
	metrics      *metrics.Metrics
	logger       logger.Logger
}

func NewScrapeHandler(
	appCtx context.Context,
	orchestrator *scraper.Orchestrator,
	tracker *tasks.Tracker,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
) *ScrapeHandler {
	return &ScrapeHandler{
		appCtx:       appCtx,
		orchestrator: orchestrator,
		tracker:      tracker,
		publisher:    publisher,
		metrics:      m,
		logger:       log,
	}
}

// Start handles POST /api/scrape/start. Config problems surface here as a
// 400; once a task id is issued, failures are reported through polling only.
func (h *ScrapeHandler) Start(c *gin.Context) {
	var cfg models.ScrapeConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID := h.LaunchRun(cfg)

	h.logger.Info("Scrape started",
		logger.String("task_id", taskID),
		logger.Strings("sources", cfg.Sources),
	)
	c.JSON(http.StatusOK, gin.H{
		"message": "Scraping started",
		"sources": cfg.Sources,
		"task_id": taskID,
	})
}

// LaunchRun fires a tracked scrape run for the given config and returns its
// task id. The scheduler uses this directly for cron-triggered runs.
func (h *ScrapeHandler) LaunchRun(cfg models.ScrapeConfig) string {
	return h.tracker.Launch(h.appCtx, h.runFunc(cfg))
}

// runFunc builds the tracked run closure: orchestrate, record metrics,
// publish the terminal event.
func (h *ScrapeHandler) runFunc(cfg models.ScrapeConfig) tasks.RunFunc {
	return func(ctx context.Context) (*scraper.RunReport, error) {
		report, err := h.orchestrator.Run(ctx, cfg)
		if err != nil {
			h.metrics.ScrapeRuns.WithLabelValues("failed").Inc()
			h.publisher.PublishAsync(events.Event{
				EventType: events.EventScrapeFailed,
				Error:     err.Error(),
			})
			return nil, err
		}

		h.metrics.ScrapeRuns.WithLabelValues("completed").Inc()
		h.publisher.PublishAsync(events.Event{
			EventType: events.EventScrapeCompleted,
			Counts:    report.Counts,
		})
		return report, nil
	}
}

// Status handles GET /api/scrape/status/:task_id.
func (h *ScrapeHandler) Status(c *gin.Context) {
	snapshot, err := h.tracker.Get(c.Param("task_id"))
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.logger.Error("Failed to get task status", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get task status"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
