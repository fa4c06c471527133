package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/scheduler"
)

// ConfigHandler reads and replaces the persisted scrape configuration. A
// config update reschedules the cron entry in place.
type ConfigHandler struct {
	store     *config.ScrapeConfigStore
	scheduler *scheduler.Scheduler
	logger    logger.Logger
}

func NewConfigHandler(store *config.ScrapeConfigStore, sched *scheduler.Scheduler, log logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		store:     store,
		scheduler: sched,
		logger:    log,
	}
}

// Get handles GET /api/config.
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

// Update handles PUT /api/config.
func (h *ConfigHandler) Update(c *gin.Context) {
	var cfg models.ScrapeConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Set(cfg); err != nil {
		h.logger.Error("Failed to persist config", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save config"})
		return
	}

	if err := h.scheduler.Apply(cfg.Schedule); err != nil {
		h.logger.Error("Failed to reschedule scraping",
			logger.String("schedule", cfg.Schedule),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply schedule"})
		return
	}

	h.logger.Info("Scrape config updated",
		logger.String("schedule", cfg.Schedule),
		logger.Strings("sources", cfg.Sources),
	)
	c.JSON(http.StatusOK, cfg)
}
