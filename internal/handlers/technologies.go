package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/repository"
)

// TechnologyHandler lists the distinct technology strings seen so far, for
// populating filter pickers. The response is the bare sorted array.
type TechnologyHandler struct {
	repo   *repository.OfferRepository
	logger logger.Logger
}

func NewTechnologyHandler(repo *repository.OfferRepository, log logger.Logger) *TechnologyHandler {
	return &TechnologyHandler{repo: repo, logger: log}
}

// List handles GET /api/technologies.
func (h *TechnologyHandler) List(c *gin.Context) {
	technologies, err := h.repo.DistinctTechnologies(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list technologies", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list technologies"})
		return
	}

	c.JSON(http.StatusOK, technologies)
}
