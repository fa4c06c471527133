// Package handlers implements the REST endpoints.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/events"
	"github.com/jobsift/jobsift/internal/exporter"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/query"
	"github.com/jobsift/jobsift/internal/repository"
)

const maxListLimit = 1000

type OfferHandler struct {
	repo      *repository.OfferRepository
	importer  *exporter.Importer
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    logger.Logger
}

func NewOfferHandler(
	repo *repository.OfferRepository,
	importer *exporter.Importer,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
) *OfferHandler {
	return &OfferHandler{
		repo:      repo,
		importer:  importer,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

// List handles GET /api/offers. The response is the bare page of offers;
// clients infer "has more" from a full page (count == limit), which can
// claim one extra page at an exact boundary.
func (h *OfferHandler) List(c *gin.Context) {
	q, err := queryFromParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offers, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list offers", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list offers"})
		return
	}

	c.JSON(http.StatusOK, query.Apply(offers, q))
}

func (h *OfferHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offer id"})
		return
	}

	offer, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
			return
		}
		h.logger.Error("Failed to get offer",
			logger.Int64("offer_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get offer"})
		return
	}

	c.JSON(http.StatusOK, offer)
}

type markSeenRequest struct {
	OfferIDs []int64 `json:"offer_ids"`
}

// MarkSeen handles POST /api/offers/mark-seen. Unknown ids are ignored; the
// response counts every existing offer in the set, already-seen included.
func (h *OfferHandler) MarkSeen(c *gin.Context) {
	var req markSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.repo.MarkSeen(c.Request.Context(), req.OfferIDs)
	if err != nil {
		h.logger.Error("Failed to mark offers seen", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark offers seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated_count": updated})
}

// DeleteExpired handles DELETE /api/offers/delete-expired.
func (h *OfferHandler) DeleteExpired(c *gin.Context) {
	deleted, err := h.repo.DeleteExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to delete expired offers", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expired offers"})
		return
	}

	h.logger.Info("Expired offers deleted", logger.Int64("deleted_count", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

type exportRequest struct {
	OfferIDs  []int64 `json:"offer_ids"`
	ExportAll bool    `json:"export_all"`

	Source               string   `json:"source"`
	ShowSeen             bool     `json:"show_seen"`
	SortBy               string   `json:"sort_by"`
	SortOrder            string   `json:"sort_order"`
	SelectedTechnologies []string `json:"selected_technologies"`
	RequiredKeywords     string   `json:"required_keywords"`
	ExcludedKeywords     string   `json:"excluded_keywords"`
}

// Export handles POST /api/offers/export/:format. Selection precedence:
// explicit ids, then export_all, then the filter criteria.
func (h *OfferHandler) Export(c *gin.Context) {
	format, err := exporter.ParseFormat(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := exportRequest{ShowSeen: true, SortBy: query.SortByScrapedAt, SortOrder: query.OrderDesc}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	offers, err := h.selectForExport(c, &req)
	if err != nil {
		h.logger.Error("Failed to select offers for export", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export offers"})
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, format, offers); err != nil {
		h.logger.Error("Failed to encode export",
			logger.String("format", string(format)),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export offers"})
		return
	}

	h.metrics.OffersExported.WithLabelValues(string(format)).Add(float64(len(offers)))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.Filename()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *OfferHandler) selectForExport(c *gin.Context, req *exportRequest) ([]models.Offer, error) {
	ctx := c.Request.Context()

	if len(req.OfferIDs) > 0 {
		return h.repo.ListByIDs(ctx, req.OfferIDs)
	}

	offers, err := h.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if req.ExportAll {
		return offers, nil
	}

	q := query.Query{
		SortBy:           req.SortBy,
		SortOrder:        req.SortOrder,
		ShowSeen:         req.ShowSeen,
		Source:           req.Source,
		Technologies:     req.SelectedTechnologies,
		RequiredKeywords: query.SplitKeywords(req.RequiredKeywords),
		ExcludedKeywords: query.SplitKeywords(req.ExcludedKeywords),
	}
	filtered := query.Filter(offers, q)
	query.Sort(filtered, q)
	return filtered, nil
}

// Import handles POST /api/offers/import/:format (multipart file upload).
func (h *OfferHandler) Import(c *gin.Context) {
	format, err := exporter.ParseFormat(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read file upload", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file, format)
	if err != nil {
		h.logger.Warn("Import parse failed",
			logger.String("format", string(format)),
			logger.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse document", "details": err.Error()})
		return
	}

	h.metrics.OffersImported.WithLabelValues("inserted").Add(float64(result.Inserted))
	h.metrics.OffersImported.WithLabelValues("updated").Add(float64(result.Updated))
	h.metrics.OffersImported.WithLabelValues("rejected").Add(float64(result.Rejected))

	h.publisher.PublishAsync(events.Event{
		EventType: events.EventOffersImported,
		Counts: map[string]int{
			"inserted": result.Inserted,
			"updated":  result.Updated,
			"rejected": result.Rejected,
		},
	})

	h.logger.Info("Offers imported",
		logger.String("format", string(format)),
		logger.Int("inserted", result.Inserted),
		logger.Int("updated", result.Updated),
		logger.Int("rejected", result.Rejected),
	)
	c.JSON(http.StatusOK, gin.H{
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"rejected": result.Rejected,
		"message": fmt.Sprintf("Imported %d offers (%d new, %d refreshed), rejected %d",
			result.Inserted+result.Updated, result.Inserted, result.Updated, result.Rejected),
	})
}

func queryFromParams(c *gin.Context) (query.Query, error) {
	q := query.Query{
		Limit:     query.DefaultLimit,
		SortBy:    query.SortByScrapedAt,
		SortOrder: query.OrderDesc,
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return q, fmt.Errorf("limit must be between 1 and %d", maxListLimit)
		}
		q.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return q, errors.New("offset must be non-negative")
		}
		q.Offset = offset
	}
	if raw := c.Query("sort_by"); raw != "" {
		switch raw {
		case query.SortByScrapedAt, query.SortByValidUntil, query.SortByTitle, query.SortByCompany:
			q.SortBy = raw
		default:
			return q, fmt.Errorf("invalid sort_by %q", raw)
		}
	}
	if raw := c.Query("sort_order"); raw != "" {
		switch raw {
		case query.OrderAsc, query.OrderDesc:
			q.SortOrder = raw
		default:
			return q, fmt.Errorf("invalid sort_order %q", raw)
		}
	}

	q.ShowSeen = c.Query("show_seen") == "true"
	q.Source = c.Query("source")
	q.Technologies = query.SplitKeywords(c.Query("selected_technologies"))
	q.RequiredKeywords = query.SplitKeywords(c.Query("required_keywords"))
	q.ExcludedKeywords = query.SplitKeywords(c.Query("excluded_keywords"))
	return q, nil
}
