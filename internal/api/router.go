// Package api wires the REST surface and the HTTP server lifecycle.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/handlers"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
)

const corsMaxAgeHours = 12

// Handlers collects the endpoint handlers the router mounts.
type Handlers struct {
	Offers       *handlers.OfferHandler
	Scrape       *handlers.ScrapeHandler
	Config       *handlers.ConfigHandler
	Technologies *handlers.TechnologyHandler
}

// NewRouter builds the gin engine with middleware and all routes mounted.
func NewRouter(h Handlers, m *metrics.Metrics, corsOrigins []string, version string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "jobsift",
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	apiGroup := router.Group("/api")

	offers := apiGroup.Group("/offers")
	offers.GET("", h.Offers.List)
	offers.GET("/:id", h.Offers.GetByID)
	offers.POST("/mark-seen", h.Offers.MarkSeen)
	offers.DELETE("/delete-expired", h.Offers.DeleteExpired)
	offers.POST("/export/:format", h.Offers.Export)
	offers.POST("/import/:format", h.Offers.Import)

	scrape := apiGroup.Group("/scrape")
	scrape.POST("/start", h.Scrape.Start)
	scrape.GET("/status/:task_id", h.Scrape.Status)

	apiGroup.GET("/config", h.Config.Get)
	apiGroup.PUT("/config", h.Config.Update)
	apiGroup.GET("/technologies", h.Technologies.List)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}
