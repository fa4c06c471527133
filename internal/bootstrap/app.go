// Package bootstrap handles application initialization and lifecycle.
package bootstrap

import (
	"context"
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/internal/api"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/database"
	"github.com/jobsift/jobsift/internal/exporter"
	"github.com/jobsift/jobsift/internal/handlers"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/repository"
	"github.com/jobsift/jobsift/internal/scheduler"
	"github.com/jobsift/jobsift/internal/scraper"
	"github.com/jobsift/jobsift/internal/tasks"
)

const version = "dev"

// Start initializes and runs the application until shutdown.
func Start() error {
	ctx := context.Background()

	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Phase 2: Setup database and repository
	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Error(closeErr))
		}
	}()
	repo := repository.NewOfferRepository(db, log)

	// Phase 3: Scrape config store
	scrapeStore, err := config.NewScrapeConfigStore(cfg.ScrapeConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load scrape config: %w", err)
	}

	// Phase 4: Event publisher (optional) and metrics
	publisher := SetupEventPublisher(cfg, log)
	m := metrics.New()

	// Phase 5: Scrape pipeline
	registry := scraper.NewRegistry(log)
	orchestrator := scraper.NewOrchestrator(registry, repo, m, log)
	tracker := tasks.NewTracker(cfg.Tasks.Retention, log)
	importer := exporter.NewImporter(repo, log)

	scrapeHandler := handlers.NewScrapeHandler(ctx, orchestrator, tracker, publisher, m, log)

	// Phase 6: Scheduler, fed by the persisted scrape config
	sched := scheduler.New(func() {
		scrapeHandler.LaunchRun(scrapeStore.Get())
	}, log)
	if err := sched.Apply(scrapeStore.Get().Schedule); err != nil {
		return fmt.Errorf("failed to apply schedule: %w", err)
	}
	sched.Start()
	defer sched.Stop(ctx)

	// Phase 7: HTTP server
	router := api.NewRouter(api.Handlers{
		Offers:       handlers.NewOfferHandler(repo, importer, publisher, m, log),
		Scrape:       scrapeHandler,
		Config:       handlers.NewConfigHandler(scrapeStore, sched, log),
		Technologies: handlers.NewTechnologyHandler(repo, log),
	}, m, cfg.Server.CORSOrigins, version, log)

	srv := api.NewServer(api.ServerConfig{
		Address:      fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router)

	if runErr := api.RunWithGracefulShutdown(ctx, srv, 0, log); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return runErr
	}

	log.Info("Server exited")
	return nil
}

// LoadConfig loads configuration from the -config flag path.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// CreateLogger creates the service logger from configuration.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "jobsift"),
		logger.String("version", version),
	), nil
}
