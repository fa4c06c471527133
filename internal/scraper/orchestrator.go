package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/models"
)

// UpsertStore is the slice of the offer repository the orchestrator needs.
type UpsertStore interface {
	Upsert(ctx context.Context, offer *models.Offer) (bool, error)
}

// RunReport summarizes one scrape run. Counts holds offers saved per source;
// Diagnostics holds the failure message for sources whose page sequence was
// cut short. A source present in Diagnostics still has its partial count.
type RunReport struct {
	Counts      map[string]int    `json:"counts"`
	Diagnostics map[string]string `json:"diagnostics,omitempty"`
}

// Total returns the number of offers saved across all sources.
func (r *RunReport) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Orchestrator fans a scrape run out over the configured source adapters,
// one goroutine per source. It owns the paging loop, the max_pages bound
// and the inter-page delay; failures in one source never abort siblings.
type Orchestrator struct {
	registry *Registry
	store    UpsertStore
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewOrchestrator(registry *Registry, store UpsertStore, m *metrics.Metrics, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		store:    store,
		metrics:  m,
		logger:   log,
	}
}

// Run executes one scrape run and blocks until every source finishes.
// Configuration problems (empty source set, unknown source, invalid limits)
// are reported synchronously before any fetch happens.
func (o *Orchestrator) Run(ctx context.Context, cfg models.ScrapeConfig) (*RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Sources) == 0 {
		return nil, ErrNoSources
	}

	adapters := make([]Adapter, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		adapter, ok := o.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}
		adapters = append(adapters, adapter)
	}

	report := &RunReport{
		Counts:      make(map[string]int, len(adapters)),
		Diagnostics: make(map[string]string),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, adapter := range adapters {
		wg.Add(1)
		go func(adapter Adapter) {
			defer wg.Done()
			saved, err := o.runSource(ctx, cfg, adapter)

			mu.Lock()
			defer mu.Unlock()
			report.Counts[adapter.Name()] = saved
			if err != nil {
				report.Diagnostics[adapter.Name()] = err.Error()
			}
		}(adapter)
	}
	wg.Wait()

	if len(report.Diagnostics) == 0 {
		report.Diagnostics = nil
	}
	return report, nil
}

func (o *Orchestrator) runSource(ctx context.Context, cfg models.ScrapeConfig, adapter Adapter) (int, error) {
	name := adapter.Name()
	delay := cfg.DelayDuration()
	saved := 0

	for page := 1; page <= cfg.MaxPages; page++ {
		if page > 1 && delay > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				return saved, err
			}
		}

		offers, more, err := adapter.FetchPage(ctx, cfg, page)
		o.metrics.ScrapePages.WithLabelValues(name).Inc()

		// A failed page can still carry offers fetched before the failure.
		for i := range offers {
			offer := offers[i]
			if matchesExcluded(cfg.ExcludedKeywords, &offer) {
				o.logger.Debug("excluding offer",
					logger.String("source", name),
					logger.String("title", offer.Title))
				continue
			}
			created, upsertErr := o.store.Upsert(ctx, &offer)
			if upsertErr != nil {
				o.logger.Warn("saving offer failed",
					logger.String("source", name),
					logger.String("url", offer.URL),
					logger.Error(upsertErr))
				continue
			}
			o.metrics.RecordUpsert(created)
			saved++
		}

		if err != nil {
			o.logger.Warn("source truncated",
				logger.String("source", name),
				logger.Int("page", page),
				logger.Error(err))
			return saved, err
		}
		if !more {
			break
		}
	}

	o.logger.Info("source finished",
		logger.String("source", name),
		logger.Int("saved", saved))
	return saved, nil
}

func matchesExcluded(keywords []string, offer *models.Offer) bool {
	if len(keywords) == 0 {
		return false
	}
	title := strings.ToLower(offer.Title)
	var description string
	if offer.Description != nil {
		description = strings.ToLower(*offer.Description)
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) || strings.Contains(description, kw) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
