// Package metrics exposes Prometheus counters for the scrape and
// import/export pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	OffersUpserted *prometheus.CounterVec
	ScrapeRuns     *prometheus.CounterVec
	ScrapePages    *prometheus.CounterVec
	OffersImported *prometheus.CounterVec
	OffersExported *prometheus.CounterVec
}

// New builds a metrics set on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		OffersUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_offers_upserted_total",
			Help: "Offers written to the store, by result (inserted, updated)",
		}, []string{"result"}),
		ScrapeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_scrape_runs_total",
			Help: "Scrape runs finished, by status (completed, failed)",
		}, []string{"status"}),
		ScrapePages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_scrape_pages_total",
			Help: "Listing pages fetched, by source",
		}, []string{"source"}),
		OffersImported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_offers_imported_total",
			Help: "Import records processed, by outcome (inserted, updated, rejected)",
		}, []string{"outcome"}),
		OffersExported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_offers_exported_total",
			Help: "Offers exported, by format",
		}, []string{"format"}),
	}
}

// Handler returns the HTTP handler serving this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpsert increments the upsert counter for an insert or update.
func (m *Metrics) RecordUpsert(created bool) {
	if created {
		m.OffersUpserted.WithLabelValues("inserted").Inc()
	} else {
		m.OffersUpserted.WithLabelValues("updated").Inc()
	}
}
