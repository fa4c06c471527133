// Package scraper contains the per-portal source adapters and the
// orchestrator that fans a scrape run out across them.
package scraper

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
)

// Adapter fetches job offers from one portal, one page at a time. The
// orchestrator owns the paging loop, the max_pages bound and the inter-page
// delay; an adapter only knows how to turn a page number into offers.
//
// FetchPage returns the offers found on the 1-based page and whether more
// pages may follow. A clean end of results is (offers, false, nil); a fetch
// or parse failure is reported as an error, which truncates this adapter's
// sequence without affecting sibling adapters.
type Adapter interface {
	Name() string
	FetchPage(ctx context.Context, cfg models.ScrapeConfig, page int) ([]models.Offer, bool, error)
}

// Source adapter identifiers.
const (
	SourcePracujPl    = "pracuj_pl"
	SourceJustJoinIt  = "justjoin_it"
	SourceNoFluffJobs = "nofluffjobs"
)

var (
	// ErrNoSources is returned when a run is started with an empty source set.
	ErrNoSources = errors.New("no sources selected")
	// ErrUnknownSource is returned when a configured source has no adapter.
	ErrUnknownSource = errors.New("unknown source")
)

const fetchTimeout = 10 * time.Second

// Registry maps source identifiers to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry with the built-in portal adapters.
func NewRegistry(log logger.Logger) *Registry {
	client := &http.Client{Timeout: fetchTimeout}
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewPracujPlAdapter(client, log))
	r.Register(NewJustJoinItAdapter(client, log))
	r.Register(NewNoFluffJobsAdapter(client, log))
	return r
}

// Register adds an adapter under its name, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter for the given source identifier.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered source identifiers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
