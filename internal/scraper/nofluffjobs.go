package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
)

const (
	noFluffAPIURL      = "https://nofluffjobs.com/api/search/posting"
	noFluffOfferPrefix = "https://nofluffjobs.com/pl/job"
	noFluffPageSize    = 100

	// Postings carry a renewal timestamp rather than an expiry; portals keep
	// renewed ads live for roughly a month.
	noFluffValidityDays = 30
)

// NoFluffJobsAdapter reads offers from the nofluffjobs.com search API.
type NoFluffJobsAdapter struct {
	client *http.Client
	logger logger.Logger
}

func NewNoFluffJobsAdapter(client *http.Client, log logger.Logger) *NoFluffJobsAdapter {
	return &NoFluffJobsAdapter{client: client, logger: log}
}

func (a *NoFluffJobsAdapter) Name() string { return SourceNoFluffJobs }

type noFluffPlace struct {
	City         string `json:"city"`
	ProvinceOnly bool   `json:"provinceOnly"`
}

type noFluffLocation struct {
	Places      []noFluffPlace `json:"places"`
	FullyRemote bool           `json:"fullyRemote"`
	HybridDesc  string         `json:"hybridDesc"`
}

type noFluffSalary struct {
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
	Type     string   `json:"type"`
	Currency string   `json:"currency"`
}

type noFluffTile struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type noFluffPosting struct {
	URL       string          `json:"url"`
	Title     string          `json:"title"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Seniority []string        `json:"seniority"`
	Renewed   int64           `json:"renewed"`
	Location  noFluffLocation `json:"location"`
	Salary    *noFluffSalary  `json:"salary"`
	Tiles     struct {
		Values []noFluffTile `json:"values"`
	} `json:"tiles"`
}

type noFluffResponse struct {
	Postings []noFluffPosting `json:"postings"`
}

type noFluffRequest struct {
	Criteria        string            `json:"criteria"`
	URL             map[string]string `json:"url"`
	RawSearch       string            `json:"rawSearch"`
	PageSize        int               `json:"pageSize"`
	WithSalaryMatch bool              `json:"withSalaryMatch"`
}

func (a *NoFluffJobsAdapter) FetchPage(ctx context.Context, cfg models.ScrapeConfig, page int) ([]models.Offer, bool, error) {
	params := url.Values{
		"withSalaryMatch": {"true"},
		"pageTo":          {strconv.Itoa(page)},
		"pageSize":        {strconv.Itoa(noFluffPageSize)},
		"salaryCurrency":  {"PLN"},
		"salaryPeriod":    {"month"},
		"region":          {"pl"},
		"language":        {"pl-PL"},
	}

	reqBody := noFluffRequest{
		URL:             map[string]string{},
		PageSize:        noFluffPageSize,
		WithSalaryMatch: true,
	}
	if kw := strings.TrimSpace(cfg.SearchKeyword); kw != "" {
		reqBody.Criteria = fmt.Sprintf("requirement='%s'", kw)
		reqBody.URL = map[string]string{"searchParam": kw}
		reqBody.RawSearch = fmt.Sprintf("'%s' requirement='%s'", kw, kw)
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, noFluffAPIURL+"?"+params.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/infiniteSearch+json")
	req.Header.Set("Origin", "https://nofluffjobs.com")
	req.Header.Set("Referer", "https://nofluffjobs.com/")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetching page %d: unexpected status %d", page, resp.StatusCode)
	}

	var body noFluffResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decoding page %d: %w", page, err)
	}

	offers := make([]models.Offer, 0, len(body.Postings))
	for _, posting := range body.Postings {
		if posting.URL == "" {
			continue
		}
		offers = append(offers, a.convert(posting))
	}
	return offers, len(body.Postings) == noFluffPageSize, nil
}

func (a *NoFluffJobsAdapter) convert(posting noFluffPosting) models.Offer {
	offer := models.Offer{
		URL:     fmt.Sprintf("%s/%s", noFluffOfferPrefix, posting.URL),
		Title:   CleanText(posting.Title),
		Company: models.StrPtr(CleanText(posting.Name)),
		Source:  SourceNoFluffJobs,
	}

	// Prefer a concrete city; fall back to "Remote" when that is the only
	// place listed.
	var location string
	for _, place := range posting.Location.Places {
		if place.ProvinceOnly || place.City == "" || place.City == "Remote" {
			continue
		}
		location = place.City
		break
	}
	if location == "" {
		for _, place := range posting.Location.Places {
			if place.City == "Remote" {
				location = "Remote"
				break
			}
		}
	}
	offer.Location = models.StrPtr(location)

	switch {
	case posting.Location.FullyRemote:
		offer.WorkType = models.StrPtr("remote")
	case posting.Location.HybridDesc != "":
		offer.WorkType = models.StrPtr("hybrid")
	default:
		offer.WorkType = models.StrPtr("on-site")
	}

	if posting.Salary != nil {
		offer.SalaryMin = posting.Salary.From
		offer.SalaryMax = posting.Salary.To
		offer.SalaryPeriod = models.StrPtr("month")
		switch strings.ToLower(posting.Salary.Type) {
		case "b2b":
			offer.ContractType = models.StrPtr("B2B")
		case "uop":
			offer.ContractType = models.StrPtr("UoP")
		case "uz":
			offer.ContractType = models.StrPtr("UZ")
		}
	}

	var techs []string
	for _, tile := range posting.Tiles.Values {
		if tile.Type == "requirement" {
			techs = append(techs, tile.Value)
		}
	}
	offer.Technologies = joinTechs(techs)

	if posting.Renewed > 0 {
		t := time.UnixMilli(posting.Renewed).UTC().AddDate(0, 0, noFluffValidityDays)
		offer.ValidUntil = &t
	}

	var parts []string
	if posting.Category != "" {
		parts = append(parts, "Kategoria: "+posting.Category)
	}
	if len(posting.Seniority) > 0 {
		parts = append(parts, "Poziom: "+strings.Join(posting.Seniority, ", "))
	}
	if offer.Technologies != nil {
		parts = append(parts, "Technologie: "+*offer.Technologies)
	}
	offer.Description = models.StrPtr(strings.Join(parts, " | "))

	return offer
}
