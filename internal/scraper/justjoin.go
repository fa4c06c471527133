package scraper

import (
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
	justJoinAPIURL      = "https://api.justjoin.it/v2/user-panel/offers/by-cursor"
	justJoinOfferPrefix = "https://justjoin.it/job-offer"
	justJoinPageSize    = 100
)

// JustJoinItAdapter reads offers from the justjoin.it JSON API.
type JustJoinItAdapter struct {
	client *http.Client
	logger logger.Logger
}

func NewJustJoinItAdapter(client *http.Client, log logger.Logger) *JustJoinItAdapter {
	return &JustJoinItAdapter{client: client, logger: log}
}

func (a *JustJoinItAdapter) Name() string { return SourceJustJoinIt }

type justJoinEmployment struct {
	From    *float64 `json:"from"`
	To      *float64 `json:"to"`
	FromPln *float64 `json:"fromPln"`
	ToPln   *float64 `json:"toPln"`
	Unit    string   `json:"unit"`
}

type justJoinOffer struct {
	Slug             string               `json:"slug"`
	Title            string               `json:"title"`
	CompanyName      string               `json:"companyName"`
	City             string               `json:"city"`
	Street           string               `json:"street"`
	WorkplaceType    string               `json:"workplaceType"`
	WorkingTime      string               `json:"workingTime"`
	ExperienceLevel  string               `json:"experienceLevel"`
	ExpiredAt        string               `json:"expiredAt"`
	RequiredSkills   []string             `json:"requiredSkills"`
	NiceToHaveSkills []string             `json:"niceToHaveSkills"`
	EmploymentTypes  []justJoinEmployment `json:"employmentTypes"`
}

type justJoinResponse struct {
	Data []justJoinOffer `json:"data"`
}

func (a *JustJoinItAdapter) FetchPage(ctx context.Context, cfg models.ScrapeConfig, page int) ([]models.Offer, bool, error) {
	params := url.Values{
		"cityRadiusKm": {"30"},
		"currency":     {"pln"},
		"orderBy":      {"DESC"},
		"sortBy":       {"newest"},
		"from":         {strconv.Itoa((page - 1) * justJoinPageSize)},
		"itemsCount":   {strconv.Itoa(justJoinPageSize)},
	}
	for i, kw := range splitCommaList(cfg.SearchKeyword) {
		params.Set(fmt.Sprintf("keywords[%d]", i), kw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, justJoinAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://justjoin.it")
	req.Header.Set("Referer", "https://justjoin.it/")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetching page %d: unexpected status %d", page, resp.StatusCode)
	}

	var body justJoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decoding page %d: %w", page, err)
	}

	offers := make([]models.Offer, 0, len(body.Data))
	for _, raw := range body.Data {
		if raw.Slug == "" {
			continue
		}
		offers = append(offers, a.convert(raw))
	}
	return offers, len(body.Data) == justJoinPageSize, nil
}

func (a *JustJoinItAdapter) convert(raw justJoinOffer) models.Offer {
	offer := models.Offer{
		URL:     fmt.Sprintf("%s/%s", justJoinOfferPrefix, raw.Slug),
		Title:   CleanText(raw.Title),
		Company: models.StrPtr(CleanText(raw.CompanyName)),
		Source:  SourceJustJoinIt,
	}

	location := raw.City
	if raw.Street != "" {
		if raw.City != "" {
			location = raw.Street + ", " + raw.City
		} else {
			location = raw.Street
		}
	}
	offer.Location = models.StrPtr(CleanText(location))

	if len(raw.EmploymentTypes) > 0 {
		emp := raw.EmploymentTypes[0]
		offer.SalaryMin = firstFloat(emp.FromPln, emp.From)
		offer.SalaryMax = firstFloat(emp.ToPln, emp.To)
		switch emp.Unit {
		case "hour":
			offer.SalaryPeriod = models.StrPtr("hour")
		case "day":
			offer.SalaryPeriod = models.StrPtr("day")
		default:
			offer.SalaryPeriod = models.StrPtr("month")
		}
	}

	offer.Technologies = joinTechs(append(append([]string{}, raw.RequiredSkills...), raw.NiceToHaveSkills...))

	workplace := strings.ToLower(raw.WorkplaceType)
	switch {
	case strings.Contains(workplace, "remote"):
		offer.WorkType = models.StrPtr("remote")
	case strings.Contains(workplace, "hybrid"):
		offer.WorkType = models.StrPtr("hybrid")
	case strings.Contains(workplace, "office"), strings.Contains(workplace, "on-site"):
		offer.WorkType = models.StrPtr("on-site")
	}

	workingTime := strings.ToLower(raw.WorkingTime)
	switch {
	case strings.Contains(workingTime, "full"):
		offer.EmploymentType = models.StrPtr("full-time")
	case strings.Contains(workingTime, "part"):
		offer.EmploymentType = models.StrPtr("part-time")
	}

	if raw.ExpiredAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.ExpiredAt); err == nil {
			t := ts.UTC()
			offer.ValidUntil = &t
		}
	}

	var parts []string
	if offer.Title != "" {
		parts = append(parts, "Position: "+offer.Title)
	}
	if offer.Technologies != nil {
		parts = append(parts, "Technologies: "+*offer.Technologies)
	}
	if raw.ExperienceLevel != "" {
		parts = append(parts, "Experience level: "+raw.ExperienceLevel)
	}
	offer.Description = models.StrPtr(strings.Join(parts, " | "))

	return offer
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
