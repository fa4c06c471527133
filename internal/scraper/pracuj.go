package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
)

// PracujPlAdapter scrapes pracuj.pl listing and offer pages. The portal has
// no public API, so every field comes out of the HTML via data-test markers.
type PracujPlAdapter struct {
	client *http.Client
	logger logger.Logger
	now    func() time.Time
}

func NewPracujPlAdapter(client *http.Client, log logger.Logger) *PracujPlAdapter {
	return &PracujPlAdapter{client: client, logger: log, now: time.Now}
}

func (a *PracujPlAdapter) Name() string { return SourcePracujPl }

func (a *PracujPlAdapter) baseURL(cfg models.ScrapeConfig) string {
	if cfg.PracujPlDomain == "www" {
		return "https://www.pracuj.pl"
	}
	return "https://it.pracuj.pl"
}

func (a *PracujPlAdapter) FetchPage(ctx context.Context, cfg models.ScrapeConfig, page int) ([]models.Offer, bool, error) {
	base := a.baseURL(cfg)
	// sc=0 sorts by newest, pn is the 1-based page number.
	listURL := fmt.Sprintf("%s/praca/%s;kw?sc=0&pn=%d", base, url.PathEscape(cfg.SearchKeyword), page)

	doc, err := a.fetchDocument(ctx, listURL)
	if err != nil {
		return nil, false, err
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find(`a[data-test="link-offer"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		full := NormalizeURL(resolveURL(base, href))
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})
	if len(links) == 0 {
		return nil, false, nil
	}

	offers := make([]models.Offer, 0, len(links))
	for _, link := range links {
		select {
		case <-ctx.Done():
			return offers, false, ctx.Err()
		default:
		}
		offer, err := a.parseOffer(ctx, link)
		if err != nil {
			a.logger.Warn("skipping offer page",
				logger.String("url", link),
				logger.Error(err))
			continue
		}
		offers = append(offers, *offer)
	}
	return offers, true, nil
}

func (a *PracujPlAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

func (a *PracujPlAdapter) parseOffer(ctx context.Context, offerURL string) (*models.Offer, error) {
	doc, err := a.fetchDocument(ctx, offerURL)
	if err != nil {
		return nil, err
	}

	offer := &models.Offer{
		URL:    offerURL,
		Source: SourcePracujPl,
	}

	offer.Title = CleanText(doc.Find(`h1[data-test="text-positionName"]`).First().Text())
	offer.Company = models.StrPtr(extractCompany(doc))
	offer.Location = models.StrPtr(extractLocation(doc))

	description := extractDescription(doc)
	offer.Description = models.StrPtr(description)
	offer.Technologies = models.StrPtr(extractTechnologies(doc))

	min, max, period := extractPracujSalary(doc, description)
	offer.SalaryMin = min
	offer.SalaryMax = max
	offer.SalaryPeriod = period

	offer.WorkType = models.StrPtr(extractBadgeMapped(doc, `li[data-test*="work-modes"]`, map[string]string{
		"hybrid": "hybrid", "hybrydowa": "hybrid",
		"remote": "remote", "zdalna": "remote", "zdalnie": "remote",
		"on-site": "on-site", "stacjonarna": "on-site", "stacjonarnie": "on-site",
	}))
	offer.ContractType = models.StrPtr(extractBadgeMapped(doc, `li[data-test="sections-benefit-contracts"]`, map[string]string{
		"b2b":                    "B2B",
		"contract of employment": "UoP", "umowa o pracę": "UoP",
		"contract of mandate": "UZ", "umowa zlecenie": "UZ",
		"umowa o dzieło": "UoD",
		"staż":           "Staż/Praktyki", "praktyki": "Staż/Praktyki", "internship": "Staż/Praktyki",
	}))
	offer.EmploymentType = models.StrPtr(extractBadgeMapped(doc, `li[data-test="sections-benefit-work-schedule"]`, map[string]string{
		"full-time": "full-time", "pełny etat": "full-time",
		"part-time": "part-time", "część etatu": "part-time", "niepełny etat": "part-time",
	}))

	doc.Find(`div[data-test="section-duration-info"] p`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Trim(CleanText(sel.Text()), "()")
		if t := ParseValidUntil(text, a.now()); t != nil {
			offer.ValidUntil = t
			return false
		}
		return true
	})

	return offer, nil
}

func extractCompany(doc *goquery.Document) string {
	sel := doc.Find(`h2[data-test="text-employerName"]`).First().Clone()
	sel.Find("a").Remove()
	return CleanText(sel.Text())
}

var trailingParenRe = regexp.MustCompile(`\s*\([^)]+\)\s*$`)

func extractLocation(doc *goquery.Document) string {
	for _, selector := range []string{
		`li[data-test="sections-benefit-workplaces"]`,
		`li[data-test="sections-benefit-workplaces-wp"]`,
	} {
		text := CleanText(doc.Find(selector).Find(`div[data-test="offer-badge-title"]`).First().Text())
		text = strings.TrimSpace(trailingParenRe.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}
		// "Street 1, Warszawa" keeps only the city.
		if i := strings.LastIndex(text, ","); i != -1 {
			return strings.TrimSpace(text[i+1:])
		}
		return text
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	sections := []string{
		"section-about-project",
		"text-about-project",
		"section-responsibilities",
		"section-requirements",
		"section-offer",
	}

	var parts []string
	for _, name := range sections {
		doc.Find(fmt.Sprintf(`[data-test="%s"] li`, name)).Each(func(_ int, sel *goquery.Selection) {
			text := CleanText(sel.Text())
			if len(text) > 15 && !strings.HasSuffix(text, ":") {
				parts = append(parts, text)
			}
		})
	}
	return strings.Join(parts, " ")
}

func extractTechnologies(doc *goquery.Document) string {
	var techs []string
	doc.Find(`section[data-test="section-technologies"] [data-test*="technolog"]`).Each(func(_ int, sel *goquery.Selection) {
		text := CleanText(sel.Text())
		if len(text) < 2 || len(text) > 50 || strings.HasSuffix(text, ":") {
			return
		}
		lower := strings.ToLower(text)
		for _, heading := range []string{"technologie", "technologies", "wymagane", "required", "expected", "mile widziane", "optional", "preferred", "system operacyjny", "operating system"} {
			if strings.Contains(lower, heading) {
				return
			}
		}
		techs = append(techs, text)
	})
	if joined := joinTechs(techs); joined != nil {
		return *joined
	}
	return ""
}

func extractPracujSalary(doc *goquery.Document, description string) (*float64, *float64, *string) {
	section := doc.Find(`div[data-test="section-salary"]`)
	if section.Length() > 0 {
		earning := CleanText(section.Find(`div[data-test="text-earningAmount"]`).First().Text())
		min, max, period := ExtractSalary(earning)
		if period == nil {
			period = salaryPeriodFromText(strings.ToLower(section.Text()))
		}
		if min != nil {
			if period == nil {
				period = models.StrPtr("month")
			}
			return min, max, period
		}
	}
	return ExtractSalary(description)
}

// extractBadgeMapped reads the badge titles under selector and returns the
// mapped value of the first badge whose text contains a known key.
func extractBadgeMapped(doc *goquery.Document, selector string, mapping map[string]string) string {
	result := ""
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := CleanText(sel.Find(`div[data-test="offer-badge-title"]`).First().Text())
		if text == "" {
			text = CleanText(sel.Text())
		}
		lower := strings.ToLower(text)
		for key, value := range mapping {
			if strings.Contains(lower, key) {
				result = value
				return false
			}
		}
		return true
	})
	return result
}

func salaryPeriodFromText(text string) *string {
	switch {
	case strings.Contains(text, "/h") || strings.Contains(text, "godz") || strings.Contains(text, "hour"):
		return models.StrPtr("hour")
	case strings.Contains(text, "/day") || strings.Contains(text, "dzień") || strings.Contains(text, "dniówka"):
		return models.StrPtr("day")
	case strings.Contains(text, "mies") || strings.Contains(text, "month") || strings.Contains(text, "mth"):
		return models.StrPtr("month")
	}
	return nil
}

func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
