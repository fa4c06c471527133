// Package query implements the filter, sort and pagination engine. It is a
// pure computation over a candidate offer slice; the store owns the scan.
package query

import (
	"sort"
	"strings"

	"github.com/jobsift/jobsift/internal/models"
)

// Sort fields accepted in Query.SortBy.
const (
	SortByScrapedAt  = "scraped_at"
	SortByValidUntil = "valid_until"
	SortByTitle      = "title"
	SortByCompany    = "company"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultLimit matches the original API's page size.
const DefaultLimit = 100

// Query describes one request's filtering, sorting and pagination. It is
// never persisted.
type Query struct {
	Limit  int
	Offset int

	SortBy    string
	SortOrder string

	// ShowSeen includes offers already marked seen.
	ShowSeen bool

	// Source keeps only offers from this source identifier. Empty means all.
	Source string

	// Technologies keeps offers whose technology list intersects this set
	// (case-insensitive). Empty means no technology filtering.
	Technologies []string

	// RequiredKeywords keeps offers whose title+company+technologies
	// contain at least one entry. Lowercased, trimmed.
	RequiredKeywords []string

	// ExcludedKeywords drops offers containing any entry. Excluded always
	// wins over required.
	ExcludedKeywords []string
}

// SplitKeywords splits a comma-separated parameter into trimmed, lowercased
// entries, dropping empties.
func SplitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.ToLower(strings.TrimSpace(p)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Filter applies every predicate of q to offers, in category order: source,
// technologies, required keywords, excluded keywords, seen state. Categories
// AND together; entries within a category OR. The input is not modified.
func Filter(offers []models.Offer, q Query) []models.Offer {
	selected := lowerSet(q.Technologies)

	out := make([]models.Offer, 0, len(offers))
	for i := range offers {
		offer := &offers[i]
		if q.Source != "" && offer.Source != q.Source {
			continue
		}
		if len(selected) > 0 && !techMatch(offer, selected) {
			continue
		}
		if len(q.RequiredKeywords) > 0 || len(q.ExcludedKeywords) > 0 {
			haystack := offer.SearchText()
			if len(q.RequiredKeywords) > 0 && !containsAny(haystack, q.RequiredKeywords) {
				continue
			}
			if containsAny(haystack, q.ExcludedKeywords) {
				continue
			}
		}
		if !q.ShowSeen && offer.Seen {
			continue
		}
		out = append(out, *offer)
	}
	return out
}

// Sort orders offers by the requested field. The sort is stable and ties
// break on url ascending, so repeated queries over an unchanged data set
// paginate deterministically.
func Sort(offers []models.Offer, q Query) {
	desc := strings.ToLower(q.SortOrder) != OrderAsc

	sort.SliceStable(offers, func(i, j int) bool {
		c := compareBy(&offers[i], &offers[j], q.SortBy)
		if c == 0 {
			return offers[i].URL < offers[j].URL
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Page applies offset-based pagination. The engine does not know the true
// total count; callers infer "has more" from a full page, accepting one
// spurious empty fetch at an exact boundary.
func Page(offers []models.Offer, q Query) []models.Offer {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(offers) {
		return []models.Offer{}
	}
	end := offset + limit
	if end > len(offers) {
		end = len(offers)
	}
	return offers[offset:end]
}

// Apply runs the full pipeline: filter, sort, page.
func Apply(offers []models.Offer, q Query) []models.Offer {
	filtered := Filter(offers, q)
	Sort(filtered, q)
	return Page(filtered, q)
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if t := strings.ToLower(strings.TrimSpace(v)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// techMatch reports whether the offer's technology list intersects the
// selected set. Offers with no technologies never pass a non-empty filter.
func techMatch(offer *models.Offer, selected map[string]struct{}) bool {
	for _, tech := range offer.TechList() {
		if _, ok := selected[strings.ToLower(tech)]; ok {
			return true
		}
	}
	return false
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// compareBy returns -1, 0 or 1 ordering a before, equal to, or after b on
// the given field. Nil field values sort before non-nil ones.
func compareBy(a, b *models.Offer, field string) int {
	switch field {
	case SortByValidUntil:
		switch {
		case a.ValidUntil == nil && b.ValidUntil == nil:
			return 0
		case a.ValidUntil == nil:
			return -1
		case b.ValidUntil == nil:
			return 1
		default:
			return a.ValidUntil.Compare(*b.ValidUntil)
		}
	case SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByCompany:
		return strings.Compare(strings.ToLower(derefStr(a.Company)), strings.ToLower(derefStr(b.Company)))
	default: // scraped_at
		return a.ScrapedAt.Compare(b.ScrapedAt)
	}
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
