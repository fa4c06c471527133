package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/models"
)

func offer(url, title, techs string) models.Offer {
	return models.Offer{
		URL:          url,
		Title:        title,
		Company:      models.StrPtr("Acme"),
		Technologies: models.StrPtr(techs),
		Source:       "pracuj_pl",
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "Go", []string{"go"}},
		{"trims and lowercases", " Go , SQL ", []string{"go", "sql"}},
		{"drops empties", "go,,sql,", []string{"go", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitKeywords(tt.raw))
		})
	}
}

func TestFilter_Technologies(t *testing.T) {
	offers := []models.Offer{
		offer("https://x/1", "Dev A", "Go, SQL"),
		offer("https://x/2", "Dev B", "Python"),
		offer("https://x/3", "Dev C", ""),
	}

	got := Filter(offers, Query{Technologies: []string{"go"}, ShowSeen: true})
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/1", got[0].URL)
}

func TestFilter_EmptyTechListNeverMatches(t *testing.T) {
	offers := []models.Offer{offer("https://x/1", "Dev", "")}

	got := Filter(offers, Query{Technologies: []string{"go"}, ShowSeen: true})
	assert.Empty(t, got)
}

func TestFilter_RequiredAndExcluded(t *testing.T) {
	offers := []models.Offer{
		offer("https://x/1", "Senior Go Dev", "Go"),
		offer("https://x/2", "Senior Go Intern", "Go"),
		offer("https://x/3", "Junior Python Dev", "Python"),
	}

	q := Query{
		ShowSeen:         true,
		Technologies:     []string{"go"},
		RequiredKeywords: []string{"senior"},
		ExcludedKeywords: []string{"intern"},
	}
	got := Filter(offers, q)

	// Never an offer without Go, without "senior", or containing "intern".
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/1", got[0].URL)
}

func TestFilter_RequiredMatchesAnyOf(t *testing.T) {
	offers := []models.Offer{
		offer("https://x/1", "Junior Dev", "Go"),
		offer("https://x/2", "Backend Dev", "Rust"),
	}

	got := Filter(offers, Query{ShowSeen: true, RequiredKeywords: []string{"junior", "rust"}})
	assert.Len(t, got, 2)
}

func TestFilter_SeenHiddenByDefault(t *testing.T) {
	seen := offer("https://x/1", "Seen Dev", "Go")
	seen.Seen = true
	offers := []models.Offer{seen, offer("https://x/2", "Fresh Dev", "Go")}

	got := Filter(offers, Query{})
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/2", got[0].URL)

	got = Filter(offers, Query{ShowSeen: true})
	assert.Len(t, got, 2)
}

func TestFilter_Source(t *testing.T) {
	a := offer("https://x/1", "Dev", "Go")
	b := offer("https://x/2", "Dev", "Go")
	b.Source = "justjoin_it"
	offers := []models.Offer{a, b}

	got := Filter(offers, Query{ShowSeen: true, Source: "justjoin_it"})
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/2", got[0].URL)
}

func TestFilter_ScenarioRequiredKeywordGo(t *testing.T) {
	target := offer("https://x/1", "Junior Go Dev", "Go, SQL")
	offers := []models.Offer{target}

	got := Filter(offers, Query{RequiredKeywords: []string{"go"}})
	require.Len(t, got, 1)
	assert.Equal(t, target.URL, got[0].URL)
}

func TestSort_ScrapedAtDescDefault(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	offers := make([]models.Offer, 3)
	for i := range offers {
		offers[i] = offer(fmt.Sprintf("https://x/%d", i), "Dev", "Go")
		offers[i].ScrapedAt = base.Add(time.Duration(i) * time.Hour)
	}

	Sort(offers, Query{SortBy: SortByScrapedAt})
	assert.Equal(t, "https://x/2", offers[0].URL)
	assert.Equal(t, "https://x/0", offers[2].URL)
}

func TestSort_ValidUntilNilFirst(t *testing.T) {
	d := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	withDate := offer("https://x/1", "Dev", "Go")
	withDate.ValidUntil = &d
	without := offer("https://x/2", "Dev", "Go")

	offers := []models.Offer{withDate, without}
	Sort(offers, Query{SortBy: SortByValidUntil, SortOrder: OrderAsc})
	assert.Equal(t, "https://x/2", offers[0].URL)
}

func TestSort_TitleCaseInsensitiveWithURLTiebreak(t *testing.T) {
	a := offer("https://x/b", "alpha", "Go")
	b := offer("https://x/a", "Alpha", "Go")
	c := offer("https://x/c", "Beta", "Go")

	offers := []models.Offer{c, a, b}
	Sort(offers, Query{SortBy: SortByTitle, SortOrder: OrderAsc})

	assert.Equal(t, "https://x/a", offers[0].URL)
	assert.Equal(t, "https://x/b", offers[1].URL)
	assert.Equal(t, "https://x/c", offers[2].URL)
}

func TestPage_Bounds(t *testing.T) {
	offers := make([]models.Offer, 5)
	for i := range offers {
		offers[i] = offer(fmt.Sprintf("https://x/%d", i), "Dev", "Go")
	}

	tests := []struct {
		name   string
		q      Query
		want   int
		first  string
	}{
		{"first page", Query{Limit: 2}, 2, "https://x/0"},
		{"second page", Query{Limit: 2, Offset: 2}, 2, "https://x/2"},
		{"last partial page", Query{Limit: 2, Offset: 4}, 1, "https://x/4"},
		{"past the end", Query{Limit: 2, Offset: 10}, 0, ""},
		{"zero limit uses default", Query{}, 5, "https://x/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Page(offers, tt.q)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.first, got[0].URL)
			}
		})
	}
}

func TestApply_PaginationDeterministic(t *testing.T) {
	offers := make([]models.Offer, 6)
	for i := range offers {
		offers[i] = offer(fmt.Sprintf("https://x/%d", i), "Dev", "Go")
		offers[i].ScrapedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	}

	q1 := Query{Limit: 3, SortBy: SortByScrapedAt}
	page1 := Apply(offers, q1)
	q2 := q1
	q2.Offset = len(page1)
	page2 := Apply(offers, q2)

	require.Len(t, page1, 3)
	require.Len(t, page2, 3)
	for _, a := range page1 {
		for _, b := range page2 {
			assert.NotEqual(t, a.URL, b.URL)
		}
	}

	again := Apply(offers, q1)
	assert.Equal(t, page1, again)
}
