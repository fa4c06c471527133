package exporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/testhelpers"
)

// fakeStore upserts into a map keyed by url so tests can see what landed.
type fakeStore struct {
	byURL map[string]*models.Offer
	fail  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byURL: make(map[string]*models.Offer)}
}

func (s *fakeStore) Upsert(_ context.Context, offer *models.Offer) (bool, error) {
	if err := s.fail[offer.URL]; err != nil {
		return false, err
	}
	_, exists := s.byURL[offer.URL]
	s.byURL[offer.URL] = offer
	return !exists, nil
}

func TestImport_JSONCountsOutcomes(t *testing.T) {
	doc := `[
		{"url": "https://example.com/a", "title": "Dev A", "source": "justjoin_it"},
		{"url": "https://example.com/b", "title": "Dev B"},
		{"title": "No URL"}
	]`

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())

	result, err := im.Import(context.Background(), strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 2, Rejected: 1}, result)

	assert.Equal(t, "justjoin_it", store.byURL["https://example.com/a"].Source)
	// Records without a source get a marker value.
	assert.Equal(t, "imported", store.byURL["https://example.com/b"].Source)
}

func TestImport_MissingTitleRejected(t *testing.T) {
	doc := `[{"url": "https://example.com/a", "title": "   "}]`

	im := NewImporter(newFakeStore(), testhelpers.NewTestLogger())
	result, err := im.Import(context.Background(), strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Rejected: 1}, result)
}

func TestImport_DuplicateURLUpdates(t *testing.T) {
	doc := `[
		{"url": "https://example.com/a", "title": "First"},
		{"url": "https://example.com/a", "title": "Second"}
	]`

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())

	result, err := im.Import(context.Background(), strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 1, Updated: 1}, result)
	assert.Equal(t, "Second", store.byURL["https://example.com/a"].Title)
}

func TestImport_FlexibleSeenValues(t *testing.T) {
	doc := `[
		{"url": "https://example.com/a", "title": "A", "seen": true},
		{"url": "https://example.com/b", "title": "B", "seen": "yes"},
		{"url": "https://example.com/c", "title": "C", "seen": 1},
		{"url": "https://example.com/d", "title": "D", "seen": null},
		{"url": "https://example.com/e", "title": "E"}
	]`

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())

	_, err := im.Import(context.Background(), strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)

	assert.True(t, store.byURL["https://example.com/a"].Seen)
	assert.True(t, store.byURL["https://example.com/b"].Seen)
	assert.True(t, store.byURL["https://example.com/c"].Seen)
	assert.False(t, store.byURL["https://example.com/d"].Seen)
	assert.False(t, store.byURL["https://example.com/e"].Seen)
}

func TestImport_CSV(t *testing.T) {
	doc := "\xEF\xBB\xBF" + strings.Join([]string{
		"url,title,company,salary_min,valid_until,seen,source",
		"https://example.com/a,Dev A,Acme,8000,2026-09-15,true,pracuj_pl",
		",Missing URL,Acme,,,false,",
	}, "\n")

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())

	result, err := im.Import(context.Background(), strings.NewReader(doc), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 1, Rejected: 1}, result)

	got := store.byURL["https://example.com/a"]
	require.NotNil(t, got)
	assert.Equal(t, "Acme", *got.Company)
	assert.Equal(t, 8000.0, *got.SalaryMin)
	assert.True(t, got.Seen)
	require.NotNil(t, got.ValidUntil)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *got.ValidUntil)
}

func TestImport_CSVEmptyDocument(t *testing.T) {
	im := NewImporter(newFakeStore(), testhelpers.NewTestLogger())

	result, err := im.Import(context.Background(), strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{}, result)
}

func TestImport_MalformedJSON(t *testing.T) {
	im := NewImporter(newFakeStore(), testhelpers.NewTestLogger())

	_, err := im.Import(context.Background(), strings.NewReader("{not json"), FormatJSON)
	assert.Error(t, err)
}

func TestImport_StoreErrorCountsAsRejected(t *testing.T) {
	store := newFakeStore()
	store.fail = map[string]error{"https://example.com/bad": assert.AnError}
	im := NewImporter(store, testhelpers.NewTestLogger())

	doc := `[
		{"url": "https://example.com/ok", "title": "OK"},
		{"url": "https://example.com/bad", "title": "Bad"}
	]`
	result, err := im.Import(context.Background(), strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 1, Rejected: 1}, result)
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2026-09-15", timePtr(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))},
		{"2026-09-15T10:30:00Z", timePtr(time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC))},
		{"2026-09-15T10:30:00", timePtr(time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC))},
		{"", nil},
		{"next week", nil},
	}

	for _, tt := range tests {
		got := parseFlexibleDate(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.Equal(t, *tt.want, *got, tt.in)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
