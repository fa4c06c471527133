package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/testhelpers"
)

func setupRepo(t *testing.T) *OfferRepository {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	return NewOfferRepository(db, testhelpers.NewTestLogger())
}

func sampleOffer(url string) *models.Offer {
	return &models.Offer{
		URL:          url,
		Title:        "Junior Go Dev",
		Company:      models.StrPtr("Acme"),
		Technologies: models.StrPtr("Go, SQL"),
		Source:       "pracuj_pl",
	}
}

func TestOfferRepository_Upsert_Insert(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	offer := sampleOffer("https://x/1")
	created, err := repo.Upsert(ctx, offer)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, offer.ID)
	assert.False(t, offer.CreatedAt.IsZero())
	assert.Equal(t, offer.CreatedAt, offer.ScrapedAt)
}

func TestOfferRepository_Upsert_RequiresURL(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Upsert(context.Background(), &models.Offer{Title: "No URL"})
	assert.Error(t, err)
}

func TestOfferRepository_Upsert_SameURLRefreshes(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := sampleOffer("https://x/1")
	created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	second := sampleOffer("https://x/1")
	second.Title = "Mid Go Dev"
	created, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// One record, second title, original created_at.
	offers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Mid Go Dev", offers[0].Title)
	assert.Equal(t, first.CreatedAt.Unix(), offers[0].CreatedAt.Unix())
	assert.GreaterOrEqual(t, offers[0].ScrapedAt.Unix(), first.ScrapedAt.Unix())
}

func TestOfferRepository_Upsert_PreservesSeen(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	offer := sampleOffer("https://x/1")
	_, err := repo.Upsert(ctx, offer)
	require.NoError(t, err)

	updated, err := repo.MarkSeen(ctx, []int64{offer.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	refreshed := sampleOffer("https://x/1")
	refreshed.Seen = false
	_, err = repo.Upsert(ctx, refreshed)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.True(t, got.Seen)
}

func TestOfferRepository_GetByID_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetByID(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOfferRepository_ListByIDs(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	a := sampleOffer("https://x/1")
	b := sampleOffer("https://x/2")
	c := sampleOffer("https://x/3")
	for _, o := range []*models.Offer{a, b, c} {
		_, err := repo.Upsert(ctx, o)
		require.NoError(t, err)
	}

	offers, err := repo.ListByIDs(ctx, []int64{a.ID, c.ID})
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	offers, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestOfferRepository_MarkSeen_Monotonic(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	offer := sampleOffer("https://x/1")
	_, err := repo.Upsert(ctx, offer)
	require.NoError(t, err)

	updated, err := repo.MarkSeen(ctx, []int64{offer.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	// A second call still counts the matched row; seen stays true.
	updated, err = repo.MarkSeen(ctx, []int64{offer.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	got, err := repo.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.True(t, got.Seen)
}

func TestOfferRepository_MarkSeen_UnknownIDsIgnored(t *testing.T) {
	repo := setupRepo(t)

	updated, err := repo.MarkSeen(context.Background(), []int64{999})
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	updated, err = repo.MarkSeen(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)
}

func TestOfferRepository_DeleteExpired(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	expired := sampleOffer("https://x/expired")
	expired.ValidUntil = &yesterday
	valid := sampleOffer("https://x/valid")
	valid.ValidUntil = &tomorrow
	unbounded := sampleOffer("https://x/unbounded")

	for _, o := range []*models.Offer{expired, valid, unbounded} {
		_, err := repo.Upsert(ctx, o)
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	offers, err := repo.List(ctx)
	require.NoError(t, err)
	urls := make([]string, 0, len(offers))
	for _, o := range offers {
		urls = append(urls, o.URL)
	}
	assert.ElementsMatch(t, []string{"https://x/valid", "https://x/unbounded"}, urls)
}

func TestOfferRepository_DistinctTechnologies(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	a := sampleOffer("https://x/1")
	a.Technologies = models.StrPtr("Go, SQL")
	b := sampleOffer("https://x/2")
	b.Technologies = models.StrPtr("Docker,Go")
	c := sampleOffer("https://x/3")
	c.Technologies = nil

	for _, o := range []*models.Offer{a, b, c} {
		_, err := repo.Upsert(ctx, o)
		require.NoError(t, err)
	}

	techs, err := repo.DistinctTechnologies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Docker", "Go", "SQL"}, techs)
}
