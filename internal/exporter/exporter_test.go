package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jobsift/jobsift/internal/models"
	"github.com/jobsift/jobsift/internal/testhelpers"
)

func sampleOffer() models.Offer {
	validUntil := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	scraped := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	return models.Offer{
		ID:           7,
		URL:          "https://justjoin.it/job-offer/acme-junior-go",
		Title:        "Junior Go Developer",
		Company:      models.StrPtr("Acme"),
		Location:     models.StrPtr("Kraków"),
		Technologies: models.StrPtr("Go,SQL"),
		SalaryMin:    models.FloatPtr(8000),
		SalaryMax:    models.FloatPtr(11000),
		SalaryPeriod: models.StrPtr("month"),
		WorkType:     models.StrPtr("remote"),
		ValidUntil:   &validUntil,
		Source:       "justjoin_it",
		Seen:         true,
		ScrapedAt:    scraped,
		CreatedAt:    scraped,
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "xlsx"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "job_offers.xlsx", FormatXLSX.Filename())
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, []models.Offer{sampleOffer()}))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	rows, err := cr.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, columns, rows[0])
	row := rows[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "https://justjoin.it/job-offer/acme-junior-go", row[1])
	assert.Equal(t, "Junior Go Developer", row[2])
	assert.Equal(t, "", row[5]) // no description
	assert.Equal(t, "8000", row[7])
	assert.Equal(t, "2026-09-15", row[13])
	assert.Equal(t, "true", row[15])
	assert.Equal(t, "2026-08-30T10:30:00Z", row[16])
}

func TestExportJSON_RoundTripsThroughImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, []models.Offer{sampleOffer()}))

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())
	result, err := im.Import(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 1}, result)

	got := store.byURL["https://justjoin.it/job-offer/acme-junior-go"]
	require.NotNil(t, got)
	assert.Equal(t, "Junior Go Developer", got.Title)
	assert.Equal(t, "Kraków", *got.Location)
	assert.Equal(t, 11000.0, *got.SalaryMax)
	assert.True(t, got.Seen)
	require.NotNil(t, got.ValidUntil)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *got.ValidUntil)
}

func TestExportXLSX_RoundTripsThroughImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatXLSX, []models.Offer{sampleOffer()}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{xlsxSheet}, f.GetSheetList())

	store := newFakeStore()
	im := NewImporter(store, testhelpers.NewTestLogger())
	result, err := im.Import(context.Background(), bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Inserted: 1}, result)

	got := store.byURL["https://justjoin.it/job-offer/acme-junior-go"]
	require.NotNil(t, got)
	assert.Equal(t, "Go,SQL", *got.Technologies)
	assert.Equal(t, 8000.0, *got.SalaryMin)
}

func TestExport_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, Format("pdf"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
