// Package exporter moves offers in and out of the system as json, csv or
// xlsx documents.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jobsift/jobsift/internal/models"
)

// Format identifies a supported interchange format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for format strings outside json/csv/xlsx.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat validates a format path segment.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatXLSX:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Filename returns the attachment name for the format.
func (f Format) Filename() string {
	return "job_offers." + string(f)
}

// utf8BOM keeps Excel from mangling Polish characters in csv exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const xlsxSheet = "Offers"

var columns = []string{
	"id", "url", "title", "company", "location", "description", "technologies",
	"salary_min", "salary_max", "salary_period", "work_type", "contract_type",
	"employment_type", "valid_until", "source", "seen", "scraped_at", "created_at",
}

// Export writes the offers to w in the given format.
func Export(w io.Writer, format Format, offers []models.Offer) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, offers)
	case FormatCSV:
		return exportCSV(w, offers)
	case FormatXLSX:
		return exportXLSX(w, offers)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func exportJSON(w io.Writer, offers []models.Offer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(offers); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, offers []models.Offer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range offers {
		if err := cw.Write(offerRow(&offers[i])); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func exportXLSX(w io.Writer, offers []models.Offer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, cell, name); err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
	}
	for rowIdx := range offers {
		for colIdx, value := range offerRow(&offers[rowIdx]) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func offerRow(offer *models.Offer) []string {
	return []string{
		strconv.FormatInt(offer.ID, 10),
		offer.URL,
		offer.Title,
		strVal(offer.Company),
		strVal(offer.Location),
		strVal(offer.Description),
		strVal(offer.Technologies),
		floatVal(offer.SalaryMin),
		floatVal(offer.SalaryMax),
		strVal(offer.SalaryPeriod),
		strVal(offer.WorkType),
		strVal(offer.ContractType),
		strVal(offer.EmploymentType),
		dateVal(offer.ValidUntil),
		offer.Source,
		strconv.FormatBool(offer.Seen),
		offer.ScrapedAt.UTC().Format(time.RFC3339),
		offer.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatVal(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func dateVal(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
