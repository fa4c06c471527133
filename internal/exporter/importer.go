package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
)

// Store is the slice of the offer repository the importer needs.
type Store interface {
	Upsert(ctx context.Context, offer *models.Offer) (bool, error)
}

// ImportResult counts what happened to each record of an import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Rejected int `json:"rejected"`
}

// Importer parses interchange documents and routes the records through the
// deduplicating store. Records colliding on url refresh the stored offer
// rather than being skipped.
type Importer struct {
	store  Store
	logger logger.Logger
}

func NewImporter(store Store, log logger.Logger) *Importer {
	return &Importer{store: store, logger: log}
}

// Import reads a document in the given format and upserts every valid
// record. Records without a url or title are rejected and counted, never
// failing the whole import. A document that cannot be parsed at all is an
// error.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format) (*ImportResult, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = decodeJSON(r)
	case FormatCSV:
		records, err = decodeCSV(r)
	case FormatXLSX:
		records, err = decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := range records {
		offer, ok := records[i].toOffer()
		if !ok {
			result.Rejected++
			continue
		}
		created, upsertErr := im.store.Upsert(ctx, offer)
		if upsertErr != nil {
			im.logger.Warn("import record failed",
				logger.String("url", offer.URL),
				logger.Error(upsertErr))
			result.Rejected++
			continue
		}
		if created {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

// record is the permissive wire form of an offer: dates and numbers arrive
// as strings from csv/xlsx and in several shapes from hand-written json.
type record struct {
	URL            string       `json:"url"`
	Title          string       `json:"title"`
	Company        *string      `json:"company"`
	Location       *string      `json:"location"`
	Description    *string      `json:"description"`
	Technologies   *string      `json:"technologies"`
	SalaryMin      *float64     `json:"salary_min"`
	SalaryMax      *float64     `json:"salary_max"`
	SalaryPeriod   *string      `json:"salary_period"`
	WorkType       *string      `json:"work_type"`
	ContractType   *string      `json:"contract_type"`
	EmploymentType *string      `json:"employment_type"`
	ValidUntil     string       `json:"valid_until"`
	Source         string       `json:"source"`
	Seen           flexibleBool `json:"seen"`
}

func (rec *record) toOffer() (*models.Offer, bool) {
	url := strings.TrimSpace(rec.URL)
	title := strings.TrimSpace(rec.Title)
	if url == "" || title == "" {
		return nil, false
	}

	source := strings.TrimSpace(rec.Source)
	if source == "" {
		source = "imported"
	}

	return &models.Offer{
		URL:            url,
		Title:          title,
		Company:        rec.Company,
		Location:       rec.Location,
		Description:    rec.Description,
		Technologies:   rec.Technologies,
		SalaryMin:      rec.SalaryMin,
		SalaryMax:      rec.SalaryMax,
		SalaryPeriod:   rec.SalaryPeriod,
		WorkType:       rec.WorkType,
		ContractType:   rec.ContractType,
		EmploymentType: rec.EmploymentType,
		ValidUntil:     parseFlexibleDate(rec.ValidUntil),
		Source:         source,
		Seen:           bool(rec.Seen),
	}, true
}

// flexibleBool accepts true/false, "true"/"false", "1"/"yes" and friends.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case bool:
		*b = flexibleBool(val)
	case string:
		*b = flexibleBool(parseBoolString(val))
	case float64:
		*b = flexibleBool(val != 0)
	case nil:
		*b = false
	default:
		return fmt.Errorf("cannot parse %v as bool", v)
	}
	return nil
}

func parseBoolString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseFlexibleDate accepts RFC3339 timestamps (Z-suffixed or offset) and
// bare YYYY-MM-DD dates.
func parseFlexibleDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func decodeJSON(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return records, nil
}

func decodeCSV(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var records []record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		records = append(records, recordFromRow(header, row))
	}
	return records, nil
}

func decodeXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(header, row))
	}
	return records, nil
}

func recordFromRow(header, row []string) record {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			fields[strings.TrimSpace(strings.ToLower(name))] = row[i]
		}
	}

	return record{
		URL:            fields["url"],
		Title:          fields["title"],
		Company:        models.StrPtr(fields["company"]),
		Location:       models.StrPtr(fields["location"]),
		Description:    models.StrPtr(fields["description"]),
		Technologies:   models.StrPtr(fields["technologies"]),
		SalaryMin:      parseFloatField(fields["salary_min"]),
		SalaryMax:      parseFloatField(fields["salary_max"]),
		SalaryPeriod:   models.StrPtr(fields["salary_period"]),
		WorkType:       models.StrPtr(fields["work_type"]),
		ContractType:   models.StrPtr(fields["contract_type"]),
		EmploymentType: models.StrPtr(fields["employment_type"]),
		ValidUntil:     fields["valid_until"],
		Source:         fields["source"],
		Seen:           flexibleBool(parseBoolString(fields["seen"])),
	}
}

func parseFloatField(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
