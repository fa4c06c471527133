// Package models defines the core data types shared across jobsift.
package models

import (
	"strings"
	"time"
)

// TechDelimiter separates entries in the Technologies field.
const TechDelimiter = ","

// Offer represents a scraped job posting. The URL is the dedup identity:
// two offers with the same URL are the same posting regardless of which
// scrape run produced them.
type Offer struct {
	ID             int64      `db:"id"              json:"id"`
	URL            string     `db:"url"             json:"url"`
	Title          string     `db:"title"           json:"title"`
	Company        *string    `db:"company"         json:"company"`
	Location       *string    `db:"location"        json:"location"`
	Description    *string    `db:"description"     json:"description"`
	Technologies   *string    `db:"technologies"    json:"technologies"`
	SalaryMin      *float64   `db:"salary_min"      json:"salary_min"`
	SalaryMax      *float64   `db:"salary_max"      json:"salary_max"`
	SalaryPeriod   *string    `db:"salary_period"   json:"salary_period"`
	WorkType       *string    `db:"work_type"       json:"work_type"`
	ContractType   *string    `db:"contract_type"   json:"contract_type"`
	EmploymentType *string    `db:"employment_type" json:"employment_type"`
	ValidUntil     *time.Time `db:"valid_until"     json:"valid_until"`
	Source         string     `db:"source"          json:"source"`
	Seen           bool       `db:"seen"            json:"seen"`
	ScrapedAt      time.Time  `db:"scraped_at"      json:"scraped_at"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
}

// TechList splits the Technologies field into trimmed entries.
// Empty entries are dropped; a nil field yields an empty list.
func (o *Offer) TechList() []string {
	if o.Technologies == nil || *o.Technologies == "" {
		return nil
	}
	parts := strings.Split(*o.Technologies, TechDelimiter)
	techs := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			techs = append(techs, t)
		}
	}
	return techs
}

// SearchText returns the lowercased concatenation of title, company and
// technologies, the haystack the keyword filters match against.
func (o *Offer) SearchText() string {
	var b strings.Builder
	b.WriteString(o.Title)
	b.WriteString(" ")
	if o.Company != nil {
		b.WriteString(*o.Company)
	}
	b.WriteString(" ")
	if o.Technologies != nil {
		b.WriteString(*o.Technologies)
	}
	return strings.ToLower(b.String())
}

// StrPtr returns a pointer to s, or nil when s is empty.
// Adapters use it to leave unknown fields null rather than empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FloatPtr returns a pointer to f, or nil when f is zero.
func FloatPtr(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}
