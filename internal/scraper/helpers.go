package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NormalizeURL strips the query string and fragment so that tracking
// parameters never split one posting into several identities.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var (
	salaryRangeRe  = regexp.MustCompile(`(\d[\d\s.,]*)\s*[-–]\s*(\d[\d\s.,]*)`)
	salarySingleRe = regexp.MustCompile(`(\d[\d\s.,]*)`)
	// "12-16k" and "12k-16k" both mean thousands for both ends.
	salaryKRangeRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*k?\s*[-–]\s*(\d+(?:[.,]\d+)?)\s*k`)
	salaryKRe      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*k\b`)
)

// ExtractSalary pulls a numeric range out of free-form salary text such as
// "10 000 – 15 000 zł netto (+VAT) / mies." or "12-16k PLN". Values it
// cannot determine come back nil.
func ExtractSalary(text string) (min, max *float64, period *string) {
	text = CleanText(text)
	if text == "" {
		return nil, nil, nil
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "/h") || strings.Contains(lower, "godz") || strings.Contains(lower, "hour"):
		period = models.StrPtr("hour")
	case strings.Contains(lower, "mies") || strings.Contains(lower, "month") || strings.Contains(lower, "mth"):
		period = models.StrPtr("month")
	}

	if m := salaryKRangeRe.FindStringSubmatch(text); m != nil {
		lo := parseSalaryNumber(m[1]) * 1000
		hi := parseSalaryNumber(m[2]) * 1000
		return models.FloatPtr(lo), models.FloatPtr(hi), period
	}
	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		lo := parseSalaryNumber(m[1])
		hi := parseSalaryNumber(m[2])
		if lo > 0 && hi > 0 {
			return models.FloatPtr(lo), models.FloatPtr(hi), period
		}
	}
	if m := salaryKRe.FindStringSubmatch(text); m != nil {
		v := parseSalaryNumber(m[1]) * 1000
		return models.FloatPtr(v), models.FloatPtr(v), period
	}
	if m := salarySingleRe.FindStringSubmatch(text); m != nil {
		v := parseSalaryNumber(m[1])
		if v > 0 {
			return models.FloatPtr(v), models.FloatPtr(v), period
		}
	}
	return nil, nil, period
}

func parseSalaryNumber(s string) float64 {
	s = strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(strings.TrimSpace(s))
	// "10.000" style thousand separators leave a trailing group of three.
	if i := strings.LastIndex(s, "."); i != -1 && len(s)-i-1 == 3 {
		s = strings.Replace(s, ".", "", -1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var validUntilRe = regexp.MustCompile(`(?:to|do)\s+(\d+)\s+([a-ząćęłńóśźż]+)`)

var monthNames = map[string]time.Month{
	"sty": time.January, "stycznia": time.January, "styczeń": time.January,
	"lut": time.February, "lutego": time.February, "luty": time.February,
	"mar": time.March, "marca": time.March, "marzec": time.March,
	"kwi": time.April, "kwietnia": time.April, "kwiecień": time.April,
	"maj": time.May, "maja": time.May,
	"cze": time.June, "czerwca": time.June, "czerwiec": time.June,
	"lip": time.July, "lipca": time.July, "lipiec": time.July,
	"sie": time.August, "sierpnia": time.August, "sierpień": time.August,
	"wrz": time.September, "września": time.September, "wrzesień": time.September,
	"paź": time.October, "października": time.October, "październik": time.October,
	"lis": time.November, "listopada": time.November, "listopad": time.November,
	"gru": time.December, "grudnia": time.December, "grudzień": time.December,
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseValidUntil reads expiry phrases such as "do 19 lut" or "to 21 Feb".
// A day/month already behind `now` rolls over to next year.
func ParseValidUntil(text string, now time.Time) *time.Time {
	m := validUntilRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	month, ok := monthNames[strings.TrimSpace(m[2])]
	if !ok {
		return nil
	}

	year := now.Year()
	if month < now.Month() || (month == now.Month() && day < now.Day()) {
		year++
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return nil
	}
	return &t
}

func joinTechs(techs []string) *string {
	seen := make(map[string]struct{}, len(techs))
	out := make([]string, 0, len(techs))
	for _, t := range techs {
		t = CleanText(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return models.StrPtr(strings.Join(out, models.TechDelimiter))
}
