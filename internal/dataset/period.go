package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPeriod is returned when a period identifier is neither "YYYY-MM" nor "YYYY".
var ErrInvalidPeriod = errors.New("dataset: invalid period id")

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name for m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// Period is one selectable reporting period. Month is zero for annual periods.
type Period struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Year  int    `json:"year,omitempty"`
	Month int    `json:"month,omitempty"`
}

// Annual reports whether the period is a bare year.
func (p Period) Annual() bool { return p.Month == 0 }

// Display renders "<Label> <Year>", or the year alone for annual periods.
func (p Period) Display() string {
	if p.Year == 0 {
		return p.unparsedLabel()
	}
	if p.Annual() {
		return strconv.Itoa(p.Year)
	}
	label := p.Label
	if label == "" {
		label = MonthName(p.Month)
	}
	return fmt.Sprintf("%s %d", label, p.Year)
}

// ShortLabel renders the chart axis label, e.g. "Ene 26".
func (p Period) ShortLabel() string {
	if p.Year == 0 {
		return p.unparsedLabel()
	}
	if p.Annual() {
		return strconv.Itoa(p.Year)
	}
	label := p.Label
	if label == "" {
		label = MonthName(p.Month)
	}
	runes := []rune(label)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return fmt.Sprintf("%s %02d", string(runes), p.Year%100)
}

func (p Period) unparsedLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

func (p *Period) normalize() error {
	year, month, err := ParsePeriodID(p.ID)
	if err != nil {
		return err
	}
	p.Year, p.Month = year, month
	if p.Label == "" {
		if month == 0 {
			p.Label = strconv.Itoa(year)
		} else {
			p.Label = MonthName(month)
		}
	}
	return nil
}

// NewPeriod builds a normalised period from its identifier.
func NewPeriod(id string) (Period, error) {
	p := Period{ID: strings.TrimSpace(id)}
	if err := p.normalize(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ParsePeriodID splits "YYYY-MM" or "YYYY". Month is zero for annual ids.
func ParsePeriodID(id string) (year, month int, err error) {
	id = strings.TrimSpace(id)
	if len(id) == 4 && isDigits(id) {
		year, _ = strconv.Atoi(id)
		return year, 0, nil
	}
	parts := strings.Split(id, "-")
	if len(parts) == 2 && len(parts[0]) == 4 && len(parts[1]) == 2 && isDigits(parts[0]) && isDigits(parts[1]) {
		year, _ = strconv.Atoi(parts[0])
		month, _ = strconv.Atoi(parts[1])
		if month >= 1 && month <= 12 {
			return year, month, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
}

// FormatPeriodID is the inverse of ParsePeriodID.
func FormatPeriodID(year, month int) string {
	if month == 0 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// PreviousYear returns the identifier one calendar year before id, keeping the month.
func PreviousYear(id string) (string, error) {
	year, month, err := ParsePeriodID(id)
	if err != nil {
		return "", err
	}
	return FormatPeriodID(year-1, month), nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Periods is a list of periods in source order.
type Periods []Period

// Ascending returns a chronologically sorted copy.
func (ps Periods) Ascending() Periods {
	out := make(Periods, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool { return comparePeriods(out[i], out[j]) < 0 })
	return out
}

// Descending returns a newest-first copy.
func (ps Periods) Descending() Periods {
	asc := ps.Ascending()
	out := make(Periods, len(asc))
	for i := range asc {
		out[len(asc)-1-i] = asc[i]
	}
	return out
}

// Find returns the period with the given id.
func (ps Periods) Find(id string) (Period, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// IDs lists the identifiers in slice order.
func (ps Periods) IDs() []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func comparePeriods(a, b Period) int {
	switch {
	case a.Year != b.Year:
		if a.Year < b.Year {
			return -1
		}
		return 1
	case a.Month != b.Month:
		if a.Month < b.Month {
			return -1
		}
		return 1
	default:
		return strings.Compare(a.ID, b.ID)
	}
}
