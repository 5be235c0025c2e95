/*
Package calendar provides the calendar facts the roster engine is layered on.

PURPOSE:
  Supplies day-granularity dates, month periods, and the externally maintained
  sets of national holidays and designated weekend dates. Everything here is a
  pure lookup: the package never decides what a person works, only what kind of
  day a date is.

KEY CONCEPTS:
  - Date: A calendar day (no time, no timezone). Canonical key "YYYY-MM-DD".
  - Period: An inclusive date interval; a target month is the common case.
  - DateSet: A set of dates loaded from JSON or the calendar store.
  - Facts: The read-only view consumed by the rule resolver and expander.

SEE ALSO:
  - facts.go: Facts interface and StaticFacts snapshot
  - source.go: JSON file loading
  - store/sqlite/sqlite.go: Database-backed calendar source
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day without time or zone
// =============================================================================

// Date is a calendar day. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const layout = "2006-01-02"

// NewDate returns the date for year/month/day and reports whether the
// combination exists (Feb 30 does not).
func NewDate(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// MustDate is NewDate for constants and tests. Panics on impossible dates.
func MustDate(year int, month time.Month, day int) Date {
	d, ok := NewDate(year, month, day)
	if !ok {
		panic(fmt.Sprintf("calendar: invalid date %04d-%02d-%02d", year, month, day))
	}
	return d
}

// ParseDate parses a canonical "YYYY-MM-DD" key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// FromTime truncates t to its calendar day.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }
func (d Date) IsZero() bool           { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date  { return FromTime(d.Time().AddDate(0, 0, n)) }
func (d Date) AddYears(n int) Date { return FromTime(d.Time().AddDate(n, 0, 0)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsSaturday() bool      { return d.Weekday() == time.Saturday }
func (d Date) IsSunday() bool        { return d.Weekday() == time.Sunday }
func (d Date) IsWeekendDay() bool    { return d.IsSaturday() || d.IsSunday() }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText lets Date be used as a JSON object key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the canonical key form.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed number of days from -> to.
func DaysBetween(from, to Date) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}
