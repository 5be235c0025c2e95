package calendar

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// DATE SET
// =============================================================================

// DateSet is an unordered set of dates.
type DateSet map[Date]struct{}

// NewDateSet builds a set from dates.
func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// ParseDateSet builds a set from canonical date keys. Malformed keys are
// returned separately so callers can report them.
func ParseDateSet(keys []string) (DateSet, []string) {
	s := make(DateSet, len(keys))
	var bad []string
	for _, k := range keys {
		d, err := ParseDate(k)
		if err != nil {
			bad = append(bad, k)
			continue
		}
		s[d] = struct{}{}
	}
	return s, bad
}

func (s DateSet) Contains(d Date) bool {
	_, ok := s[d]
	return ok
}

func (s DateSet) Add(d Date) { s[d] = struct{}{} }

// Sorted returns the dates in ascending order.
func (s DateSet) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// In returns the sorted dates that fall inside p.
func (s DateSet) In(p Period) []Date {
	var out []Date
	for _, d := range s.Sorted() {
		if p.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// DeriveWeekends returns every Saturday and Sunday of the given years. Used
// when no weekend file is maintained for the ward.
func DeriveWeekends(years ...int) DateSet {
	s := make(DateSet)
	for _, y := range years {
		p := Period{Start: Date{Year: y, Month: time.January, Day: 1}, End: Date{Year: y, Month: time.December, Day: 31}}
		for _, d := range p.Days() {
			if d.IsWeekendDay() {
				s.Add(d)
			}
		}
	}
	return s
}

// =============================================================================
// FACTS - Read-only calendar view
// =============================================================================

// Facts answers what kind of day a date is. Implementations must be safe
// for concurrent readers.
type Facts interface {
	// IsHoliday reports whether d is a national holiday.
	IsHoliday(d Date) bool

	// IsWeekend reports whether d is a designated weekend/rest date.
	IsWeekend(d Date) bool
}

// StaticFacts is an immutable snapshot of both date sets.
type StaticFacts struct {
	Holidays DateSet
	Weekends DateSet
}

// NewStaticFacts creates a snapshot. Nil sets are treated as empty.
func NewStaticFacts(holidays, weekends DateSet) *StaticFacts {
	if holidays == nil {
		holidays = DateSet{}
	}
	if weekends == nil {
		weekends = DateSet{}
	}
	return &StaticFacts{Holidays: holidays, Weekends: weekends}
}

func (f *StaticFacts) IsHoliday(d Date) bool { return f.Holidays.Contains(d) }
func (f *StaticFacts) IsWeekend(d Date) bool { return f.Weekends.Contains(d) }

// HolidaysIn returns the holidays inside p, ascending.
func (f *StaticFacts) HolidaysIn(p Period) []Date { return f.Holidays.In(p) }

// WeekendsIn returns the weekend dates inside p, ascending.
func (f *StaticFacts) WeekendsIn(p Period) []Date { return f.Weekends.In(p) }

// Compile-time check
var _ Facts = (*StaticFacts)(nil)

// Source loads a fresh snapshot. Implemented by FileSource and the SQLite
// calendar store.
type Source interface {
	LoadFacts(ctx context.Context) (*StaticFacts, error)
}
