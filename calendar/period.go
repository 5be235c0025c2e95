package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive date interval
// =============================================================================

// Period is the inclusive interval [Start, End].
type Period struct {
	Start Date
	End   Date
}

// Month returns the period covering every day of year/month.
func Month(year int, month time.Month) Period {
	start := Date{Year: year, Month: month, Day: 1}
	end := FromTime(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
	return Period{Start: start, End: end}
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns all days in the period in ascending order.
func (p Period) Days() []Date {
	if p.End.Before(p.Start) {
		return nil
	}
	days := make([]Date, 0, DaysBetween(p.Start, p.End)+1)
	for current := p.Start; !current.After(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
