package roster

import (
	"time"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// MONTHLY RULE RESOLVER
// =============================================================================

// RuleResolver expands monthly directives into per-day labels for one
// target month.
type RuleResolver struct {
	Year  int
	Month time.Month
	Facts calendar.Facts
}

// Apply resolves directive into events for a person of the given identity.
// It returns false, leaving events untouched, when the text is not a
// directive or its month number is missing or differs from the target month.
func (r RuleResolver) Apply(directive string, events EventMap, identity Identity) bool {
	d, ok := ParseDirective(directive)
	if !ok {
		return false
	}
	return r.ApplyDirective(d, events, identity)
}

// ApplyDirective is Apply for an already parsed directive.
func (r RuleResolver) ApplyDirective(d Directive, events EventMap, identity Identity) bool {
	if d.Month != int(r.Month) {
		return false
	}
	days := calendar.Month(r.Year, r.Month).Days()

	switch d.Kind {
	case RuleHeartRotation:
		// Day shift all month; holidays and Sat/Sun are declared off and
		// settled by the expander's overlay rules.
		for _, day := range days {
			if r.Facts.IsHoliday(day) || day.IsWeekendDay() {
				events[day] = Leave
			} else {
				events[day] = WorkDay7to3
			}
		}

	case RuleP1:
		for _, day := range days {
			if r.Facts.IsHoliday(day) {
				continue
			}
			switch day.Weekday() {
			case time.Sunday:
				events[day] = WeeklyRest
			case time.Monday, time.Tuesday:
				events[day] = WorkDay7to3
			}
		}

	case RuleP2:
		saturday := PolicyFor(identity).SaturdayRest
		for _, day := range days {
			if r.Facts.IsHoliday(day) {
				continue
			}
			switch day.Weekday() {
			case time.Saturday:
				events[day] = saturday
			case time.Wednesday, time.Thursday, time.Friday:
				events[day] = WorkDay7to3
			}
		}

	default:
		return false
	}
	return true
}
