/*
expand.go - Daily Expander

PURPOSE:
  Produces the final person -> date -> label table. Every person gets every
  date of the target month.

TWO PHASES:
  1. Prefill calendar defaults:
       national holiday          -> 國定假
       designated weekend date   -> identity policy (例假 / 休息日)
       anything else             -> unassigned
  2. Overlay the person's EventMap. Concrete shifts and rule outputs always
     win. A raw Leave ("休假") is special:
       - on a Saturday or Sunday it is dropped; the weekend default stands
       - for civil-service staff on a national holiday it is dropped
       - otherwise it becomes the identity's declared-leave label
         (特別休假 for contract staff, 休假 for everyone else)

  The same textual day off means different things depending on identity and
  on whether a stronger default already governs the date, which is why the
  overlay needs explicit suppression rules.

SEE ALSO:
  - policy.go: LabelPolicy presets
  - assemble.go: Produces the EventMaps
*/
package roster

import (
	"time"

	"github.com/warp/roster-engine/calendar"
)

// Expander expands EventMaps into a DailySchedule for one month.
type Expander struct {
	Year  int
	Month time.Month
	Facts calendar.Facts
}

// Expand builds the schedule for names in order. Names missing from events
// get calendar defaults only.
func (e Expander) Expand(names []string, events map[string]EventMap, registry *IdentityRegistry) *DailySchedule {
	sched := NewDailySchedule(e.Year, e.Month)
	for _, name := range names {
		sched.set(name, e.ExpandPerson(events[name], registry.Lookup(name)))
	}
	return sched
}

// ExpandPerson applies both phases for one person.
func (e Expander) ExpandPerson(events EventMap, identity Identity) PersonSchedule {
	policy := PolicyFor(identity)
	month := calendar.Month(e.Year, e.Month)
	out := make(PersonSchedule, month.Len())

	for _, d := range month.Days() {
		out[d] = e.prefill(d, policy)
	}

	for d, label := range events {
		if !month.Contains(d) {
			continue
		}
		if label != Leave {
			out[d] = label
			continue
		}
		if d.IsWeekendDay() {
			continue
		}
		if policy.HolidayBeatsLeave && e.Facts.IsHoliday(d) {
			continue
		}
		out[d] = policy.DeclaredLeave
	}
	return out
}

func (e Expander) prefill(d calendar.Date, policy LabelPolicy) ShiftLabel {
	if e.Facts.IsHoliday(d) {
		return NationalHoliday
	}
	if e.Facts.IsWeekend(d) {
		return policy.WeekendRest(d)
	}
	return ShiftNone
}
