package roster_test

import (
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(month time.Month, day int) calendar.Date {
	return calendar.MustDate(2026, month, day)
}

func feb(day int) calendar.Date {
	return date(time.February, day)
}

// feb2026Facts: Lunar New Year 2/16-2/20 plus 2/27, ordinary Sat/Sun weekends.
func feb2026Facts() *calendar.StaticFacts {
	holidays := calendar.NewDateSet(feb(16), feb(17), feb(18), feb(19), feb(20), feb(27))
	return calendar.NewStaticFacts(holidays, calendar.DeriveWeekends(2026))
}

func registryOf(pairs ...string) *roster.IdentityRegistry {
	r := roster.NewIdentityRegistry()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Add(pairs[i], pairs[i+1])
	}
	return r
}

func countLabel(p roster.PersonSchedule, label roster.ShiftLabel) int {
	n := 0
	for _, l := range p {
		if l == label {
			n++
		}
	}
	return n
}
