/*
policy.go - Identity-dependent label policy

PURPOSE:
  Civil-service and contract staff are governed by different statutory rules
  for weekends, holidays, and declared days off. Rather than scattering
  identity checks across the expander and rule resolver, each identity gets a
  LabelPolicy preset describing which label variant applies.

AVAILABLE POLICIES:
  CivilServicePolicy: Sat/Sun -> 例假, declared leave -> 休假, leave never
                      replaces 國定假
  ContractPolicy:     Sat -> 休息日, Sun -> 例假, declared leave -> 特別休假,
                      leave may replace 國定假
  UnknownPolicy:      Weekend defaults like civil service, leave like civil
                      service, but leave may replace 國定假

SEE ALSO:
  - expand.go: Prefill and overlay use these presets
  - rules.go: P2 Saturday label comes from SaturdayRest
*/
package roster

import (
	"time"

	"github.com/warp/roster-engine/calendar"
)

// LabelPolicy describes the label variants for one identity.
type LabelPolicy struct {
	Identity Identity

	// SaturdayRest / SundayRest are the defaults for designated weekend dates.
	SaturdayRest ShiftLabel
	SundayRest   ShiftLabel

	// OtherWeekendRest applies to designated weekend dates that fall on a
	// weekday (make-up rest days). ShiftNone leaves them unassigned.
	OtherWeekendRest ShiftLabel

	// DeclaredLeave is what a raw Leave event becomes after expansion.
	DeclaredLeave ShiftLabel

	// HolidayBeatsLeave keeps 國定假 when leave is declared on a holiday.
	HolidayBeatsLeave bool
}

var (
	CivilServicePolicy = LabelPolicy{
		Identity:          IdentityCivilService,
		SaturdayRest:      WeeklyRest,
		SundayRest:        WeeklyRest,
		OtherWeekendRest:  WeeklyRest,
		DeclaredLeave:     Leave,
		HolidayBeatsLeave: true,
	}

	ContractPolicy = LabelPolicy{
		Identity:          IdentityContract,
		SaturdayRest:      RestDay,
		SundayRest:        WeeklyRest,
		OtherWeekendRest:  ShiftNone,
		DeclaredLeave:     SpecialLeave,
		HolidayBeatsLeave: false,
	}

	UnknownPolicy = LabelPolicy{
		Identity:          IdentityUnknown,
		SaturdayRest:      WeeklyRest,
		SundayRest:        WeeklyRest,
		OtherWeekendRest:  WeeklyRest,
		DeclaredLeave:     Leave,
		HolidayBeatsLeave: false,
	}
)

// PolicyFor returns the preset for id.
func PolicyFor(id Identity) LabelPolicy {
	switch id {
	case IdentityCivilService:
		return CivilServicePolicy
	case IdentityContract:
		return ContractPolicy
	default:
		return UnknownPolicy
	}
}

// WeekendRest returns the default label for a designated weekend date.
func (p LabelPolicy) WeekendRest(d calendar.Date) ShiftLabel {
	switch d.Weekday() {
	case time.Saturday:
		return p.SaturdayRest
	case time.Sunday:
		return p.SundayRest
	default:
		return p.OtherWeekendRest
	}
}
