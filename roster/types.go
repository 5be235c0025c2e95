/*
Package roster turns a ward's hand-maintained duty roster into a day-by-day
shift table.

PURPOSE:
  The source roster is a spreadsheet where each staff row carries free-text
  date annotations ("1/15.1/16", "1/12-1/18", "補1/1 (原1/17白班)", "2月大P1").
  This package parses those annotations, resolves the named monthly rules,
  and layers the result over calendar defaults with identity-dependent
  policy (civil-service and contract staff label weekends and leave
  differently).

PIPELINE:
  1. Token Parser (tokens.go):        cell text -> (date, label) pairs or a directive
  2. Monthly Rule Resolver (rules.go): directive -> labels for the whole month
  3. Event Assembler (assemble.go):    rows -> person -> EventMap
  4. Daily Expander (expand.go):       EventMap + calendar -> DailySchedule
  5. Convert (convert.go):             the four steps plus ordering and summaries

KEY CONCEPTS IN THIS FILE (types.go):
  - ShiftLabel: Closed set of per-day labels and their display strings
  - Identity: Employment category driving weekend/leave policy
  - EventMap: Declared annotations for one person
  - DailySchedule: Final person -> date -> label table with full coverage

SEE ALSO:
  - policy.go: Identity-dependent label variants
  - names.go: The one name normalization used at every boundary
  - calendar/facts.go: Holiday and weekend lookups
*/
package roster

import (
	"encoding/json"
	"time"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// SHIFT LABEL
// =============================================================================

// ShiftLabel is the label occupying one (person, date) slot.
type ShiftLabel string

const (
	ShiftNone        ShiftLabel = ""
	WorkDay7to3      ShiftLabel = "work_day"
	WorkEvening3to11 ShiftLabel = "work_evening"
	WorkNight23to7   ShiftLabel = "work_night"
	Leave            ShiftLabel = "leave"
	SpecialLeave     ShiftLabel = "special_leave"
	WeeklyRest       ShiftLabel = "weekly_rest"
	RestDay          ShiftLabel = "rest_day"
	NationalHoliday  ShiftLabel = "national_holiday"
)

// AllLabels lists every assignable label in display order.
var AllLabels = []ShiftLabel{
	WorkDay7to3, WorkEvening3to11, WorkNight23to7,
	Leave, SpecialLeave, WeeklyRest, RestDay, NationalHoliday,
}

var displayNames = map[ShiftLabel]string{
	ShiftNone:        "",
	WorkDay7to3:      "7~3",
	WorkEvening3to11: "3~11",
	WorkNight23to7:   "23~7",
	Leave:            "休假",
	SpecialLeave:     "特別休假",
	WeeklyRest:       "例假",
	RestDay:          "休息日",
	NationalHoliday:  "國定假",
}

var labelsByDisplay = func() map[string]ShiftLabel {
	m := make(map[string]ShiftLabel, len(displayNames))
	for l, s := range displayNames {
		m[s] = l
	}
	return m
}()

// Display returns the string written into the output sheet.
func (l ShiftLabel) Display() string { return displayNames[l] }

// IsWork reports whether the label is a worked shift.
func (l ShiftLabel) IsWork() bool {
	return l == WorkDay7to3 || l == WorkEvening3to11 || l == WorkNight23to7
}

// IsOff reports whether the label is any kind of day off.
func (l ShiftLabel) IsOff() bool {
	return l != ShiftNone && !l.IsWork()
}

// ParseShiftLabel maps a display string back to its label.
func ParseShiftLabel(display string) (ShiftLabel, bool) {
	l, ok := labelsByDisplay[display]
	return l, ok
}

// =============================================================================
// IDENTITY
// =============================================================================

// Identity is the employment category of a person.
type Identity string

const (
	IdentityUnknown      Identity = ""
	IdentityCivilService Identity = "civil_service"
	IdentityContract     Identity = "contract"
)

// Category strings used in the identity sheet.
const (
	CategoryCivilService = "公職"
	CategoryContract     = "契約"
)

// ParseIdentity maps a category string to an Identity. Unrecognized
// categories return false.
func ParseIdentity(category string) (Identity, bool) {
	switch category {
	case CategoryCivilService:
		return IdentityCivilService, true
	case CategoryContract:
		return IdentityContract, true
	}
	return IdentityUnknown, false
}

// Category returns the identity-sheet string, empty for Unknown.
func (i Identity) Category() string {
	switch i {
	case IdentityCivilService:
		return CategoryCivilService
	case IdentityContract:
		return CategoryContract
	}
	return ""
}

// =============================================================================
// EVENTS AND SCHEDULES
// =============================================================================

// EventMap holds the labels declared for one person, keyed by date. Calendar
// defaults never appear here.
type EventMap map[calendar.Date]ShiftLabel

// MonthlyRuleRecord maps a person to the directives resolved for them in the
// target month. Only the renderer reads it.
type MonthlyRuleRecord map[string][]string

// Has reports whether any directive was resolved for name.
func (r MonthlyRuleRecord) Has(name string) bool { return len(r[name]) > 0 }

// PersonSchedule holds one label per date of the target month. Dates with
// nothing assigned carry ShiftNone.
type PersonSchedule map[calendar.Date]ShiftLabel

// DailySchedule is the principal output: every person, every date.
type DailySchedule struct {
	Year   int
	Month  time.Month
	Names  []string
	People map[string]PersonSchedule
}

// NewDailySchedule returns an empty schedule for year/month.
func NewDailySchedule(year int, month time.Month) *DailySchedule {
	return &DailySchedule{
		Year:   year,
		Month:  month,
		People: make(map[string]PersonSchedule),
	}
}

// Period returns the target month.
func (s *DailySchedule) Period() calendar.Period { return calendar.Month(s.Year, s.Month) }

// Get returns a person's schedule and whether they are present.
func (s *DailySchedule) Get(name string) (PersonSchedule, bool) {
	p, ok := s.People[name]
	return p, ok
}

// blank returns a schedule with every date of the month set to ShiftNone.
func (s *DailySchedule) blank() PersonSchedule {
	days := s.Period().Days()
	p := make(PersonSchedule, len(days))
	for _, d := range days {
		p[d] = ShiftNone
	}
	return p
}

// set adds or replaces a person, keeping first-seen order.
func (s *DailySchedule) set(name string, p PersonSchedule) {
	if _, ok := s.People[name]; !ok {
		s.Names = append(s.Names, name)
	}
	s.People[name] = p
}

// MarshalJSON renders name -> {ISO date -> display string}. Names keep
// schedule order via a parallel "order" field.
func (s *DailySchedule) MarshalJSON() ([]byte, error) {
	people := make(map[string]map[string]string, len(s.People))
	for name, p := range s.People {
		days := make(map[string]string, len(p))
		for d, l := range p {
			days[d.String()] = l.Display()
		}
		people[name] = days
	}
	return json.Marshal(struct {
		Year   int                          `json:"year"`
		Month  int                          `json:"month"`
		Order  []string                     `json:"order"`
		People map[string]map[string]string `json:"schedule"`
	}{s.Year, int(s.Month), s.Names, people})
}
