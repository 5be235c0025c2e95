package roster_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

func febExpander() roster.Expander {
	return roster.Expander{Year: 2026, Month: time.February, Facts: feb2026Facts()}
}

func TestExpand_Coverage(t *testing.T) {
	// GIVEN: People with and without events
	// THEN: Every person has every date of the month
	reg := registryOf("王小明", "公職", "陳小美", "契約")
	events := map[string]roster.EventMap{
		"王小明": {feb(3): roster.WorkNight23to7},
	}
	sched := febExpander().Expand([]string{"王小明", "陳小美", "林大同"}, events, reg)

	assert.Equal(t, []string{"王小明", "陳小美", "林大同"}, sched.Names)
	for _, name := range sched.Names {
		p, ok := sched.Get(name)
		require.True(t, ok, name)
		assert.Len(t, p, 28, name)
		for _, d := range sched.Period().Days() {
			assert.Contains(t, p, d)
		}
	}
}

func TestExpand_EndToEndUnknownIdentity(t *testing.T) {
	// GIVEN: 王小明, identity Unknown, 7~3 on Thursday 2/5
	// THEN: 2/5 stays 7~3, weekends 例假, holidays 國定假, nothing else
	facts := feb2026Facts()
	p := febExpander().ExpandPerson(roster.EventMap{feb(5): roster.WorkDay7to3}, roster.IdentityUnknown)

	for _, d := range calendar.Month(2026, time.February).Days() {
		switch {
		case d == feb(5):
			assert.Equal(t, roster.WorkDay7to3, p[d])
		case facts.IsHoliday(d):
			assert.Equal(t, roster.NationalHoliday, p[d], d.String())
		case facts.IsWeekend(d):
			assert.Equal(t, roster.WeeklyRest, p[d], d.String())
		default:
			assert.Equal(t, roster.ShiftNone, p[d], d.String())
		}
	}
}

func TestExpand_WeekendDefaultsByIdentity(t *testing.T) {
	civil := febExpander().ExpandPerson(nil, roster.IdentityCivilService)
	assert.Equal(t, roster.WeeklyRest, civil[feb(7)])
	assert.Equal(t, roster.WeeklyRest, civil[feb(8)])

	contract := febExpander().ExpandPerson(nil, roster.IdentityContract)
	assert.Equal(t, roster.RestDay, contract[feb(7)])
	assert.Equal(t, roster.WeeklyRest, contract[feb(8)])
	assert.Equal(t, 4, countLabel(contract, roster.RestDay))
	assert.Equal(t, 6, countLabel(contract, roster.NationalHoliday))
}

func TestExpand_LeaveOnWeekendSuppressed(t *testing.T) {
	// GIVEN: Raw leave declared on Saturday 2/7
	// THEN: The weekend default stands
	events := roster.EventMap{feb(7): roster.Leave}

	civil := febExpander().ExpandPerson(events, roster.IdentityCivilService)
	assert.Equal(t, roster.WeeklyRest, civil[feb(7)])

	contract := febExpander().ExpandPerson(events, roster.IdentityContract)
	assert.Equal(t, roster.RestDay, contract[feb(7)])
}

func TestExpand_LeaveOnHoliday(t *testing.T) {
	// GIVEN: Raw leave on Monday 2/16, a national holiday
	events := roster.EventMap{feb(16): roster.Leave}

	// THEN: Civil service keeps 國定假
	civil := febExpander().ExpandPerson(events, roster.IdentityCivilService)
	assert.Equal(t, roster.NationalHoliday, civil[feb(16)])

	// THEN: Contract staff get 特別休假
	contract := febExpander().ExpandPerson(events, roster.IdentityContract)
	assert.Equal(t, roster.SpecialLeave, contract[feb(16)])

	// THEN: Unknown identity gets plain 休假
	unknown := febExpander().ExpandPerson(events, roster.IdentityUnknown)
	assert.Equal(t, roster.Leave, unknown[feb(16)])
}

func TestExpand_LeaveOnOrdinaryDay(t *testing.T) {
	events := roster.EventMap{feb(2): roster.Leave}
	assert.Equal(t, roster.Leave, febExpander().ExpandPerson(events, roster.IdentityCivilService)[feb(2)])
	assert.Equal(t, roster.SpecialLeave, febExpander().ExpandPerson(events, roster.IdentityContract)[feb(2)])
}

func TestExpand_ShiftsOverrideDefaults(t *testing.T) {
	// GIVEN: A night shift on a Saturday and a day shift on a holiday
	events := roster.EventMap{
		feb(7):  roster.WorkNight23to7,
		feb(16): roster.WorkDay7to3,
	}
	p := febExpander().ExpandPerson(events, roster.IdentityCivilService)
	assert.Equal(t, roster.WorkNight23to7, p[feb(7)])
	assert.Equal(t, roster.WorkDay7to3, p[feb(16)])
}

func TestExpand_EventsOutsideMonthIgnored(t *testing.T) {
	events := roster.EventMap{
		date(time.January, 17): roster.Leave,
		date(time.March, 2):    roster.WorkDay7to3,
	}
	p := febExpander().ExpandPerson(events, roster.IdentityCivilService)
	assert.Len(t, p, 28)
	assert.NotContains(t, p, date(time.January, 17))
	assert.NotContains(t, p, date(time.March, 2))
}

func TestExpand_WeekdayRestDate(t *testing.T) {
	// GIVEN: A designated rest date that falls on Monday 2/2
	facts := calendar.NewStaticFacts(nil, calendar.NewDateSet(feb(2)))
	e := roster.Expander{Year: 2026, Month: time.February, Facts: facts}

	assert.Equal(t, roster.WeeklyRest, e.ExpandPerson(nil, roster.IdentityCivilService)[feb(2)])
	assert.Equal(t, roster.ShiftNone, e.ExpandPerson(nil, roster.IdentityContract)[feb(2)])
	assert.Equal(t, roster.ShiftNone, e.ExpandPerson(nil, roster.IdentityCivilService)[feb(7)],
		"only designated dates get weekend defaults")
}

func TestDailySchedule_MarshalJSON(t *testing.T) {
	sched := febExpander().Expand([]string{"王小明"}, map[string]roster.EventMap{
		"王小明": {feb(5): roster.WorkDay7to3},
	}, nil)

	b, err := sched.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"2026-02-05":"7~3"`)
	assert.Contains(t, string(b), `"2026-02-16":"國定假"`)
	assert.Contains(t, string(b), `"order":["王小明"]`)
}
