package roster_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/roster"
)

func TestConvert_ValidatesInput(t *testing.T) {
	ctx := context.Background()

	_, err := roster.Convert(ctx, roster.Input{Year: 2026, Month: 13, Facts: feb2026Facts()})
	assert.ErrorIs(t, err, roster.ErrInvalidPeriod)
	assert.True(t, roster.IsClientError(err))

	_, err = roster.Convert(ctx, roster.Input{Year: 0, Month: time.February, Facts: feb2026Facts()})
	assert.ErrorIs(t, err, roster.ErrInvalidPeriod)

	_, err = roster.Convert(ctx, roster.Input{Year: 2026, Month: time.February})
	assert.ErrorIs(t, err, roster.ErrNoCalendar)
	assert.False(t, roster.IsClientError(err))
}

func TestConvert_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := roster.Convert(ctx, roster.Input{Year: 2026, Month: time.February, Facts: feb2026Facts()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_EndToEnd(t *testing.T) {
	// GIVEN: A civil-service nurse with nights and leave, a contract nurse on
	// P2, and a user ordering that adds a newcomer
	in := roster.Input{
		Year:  2026,
		Month: time.February,
		Tables: roster.SourceTables{
			Primary: []roster.DutyRow{
				{Name: "王小明 N2", RestDays: "2/7、2/16、2/24", Night: "2/10.2/11"},
			},
			Secondary: []roster.DutyRow{
				{Name: "陳小美行助", Remarks: "2月P2"},
			},
		},
		Registry:   registryOf("王小明", "公職", "陳小美", "契約"),
		Facts:      feb2026Facts(),
		StaffOrder: roster.ParseStaffOrder("陳小美\n王小明 HN\n新同仁"),
	}

	// WHEN: Converting
	res, err := roster.Convert(context.Background(), in)
	require.NoError(t, err)

	// THEN: Order follows the user list
	sched := res.Schedule
	assert.Equal(t, []string{"陳小美", "王小明", "新同仁"}, sched.Names)

	wang, _ := sched.Get("王小明")
	assert.Equal(t, roster.WeeklyRest, wang[feb(7)], "leave on Saturday suppressed")
	assert.Equal(t, roster.NationalHoliday, wang[feb(16)], "civil leave on holiday suppressed")
	assert.Equal(t, roster.Leave, wang[feb(24)])
	assert.Equal(t, roster.WorkNight23to7, wang[feb(10)])

	chen, _ := sched.Get("陳小美")
	assert.Equal(t, roster.RestDay, chen[feb(7)])
	assert.Equal(t, roster.WorkDay7to3, chen[feb(4)])
	assert.Equal(t, roster.NationalHoliday, chen[feb(18)])
	assert.Equal(t, []string{"2月P2"}, res.Rules["陳小美"])

	// THEN: Summaries in schedule order with 8h per shift
	require.Len(t, res.Summaries, 3)
	assert.Equal(t, "王小明", res.Summaries[1].Name)
	assert.True(t, decimal.NewFromInt(16).Equal(res.Summaries[1].WorkHours))
	assert.Equal(t, 2, res.Summaries[1].WorkShifts())
	assert.Equal(t, 8, res.Summaries[0].WorkShifts())
	assert.True(t, decimal.NewFromInt(64).Equal(res.Summaries[0].WorkHours))
	assert.True(t, res.Summaries[2].WorkHours.IsZero())
	assert.Equal(t, 0, res.Summaries[2].OffDays())
	assert.True(t, res.Diagnostics.Empty())
}
