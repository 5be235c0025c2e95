package calendar_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/calendar"
)

func TestNewDate_RejectsImpossibleDays(t *testing.T) {
	_, ok := calendar.NewDate(2026, time.February, 30)
	assert.False(t, ok, "Feb 30 does not exist")

	d, ok := calendar.NewDate(2028, time.February, 29)
	assert.True(t, ok, "2028 is a leap year")
	assert.Equal(t, "2028-02-29", d.String())
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := calendar.ParseDate("2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, calendar.MustDate(2026, time.February, 5), d)
	assert.Equal(t, time.Thursday, d.Weekday())

	_, err = calendar.ParseDate("2026/02/05")
	assert.Error(t, err)
}

func TestDate_JSONMapKey(t *testing.T) {
	m := map[calendar.Date]string{calendar.MustDate(2026, time.February, 1): "例假"}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2026-02-01":"例假"}`, string(b))
}

func TestMonth_Days(t *testing.T) {
	feb := calendar.Month(2026, time.February)
	days := feb.Days()

	assert.Len(t, days, 28)
	assert.Equal(t, 28, feb.Len())
	assert.Equal(t, calendar.MustDate(2026, time.February, 1), days[0])
	assert.Equal(t, calendar.MustDate(2026, time.February, 28), days[27])
	assert.True(t, feb.Contains(calendar.MustDate(2026, time.February, 14)))
	assert.False(t, feb.Contains(calendar.MustDate(2026, time.March, 1)))
}

func TestPeriod_DaysCrossYear(t *testing.T) {
	p := calendar.Period{
		Start: calendar.MustDate(2025, time.December, 30),
		End:   calendar.MustDate(2026, time.January, 2),
	}
	assert.Len(t, p.Days(), 4)
}

func TestDeriveWeekends(t *testing.T) {
	set := calendar.DeriveWeekends(2026)
	feb := set.In(calendar.Month(2026, time.February))

	// Feb 2026 starts on a Sunday: 1,7,8,14,15,21,22,28
	require.Len(t, feb, 8)
	assert.Equal(t, calendar.MustDate(2026, time.February, 1), feb[0])
	for _, d := range feb {
		assert.True(t, d.IsWeekendDay(), d.String())
	}
}

func TestFileSource_LoadFacts(t *testing.T) {
	dir := t.TempDir()
	holidays := filepath.Join(dir, "holidays.json")
	require.NoError(t, os.WriteFile(holidays, []byte(`["2026-02-16","2026-02-17"]`), 0o644))

	src := calendar.FileSource{
		HolidaysPath:       holidays,
		WeekendsPath:       filepath.Join(dir, "missing.json"),
		DeriveWeekendYears: []int{2026},
	}
	facts, err := src.LoadFacts(context.Background())
	require.NoError(t, err)

	assert.True(t, facts.IsHoliday(calendar.MustDate(2026, time.February, 16)))
	assert.False(t, facts.IsHoliday(calendar.MustDate(2026, time.February, 18)))
	assert.True(t, facts.IsWeekend(calendar.MustDate(2026, time.February, 7)), "derived weekend")
}

func TestFileSource_MissingFilesAreEmpty(t *testing.T) {
	facts, err := calendar.FileSource{HolidaysPath: "/nonexistent/h.json"}.LoadFacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, facts.Holidays)
	assert.Empty(t, facts.Weekends)
}

func TestDecodeDateSet_Malformed(t *testing.T) {
	_, err := calendar.DecodeDateSet([]byte(`["2026-02-16","soon"]`))
	assert.Error(t, err)

	_, err = calendar.DecodeDateSet([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}
