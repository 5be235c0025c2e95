package config

import (
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/store/sqlite"
)

// OpenSource returns the configured calendar source and a func releasing
// it. A configured database takes precedence over the JSON files.
func (c CalendarConfig) OpenSource(now time.Time) (calendar.Source, func() error, error) {
	if c.DB != "" {
		store, err := sqlite.New(c.DB)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	src := calendar.FileSource{HolidaysPath: c.HolidaysFile, WeekendsPath: c.WeekendsFile}
	if c.DeriveWeekends {
		y := now.Year()
		src.DeriveWeekendYears = []int{y - 1, y, y + 1}
	}
	return src, func() error { return nil }, nil
}
