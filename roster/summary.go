package roster

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT SUMMARY - Per-person totals for the rendered sheet
// =============================================================================

// ShiftHours is the paid length of each worked shift.
var ShiftHours = map[ShiftLabel]decimal.Decimal{
	WorkDay7to3:      decimal.NewFromInt(8),
	WorkEvening3to11: decimal.NewFromInt(8),
	WorkNight23to7:   decimal.NewFromInt(8),
}

// Summary totals one person's month.
type Summary struct {
	Name      string             `json:"name"`
	WorkHours decimal.Decimal    `json:"work_hours"`
	Counts    map[ShiftLabel]int `json:"counts"`
}

// WorkShifts returns the number of worked shifts.
func (s Summary) WorkShifts() int {
	n := 0
	for l, c := range s.Counts {
		if l.IsWork() {
			n += c
		}
	}
	return n
}

// OffDays returns the number of days carrying any day-off label.
func (s Summary) OffDays() int {
	n := 0
	for l, c := range s.Counts {
		if l.IsOff() {
			n += c
		}
	}
	return n
}

// Summarize totals every person of the schedule, in schedule order.
func Summarize(s *DailySchedule) []Summary {
	out := make([]Summary, 0, len(s.Names))
	for _, name := range s.Names {
		sum := Summary{Name: name, WorkHours: decimal.Zero, Counts: make(map[ShiftLabel]int)}
		for _, label := range s.People[name] {
			if label == ShiftNone {
				continue
			}
			sum.Counts[label]++
			if h, ok := ShiftHours[label]; ok {
				sum.WorkHours = sum.WorkHours.Add(h)
			}
		}
		out = append(out, sum)
	}
	return out
}
