/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Shift labels leave the
  API as display strings ("7~3", "例假"), never as internal constants, so
  the front end renders exactly what the workbook would show.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Calendar:
    HolidaysResponse, CalendarDateRequest, MonthOptionDTO

  Upload:
    PreviewResponse, GenerateResponse, SummaryDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - roster/convert.go: Result
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/workbook"
)

// =============================================================================
// CALENDAR
// =============================================================================

// HolidaysResponse lists the calendar snapshot, optionally for one year.
type HolidaysResponse struct {
	Year     int      `json:"year,omitempty"`
	Holidays []string `json:"holidays"`
	Weekends []string `json:"weekends"`
}

// CalendarDateRequest adds one date to the calendar store.
type CalendarDateRequest struct {
	Date string `json:"date"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// MonthOptionDTO is one entry of the month picker.
type MonthOptionDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// =============================================================================
// UPLOADS
// =============================================================================

// PreviewResponse describes an uploaded workbook without converting it.
type PreviewResponse struct {
	Filename    string            `json:"filename"`
	Sheets      workbook.Sheets   `json:"sheets"`
	StaffList   []string          `json:"staff_list"`
	StaffCount  int               `json:"staff_count"`
	IdentityMap map[string]string `json:"identity_map"`
	RosterNames []string          `json:"roster_names"`
}

// SummaryDTO totals one person's month.
type SummaryDTO struct {
	Name       string          `json:"name"`
	WorkShifts int             `json:"work_shifts"`
	WorkHours  decimal.Decimal `json:"work_hours"`
	OffDays    int             `json:"off_days"`
	Counts     map[string]int  `json:"counts"`
}

// GenerateResponse is the JSON form of a conversion.
type GenerateResponse struct {
	RunID       string                `json:"run_id"`
	Schedule    *roster.DailySchedule `json:"schedule"`
	Identities  map[string]string     `json:"identities"`
	Rules       map[string][]string   `json:"rules"`
	Summaries   []SummaryDTO          `json:"summaries"`
	Diagnostics roster.Diagnostics    `json:"diagnostics"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toSummaryDTO(s roster.Summary) SummaryDTO {
	counts := make(map[string]int, len(s.Counts))
	for label, n := range s.Counts {
		counts[label.Display()] = n
	}
	return SummaryDTO{
		Name:       s.Name,
		WorkShifts: s.WorkShifts(),
		WorkHours:  s.WorkHours,
		OffDays:    s.OffDays(),
		Counts:     counts,
	}
}

func toGenerateResponse(runID string, res *roster.Result) GenerateResponse {
	sums := make([]SummaryDTO, len(res.Summaries))
	for i, s := range res.Summaries {
		sums[i] = toSummaryDTO(s)
	}
	identities := make(map[string]string, len(res.Schedule.Names))
	for _, name := range res.Schedule.Names {
		identities[name] = res.Registry.Lookup(name).Category()
	}
	rules := res.Rules
	if rules == nil {
		rules = roster.MonthlyRuleRecord{}
	}
	return GenerateResponse{
		RunID:       runID,
		Schedule:    res.Schedule,
		Identities:  identities,
		Rules:       rules,
		Summaries:   sums,
		Diagnostics: res.Diagnostics,
	}
}

func dateStrings(dates []calendar.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
