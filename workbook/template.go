package workbook

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// TEMPLATE FILL - Write into a ward's existing monthly sheet
// =============================================================================
// The template already carries dates in row 1 (from column C) and names in
// column B (from row 3). Any cell that already holds a value is the head
// nurse's manual entry and is never overwritten.

// FillStats reports what a template fill did.
type FillStats struct {
	Written      int      `json:"written"`
	RuleWritten  int      `json:"rule_written"`
	Skipped      int      `json:"skipped"`
	Dates        int      `json:"dates"`
	MissingNames []string `json:"missing_names,omitempty"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fill writes res into sheet of f. An empty sheet name means the first sheet.
func (r *Renderer) Fill(f *excelize.File, sheet string, res *roster.Result) (*FillStats, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &roster.SheetError{Role: "template", Available: f.GetSheetList()}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	st, err := newStyles(f, r.Options.FontFamily, r.Options.FontSize)
	if err != nil {
		return nil, err
	}

	// Pre-filled cells keep their value. Leave labels among them turn red and
	// multi-word shift cells are stacked on separate lines.
	original := make(map[[2]int]bool)
	for ri, row := range rows {
		for ci, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			col, rowNum := ci+1, ri+1
			original[[2]int{col, rowNum}] = true
			if rowNum == rowDates {
				continue
			}
			ref := cellRef(col, rowNum)
			switch l, ok := roster.ParseShiftLabel(v); {
			case col < colFirstDate:
				err = f.SetCellStyle(sheet, ref, ref, st.base)
			case ok && l.IsOff():
				err = f.SetCellStyle(sheet, ref, ref, st.red)
			case whitespaceRun.MatchString(v):
				err = setCell(f, sheet, col, rowNum, whitespaceRun.ReplaceAllString(v, "\n"), st.baseWrap)
			default:
				err = f.SetCellStyle(sheet, ref, ref, st.base)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	dateCols := r.templateDates(f, sheet, rows, res.Schedule.Year)
	nameRows := make(map[string]int)
	var nameOrder []string
	for ri := rowFirstName - 1; ri < len(rows); ri++ {
		raw := cellAt(rows[ri], colName-1)
		if raw == "" {
			break
		}
		if name := roster.NormalizeName(raw); name != "" {
			nameRows[name] = ri + 1
			nameOrder = append(nameOrder, name)
		}
	}

	stats := &FillStats{Dates: len(dateCols)}
	for _, name := range res.Schedule.Names {
		if _, ok := nameRows[name]; !ok {
			stats.MissingNames = append(stats.MissingNames, name)
		}
	}

	for _, name := range nameOrder {
		row := nameRows[name]
		person, scheduled := res.Schedule.People[name]
		rulePerson := res.Rules.Has(name)
		for d, col := range dateCols {
			if original[[2]int{col, row}] {
				stats.Skipped++
				continue
			}
			label := r.templateLabel(d, person, scheduled)
			if label == roster.ShiftNone {
				continue
			}
			if err := setCell(f, sheet, col, row, label.Display(), st.labelStyle(label, rulePerson)); err != nil {
				return nil, err
			}
			stats.Written++
			if rulePerson && label.IsWork() {
				stats.RuleWritten++
			}
		}
	}

	if len(stats.MissingNames) > 0 {
		r.Logger.Warn("scheduled staff missing from template", zap.Strings("names", stats.MissingNames))
	}
	r.Logger.Info("template filled",
		zap.String("sheet", sheet),
		zap.Int("dates", stats.Dates),
		zap.Int("written", stats.Written),
		zap.Int("rule_written", stats.RuleWritten),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// templateLabel returns the scheduled label, or a plain calendar default for
// template rows nobody scheduled.
func (r *Renderer) templateLabel(d calendar.Date, person roster.PersonSchedule, scheduled bool) roster.ShiftLabel {
	if scheduled {
		return person[d]
	}
	switch {
	case r.Facts == nil:
		return roster.ShiftNone
	case r.Facts.IsHoliday(d):
		return roster.NationalHoliday
	case r.Facts.IsWeekend(d):
		return roster.WeeklyRest
	}
	return roster.ShiftNone
}

// templateDates reads row 1 from column C until the first empty cell.
func (r *Renderer) templateDates(f *excelize.File, sheet string, rows [][]string, year int) map[calendar.Date]int {
	out := make(map[calendar.Date]int)
	if len(rows) == 0 {
		return out
	}
	header := rows[rowDates-1]
	for ci := colFirstDate - 1; ci < len(header); ci++ {
		if strings.TrimSpace(header[ci]) == "" {
			break
		}
		col := ci + 1
		raw, err := f.GetCellValue(sheet, cellRef(col, rowDates), excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if d, ok := parseHeaderDate(raw, year); ok {
			out[d] = col
		} else if d, ok := parseHeaderDate(header[ci], year); ok {
			out[d] = col
		}
	}
	return out
}

var headerDateLayouts = []string{"2006-01-02", "2006/1/2", "2006-01-02 15:04:05", "01-02-06"}

// parseHeaderDate accepts an Excel serial, an ISO or slash date, or "M/D"
// in year.
func parseHeaderDate(s string, year int) (calendar.Date, bool) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return calendar.Date{}, false
		}
		return calendar.FromTime(t), true
	}
	for _, layout := range headerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.FromTime(t), true
		}
	}
	if t, err := time.Parse("1/2", s); err == nil {
		return calendar.NewDate(year, t.Month(), t.Day())
	}
	return calendar.Date{}, false
}

func cellRef(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
