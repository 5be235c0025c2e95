/*
writer.go - Schedule renderer

PURPOSE:
  Writes a converted schedule into a fresh workbook with a single sheet.

LAYOUT:
  A1/A2 blank, B1 "姓名", B2 "星期"
  C1..   one date per column (M/D), weekday names below
  row 3+ A identity category, B name, one label per date
  after the last date, optional summary columns

STYLING:
  Everything is centered in the configured font. Weekend and holiday
  headers are bold red. Work shifts of staff with a resolved monthly rule
  are black; every other label is red. Long day-off labels wrap.

SEE ALSO:
  - template.go: Filling an existing sheet instead
*/
package workbook

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// RenderOptions control the output sheet.
type RenderOptions struct {
	SheetName  string  `yaml:"sheet_name"`
	FontFamily string  `yaml:"font_family"`
	FontSize   float64 `yaml:"font_size"`
	Summary    bool    `yaml:"summary"`
}

// DefaultRenderOptions returns the ward's standard output format.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{SheetName: "排班表", FontFamily: "標楷體", FontSize: 12}
}

const (
	colIdentity  = 1
	colName      = 2
	colFirstDate = 3
	rowDates     = 1
	rowWeekdays  = 2
	rowFirstName = 3

	widthIdentity = 6
	widthName     = 10
	widthDate     = 7

	colorRed = "FF0000"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday: "一", time.Tuesday: "二", time.Wednesday: "三", time.Thursday: "四",
	time.Friday: "五", time.Saturday: "六", time.Sunday: "日",
}

// wrapLabels are long enough to need wrapping in a 7-wide column.
var wrapLabels = map[roster.ShiftLabel]bool{
	roster.SpecialLeave:    true,
	roster.NationalHoliday: true,
	roster.RestDay:         true,
}

var summaryHeaders = []string{"班數", "工時", "休假"}

// Renderer writes schedules to workbooks.
type Renderer struct {
	Options RenderOptions
	Facts   calendar.Facts
	Logger  *zap.Logger
}

// NewRenderer creates a renderer. Facts decide which date headers are red.
func NewRenderer(opts RenderOptions, facts calendar.Facts, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{Options: opts, Facts: facts, Logger: logger}
}

// styles holds the style ids of one workbook.
type styles struct {
	header    int
	headerRed int
	date      int
	dateRed   int
	base      int
	baseWrap  int
	red       int
	redWrap   int
}

type styleDef struct {
	dst   *int
	style *excelize.Style
}

func newStyles(f *excelize.File, family string, size float64) (*styles, error) {
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	wrap := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	dateFmt := "m/d"
	font := func(bold bool, color string) *excelize.Font {
		return &excelize.Font{Family: family, Size: size, Bold: bold, Color: color}
	}

	s := &styles{}
	defs := []styleDef{
		{&s.header, &excelize.Style{Font: font(true, ""), Alignment: center}},
		{&s.headerRed, &excelize.Style{Font: font(true, colorRed), Alignment: center}},
		{&s.date, &excelize.Style{Font: font(true, ""), Alignment: center, CustomNumFmt: &dateFmt}},
		{&s.dateRed, &excelize.Style{Font: font(true, colorRed), Alignment: center, CustomNumFmt: &dateFmt}},
		{&s.base, &excelize.Style{Font: font(false, ""), Alignment: center}},
		{&s.baseWrap, &excelize.Style{Font: font(false, ""), Alignment: wrap}},
		{&s.red, &excelize.Style{Font: font(false, colorRed), Alignment: center}},
		{&s.redWrap, &excelize.Style{Font: font(false, colorRed), Alignment: wrap}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// labelStyle picks black for rule staff's work shifts, red otherwise.
func (s *styles) labelStyle(label roster.ShiftLabel, rulePerson bool) int {
	switch {
	case rulePerson && label.IsWork():
		return s.base
	case wrapLabels[label]:
		return s.redWrap
	default:
		return s.red
	}
}

// Render builds a new workbook from a conversion result.
func (r *Renderer) Render(res *roster.Result) (*excelize.File, error) {
	sched := res.Schedule
	f := excelize.NewFile()
	sheet := r.Options.SheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	st, err := newStyles(f, r.Options.FontFamily, r.Options.FontSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := r.writeHeader(f, sheet, st, sched.Period()); err != nil {
		f.Close()
		return nil, err
	}

	days := sched.Period().Days()
	for i, name := range sched.Names {
		row := rowFirstName + i
		person := sched.People[name]
		rulePerson := res.Rules.Has(name)

		id := res.Registry.Lookup(name)
		if err := setCell(f, sheet, colIdentity, row, id.Category(), st.base); err != nil {
			f.Close()
			return nil, err
		}
		if err := setCell(f, sheet, colName, row, name, st.base); err != nil {
			f.Close()
			return nil, err
		}
		for j, d := range days {
			label := person[d]
			style := st.base
			var value any
			if label != roster.ShiftNone {
				value = label.Display()
				style = st.labelStyle(label, rulePerson)
			}
			if err := setCell(f, sheet, colFirstDate+j, row, value, style); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if r.Options.Summary {
		if err := r.writeSummary(f, sheet, st, colFirstDate+len(days), res.Summaries); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := r.setWidths(f, sheet, len(days)); err != nil {
		f.Close()
		return nil, err
	}

	r.Logger.Info("schedule rendered",
		zap.String("sheet", sheet),
		zap.Int("people", len(sched.Names)),
		zap.Int("days", len(days)))
	return f, nil
}

// WriteTo renders into w as xlsx.
func (r *Renderer) WriteTo(w io.Writer, res *roster.Result) error {
	f, err := r.Render(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Bytes renders into memory.
func (r *Renderer) Bytes(res *roster.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteTo(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeHeader(f *excelize.File, sheet string, st *styles, period calendar.Period) error {
	if err := setCell(f, sheet, colName, rowDates, "姓名", st.header); err != nil {
		return err
	}
	if err := setCell(f, sheet, colName, rowWeekdays, "星期", st.header); err != nil {
		return err
	}
	for j, d := range period.Days() {
		dateStyle, dayStyle := st.date, st.header
		if r.isRedDay(d) {
			dateStyle, dayStyle = st.dateRed, st.headerRed
		}
		if err := setCell(f, sheet, colFirstDate+j, rowDates, d.Time(), dateStyle); err != nil {
			return err
		}
		if err := setCell(f, sheet, colFirstDate+j, rowWeekdays, weekdayNames[d.Weekday()], dayStyle); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) isRedDay(d calendar.Date) bool {
	if r.Facts == nil {
		return d.IsWeekendDay()
	}
	return r.Facts.IsHoliday(d) || r.Facts.IsWeekend(d)
}

func (r *Renderer) writeSummary(f *excelize.File, sheet string, st *styles, firstCol int, sums []roster.Summary) error {
	for k, h := range summaryHeaders {
		if err := setCell(f, sheet, firstCol+k, rowDates, h, st.header); err != nil {
			return err
		}
	}
	for i, s := range sums {
		row := rowFirstName + i
		values := []any{s.WorkShifts(), s.WorkHours.InexactFloat64(), s.OffDays()}
		for k, v := range values {
			if err := setCell(f, sheet, firstCol+k, row, v, st.base); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) setWidths(f *excelize.File, sheet string, days int) error {
	if err := f.SetColWidth(sheet, "A", "A", widthIdentity); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", widthName); err != nil {
		return err
	}
	first, _ := excelize.ColumnNumberToName(colFirstDate)
	last, _ := excelize.ColumnNumberToName(colFirstDate + days - 1)
	return f.SetColWidth(sheet, first, last, widthDate)
}

// setCell writes value (nil leaves the cell empty) and applies style.
func setCell(f *excelize.File, sheet string, col, row int, value any, style int) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if value != nil {
		if err := f.SetCellValue(sheet, ref, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", ref, err)
		}
	}
	return f.SetCellStyle(sheet, ref, ref, style)
}
