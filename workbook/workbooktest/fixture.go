// Package workbooktest builds roster workbooks in memory for tests.
package workbooktest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-engine/calendar"
)

// Feb returns a date in February 2026. Feb 1 2026 is a Sunday.
func Feb(day int) calendar.Date {
	return calendar.MustDate(2026, time.February, day)
}

// Feb2026Facts returns the Lunar New Year holidays (2/16-2/20), the
// 2/27 bridge holiday, and every Saturday and Sunday of 2026.
func Feb2026Facts() *calendar.StaticFacts {
	holidays := calendar.NewDateSet(Feb(16), Feb(17), Feb(18), Feb(19), Feb(20), Feb(27))
	return calendar.NewStaticFacts(holidays, calendar.DeriveWeekends(2026))
}

// Sheet is one sheet of a fixture workbook, written from A1 row by row.
type Sheet struct {
	Name string
	Rows [][]any
}

// Build creates a workbook with the given sheets. It is closed when the
// test ends.
func Build(t testing.TB, sheets ...Sheet) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		for r, row := range s.Rows {
			ref, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(s.Name, ref, &values))
		}
	}
	return f
}

// Buffer serializes f.
func Buffer(t testing.TB, f *excelize.File) *bytes.Buffer {
	t.Helper()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

// Save writes f to path.
func Save(t testing.TB, f *excelize.File, path string) {
	t.Helper()
	require.NoError(t, f.SaveAs(path))
}

// PrimarySheet is a February primary duty table:
//   - 王小明 N2: rest 2/2 and 2/24, night 2/10, holiday day shift 2/7
//   - 陳小美行助: evening 2/3-2/4, monthly rule 2月P2
//   - a footer note that is not a person
func PrimarySheet() Sheet {
	return Sheet{Name: "11502(主)", Rows: [][]any{
		{"115年2月 主值班表"},
		{"主值", "公休", "公休", "大夜", "小夜週", "假日", "假日", "備註"},
		{"王小明 N2", "2/2", "2/24", "2/10", "", "2/7白班", "", ""},
		{"陳小美行助", "", "", "", "2/3-2/4", "", "", "2月P2"},
		{"1.為安排連假請提早告知"},
	}}
}

// SecondarySheet is a February secondary duty table for 林大同, who has no
// identity row.
func SecondarySheet() Sheet {
	return Sheet{Name: "11502(副)", Rows: [][]any{
		{"115年2月 副值班表"},
		{"副值", "公休", "大夜", "大夜", "小夜", "假日", "備註"},
		{"林大同", "2/9", "2/11", "2/12", "", "nan", ""},
	}}
}

// IdentitySheet registers 王小明 (公職) and 陳小美 (契約); 李大華 carries an
// unrecognized category.
func IdentitySheet() Sheet {
	return Sheet{Name: "身分", Rows: [][]any{
		{"人員身分"},
		{"序", "姓名", "身分"},
		{1, "王小明", "公職"},
		{2, "陳小美", "契約"},
		{3, "李大華", "約聘"},
	}}
}

// Ward mirrors a real February upload: two duty tables with repeated
// annotation columns and an identity sheet.
func Ward(t testing.TB) *excelize.File {
	return Build(t, PrimarySheet(), SecondarySheet(), IdentitySheet())
}
