package workbook

import (
	"github.com/warp/roster-engine/roster"
)

// ColumnSpec maps every header starting with Prefix onto one DutyRow field.
// Repeated columns ("公休", "公休.1", ...) are joined with Separator.
type ColumnSpec struct {
	Prefix    string        `yaml:"prefix"`
	Column    roster.Column `yaml:"column"`
	Separator string        `yaml:"separator"`
}

// Layout describes where things live in a source workbook.
type Layout struct {
	// HeaderRow is the 1-based row holding column headers. Data starts on
	// the next row; the staff name is always in column A.
	HeaderRow int `yaml:"header_row"`

	PrimaryKeyword   string   `yaml:"primary_keyword"`
	SecondaryKeyword string   `yaml:"secondary_keyword"`
	IdentityKeywords []string `yaml:"identity_keywords"`

	Columns []ColumnSpec `yaml:"columns"`

	IdentityNameHeader     string   `yaml:"identity_name_header"`
	IdentityCategoryHeader []string `yaml:"identity_category_headers"`
}

// DefaultLayout matches the ward's "11502(主)" / "11502(副)" / "身分" workbooks.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:        2,
		PrimaryKeyword:   "主",
		SecondaryKeyword: "副",
		IdentityKeywords: []string{"身分", "身份"},
		Columns: []ColumnSpec{
			{Prefix: "假日", Column: roster.ColumnHoliday, Separator: "、"},
			{Prefix: "大夜", Column: roster.ColumnNight, Separator: "."},
			{Prefix: "小夜", Column: roster.ColumnEvening, Separator: "."},
			{Prefix: "公休", Column: roster.ColumnRestDays, Separator: "、"},
			{Prefix: "備註", Column: roster.ColumnRemarks, Separator: "、"},
		},
		IdentityNameHeader:     "姓名",
		IdentityCategoryHeader: []string{"身分", "身份"},
	}
}
