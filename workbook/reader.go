/*
reader.go - Source workbook reader

PURPOSE:
  Locates the primary, secondary, and identity sheets of an uploaded
  workbook and flattens them into roster.SourceTables plus an
  IdentityRegistry. Everything after this point is spreadsheet-agnostic.

SHEET DISCOVERY:
  Sheets are matched by keyword in their name ("11502(主)", "11502(副)",
  "身分"). A role with no keyword match falls back to sheet index 0, 1, 2,
  skipping sheets that already have a role. A missing primary or secondary
  table is fatal; a missing identity sheet only means every identity is
  Unknown.

SEE ALSO:
  - layout.go: Header row, keywords, column prefixes
  - roster/assemble.go: Consumes SourceTables
*/
package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/roster"
)

// Sheets records which sheet was used for which role.
type Sheets struct {
	All       []string `json:"all"`
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary"`
	Identity  string   `json:"identity,omitempty"`
}

// Source is a parsed source workbook.
type Source struct {
	Sheets   Sheets
	Tables   roster.SourceTables
	Registry *roster.IdentityRegistry
}

// StaffNames returns the normalized person names of both duty tables in
// sheet order, without repeats.
func (s *Source) StaffNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, rows := range [][]roster.DutyRow{s.Tables.Primary, s.Tables.Secondary} {
		for _, row := range rows {
			name := roster.NormalizeName(row.Name)
			if !roster.IsPersonName(name) || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Reader parses source workbooks with a fixed layout.
type Reader struct {
	Layout Layout
	Logger *zap.Logger
}

// NewReader creates a reader. A nil logger discards output.
func NewReader(layout Layout, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{Layout: layout, Logger: logger}
}

// Read parses a workbook stream.
func (r *Reader) Read(in io.Reader) (*Source, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", roster.ErrUnreadableWorkbook, err)
	}
	defer f.Close()
	return r.ReadFile(f)
}

// Open parses a workbook on disk.
func (r *Reader) Open(path string) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", roster.ErrUnreadableWorkbook, path, err)
	}
	defer f.Close()
	return r.ReadFile(f)
}

// ReadFile parses an already opened workbook.
func (r *Reader) ReadFile(f *excelize.File) (*Source, error) {
	sheets := r.locate(f.GetSheetList())
	if sheets.Primary == "" {
		return nil, &roster.SheetError{Role: "primary", Available: sheets.All}
	}
	if sheets.Secondary == "" {
		return nil, &roster.SheetError{Role: "secondary", Available: sheets.All}
	}
	r.Logger.Debug("sheets located",
		zap.String("primary", sheets.Primary),
		zap.String("secondary", sheets.Secondary),
		zap.String("identity", sheets.Identity))

	src := &Source{Sheets: sheets, Registry: roster.NewIdentityRegistry()}

	var err error
	if src.Tables.Primary, err = r.readDutyTable(f, "primary", sheets.Primary); err != nil {
		return nil, err
	}
	if src.Tables.Secondary, err = r.readDutyTable(f, "secondary", sheets.Secondary); err != nil {
		return nil, err
	}

	if sheets.Identity == "" {
		r.Logger.Warn("identity sheet not found, all identities unknown", zap.Strings("sheets", sheets.All))
	} else if err := r.readIdentities(f, sheets.Identity, src.Registry); err != nil {
		r.Logger.Warn("identity sheet unreadable", zap.String("sheet", sheets.Identity), zap.Error(err))
	}

	r.Logger.Info("source workbook read",
		zap.Int("primary_rows", len(src.Tables.Primary)),
		zap.Int("secondary_rows", len(src.Tables.Secondary)),
		zap.Int("civil_service", src.Registry.Count(roster.IdentityCivilService)),
		zap.Int("contract", src.Registry.Count(roster.IdentityContract)))
	return src, nil
}

// locate assigns sheet roles by keyword, then by position.
func (r *Reader) locate(names []string) Sheets {
	s := Sheets{All: names}
	for _, name := range names {
		switch {
		case strings.Contains(name, r.Layout.PrimaryKeyword):
			if s.Primary == "" {
				s.Primary = name
			}
		case strings.Contains(name, r.Layout.SecondaryKeyword):
			if s.Secondary == "" {
				s.Secondary = name
			}
		case containsAny(name, r.Layout.IdentityKeywords):
			if s.Identity == "" {
				s.Identity = name
			}
		}
	}

	taken := func(name string) bool {
		return name == s.Primary || name == s.Secondary || name == s.Identity
	}
	fallback := func(role *string, index int, label string) {
		if *role != "" || index >= len(names) || taken(names[index]) {
			return
		}
		*role = names[index]
		r.Logger.Warn("sheet keyword not found, using position",
			zap.String("role", label), zap.Int("index", index), zap.String("sheet", *role))
	}
	fallback(&s.Primary, 0, "primary")
	fallback(&s.Secondary, 1, "secondary")
	fallback(&s.Identity, 2, "identity")
	return s
}

func (r *Reader) readDutyTable(f *excelize.File, role, sheet string) ([]roster.DutyRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s sheet %q: %v", roster.ErrUnreadableWorkbook, role, sheet, err)
	}
	if len(rows) < r.Layout.HeaderRow {
		return nil, fmt.Errorf("%w: %s sheet %q has no header row", roster.ErrSheetNotFound, role, sheet)
	}

	header := rows[r.Layout.HeaderRow-1]
	groups := make(map[roster.Column][]int)
	for i, h := range header {
		if i == 0 {
			continue
		}
		h = strings.TrimSpace(h)
		for _, spec := range r.Layout.Columns {
			if h != "" && strings.HasPrefix(h, spec.Prefix) {
				groups[spec.Column] = append(groups[spec.Column], i)
				break
			}
		}
	}

	var out []roster.DutyRow
	for _, row := range rows[r.Layout.HeaderRow:] {
		name := cellAt(row, 0)
		if name == "" {
			continue
		}
		dr := roster.DutyRow{Name: name}
		for _, spec := range r.Layout.Columns {
			merged := mergeCells(row, groups[spec.Column], spec.Separator)
			switch spec.Column {
			case roster.ColumnRemarks:
				dr.Remarks = merged
			case roster.ColumnRestDays:
				dr.RestDays = merged
			case roster.ColumnNight:
				dr.Night = merged
			case roster.ColumnEvening:
				dr.Evening = merged
			case roster.ColumnHoliday:
				dr.Holiday = merged
			}
		}
		out = append(out, dr)
	}
	return out, nil
}

func (r *Reader) readIdentities(f *excelize.File, sheet string, reg *roster.IdentityRegistry) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) < r.Layout.HeaderRow {
		return fmt.Errorf("no header row")
	}
	nameCol, catCol := -1, -1
	for i, h := range rows[r.Layout.HeaderRow-1] {
		h = strings.TrimSpace(h)
		switch {
		case h == r.Layout.IdentityNameHeader && nameCol < 0:
			nameCol = i
		case containsString(r.Layout.IdentityCategoryHeader, h) && catCol < 0:
			catCol = i
		}
	}
	if nameCol < 0 || catCol < 0 {
		return fmt.Errorf("columns %q/%v not found", r.Layout.IdentityNameHeader, r.Layout.IdentityCategoryHeader)
	}

	dropped := 0
	for _, row := range rows[r.Layout.HeaderRow:] {
		name := cellAt(row, nameCol)
		if name == "" {
			continue
		}
		if !reg.Add(name, cellAt(row, catCol)) {
			dropped++
		}
	}
	if dropped > 0 {
		r.Logger.Debug("identity rows dropped", zap.Int("count", dropped))
	}
	return nil
}

// =============================================================================
// CELL HELPERS
// =============================================================================

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if v == "nan" {
		return ""
	}
	return v
}

func mergeCells(row []string, cols []int, sep string) string {
	var parts []string
	for _, c := range cols {
		if v := cellAt(row, c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
