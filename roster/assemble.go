/*
assemble.go - Event Assembler

PURPOSE:
  Walks every staff row of the primary and secondary duty tables and builds
  one EventMap per person from the declared annotation columns. Monthly rule
  directives are resolved in place; everything else goes through the token
  parser with the column's implied label.

COLUMN ORDER:
  Columns are processed in a fixed order and later columns overwrite earlier
  ones on the same date:
    1. Remarks   (備註)  directives only
    2. Rest days (公休)  directive | compensated | range | bare date -> Leave
    3. Night     (大夜)  multi-date | range | bare date -> 23~7
    4. Evening   (小夜)  range | multi-date | bare date -> 3~11
    5. Holiday   (假日)  holiday-shift annotations

NAME FILTERING:
  Rows whose normalized name is empty, shorter than 2 or longer than 6
  characters, starts with a digit or ".", or contains punctuation are stray
  notes (e.g. "1.為安排..."), not staff records.

DIAGNOSTICS:
  Nothing here fails. Rejected rows, ignored segments, and the symmetric
  difference between the identity registry and the duty tables are collected
  in Diagnostics and logged as warnings.

SEE ALSO:
  - tokens.go: Shapes
  - rules.go: Directive resolution
  - expand.go: Consumes Assembly
*/
package roster

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// SOURCE TABLES
// =============================================================================

// Column names an annotation column of a duty table.
type Column string

const (
	ColumnRemarks  Column = "remarks"
	ColumnRestDays Column = "rest_days"
	ColumnNight    Column = "night"
	ColumnEvening  Column = "evening"
	ColumnHoliday  Column = "holiday"
)

// DutyRow is one staff row of a duty table. Repeated columns in the sheet
// are already merged into a single string per field.
type DutyRow struct {
	Name     string
	Remarks  string
	RestDays string
	Night    string
	Evening  string
	Holiday  string
}

// Table identifies which duty table a row came from.
type Table string

const (
	TablePrimary   Table = "primary"
	TableSecondary Table = "secondary"
)

// SourceTables is the parsed content of a source workbook.
type SourceTables struct {
	Primary   []DutyRow
	Secondary []DutyRow
}

// =============================================================================
// ASSEMBLY RESULT
// =============================================================================

// RosterOnlyName is a duty-table name missing from the identity registry.
type RosterOnlyName struct {
	Name    string  `json:"name"`
	Sources []Table `json:"sources"`
}

// IgnoredSegment is annotation text that matched no shape.
type IgnoredSegment struct {
	Name   string `json:"name"`
	Column Column `json:"column"`
	Text   string `json:"text"`
}

// Diagnostics collects non-fatal anomalies of one conversion.
type Diagnostics struct {
	RegistryOnly []string         `json:"registry_only"`
	RosterOnly   []RosterOnlyName `json:"roster_only"`
	RejectedRows []string         `json:"rejected_rows"`
	Ignored      []IgnoredSegment `json:"ignored"`
}

// Empty reports whether nothing anomalous was seen.
func (d Diagnostics) Empty() bool {
	return len(d.RegistryOnly) == 0 && len(d.RosterOnly) == 0 &&
		len(d.RejectedRows) == 0 && len(d.Ignored) == 0
}

// Assembly is the Event Assembler output.
type Assembly struct {
	Names       []string
	Events      map[string]EventMap
	Rules       MonthlyRuleRecord
	Diagnostics Diagnostics
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler builds EventMaps for one target month.
type Assembler struct {
	Parser   Parser
	Rules    RuleResolver
	Registry *IdentityRegistry
	Logger   *zap.Logger
}

// NewAssembler wires a parser and rule resolver for year/month. A nil
// registry behaves as empty; a nil logger discards output.
func NewAssembler(year int, month time.Month, facts calendar.Facts, registry *IdentityRegistry, logger *zap.Logger) *Assembler {
	if registry == nil {
		registry = NewIdentityRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		Parser:   Parser{BaseYear: year, TargetMonth: month},
		Rules:    RuleResolver{Year: year, Month: month, Facts: facts},
		Registry: registry,
		Logger:   logger,
	}
}

// assembly carries per-run mutable state.
type assembly struct {
	*Assembly
	applied map[string]map[RuleKind]bool
	seen    map[string]map[Table]bool
}

// Assemble processes the primary table then the secondary table.
func (a *Assembler) Assemble(tables SourceTables) *Assembly {
	run := &assembly{
		Assembly: &Assembly{
			Events: make(map[string]EventMap),
			Rules:  make(MonthlyRuleRecord),
		},
		applied: make(map[string]map[RuleKind]bool),
		seen:    make(map[string]map[Table]bool),
	}

	for _, row := range tables.Primary {
		a.assembleRow(run, TablePrimary, row)
	}
	for _, row := range tables.Secondary {
		a.assembleRow(run, TableSecondary, row)
	}

	// Identity-only staff still receive calendar defaults downstream.
	for _, name := range a.Registry.Names() {
		if _, ok := run.Events[name]; !ok {
			run.Events[name] = EventMap{}
			run.Names = append(run.Names, name)
			a.Logger.Debug("registry-only staff added", zap.String("name", name))
		}
	}

	a.crossCheck(run)

	entries := 0
	for _, ev := range run.Events {
		entries += len(ev)
	}
	a.Logger.Info("roster assembled",
		zap.Int("people", len(run.Names)),
		zap.Int("entries", entries),
		zap.Int("rule_people", len(run.Rules)))
	return run.Assembly
}

func (a *Assembler) assembleRow(run *assembly, table Table, row DutyRow) {
	name := NormalizeName(row.Name)
	if name == "" {
		return
	}
	if !IsPersonName(name) {
		run.Diagnostics.RejectedRows = append(run.Diagnostics.RejectedRows, name)
		return
	}

	events, ok := run.Events[name]
	if !ok {
		events = EventMap{}
		run.Events[name] = events
		run.Names = append(run.Names, name)
	}
	if run.seen[name] == nil {
		run.seen[name] = make(map[Table]bool)
	}
	run.seen[name][table] = true

	identity := a.Registry.Lookup(name)
	a.Logger.Debug("processing staff",
		zap.String("name", name),
		zap.String("table", string(table)),
		zap.String("identity", string(identity)))

	a.remarks(run, name, identity, events, row.Remarks)
	a.restDays(run, name, identity, events, row.RestDays)
	a.night(run, name, events, row.Night)
	a.evening(run, name, events, row.Evening)
	a.holidayShifts(run, name, events, row.Holiday)
}

// remarks: each segment is tried only as a directive.
func (a *Assembler) remarks(run *assembly, name string, identity Identity, events EventMap, cell string) {
	for _, seg := range splitSegments(cell) {
		if d, ok := ParseDirective(seg); ok {
			a.applyDirective(run, name, identity, events, d)
		}
	}
}

// restDays: directive, else compensated rest, else range, else bare date.
// Segments starting with "*" are footnotes.
func (a *Assembler) restDays(run *assembly, name string, identity Identity, events EventMap, cell string) {
	for _, seg := range splitSegments(cell) {
		if strings.HasPrefix(seg, "*") {
			continue
		}
		if d, ok := ParseDirective(seg); ok {
			a.applyDirective(run, name, identity, events, d)
			continue
		}
		if strings.ContainsAny(seg, "補原") {
			if d, ok := a.Parser.Compensated(seg); ok {
				events[d] = Leave
				a.Logger.Debug("compensated rest", zap.String("name", name), zap.Stringer("date", d))
			} else {
				run.ignore(name, ColumnRestDays, seg)
			}
			continue
		}
		if strings.ContainsAny(seg, "–-") {
			dates := a.Parser.Range(seg)
			if len(dates) == 0 {
				run.ignore(name, ColumnRestDays, seg)
			}
			for _, d := range dates {
				events[d] = Leave
			}
			continue
		}
		if d, ok := a.Parser.Date(seg); ok {
			events[d] = Leave
			continue
		}
		run.ignore(name, ColumnRestDays, seg)
	}
}

func (a *Assembler) night(run *assembly, name string, events EventMap, cell string) {
	cell = cleanCell(cell)
	if cell == "" {
		return
	}
	var dates []calendar.Date
	switch {
	case strings.Contains(cell, "."):
		dates = a.Parser.MultiDates(cell)
	case strings.ContainsAny(cell, "–-"):
		dates = a.Parser.Range(cell)
	default:
		if d, ok := a.Parser.Date(cell); ok {
			dates = []calendar.Date{d}
		}
	}
	a.mark(run, name, ColumnNight, events, cell, dates, WorkNight23to7)
}

func (a *Assembler) evening(run *assembly, name string, events EventMap, cell string) {
	cell = cleanCell(cell)
	if cell == "" {
		return
	}
	var dates []calendar.Date
	switch {
	case strings.ContainsAny(cell, "–-"):
		dates = a.Parser.Range(cell)
	case strings.Contains(cell, "."):
		dates = a.Parser.MultiDates(cell)
	default:
		if d, ok := a.Parser.Date(cell); ok {
			dates = []calendar.Date{d}
		}
	}
	a.mark(run, name, ColumnEvening, events, cell, dates, WorkEvening3to11)
}

// holidayShifts skips monthly-rule references ("2月大P1") and "月補" notes,
// which belong to the remarks and rest-day columns.
func (a *Assembler) holidayShifts(run *assembly, name string, events EventMap, cell string) {
	for _, seg := range splitSegments(cell) {
		if directiveMonth.MatchString(seg) || strings.Contains(seg, "月補") {
			continue
		}
		d, label, ok := a.Parser.HolidayShift(seg)
		if !ok {
			run.ignore(name, ColumnHoliday, seg)
			continue
		}
		events[d] = label
	}
}

func (a *Assembler) mark(run *assembly, name string, col Column, events EventMap, cell string, dates []calendar.Date, label ShiftLabel) {
	if len(dates) == 0 {
		run.ignore(name, col, cell)
		return
	}
	for _, d := range dates {
		events[d] = label
	}
}

func (a *Assembler) applyDirective(run *assembly, name string, identity Identity, events EventMap, d Directive) {
	if run.applied[name][d.Kind] {
		return
	}
	if !a.Rules.ApplyDirective(d, events, identity) {
		return
	}
	if run.applied[name] == nil {
		run.applied[name] = make(map[RuleKind]bool)
	}
	run.applied[name][d.Kind] = true
	run.Rules[name] = append(run.Rules[name], d.Text)
	a.Logger.Info("monthly rule applied",
		zap.String("name", name),
		zap.String("rule", d.Text),
		zap.String("identity", string(identity)))
}

// crossCheck reports names present on only one side of registry vs tables.
func (a *Assembler) crossCheck(run *assembly) {
	for _, name := range a.Registry.Names() {
		if len(run.seen[name]) == 0 {
			run.Diagnostics.RegistryOnly = append(run.Diagnostics.RegistryOnly, name)
		}
	}
	names := make(map[string]struct{}, len(run.seen))
	for name := range run.seen {
		names[name] = struct{}{}
	}
	for _, name := range sortedKeys(names) {
		if a.Registry.Contains(name) {
			continue
		}
		var sources []Table
		for _, t := range []Table{TablePrimary, TableSecondary} {
			if run.seen[name][t] {
				sources = append(sources, t)
			}
		}
		run.Diagnostics.RosterOnly = append(run.Diagnostics.RosterOnly, RosterOnlyName{Name: name, Sources: sources})
	}

	if n := len(run.Diagnostics.RegistryOnly); n > 0 {
		a.Logger.Warn("identity registry names missing from duty tables",
			zap.Int("count", n), zap.Strings("names", run.Diagnostics.RegistryOnly))
	}
	if n := len(run.Diagnostics.RosterOnly); n > 0 {
		a.Logger.Warn("duty table names missing from identity registry",
			zap.Int("count", n), zap.Any("names", run.Diagnostics.RosterOnly))
	}
	if n := len(run.Diagnostics.Ignored); n > 0 {
		a.Logger.Warn("annotation segments ignored", zap.Int("count", n))
	}
}

func (run *assembly) ignore(name string, col Column, text string) {
	run.Diagnostics.Ignored = append(run.Diagnostics.Ignored, IgnoredSegment{Name: name, Column: col, Text: text})
}

// =============================================================================
// CELL HELPERS
// =============================================================================

// segmentSeparators split list-style columns. Width folding has already
// turned "，" into ",".
var segmentSeparators = strings.NewReplacer("\r\n", "、", "\n", "、", ",", "、")

func cleanCell(s string) string {
	s = strings.TrimSpace(FoldWidth(s))
	if s == "nan" {
		return ""
	}
	return s
}

// splitSegments removes spaces and splits on the list delimiters.
func splitSegments(cell string) []string {
	cell = cleanCell(cell)
	if cell == "" {
		return nil
	}
	cell = strings.ReplaceAll(cell, " ", "")
	cell = segmentSeparators.Replace(cell)
	var out []string
	for _, seg := range strings.Split(cell, "、") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
