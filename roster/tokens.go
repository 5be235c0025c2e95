/*
tokens.go - Token Parser

PURPOSE:
  Interprets one annotation segment as one of a closed set of shapes. The
  parser knows nothing about calendar defaults or identities; it only turns
  text into dates and labels, or recognizes a monthly-rule directive to be
  resolved later.

GRAMMAR:
  Shape             Pattern                                  Example
  Multi-date        dates joined by "."                      1/15.1/16.1/17
  Range             two dates joined by "–" or "-"           1/12–1/18
  Compensated rest  補M/D and/or (原M/D...)                  補1/1 (原1/17白班)
  Holiday-shift     M/D + 白班|小夜|大夜                     1/4大夜
  Bare date         M/D, optional leading * or ＊            1/15
  Directive         optional N月 + 換心|P1|P2, optional 大/小 2月大P1

YEAR INFERENCE:
  A month greater than target_month+6 belongs to base_year-1, so "12/31" in
  a February roster is last December.

SEE ALSO:
  - rules.go: Resolves Directive values
  - assemble.go: Column-specific shape selection
*/
package roster

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/warp/roster-engine/calendar"
)

var (
	bareDatePattern     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	rangePattern        = regexp.MustCompile(`(\d{1,2}/\d{1,2})\s*[–\-]\s*(\d{1,2}/\d{1,2})`)
	originalDatePattern = regexp.MustCompile(`原\s*(\d{1,2}/\d{1,2})`)
	makeupDatePattern   = regexp.MustCompile(`^補\s*(\d{1,2}/\d{1,2})`)
	holidayShiftPattern = regexp.MustCompile(`^(\d{1,2}/\d{1,2})(白班|小夜|大夜)`)
	directiveMonth      = regexp.MustCompile(`^(\d{1,2})月`)
)

// holidayShiftWords maps the shift word of a holiday-shift annotation.
var holidayShiftWords = map[string]ShiftLabel{
	"白班": WorkDay7to3,
	"小夜": WorkEvening3to11,
	"大夜": WorkNight23to7,
}

// =============================================================================
// TOKENS
// =============================================================================

// TokenKind identifies which shape matched.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenMultiDate
	TokenRange
	TokenCompensated
	TokenHolidayShift
	TokenDate
	TokenDirective
)

func (k TokenKind) String() string {
	switch k {
	case TokenMultiDate:
		return "multi_date"
	case TokenRange:
		return "range"
	case TokenCompensated:
		return "compensated"
	case TokenHolidayShift:
		return "holiday_shift"
	case TokenDate:
		return "date"
	case TokenDirective:
		return "directive"
	}
	return "none"
}

// Entry is one (date, label) pair produced by the parser.
type Entry struct {
	Date  calendar.Date
	Label ShiftLabel
}

// Token is the parse result for one segment.
type Token struct {
	Kind      TokenKind
	Entries   []Entry
	Directive Directive
}

// RuleKind identifies a monthly rule.
type RuleKind string

const (
	RuleHeartRotation RuleKind = "換心"
	RuleP1            RuleKind = "P1"
	RuleP2            RuleKind = "P2"
)

// Directive is a monthly rule reference such as "2月大P1".
type Directive struct {
	Text  string
	Kind  RuleKind
	Month int    // 0 when the text carries no month number
	Size  string // "大", "小" or ""; recorded but never distinguished
}

// =============================================================================
// PARSER
// =============================================================================

// Parser converts annotation text into dates for one target month.
type Parser struct {
	BaseYear    int
	TargetMonth time.Month
}

// StripMarker removes the leading emphasis marker (* or ＊) and surrounding
// whitespace.
func StripMarker(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "*＊")
}

// Date parses a bare "M/D". Leading non-digit characters are ignored.
func (p Parser) Date(s string) (calendar.Date, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	m := bareDatePattern.FindStringSubmatch(s)
	if m == nil {
		return calendar.Date{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])

	year := p.BaseYear
	if month > int(p.TargetMonth)+6 {
		year = p.BaseYear - 1
	}
	return calendar.NewDate(year, time.Month(month), day)
}

// MultiDates parses "1/15.1/16.1/17". Unparseable parts are dropped.
func (p Parser) MultiDates(s string) []calendar.Date {
	var dates []calendar.Date
	for _, part := range strings.Split(StripMarker(s), ".") {
		if d, ok := p.Date(part); ok {
			dates = append(dates, d)
		}
	}
	return dates
}

// Range parses "1/12-1/18" into every date of the inclusive interval. An end
// before the start is moved to the following year.
func (p Parser) Range(s string) []calendar.Date {
	m := rangePattern.FindStringSubmatch(StripMarker(s))
	if m == nil {
		return nil
	}
	start, ok := p.Date(m[1])
	if !ok {
		return nil
	}
	end, ok := p.Date(m[2])
	if !ok {
		return nil
	}
	if end.Before(start) {
		end, ok = calendar.NewDate(end.Year+1, end.Month, end.Day)
		if !ok {
			return nil
		}
	}
	return calendar.Period{Start: start, End: end}.Days()
}

// Compensated parses "補1/1 (原1/17白班)" or "公休(原1/31小夜)" and returns the
// date that is now a day off: the 原 date when present, otherwise the 補 date.
func (p Parser) Compensated(s string) (calendar.Date, bool) {
	s = StripMarker(s)
	if m := originalDatePattern.FindStringSubmatch(s); m != nil {
		return p.Date(m[1])
	}
	if m := makeupDatePattern.FindStringSubmatch(s); m != nil {
		return p.Date(m[1])
	}
	return calendar.Date{}, false
}

// HolidayShift parses "1/4白班", "1/4小夜" or "1/4大夜".
func (p Parser) HolidayShift(s string) (calendar.Date, ShiftLabel, bool) {
	m := holidayShiftPattern.FindStringSubmatch(StripMarker(s))
	if m == nil {
		return calendar.Date{}, ShiftNone, false
	}
	d, ok := p.Date(m[1])
	if !ok {
		return calendar.Date{}, ShiftNone, false
	}
	return d, holidayShiftWords[m[2]], true
}

// ParseDirective recognizes a monthly rule reference. Matching is by
// containment with priority 換心, then P1, then P2.
func ParseDirective(s string) (Directive, bool) {
	text := StripMarker(s)
	d := Directive{Text: text}
	switch {
	case strings.Contains(text, string(RuleHeartRotation)):
		d.Kind = RuleHeartRotation
	case strings.Contains(text, string(RuleP1)):
		d.Kind = RuleP1
	case strings.Contains(text, string(RuleP2)):
		d.Kind = RuleP2
	default:
		return Directive{}, false
	}
	if m := directiveMonth.FindStringSubmatch(text); m != nil {
		d.Month, _ = strconv.Atoi(m[1])
	}
	switch {
	case strings.Contains(text, "大"+string(d.Kind)):
		d.Size = "大"
	case strings.Contains(text, "小"+string(d.Kind)):
		d.Size = "小"
	}
	return d, true
}

// IsDirective reports whether s references a monthly rule.
func IsDirective(s string) bool {
	_, ok := ParseDirective(s)
	return ok
}

// Parse tries every shape in fixed precedence and tags plain dates with
// implied. Text matching no shape yields TokenNone.
func (p Parser) Parse(text string, implied ShiftLabel) Token {
	s := StripMarker(text)
	if s == "" {
		return Token{}
	}

	if strings.Contains(s, ".") {
		if dates := p.MultiDates(s); len(dates) > 0 {
			return Token{Kind: TokenMultiDate, Entries: tag(dates, implied)}
		}
	}
	if dates := p.Range(s); len(dates) > 0 {
		return Token{Kind: TokenRange, Entries: tag(dates, implied)}
	}
	if strings.ContainsAny(s, "補原") {
		if d, ok := p.Compensated(s); ok {
			return Token{Kind: TokenCompensated, Entries: []Entry{{Date: d, Label: Leave}}}
		}
	}
	if d, label, ok := p.HolidayShift(s); ok {
		return Token{Kind: TokenHolidayShift, Entries: []Entry{{Date: d, Label: label}}}
	}
	if d, ok := p.Date(s); ok {
		return Token{Kind: TokenDate, Entries: []Entry{{Date: d, Label: implied}}}
	}
	if dir, ok := ParseDirective(s); ok {
		return Token{Kind: TokenDirective, Directive: dir}
	}
	return Token{}
}

func tag(dates []calendar.Date, label ShiftLabel) []Entry {
	entries := make([]Entry, len(dates))
	for i, d := range dates {
		entries[i] = Entry{Date: d, Label: label}
	}
	return entries
}
