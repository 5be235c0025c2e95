package roster

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// =============================================================================
// NAME NORMALIZATION
// =============================================================================
// Every ingestion boundary (duty tables, identity sheet, user ordering) goes
// through NormalizeName so the same person always lands on the same key.

// JobTitles are trailing role suffixes stripped from names. A cell holding
// only one of these is not a person.
var JobTitles = []string{"副護理長", "護理長", "護理師", "護士", "專師", "行助", "組長", "主任"}

// RankMarkers are seniority markers that may follow a name. They are ASCII
// and fall out with the alphanumeric edge strip.
var RankMarkers = []string{"AHN", "HN", "N4", "N3", "N2", "N1", "N"}

var (
	leadingDecoration  = regexp.MustCompile(`^[A-Za-z0-9\s*]+`)
	trailingDecoration = regexp.MustCompile(`[A-Za-z0-9\s*]+$`)
	namePunctuation    = regexp.MustCompile(`[。，、；：「」『』【】（）().,;:\[\]]`)
)

// FoldWidth maps full-width ASCII variants ("１／１５", "＊", "（") to ASCII
// and the ideographic space to a plain space. CJK punctuation such as "、"
// keeps its canonical width.
func FoldWidth(s string) string {
	return strings.ReplaceAll(width.Fold.String(s), "\u3000", " ")
}

// NormalizeName canonicalizes a staff name.
func NormalizeName(raw string) string {
	name := FoldWidth(raw)
	for {
		before := name
		name = leadingDecoration.ReplaceAllString(name, "")
		name = trailingDecoration.ReplaceAllString(name, "")
		name = removeSpaces(name)
		name = stripTitle(name)
		if name == before {
			return name
		}
	}
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func stripTitle(name string) string {
	for _, t := range JobTitles {
		if strings.HasSuffix(name, t) {
			return strings.TrimSuffix(name, t)
		}
	}
	return name
}

// IsJobTitle reports whether s, after width folding and trimming, is only a
// title or rank marker.
func IsJobTitle(s string) bool {
	s = strings.TrimSpace(FoldWidth(s))
	for _, t := range JobTitles {
		if s == t {
			return true
		}
	}
	for _, m := range RankMarkers {
		if s == m {
			return true
		}
	}
	return false
}

// IsPersonName reports whether a normalized name looks like a staff record
// rather than stray annotation text.
func IsPersonName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 6 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	if first == '.' || unicode.IsDigit(first) {
		return false
	}
	return !namePunctuation.MatchString(name)
}
