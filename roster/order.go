package roster

import (
	"strings"
	"unicode/utf8"
)

// ParseStaffOrder reads a user-supplied name list, one name per line.
// Lines like "江載仁 HN", "謝沛錞行助" or "孫  華" are reduced to the bare
// name. Title-only lines, names shorter than two characters, and repeats are
// dropped.
func ParseStaffOrder(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsJobTitle(line) {
			continue
		}
		name := NormalizeName(line)
		if utf8.RuneCountInString(name) < 2 || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Reorder returns a schedule keyed to names in the given order. Names not
// in s get an unassigned schedule rather than being dropped; names of s not
// listed are left out. An empty list returns s unchanged.
func (s *DailySchedule) Reorder(names []string) *DailySchedule {
	if len(names) == 0 {
		return s
	}
	out := NewDailySchedule(s.Year, s.Month)
	for _, name := range names {
		if p, ok := s.People[name]; ok {
			out.set(name, p)
		} else {
			out.set(name, s.blank())
		}
	}
	return out
}
