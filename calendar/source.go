package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileSource reads holidays and weekend dates from JSON arrays of ISO keys,
// e.g. ["2026-02-16", "2026-02-17"].
type FileSource struct {
	HolidaysPath string
	WeekendsPath string

	// DeriveWeekendYears, when set and the weekend file is absent, fills the
	// weekend set with every Saturday and Sunday of these years.
	DeriveWeekendYears []int
}

// LoadFacts implements Source. A missing file yields an empty set; a file
// that exists but does not parse is an error.
func (s FileSource) LoadFacts(_ context.Context) (*StaticFacts, error) {
	holidays, _, err := LoadDateFile(s.HolidaysPath)
	if err != nil {
		return nil, err
	}
	weekends, found, err := LoadDateFile(s.WeekendsPath)
	if err != nil {
		return nil, err
	}
	if !found && len(s.DeriveWeekendYears) > 0 {
		weekends = DeriveWeekends(s.DeriveWeekendYears...)
	}
	return NewStaticFacts(holidays, weekends), nil
}

// LoadDateFile reads one JSON date array. The bool reports whether the file
// existed.
func LoadDateFile(path string) (DateSet, bool, error) {
	if path == "" {
		return DateSet{}, false, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DateSet{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read calendar file %s: %w", path, err)
	}
	set, err := DecodeDateSet(b)
	if err != nil {
		return nil, true, fmt.Errorf("calendar file %s: %w", path, err)
	}
	return set, true, nil
}

// DecodeDateSet parses a JSON array of ISO date keys.
func DecodeDateSet(b []byte) (DateSet, error) {
	var keys []string
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("decode date list: %w", err)
	}
	set, bad := ParseDateSet(keys)
	if len(bad) > 0 {
		return nil, fmt.Errorf("malformed dates: %v", bad)
	}
	return set, nil
}
