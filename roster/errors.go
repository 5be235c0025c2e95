/*
errors.go - Error types for the roster pipeline

PURPOSE:
  The pipeline is best-effort: unparseable cells, impossible dates, and
  missing identities are diagnostics, not errors. What remains here is the
  short list of conditions that make a conversion meaningless.

ERROR CATEGORIES:
  1. Structural errors - a required sheet/table is absent or unreadable
  2. Input errors - target period out of range
  3. Configuration errors - no calendar facts wired in

SEE ALSO:
  - assemble.go: Diagnostics for non-fatal anomalies
  - workbook/reader.go: Raises SheetError
*/
package roster

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSheetNotFound is returned when the primary or secondary duty table
	// cannot be located in the source workbook.
	ErrSheetNotFound = errors.New("required sheet not found")

	// ErrUnreadableWorkbook is returned when the upload is not a workbook.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// ErrInvalidPeriod is returned for a year <= 0 or a month outside 1..12.
	ErrInvalidPeriod = errors.New("invalid target period")

	// ErrNoCalendar is returned when Convert is called without calendar facts.
	ErrNoCalendar = errors.New("calendar facts not configured")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// SheetError names the table that could not be found and what was there.
type SheetError struct {
	Role      string // "primary", "secondary"
	Available []string
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("%s duty sheet not found (sheets: %s)", e.Role, strings.Join(e.Available, ", "))
}

func (e *SheetError) Unwrap() error {
	return ErrSheetNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsStructural returns true if the source workbook itself is unusable.
func IsStructural(err error) bool {
	return errors.Is(err, ErrSheetNotFound) || errors.Is(err, ErrUnreadableWorkbook)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return IsStructural(err) || errors.Is(err, ErrInvalidPeriod)
}
