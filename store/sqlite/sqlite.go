/*
Package sqlite provides a SQLite-backed calendar store.

PURPOSE:
  Holds the ward's national-holiday and designated-weekend dates so they can
  be maintained without redeploying JSON files. The roster pipeline only
  reads from it, through LoadFacts, which returns an immutable snapshot.

KEY TABLES:
  calendar_dates:   One row per (date, kind). kind is 'holiday' or 'weekend'.
  calendar_imports: One row per bulk import, for auditing where dates came from.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WAL mode lets snapshot loads run
  while an import is in progress.

USAGE:
  store, err := sqlite.New("./data/calendar.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  facts, err := store.LoadFacts(ctx)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - calendar/facts.go: Source interface implemented here
  - calendar/source.go: JSON file source
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/roster-engine/calendar"
)

// Kind distinguishes the two date sets.
type Kind string

const (
	KindHoliday Kind = "holiday"
	KindWeekend Kind = "weekend"
)

// ErrInvalidKind is returned for a kind other than holiday or weekend.
var ErrInvalidKind = errors.New("invalid calendar date kind")

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHoliday, KindWeekend:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// CalendarDate is one stored date.
type CalendarDate struct {
	Date calendar.Date `json:"date"`
	Kind Kind          `json:"kind"`
	Name string        `json:"name,omitempty"`
}

// ImportRecord describes one bulk import.
type ImportRecord struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Source    string    `json:"source"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implements calendar.Source using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check
var _ calendar.Source = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendar_dates (
		date TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('holiday', 'weekend')),
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (date, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_dates_kind
		ON calendar_dates(kind, date);

	CREATE TABLE IF NOT EXISTS calendar_imports (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDAR DATES
// =============================================================================

// SaveDate inserts or renames one date.
func (s *Store) SaveDate(ctx context.Context, d CalendarDate) error {
	if _, err := ParseKind(string(d.Kind)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveDate(ctx, s.db, d)
}

func saveDate(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, d CalendarDate) error {
	query := `
		INSERT INTO calendar_dates (date, kind, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, kind) DO UPDATE SET
			name = excluded.name
	`
	_, err := db.ExecContext(ctx, query,
		d.Date.String(),
		d.Kind,
		d.Name,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", d.Kind, d.Date, err)
	}
	return nil
}

// DeleteDate removes one date of the given kind.
func (s *Store) DeleteDate(ctx context.Context, kind Kind, date calendar.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM calendar_dates WHERE date = ? AND kind = ?", date.String(), kind)
	return err
}

// ListDates returns dates of kind in ascending order. year 0 means all
// years; an empty kind means both kinds.
func (s *Store) ListDates(ctx context.Context, kind Kind, year int) ([]CalendarDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT date, kind, name
		FROM calendar_dates
		WHERE (? = '' OR kind = ?)
		  AND (? = 0 OR strftime('%Y', date) = ?)
		ORDER BY date ASC, kind ASC
	`
	rows, err := s.db.QueryContext(ctx, query, kind, kind, year, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to list dates: %w", err)
	}
	defer rows.Close()

	var out []CalendarDate
	for rows.Next() {
		var d CalendarDate
		var dateStr string
		if err := rows.Scan(&dateStr, &d.Kind, &d.Name); err != nil {
			return nil, err
		}
		if d.Date, err = calendar.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("corrupt date %q: %w", dateStr, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ImportDates stores every date of set as kind in one transaction and
// records the import.
func (s *Store) ImportDates(ctx context.Context, kind Kind, source string, set calendar.DateSet) (*ImportRecord, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, d := range set.Sorted() {
		if err := saveDate(ctx, sqlTx, CalendarDate{Date: d, Kind: kind}); err != nil {
			return nil, err
		}
	}

	rec := &ImportRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Count:     len(set),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err = sqlTx.ExecContext(ctx,
		"INSERT INTO calendar_imports (id, kind, source, count, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.Kind, rec.Source, rec.Count, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListImports returns import records, newest first.
func (s *Store) ListImports(ctx context.Context) ([]ImportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, source, count, created_at FROM calendar_imports ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var r ImportRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Source, &r.Count, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Years returns every year that has at least one stored date.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT strftime('%Y', date) AS y FROM calendar_dates ORDER BY y ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y string
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(y)
		if err != nil {
			continue
		}
		years = append(years, n)
	}
	return years, rows.Err()
}

// LoadFacts reads both date sets into a fresh snapshot.
func (s *Store) LoadFacts(ctx context.Context) (*calendar.StaticFacts, error) {
	dates, err := s.ListDates(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	holidays, weekends := calendar.DateSet{}, calendar.DateSet{}
	for _, d := range dates {
		switch d.Kind {
		case KindHoliday:
			holidays.Add(d.Date)
		case KindWeekend:
			weekends.Add(d.Date)
		}
	}
	return calendar.NewStaticFacts(holidays, weekends), nil
}
