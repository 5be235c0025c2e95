package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Workbook.HeaderRow)
	assert.Equal(t, "排班表", cfg.Render.SheetName)
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadBytes())
	assert.Len(t, cfg.Workbook.Columns, 5)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	// GIVEN: A ward file overriding a few keys
	data := []byte(`
workbook:
  header_row: 3
  columns:
    - prefix: 夜班
      column: night
      separator: "."
render:
  summary: true
server:
  port: 9090
  refresh_interval: 30m
log_level: debug
`)

	// WHEN: Parsing
	cfg, err := config.Parse(data)
	require.NoError(t, err)

	// THEN: Given keys override, the rest keep defaults
	assert.Equal(t, 3, cfg.Workbook.HeaderRow)
	require.Len(t, cfg.Workbook.Columns, 1)
	assert.Equal(t, roster.ColumnNight, cfg.Workbook.Columns[0].Column)
	assert.Equal(t, "主", cfg.Workbook.PrimaryKeyword)
	assert.True(t, cfg.Render.Summary)
	assert.Equal(t, "標楷體", cfg.Render.FontFamily)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.RefreshInterval)
	assert.Equal(t, int64(16), cfg.Server.MaxUploadMB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":        "workbook: [",
		"header row":      "workbook: {header_row: 0}",
		"unknown column":  "workbook: {columns: [{prefix: x, column: lunch}]}",
		"empty prefix":    "workbook: {columns: [{prefix: '', column: night}]}",
		"long sheet name": "render: {sheet_name: '0123456789012345678901234567890123'}",
		"port":            "server: {port: 70000}",
		"upload":          "server: {max_upload_mb: 0}",
		"log level":       "log_level: chatty",
	}
	for name, data := range cases {
		_, err := config.Parse([]byte(data))
		assert.Error(t, err, name)
	}

	_, err := config.Parse([]byte("server: {port: 0}"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "ward.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: {port: 3000}\n"), 0o644))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	err := cfg.ApplyEnv(envOf(map[string]string{
		"PORT":          "3001",
		"CALENDAR_DB":   "/data/calendar.db",
		"HOLIDAYS_FILE": "/etc/ward/holidays.json",
		"LOG_LEVEL":     "warn",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "/data/calendar.db", cfg.Calendar.DB)
	assert.Equal(t, "/etc/ward/holidays.json", cfg.Calendar.HolidaysFile)
	assert.Equal(t, "weekend.json", cfg.Calendar.WeekendsFile)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg = config.Default()
	assert.ErrorIs(t, cfg.ApplyEnv(envOf(map[string]string{"PORT": "eighty"})), config.ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROSTER_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ROSTER_TEST_DOTENV") })

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("ROSTER_TEST_DOTENV"))
}

func TestParseLevel(t *testing.T) {
	lvl, err := config.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	logger, err := config.NewLogger("error")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestCalendarConfig_OpenSource(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	// GIVEN: No files on disk and derived weekends
	dir := t.TempDir()
	cc := config.CalendarConfig{
		HolidaysFile:   filepath.Join(dir, "holidays.json"),
		WeekendsFile:   filepath.Join(dir, "weekend.json"),
		DeriveWeekends: true,
	}
	src, closeFn, err := cc.OpenSource(now)
	require.NoError(t, err)
	defer closeFn()

	facts, err := src.LoadFacts(ctx)
	require.NoError(t, err)
	assert.True(t, facts.IsWeekend(calendar.MustDate(2026, time.February, 7)))
	assert.True(t, facts.IsWeekend(calendar.MustDate(2027, time.January, 2)))
	assert.False(t, facts.IsHoliday(calendar.MustDate(2026, time.February, 16)))

	// GIVEN: A database path
	cc.DB = filepath.Join(dir, "calendar.db")
	src, closeDB, err := cc.OpenSource(now)
	require.NoError(t, err)
	defer closeDB()
	_, ok := src.(*sqlite.Store)
	assert.True(t, ok)
}
