/*
Package config loads the ward configuration.

PURPOSE:
  Every ward lays out its roster workbook a little differently: which row
  holds the headers, what the sheets are called, which header prefixes mark
  the annotation columns. Those details live in a YAML file so a new ward
  can be onboarded without code changes.

YAML SCHEMA:
  workbook:
    header_row: 2
    primary_keyword: 主
    secondary_keyword: 副
    identity_keywords: [身分, 身份]
    columns:
      - {prefix: 假日, column: holiday, separator: "、"}
      - {prefix: 大夜, column: night, separator: "."}
  render:
    sheet_name: 排班表
    font_family: 標楷體
    font_size: 12
    summary: false
  calendar:
    holidays_file: holidays.json
    weekends_file: weekend.json
    db: ""                 # SQLite calendar store; overrides the files
    derive_weekends: true  # Sat/Sun when no weekend file exists
  server:
    port: 8080
    max_upload_mb: 16
    allowed_origins: ["*"]
    refresh_interval: 1h
    filename_prefix: BOR
  log_level: info

LOADING ORDER:
  1. Defaults
  2. YAML file (keys present override defaults)
  3. Environment (PORT, CALENDAR_DB, HOLIDAYS_FILE, WEEKENDS_FILE, LOG_LEVEL),
     optionally seeded from a .env file
  4. Validate

SEE ALSO:
  - workbook/layout.go: Layout and RenderOptions
  - cmd/server, cmd/rosterctl: Callers
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/workbook"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full ward configuration.
type Config struct {
	Workbook workbook.Layout        `yaml:"workbook"`
	Render   workbook.RenderOptions `yaml:"render"`
	Calendar CalendarConfig         `yaml:"calendar"`
	Server   ServerConfig           `yaml:"server"`
	LogLevel string                 `yaml:"log_level"`
}

// CalendarConfig says where holiday and weekend dates come from.
type CalendarConfig struct {
	HolidaysFile   string `yaml:"holidays_file"`
	WeekendsFile   string `yaml:"weekends_file"`
	DB             string `yaml:"db"`
	DeriveWeekends bool   `yaml:"derive_weekends"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FilenamePrefix  string        `yaml:"filename_prefix"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 { return s.MaxUploadMB << 20 }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workbook: workbook.DefaultLayout(),
		Render:   workbook.DefaultRenderOptions(),
		Calendar: CalendarConfig{
			HolidaysFile:   "holidays.json",
			WeekendsFile:   "weekend.json",
			DeriveWeekends: true,
		},
		Server: ServerConfig{
			Port:           8080,
			MaxUploadMB:    16,
			AllowedOrigins: []string{"*"},
			FilenamePrefix: "BOR",
		},
		LogLevel: "info",
	}
}

// Parse overlays YAML onto the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables and revalidates.
// getenv is os.Getenv in production.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	if v := getenv("CALENDAR_DB"); v != "" {
		c.Calendar.DB = v
	}
	if v := getenv("HOLIDAYS_FILE"); v != "" {
		c.Calendar.HolidaysFile = v
	}
	if v := getenv("WEEKENDS_FILE"); v != "" {
		c.Calendar.WeekendsFile = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return c.Validate()
}

// =============================================================================
// VALIDATION
// =============================================================================

var knownColumns = map[roster.Column]bool{
	roster.ColumnRemarks:  true,
	roster.ColumnRestDays: true,
	roster.ColumnNight:    true,
	roster.ColumnEvening:  true,
	roster.ColumnHoliday:  true,
}

// Validate checks the configuration for values that would make every
// conversion fail.
func (c Config) Validate() error {
	wb := c.Workbook
	if wb.HeaderRow < 1 {
		return fmt.Errorf("%w: workbook.header_row must be >= 1", ErrInvalidConfig)
	}
	if wb.PrimaryKeyword == "" || wb.SecondaryKeyword == "" {
		return fmt.Errorf("%w: workbook sheet keywords must not be empty", ErrInvalidConfig)
	}
	if len(wb.Columns) == 0 {
		return fmt.Errorf("%w: workbook.columns must not be empty", ErrInvalidConfig)
	}
	for i, col := range wb.Columns {
		if col.Prefix == "" {
			return fmt.Errorf("%w: workbook.columns[%d].prefix is empty", ErrInvalidConfig, i)
		}
		if !knownColumns[col.Column] {
			return fmt.Errorf("%w: workbook.columns[%d].column %q unknown", ErrInvalidConfig, i, col.Column)
		}
	}

	if n := utf8.RuneCountInString(c.Render.SheetName); n == 0 || n > 31 {
		return fmt.Errorf("%w: render.sheet_name must be 1-31 characters", ErrInvalidConfig)
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("%w: render.font_size must be positive", ErrInvalidConfig)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive", ErrInvalidConfig)
	}
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("%w: server.refresh_interval must not be negative", ErrInvalidConfig)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
