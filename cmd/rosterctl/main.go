/*
main.go - rosterctl command line

PURPOSE:
  Offline access to the same pipeline the server runs: convert a roster
  workbook on a workstation, inspect what the reader finds in it, and
  maintain the SQLite calendar store.

COMMANDS:
  rosterctl convert  --in 11502.xlsx --year 2026 --month 2 [--order staff.txt]
                     [--template last.xlsx] [--out out.xlsx] [--format xlsx|json]
  rosterctl preview  --in 11502.xlsx
  rosterctl calendar import --db cal.db --kind holiday holidays.json
  rosterctl calendar list   --db cal.db --year 2026 [--kind weekend]
  rosterctl calendar history --db cal.db

GLOBAL FLAGS:
  --config     Ward config YAML (default: $ROSTER_CONFIG)
  --log-level  debug, info, warn, error (overrides config)

Every invocation logs with its own run_id. A missing duty sheet or an
unreadable workbook exits 1.

SEE ALSO:
  - convert.go, calendar.go: Subcommands
  - cmd/server: HTTP front end for the same pipeline
*/
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/config"
)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Convert ward duty rosters into daily shift tables",
		Long: `rosterctl reads a ward's duty roster workbook (primary and secondary
duty sheets plus an identity sheet), expands the free-text annotations into a
day-by-day shift table, and writes it as a workbook.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Ward config YAML (default: $ROSTER_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(c.convertCmd())
	root.AddCommand(c.previewCmd())
	root.AddCommand(c.calendarCmd())
	return root
}

// setup loads configuration and builds the run's logger.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	path := c.configPath
	if path == "" {
		path = os.Getenv("ROSTER_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger.With(zap.String("run_id", uuid.NewString()))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
