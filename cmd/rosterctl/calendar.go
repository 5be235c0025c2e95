package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/store/sqlite"
)

func (c *cli) calendarCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Maintain the SQLite calendar store",
		Long: `Manage the holiday and weekend dates used by convert and the server.

Available subcommands:
  import  - Load a JSON date list (holidays.json, weekend.json)
  list    - Show stored dates
  history - Show past imports`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Calendar database (default: calendar.db from config)")

	// The store path resolves after setup has loaded the config.
	open := func() (*sqlite.Store, error) {
		path := dbPath
		if path == "" {
			path = c.cfg.Calendar.DB
		}
		if path == "" {
			return nil, fmt.Errorf("no calendar database: pass --db or set CALENDAR_DB")
		}
		return sqlite.New(path)
	}

	cmd.AddCommand(c.calendarImportCmd(open))
	cmd.AddCommand(c.calendarListCmd(open))
	cmd.AddCommand(c.calendarHistoryCmd(open))
	return cmd
}

func (c *cli) calendarImportCmd(open func() (*sqlite.Store, error)) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import JSON date lists into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := sqlite.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return c.importDates(contextOf(cmd), cmd.OutOrStdout(), store, kind, args)
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", string(sqlite.KindHoliday), "Date kind: holiday or weekend")
	return cmd
}

func (c *cli) importDates(ctx context.Context, w io.Writer, store *sqlite.Store, kind sqlite.Kind, files []string) error {
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		set, err := calendar.DecodeDateSet(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		rec, err := store.ImportDates(ctx, kind, filepath.Base(path), set)
		if err != nil {
			return err
		}
		c.logger.Info("calendar imported",
			zap.String("import_id", rec.ID),
			zap.String("kind", string(kind)),
			zap.Int("count", rec.Count))
		fmt.Fprintf(w, "imported %d %s dates from %s (%s)\n", rec.Count, kind, path, rec.ID)
	}
	return nil
}

func (c *cli) calendarListCmd(open func() (*sqlite.Store, error)) *cobra.Command {
	var (
		year     int
		kindFlag string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind sqlite.Kind
			if kindFlag != "" {
				k, err := sqlite.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = k
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			dates, err := store.ListDates(contextOf(cmd), kind, year)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDAY\tKIND\tNAME")
			for _, d := range dates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Date, d.Date.Weekday().String()[:3], d.Kind, orDash(d.Name))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Only this year (default: all)")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only holiday or weekend dates")
	return cmd
}

func (c *cli) calendarHistoryCmd(open func() (*sqlite.Store, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			imports, err := store.ListImports(contextOf(cmd))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tCOUNT\tSOURCE\tAT")
			for _, rec := range imports {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					rec.ID, rec.Kind, rec.Count, rec.Source, rec.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
