package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/workbook"
)

type convertOptions struct {
	in            string
	out           string
	year          int
	month         int
	orderFile     string
	template      string
	templateSheet string
	format        string
	summary       bool
}

func (c *cli) convertCmd() *cobra.Command {
	var opts convertOptions
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a roster workbook for one month",
		Long: `Reads the duty sheets of --in, expands them for --year/--month, and writes
the shift table to --out. With --template the table is filled into an existing
workbook instead, leaving every pre-filled cell alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(contextOf(cmd), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.in, "in", "", "Source roster workbook (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output path (default: {prefix}_YYYYMM_排班表.xlsx, stdout for json)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Target year (required)")
	cmd.Flags().IntVar(&opts.month, "month", 0, "Target month 1-12 (required)")
	cmd.Flags().StringVar(&opts.orderFile, "order", "", "Staff order file, one name per line")
	cmd.Flags().StringVar(&opts.template, "template", "", "Existing workbook to fill instead of a fresh sheet")
	cmd.Flags().StringVar(&opts.templateSheet, "template-sheet", "", "Sheet of --template to fill (default: first)")
	cmd.Flags().StringVar(&opts.format, "format", "xlsx", "Output format: xlsx or json")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Append shift count and hour columns")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("month")
	return cmd
}

func (c *cli) runConvert(ctx context.Context, stdout io.Writer, opts convertOptions) error {
	if opts.format != "xlsx" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (use xlsx or json)", opts.format)
	}

	facts, err := c.loadFacts(ctx)
	if err != nil {
		return err
	}

	src, err := workbook.NewReader(c.cfg.Workbook, c.logger).Open(opts.in)
	if err != nil {
		return err
	}

	var order []string
	if opts.orderFile != "" {
		data, err := os.ReadFile(opts.orderFile)
		if err != nil {
			return fmt.Errorf("failed to read staff order: %w", err)
		}
		order = roster.ParseStaffOrder(string(data))
	}

	res, err := roster.Convert(ctx, roster.Input{
		Year:       opts.year,
		Month:      time.Month(opts.month),
		Tables:     src.Tables,
		Registry:   src.Registry,
		Facts:      facts,
		StaffOrder: order,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeScheduleJSON(stdout, opts.out, res)
	}
	printDiagnostics(stdout, res.Diagnostics)

	out := opts.out
	if out == "" {
		out = fmt.Sprintf("%s_%d%02d_排班表.xlsx", c.cfg.Server.FilenamePrefix, opts.year, opts.month)
	}
	renderOpts := c.cfg.Render
	renderOpts.Summary = renderOpts.Summary || opts.summary
	renderer := workbook.NewRenderer(renderOpts, facts, c.logger)

	if opts.template != "" {
		f, err := excelize.OpenFile(opts.template)
		if err != nil {
			return fmt.Errorf("failed to open template: %w", err)
		}
		defer f.Close()
		stats, err := renderer.Fill(f, opts.templateSheet, res)
		if err != nil {
			return err
		}
		if err := f.SaveAs(out); err != nil {
			return fmt.Errorf("failed to save %s: %w", out, err)
		}
		fmt.Fprintf(stdout, "filled %s: %d written, %d kept, %d dates\n", out, stats.Written, stats.Skipped, stats.Dates)
		if len(stats.MissingNames) > 0 {
			fmt.Fprintf(stdout, "not in template: %s\n", strings.Join(stats.MissingNames, ", "))
		}
		return nil
	}

	f, err := renderer.Render(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(out); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "wrote %s: %d people, %d days\n", out, len(res.Schedule.Names), res.Schedule.Period().Len())
	return nil
}

func (c *cli) previewCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the sheets, identities, and staff found in a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := workbook.NewReader(c.cfg.Workbook, c.logger).Open(in)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), src)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Source roster workbook (required)")
	cmd.MarkFlagRequired("in")
	return cmd
}

func (c *cli) loadFacts(ctx context.Context) (*calendar.StaticFacts, error) {
	source, closeSource, err := c.cfg.Calendar.OpenSource(time.Now())
	if err != nil {
		return nil, err
	}
	defer closeSource()

	facts, err := source.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	c.logger.Debug("calendar loaded",
		zap.Int("holidays", len(facts.Holidays)),
		zap.Int("weekends", len(facts.Weekends)))
	return facts, nil
}

func printPreview(w io.Writer, src *workbook.Source) {
	fmt.Fprintf(w, "sheets:    %s\n", strings.Join(src.Sheets.All, ", "))
	fmt.Fprintf(w, "primary:   %s\n", src.Sheets.Primary)
	fmt.Fprintf(w, "secondary: %s\n", src.Sheets.Secondary)
	fmt.Fprintf(w, "identity:  %s\n", orDash(src.Sheets.Identity))
	fmt.Fprintf(w, "identities: %d (%s %d, %s %d)\n", src.Registry.Len(),
		roster.CategoryCivilService, src.Registry.Count(roster.IdentityCivilService),
		roster.CategoryContract, src.Registry.Count(roster.IdentityContract))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tIDENTITY")
	for _, name := range src.StaffNames() {
		fmt.Fprintf(tw, "%s\t%s\n", name, orDash(src.Registry.Lookup(name).Category()))
	}
	tw.Flush()
}

func printDiagnostics(w io.Writer, d roster.Diagnostics) {
	if d.Empty() {
		return
	}
	if len(d.RegistryOnly) > 0 {
		fmt.Fprintf(w, "in identity sheet only: %s\n", strings.Join(d.RegistryOnly, ", "))
	}
	for _, r := range d.RosterOnly {
		fmt.Fprintf(w, "not in identity sheet: %s\n", r.Name)
	}
	if len(d.RejectedRows) > 0 {
		fmt.Fprintf(w, "rows skipped: %s\n", strings.Join(d.RejectedRows, ", "))
	}
	if n := len(d.Ignored); n > 0 {
		fmt.Fprintf(w, "annotations ignored: %d\n", n)
	}
}

func writeScheduleJSON(stdout io.Writer, out string, res *roster.Result) error {
	w := stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"schedule":    res.Schedule,
		"rules":       res.Rules,
		"summaries":   res.Summaries,
		"diagnostics": res.Diagnostics,
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
