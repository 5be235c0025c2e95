package roster

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
)

// Input is everything one conversion needs. Facts and Registry are read-only
// and may be shared between concurrent conversions.
type Input struct {
	Year       int
	Month      time.Month
	Tables     SourceTables
	Registry   *IdentityRegistry
	Facts      calendar.Facts
	StaffOrder []string
	Logger     *zap.Logger
}

// Result is the output of one conversion.
type Result struct {
	Schedule    *DailySchedule
	Rules       MonthlyRuleRecord
	Diagnostics Diagnostics
	Summaries   []Summary
	Registry    *IdentityRegistry
}

// Convert runs assembly, expansion, ordering, and summary for one month.
func Convert(ctx context.Context, in Input) (*Result, error) {
	if in.Year <= 0 || in.Month < time.January || in.Month > time.December {
		return nil, fmt.Errorf("%w: %d-%02d", ErrInvalidPeriod, in.Year, int(in.Month))
	}
	if in.Facts == nil {
		return nil, ErrNoCalendar
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	registry := in.Registry
	if registry == nil {
		registry = NewIdentityRegistry()
	}
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	asm := NewAssembler(in.Year, in.Month, in.Facts, registry, logger).Assemble(in.Tables)

	sched := Expander{Year: in.Year, Month: in.Month, Facts: in.Facts}.
		Expand(asm.Names, asm.Events, registry).
		Reorder(in.StaffOrder)

	logger.Info("roster converted",
		zap.Int("year", in.Year),
		zap.Int("month", int(in.Month)),
		zap.Int("people", len(sched.Names)),
		zap.Bool("reordered", len(in.StaffOrder) > 0))

	return &Result{
		Schedule:    sched,
		Rules:       asm.Rules,
		Diagnostics: asm.Diagnostics,
		Summaries:   Summarize(sched),
		Registry:    registry,
	}, nil
}
