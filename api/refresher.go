/*
refresher.go - Periodic calendar reload

PURPOSE:
  Holiday files and the calendar store are edited while the server runs
  (the government publishes next year's holidays mid-year). The refresher
  reloads the calendar source on an interval and swaps the handler's
  snapshot, so new dates apply without a restart.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Loads once immediately on start
  - A failed load keeps the previous snapshot and logs a warning
  - Requests read one snapshot each; a swap never affects a running request

USAGE:
  refresher := NewCalendarRefresher(source, handler, logger)
  refresher.Interval = cfg.Server.RefreshInterval
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: Handler.SetFacts
  - calendar/source.go, store/sqlite: Sources
*/
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
)

// loadTimeout bounds one reload.
const loadTimeout = 30 * time.Second

// CalendarRefresher periodically reloads calendar facts into a Handler.
type CalendarRefresher struct {
	Source   calendar.Source
	Handler  *Handler
	Interval time.Duration
	Logger   *zap.Logger

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun atomic.Int64
}

// NewCalendarRefresher creates a refresher with a one hour interval.
func NewCalendarRefresher(source calendar.Source, handler *Handler, logger *zap.Logger) *CalendarRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarRefresher{
		Source:   source,
		Handler:  handler,
		Interval: time.Hour,
		Logger:   logger.Named("calendar"),
	}
}

// Start begins periodic reloads. A non-positive interval disables it.
func (cr *CalendarRefresher) Start() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.Interval <= 0 {
		cr.Logger.Info("refresher disabled")
		return
	}
	if cr.ticker != nil {
		return
	}

	cr.ticker = time.NewTicker(cr.Interval)
	cr.stop = make(chan struct{})
	cr.wg.Add(1)

	go cr.run(cr.ticker, cr.stop)

	cr.Logger.Info("refresher started", zap.Duration("interval", cr.Interval))
}

// Stop stops the refresher and waits for an in-flight reload.
func (cr *CalendarRefresher) Stop() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.ticker != nil {
		cr.ticker.Stop()
		close(cr.stop)
		cr.wg.Wait()
		cr.ticker = nil
		cr.Logger.Info("refresher stopped")
	}
}

func (cr *CalendarRefresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cr.wg.Done()

	// Run immediately on start
	cr.reload()

	for {
		select {
		case <-ticker.C:
			cr.reload()
		case <-stop:
			return
		}
	}
}

func (cr *CalendarRefresher) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := cr.Refresh(ctx); err != nil {
		cr.Logger.Warn("calendar reload failed, keeping previous snapshot", zap.Error(err))
	}
}

// Refresh loads the source once and swaps the snapshot on success.
func (cr *CalendarRefresher) Refresh(ctx context.Context) error {
	facts, err := cr.Source.LoadFacts(ctx)
	if err != nil {
		return err
	}
	cr.Handler.SetFacts(facts)

	cr.lastRun.Store(time.Now().UnixNano())

	cr.Logger.Debug("calendar reloaded",
		zap.Int("holidays", len(facts.Holidays)),
		zap.Int("weekends", len(facts.Weekends)))
	return nil
}

// LastRun returns when the snapshot was last replaced, zero if never.
func (cr *CalendarRefresher) LastRun() time.Time {
	n := cr.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
