/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the BOR roster conversion server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load .env and the ward config
  2. Build the zap logger
  3. Open the calendar source (JSON files or SQLite store) and load facts
  4. Create API handler, router, and calendar refresher
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Ward config YAML (default: $ROSTER_CONFIG, else built-in defaults)
  -env     .env file to load (default: .env, missing is fine)
  -port    HTTP server port (overrides config and $PORT)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the refresher and close the calendar store
  4. Exit

EXAMPLES:
  # Defaults: holidays.json / weekend.json in the working directory
  ./server

  # Ward config plus a calendar database
  CALENDAR_DB=./calendar.db ./server -config=ward.yaml

ENVIRONMENT:
  ROSTER_CONFIG, PORT, CALENDAR_DB, HOLIDAYS_FILE, WEEKENDS_FILE, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Config loading
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Ward config YAML path")
	envPath := flag.String("env", ".env", "Environment file")
	port := flag.Int("port", 0, "HTTP server port (0 uses config)")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	if *configPath == "" {
		*configPath = os.Getenv("ROSTER_CONFIG")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// Initialize calendar source
	source, closeSource, err := cfg.Calendar.OpenSource(time.Now())
	if err != nil {
		return fmt.Errorf("failed to open calendar source: %w", err)
	}
	defer closeSource()

	facts, err := source.LoadFacts(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}
	logger.Info("calendar loaded",
		zap.Int("holidays", len(facts.Holidays)),
		zap.Int("weekends", len(facts.Weekends)))

	// Calendar edits over the API need the store itself.
	store, _ := source.(*sqlite.Store)

	handler := api.NewHandler(cfg, facts, store, logger)
	router := api.NewRouter(handler)

	refresher := api.NewCalendarRefresher(source, handler, logger)
	refresher.Interval = cfg.Server.RefreshInterval
	refresher.Start()
	defer refresher.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)),
			zap.Int64("max_upload_mb", cfg.Server.MaxUploadMB))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
