/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the filing engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Create API handler; attach the email notifier when configured
  5. Start the payroll pre-generation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or filings.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/filings.db"
  ./server -db=":memory:" -port=3000
  STAGE=prod LOG_LEVEL=warn ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/api"
	"github.com/ledgerdesk/filing-engine/config"
	"github.com/ledgerdesk/filing-engine/logger"
	"github.com/ledgerdesk/filing-engine/notify"
	"github.com/ledgerdesk/filing-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(logger.Config{Level: cfg.LogLevel, Stage: cfg.Stage})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if cfg.DotEnvErr != nil {
		logg.Debug("no .env file loaded", zap.Error(cfg.DotEnvErr))
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logg.Fatal("failed to initialize database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logg)
	if cfg.NotificationsEnabled() {
		handler.Confirmer.Notifier = notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.NotifyFrom, cfg.NotifyTo, logg)
		logg.Info("confirmation emails enabled", zap.Strings("to", cfg.NotifyTo))
	}

	// Payroll pre-generation
	scheduler := api.NewPayrollScheduler(handler.Generator, logg)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logg.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
			zap.String("stage", cfg.Stage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logg.Info("server stopped")
}
