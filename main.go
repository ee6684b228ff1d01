package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeLedger/config"
	"tradeLedger/internal/adapters/httpapi"
	"tradeLedger/internal/bootstrap"
	"tradeLedger/internal/watcher"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger, Repository and Ledger Service
	rt, err := bootstrap.Open(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize ledger: %v", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger := rt.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Export Scanner
	scanner, err := watcher.NewScanner(watcher.ScannerConfig{
		Dir:             cfg.WatchDir,
		RemoveOnSuccess: cfg.RemoveOnSuccess,
		Ingester:        rt.Service,
		Logger:          appLogger.With("watcher"),
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize export scanner")
		log.Fatalf("FATAL: Failed to initialize export scanner: %v", err)
	}

	// 4. Schedule the scan
	sched := watcher.NewScheduler(appLogger.With("scheduler"))
	if err := sched.AddJob(ctx, cfg.ScanSchedule, scanner); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to schedule export scan")
		log.Fatalf("FATAL: Failed to schedule export scan: %v", err)
	}

	// 5. Start the HTTP API, unless disabled
	var srv *httpapi.Server
	if cfg.HTTPAddr != "" {
		srv = httpapi.New(httpapi.Config{Addr: cfg.HTTPAddr, Ledger: rt.Service, Logger: appLogger.With("http")})
		go func() {
			if err := srv.Start(ctx); err != nil {
				appLogger.Error(ctx, err, "HTTP server exited with error")
				stop()
			}
		}()
	}

	// 6. Pick up anything already waiting, then run on schedule
	appLogger.Info(ctx, "Waiting for Accounts History exports", map[string]interface{}{
		"dir":      cfg.WatchDir,
		"schedule": cfg.ScanSchedule,
	})
	if err := sched.RunNow(ctx, scanner); err != nil {
		appLogger.Warn(ctx, "Initial export scan failed", map[string]interface{}{"error": err.Error()})
	}
	sched.Start(ctx)

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutdown signal received")

	sched.Stop(context.Background())
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, err, "Error shutting down HTTP server")
		}
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
