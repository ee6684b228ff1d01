// Package bootstrap wires configuration, logging, storage and the ledger
// service for the executables.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"tradeLedger/config"
	"tradeLedger/internal/adapters/logger"
	"tradeLedger/internal/adapters/sqlite"
	"tradeLedger/internal/app"
	"tradeLedger/internal/parser"
)

// Runtime holds the wired components. Close releases the database.
type Runtime struct {
	Config  *config.Config
	Logger  *logger.Logger
	Repo    *sqlite.Repository
	Service *app.LedgerService
}

// Open builds a Runtime from cfg. Logs go to logOut.
func Open(cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: logOut})
	appLogger.Debug(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	format := parser.DefaultFormat()
	if cfg.FormatProfile != "" {
		f, err := parser.LoadFormat(cfg.FormatProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to load format profile: %w", err)
		}
		format = f
		appLogger.Info(context.Background(), "Format profile loaded", map[string]interface{}{
			"path":    cfg.FormatProfile,
			"version": format.Version,
		})
	}
	p, err := parser.New(format)
	if err != nil {
		return nil, err
	}

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger.With("sqlite"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database repository: %w", err)
	}

	svc, err := app.NewLedgerService(appLogger.With("ledger"), repo, p)
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &Runtime{Config: cfg, Logger: appLogger, Repo: repo, Service: svc}, nil
}

// Close closes the database.
func (r *Runtime) Close() error {
	return r.Repo.Close()
}
