// Package watcher finds new brokerage exports under a directory tree and
// feeds them to the ledger on a schedule.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"tradeLedger/internal/app"
	"tradeLedger/internal/ports"
)

// ExportPattern matches export file names, including the " (N)" suffix
// browsers add to repeated downloads.
var ExportPattern = regexp.MustCompile(`Accounts_History(\s\(\d+\))?\.csv$`)

// Ingester runs the pipeline for one export file.
type Ingester interface {
	Ingest(ctx context.Context, path string) (*app.Summary, error)
}

// ScanResult counts the outcome of one scan.
type ScanResult struct {
	Found    int
	Ingested int
	Failed   int
}

// Scanner walks Dir and ingests every matching export. A file is removed only
// after a successful ingest, so failed files are retried on the next scan.
type Scanner struct {
	dir      string
	remove   bool
	ingester Ingester
	logger   ports.Logger
}

// ScannerConfig holds configuration for a Scanner.
type ScannerConfig struct {
	Dir             string
	RemoveOnSuccess bool
	Ingester        Ingester
	Logger          ports.Logger
}

// NewScanner creates a scanner.
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", ports.ErrConfigurationError)
	}
	if cfg.Ingester == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Scanner")
	}
	return &Scanner{
		dir:      cfg.Dir,
		remove:   cfg.RemoveOnSuccess,
		ingester: cfg.Ingester,
		logger:   cfg.Logger,
	}, nil
}

// Name identifies the scan job in scheduler logs.
func (s *Scanner) Name() string { return "export_scan" }

// Run performs one scan. Per-file failures are logged and counted, not
// returned; only a failure to walk the directory is an error.
func (s *Scanner) Run(ctx context.Context) error {
	_, err := s.Scan(ctx)
	return err
}

// Scan ingests the exports currently present, in path order.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult

	paths, err := s.find()
	if err != nil {
		return result, err
	}
	result.Found = len(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		summary, err := s.ingester.Ingest(ctx, path)
		if err != nil {
			result.Failed++
			s.logger.Error(ctx, err, "Export left in place after failed ingest", map[string]interface{}{"path": path})
			continue
		}
		result.Ingested++

		if s.remove {
			if err := os.Remove(path); err != nil {
				s.logger.Warn(ctx, "Failed to remove ingested export", map[string]interface{}{
					"path":   path,
					"run_id": summary.RunID,
					"error":  err.Error(),
				})
			}
		}
	}

	if result.Found > 0 {
		s.logger.Info(ctx, "Export scan finished", map[string]interface{}{
			"found":    result.Found,
			"ingested": result.Ingested,
			"failed":   result.Failed,
		})
	}
	return result, nil
}

func (s *Scanner) find() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && ExportPattern.MatchString(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
