package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/classifier"
	"tradeLedger/internal/domain"
	"tradeLedger/internal/fingerprint"
	"tradeLedger/internal/matcher"
	"tradeLedger/internal/parser"
	"tradeLedger/internal/ports"
)

// Summary reports the outcome of one ingest run.
type Summary struct {
	RunID      string
	Path       string
	Parsed     int // Records read from the export
	New        int // Records appended to the ledger
	Duplicates int // Records already in the ledger, or repeated within the export
	Totals     []domain.MonthlyTotal
}

// LedgerService orchestrates ingestion into the ledger and the derived views.
type LedgerService struct {
	logger ports.Logger
	repo   ports.LedgerRepository
	parser *parser.Parser

	// Guards the dedup check and append as one step; queries take the read side
	// so they never see a batch mid-append.
	mu sync.RWMutex
}

// NewLedgerService creates a new application service instance.
func NewLedgerService(logger ports.Logger, repo ports.LedgerRepository, p *parser.Parser) (*LedgerService, error) {
	if logger == nil || repo == nil || p == nil {
		return nil, fmt.Errorf("missing required dependencies for LedgerService")
	}
	return &LedgerService{
		logger: logger,
		repo:   repo,
		parser: p,
	}, nil
}

// Ingest runs the whole pipeline for the export at path: parse, classify,
// fingerprint, dedup against the ledger and append the new records. Any error
// aborts the run with nothing written, and the caller keeps the file.
func (s *LedgerService) Ingest(ctx context.Context, path string) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), Path: path}
	fields := map[string]interface{}{"run_id": summary.RunID, "path": path}
	s.logger.Info(ctx, "Ingesting export", fields)

	batch, err := s.parser.ParseFile(path)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to parse export", fields)
		return nil, err
	}
	summary.Parsed = batch.Len()

	if err := classifier.ClassifyRecords(batch.Records, batch.Rows); err != nil {
		s.logger.Error(ctx, err, "Failed to classify export", fields)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fingerprint.Assign(batch.Records)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.Fingerprints(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load ledger fingerprints", fields)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fresh, duplicates := fingerprint.Partition(batch.Records, existing)
	summary.Duplicates = len(duplicates)

	n, err := s.repo.Append(ctx, fresh)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to append records to ledger", fields)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	summary.New = n

	totals, err := s.monthlyTotals(ctx)
	if err != nil {
		// The batch is committed; the summary is still reported without totals.
		s.logger.Warn(ctx, "Failed to compute monthly totals after ingest", map[string]interface{}{
			"run_id": summary.RunID,
			"error":  err.Error(),
		})
	}
	summary.Totals = totals

	s.logger.Info(ctx, "Export ingested", map[string]interface{}{
		"run_id":     summary.RunID,
		"path":       path,
		"parsed":     summary.Parsed,
		"new":        summary.New,
		"duplicates": summary.Duplicates,
	})
	for _, t := range totals {
		s.logger.Info(ctx, "Closed position total", map[string]interface{}{
			"run_id":    summary.RunID,
			"month":     t.Month,
			"account":   t.Account,
			"gain_loss": t.GainLoss.StringFixed(2),
		})
	}
	return summary, nil
}

// Records returns every ledger record.
func (s *LedgerService) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.FindAll(ctx)
}

// TradingRecords returns the opening and closing trades.
func (s *LedgerService) TradingRecords(ctx context.Context) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.FindByActionTypes(ctx, domain.TradingActions...)
}

// ClosedPositions returns the matched round trips.
func (s *LedgerService) ClosedPositions(ctx context.Context) ([]domain.ClosedPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closedPositions(ctx)
}

// OpenPositions returns the opening trades with no closing match.
func (s *LedgerService) OpenPositions(ctx context.Context) ([]domain.OpenPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.repo.FindByActionTypes(ctx, domain.TradingActions...)
	if err != nil {
		return nil, err
	}
	return matcher.OpenPositions(records), nil
}

// MonthlyTotals returns realized gain/loss per close month and account.
func (s *LedgerService) MonthlyTotals(ctx context.Context) ([]domain.MonthlyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monthlyTotals(ctx)
}

// Stats returns performance metrics over the closed positions.
func (s *LedgerService) Stats(ctx context.Context) (*analytics.PerformanceMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	closed, err := s.closedPositions(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.AnalyzePerformance(closed), nil
}

// Callers hold s.mu.
func (s *LedgerService) closedPositions(ctx context.Context) ([]domain.ClosedPosition, error) {
	records, err := s.repo.FindByActionTypes(ctx, domain.TradingActions...)
	if err != nil {
		return nil, err
	}
	return matcher.ClosedPositions(records), nil
}

func (s *LedgerService) monthlyTotals(ctx context.Context) ([]domain.MonthlyTotal, error) {
	closed, err := s.closedPositions(ctx)
	if err != nil {
		return nil, err
	}
	return matcher.ClosedPositionTotals(closed), nil
}
