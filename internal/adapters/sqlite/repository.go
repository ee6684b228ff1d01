package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver

	"tradeLedger/internal/domain"
	"tradeLedger/internal/ports"
)

// Repository implements the ports.LedgerRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/accounts_history.db" // Default path
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		cfg.Logger.Debug(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serializes writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// Decimals and dates are stored as TEXT so values round-trip exactly and the
// driver never converts them to time.Time.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS accounts_history (
		fingerprint TEXT NOT NULL PRIMARY KEY,
		run_date TEXT NOT NULL,
		account TEXT NOT NULL,
		action TEXT NOT NULL,
		action_type TEXT NOT NULL,
		symbol TEXT,
		security_description TEXT NOT NULL,
		security_type TEXT,
		quantity TEXT,
		price TEXT,
		commission TEXT,
		fees TEXT,
		accrued_interest TEXT,
		amount TEXT NOT NULL,
		settlement_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_history_action_type ON accounts_history (action_type);
	CREATE INDEX IF NOT EXISTS idx_accounts_history_account_symbol ON accounts_history (account, symbol);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

const selectColumns = `
	SELECT fingerprint, run_date, account, action, action_type, symbol,
	       security_description, security_type, quantity, price, commission,
	       fees, accrued_interest, amount, settlement_date
	FROM accounts_history`

// Append persists the batch in one transaction. The batch is validated before
// anything is written; any failure rolls back every row.
func (r *Repository) Append(ctx context.Context, records []domain.TransactionRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		if field := records[i].Validate(); field != "" {
			return 0, &ports.SchemaError{Fingerprint: records[i].Fingerprint, Field: field}
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &ports.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback() // No-op after commit

	const query = `
	INSERT INTO accounts_history (fingerprint, run_date, account, action, action_type, symbol,
	                              security_description, security_type, quantity, price, commission,
	                              fees, accrued_interest, amount, settlement_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, &ports.StoreError{Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			rec.Fingerprint, rec.RunDate.Format(domain.DateLayout), rec.Account, rec.Action, string(rec.ActionType),
			nullString(rec.Symbol), rec.SecurityDescription, nullString(rec.SecurityType),
			rec.Quantity, rec.Price, rec.Commission, rec.Fees, rec.AccruedInterest, rec.Amount,
			formatDate(rec.SettlementDate))
		if err != nil {
			if isConstraintViolation(err) {
				err = fmt.Errorf("fingerprint %s: %w", rec.Fingerprint, ports.ErrDuplicateEntry)
			}
			return 0, &ports.StoreError{Op: "append", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &ports.StoreError{Op: "commit", Err: err}
	}
	r.logger.Debug(ctx, "Ledger batch appended", map[string]interface{}{"count": len(records)})
	return len(records), nil
}

// Fingerprints returns the set of stored fingerprints.
func (r *Repository) Fingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT fingerprint FROM accounts_history`)
	if err != nil {
		return nil, &ports.StoreError{Op: "fingerprints", Err: fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)}
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, &ports.StoreError{Op: "fingerprints", Err: err}
		}
		set[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &ports.StoreError{Op: "fingerprints", Err: err}
	}
	return set, nil
}

// FindAll retrieves every record, ordered by run date then fingerprint.
func (r *Repository) FindAll(ctx context.Context) ([]domain.TransactionRecord, error) {
	return r.query(ctx, selectColumns+` ORDER BY run_date, fingerprint`)
}

// FindByActionTypes retrieves records whose action type is one of types.
func (r *Repository) FindByActionTypes(ctx context.Context, types ...domain.ActionType) ([]domain.TransactionRecord, error) {
	if len(types) == 0 {
		return []domain.TransactionRecord{}, nil
	}
	args := make([]interface{}, len(types))
	for i, t := range types {
		args[i] = string(t)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types)), ", ")
	return r.query(ctx, selectColumns+` WHERE action_type IN (`+placeholders+`) ORDER BY run_date, fingerprint`, args...)
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts_history`).Scan(&n); err != nil {
		return 0, &ports.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// query runs inside a transaction so a batch committed concurrently is seen
// either whole or not at all.
func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]domain.TransactionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &ports.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ports.StoreError{Op: "query", Err: fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)}
	}
	defer rows.Close()

	records := make([]domain.TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &ports.StoreError{Op: "scan", Err: err}
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &ports.StoreError{Op: "query", Err: err}
	}
	return records, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a domain.TransactionRecord.
func scanRecord(s scanner) (*domain.TransactionRecord, error) {
	rec := &domain.TransactionRecord{}
	var runDate, actionType string
	var symbol, securityType, settlementDate sql.NullString
	err := s.Scan(
		&rec.Fingerprint, &runDate, &rec.Account, &rec.Action, &actionType, &symbol,
		&rec.SecurityDescription, &securityType, &rec.Quantity, &rec.Price, &rec.Commission,
		&rec.Fees, &rec.AccruedInterest, &rec.Amount, &settlementDate)
	if err != nil {
		return nil, err
	}

	if rec.RunDate, err = time.Parse(domain.DateLayout, runDate); err != nil {
		return nil, fmt.Errorf("record %s: bad run_date %q: %w", rec.Fingerprint, runDate, err)
	}
	t, ok := domain.ParseActionType(actionType)
	if !ok {
		return nil, fmt.Errorf("record %s: unknown action_type %q", rec.Fingerprint, actionType)
	}
	rec.ActionType = t
	if symbol.Valid {
		rec.Symbol = &symbol.String
	}
	if securityType.Valid {
		rec.SecurityType = &securityType.String
	}
	if settlementDate.Valid {
		d, err := time.Parse(domain.DateLayout, settlementDate.String)
		if err != nil {
			return nil, fmt.Errorf("record %s: bad settlement_date %q: %w", rec.Fingerprint, settlementDate.String, err)
		}
		rec.SettlementDate = &d
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

var _ ports.LedgerRepository = (*Repository)(nil)
