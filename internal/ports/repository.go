package ports

import (
	"context"

	"tradeLedger/internal/domain"
)

// LedgerRepository defines the append-only persistence of transaction records.
type LedgerRepository interface {
	// Append persists a batch atomically. A record missing a required field fails
	// the whole batch with a *SchemaError; an existing fingerprint fails it with
	// a *StoreError wrapping ErrDuplicateEntry. Nothing is written on error.
	Append(ctx context.Context, records []domain.TransactionRecord) (int, error)
	// Fingerprints returns the set of fingerprints already stored.
	Fingerprints(ctx context.Context) (map[string]struct{}, error)
	// FindAll retrieves every record, ordered by run date then fingerprint.
	FindAll(ctx context.Context) ([]domain.TransactionRecord, error)
	// FindByActionTypes retrieves records whose action type is in types.
	FindByActionTypes(ctx context.Context, types ...domain.ActionType) ([]domain.TransactionRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
