package ports

import (
	"errors"
	"fmt"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Pipeline Errors
	ErrParse          = errors.New("malformed export file")
	ErrClassification = errors.New("unrecognized action")
	ErrSchema         = errors.New("record violates ledger schema")
	ErrStore          = errors.New("ledger store failure")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
)

// ParseError reports a malformed row or file shape. Row is the 1-based line
// number in the source file, 0 when the problem concerns the file as a whole.
type ParseError struct {
	Path   string
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "input"
	}
	if e.Row > 0 {
		return fmt.Sprintf("parse %s: row %d: %s", loc, e.Row, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", loc, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ClassificationError carries the action text no rule recognized.
type ClassificationError struct {
	Row    int
	Action string
}

func (e *ClassificationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: unknown action: %q", e.Row, e.Action)
	}
	return fmt.Sprintf("unknown action: %q", e.Action)
}

func (e *ClassificationError) Unwrap() error { return ErrClassification }

// SchemaError reports a required field that is absent at persistence time.
type SchemaError struct {
	Fingerprint string
	Field       string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record %s: required field %s is absent", e.Fingerprint, e.Field)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// StoreError wraps a persistence-layer failure. Both ErrStore and the
// underlying cause match with errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }
