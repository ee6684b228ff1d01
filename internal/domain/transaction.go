package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical textual form of calendar dates in the ledger.
const DateLayout = "2006-01-02"

// TransactionRecord is one row of brokerage activity.
type TransactionRecord struct {
	Fingerprint         string              // Content hash over all other fields (primary key)
	RunDate             time.Time           // Calendar date, midnight UTC
	Account             string              // Display name, account number stripped
	Action              string              // Raw action text
	ActionType          ActionType          // Derived from Action
	Symbol              *string             // Absent for cash rows
	SecurityDescription string
	SecurityType        *string
	Quantity            decimal.NullDecimal // Signed: negative for sells
	Price               decimal.NullDecimal
	Commission          decimal.NullDecimal
	Fees                decimal.NullDecimal
	AccruedInterest     decimal.NullDecimal
	Amount              decimal.NullDecimal // Net cash effect, required at persistence time
	SettlementDate      *time.Time
}

// SymbolOrEmpty returns the symbol or "" when absent.
func (r *TransactionRecord) SymbolOrEmpty() string {
	if r.Symbol == nil {
		return ""
	}
	return *r.Symbol
}

// Validate checks the fields that must be present before the record is persisted.
// It returns the name of the first missing field, or "" when the record is complete.
func (r *TransactionRecord) Validate() string {
	switch {
	case r.Fingerprint == "":
		return "fingerprint"
	case r.RunDate.IsZero():
		return "run_date"
	case r.Account == "":
		return "account"
	case r.Action == "":
		return "action"
	case !r.ActionType.IsValid():
		return "action_type"
	case r.SecurityDescription == "":
		return "security_description"
	case !r.Amount.Valid:
		return "amount"
	}
	return ""
}

// NewDate truncates t to a calendar date in UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
