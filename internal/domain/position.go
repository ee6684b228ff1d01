package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosedPosition pairs an opening record with a closing record of the same
// account, symbol and absolute quantity. It is derived, never stored.
type ClosedPosition struct {
	Open     TransactionRecord
	Close    TransactionRecord
	Quantity decimal.Decimal // Absolute quantity shared by both legs
	GainLoss decimal.Decimal // Open.Amount + Close.Amount
}

// Account returns the account shared by both legs.
func (p *ClosedPosition) Account() string { return p.Open.Account }

// Symbol returns the symbol shared by both legs.
func (p *ClosedPosition) Symbol() string { return p.Open.SymbolOrEmpty() }

// OpenDate is the run date of the opening leg.
func (p *ClosedPosition) OpenDate() time.Time { return p.Open.RunDate }

// CloseDate is the run date of the closing leg.
func (p *ClosedPosition) CloseDate() time.Time { return p.Close.RunDate }

// CloseMonth is the YYYY-MM bucket used for totals: the close settlement date,
// or the close run date when the export carries no settlement date.
func (p *ClosedPosition) CloseMonth() string {
	if p.Close.SettlementDate != nil {
		return p.Close.SettlementDate.Format("2006-01")
	}
	return p.Close.RunDate.Format("2006-01")
}

// HoldingPeriod is the time between the two run dates.
func (p *ClosedPosition) HoldingPeriod() time.Duration {
	return p.Close.RunDate.Sub(p.Open.RunDate)
}

// OpenPosition is an opening record without a matching closing record.
type OpenPosition struct {
	Open     TransactionRecord
	Quantity decimal.Decimal // Absolute quantity
}

// MonthlyTotal is the realized gain/loss of one account in one close month.
type MonthlyTotal struct {
	Month    string // YYYY-MM
	Account  string
	GainLoss decimal.Decimal
}
