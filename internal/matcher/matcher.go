// Package matcher derives closed and open positions from ledger records.
//
// Matching is a relational join, not lot accounting: an opening record pairs
// with every closing record of the same account, symbol and absolute quantity
// dated on or after it. When partial closes coincide in size, one opening row
// can appear in several closed positions and its amount is counted once per
// pair. Totals inherit that overlap.
package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/domain"
)

// Matches reports whether open and close form a round trip.
func Matches(open, close *domain.TransactionRecord) bool {
	if !open.ActionType.IsOpening() || !close.ActionType.IsClosing() {
		return false
	}
	if open.Account != close.Account {
		return false
	}
	// An absent symbol never matches, as NULL = NULL is false in SQL.
	if open.Symbol == nil || close.Symbol == nil || *open.Symbol != *close.Symbol {
		return false
	}
	if !open.Quantity.Valid || !close.Quantity.Valid {
		return false
	}
	if !open.Quantity.Decimal.Abs().Equal(close.Quantity.Decimal.Abs()) {
		return false
	}
	return !open.RunDate.After(close.RunDate)
}

func split(records []domain.TransactionRecord) (opens, closes []domain.TransactionRecord) {
	for _, r := range records {
		switch {
		case r.ActionType.IsOpening():
			opens = append(opens, r)
		case r.ActionType.IsClosing():
			closes = append(closes, r)
		}
	}
	return opens, closes
}

type matchKey struct {
	account string
	symbol  string
}

func indexClosings(closes []domain.TransactionRecord) map[matchKey][]domain.TransactionRecord {
	idx := make(map[matchKey][]domain.TransactionRecord)
	for _, c := range closes {
		if c.Symbol == nil {
			continue
		}
		k := matchKey{c.Account, *c.Symbol}
		idx[k] = append(idx[k], c)
	}
	return idx
}

// ClosedPositions returns every (opening, closing) pair that Matches, ordered
// by close date, open date, then fingerprints.
func ClosedPositions(records []domain.TransactionRecord) []domain.ClosedPosition {
	opens, closes := split(records)
	idx := indexClosings(closes)

	closed := make([]domain.ClosedPosition, 0)
	for _, o := range opens {
		if o.Symbol == nil {
			continue
		}
		for _, c := range idx[matchKey{o.Account, *o.Symbol}] {
			if !Matches(&o, &c) {
				continue
			}
			closed = append(closed, domain.ClosedPosition{
				Open:     o,
				Close:    c,
				Quantity: o.Quantity.Decimal.Abs(),
				GainLoss: o.Amount.Decimal.Add(c.Amount.Decimal),
			})
		}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		a, b := closed[i], closed[j]
		if !a.Close.RunDate.Equal(b.Close.RunDate) {
			return a.Close.RunDate.Before(b.Close.RunDate)
		}
		if !a.Open.RunDate.Equal(b.Open.RunDate) {
			return a.Open.RunDate.Before(b.Open.RunDate)
		}
		if a.Close.Fingerprint != b.Close.Fingerprint {
			return a.Close.Fingerprint < b.Close.Fingerprint
		}
		return a.Open.Fingerprint < b.Open.Fingerprint
	})
	return closed
}

// OpenPositions returns the opening records that match no closing record,
// ordered by run date then fingerprint.
func OpenPositions(records []domain.TransactionRecord) []domain.OpenPosition {
	opens, closes := split(records)
	idx := indexClosings(closes)

	open := make([]domain.OpenPosition, 0)
	for _, o := range opens {
		if !hasMatch(&o, idx) {
			qty := decimal.Zero
			if o.Quantity.Valid {
				qty = o.Quantity.Decimal.Abs()
			}
			open = append(open, domain.OpenPosition{Open: o, Quantity: qty})
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i].Open, open[j].Open
		if !a.RunDate.Equal(b.RunDate) {
			return a.RunDate.Before(b.RunDate)
		}
		return a.Fingerprint < b.Fingerprint
	})
	return open
}

func hasMatch(o *domain.TransactionRecord, idx map[matchKey][]domain.TransactionRecord) bool {
	if o.Symbol == nil {
		return false
	}
	for _, c := range idx[matchKey{o.Account, *o.Symbol}] {
		if Matches(o, &c) {
			return true
		}
	}
	return false
}

// ClosedPositionTotals sums gain/loss per (close month, account). Groups with
// no positions are absent. Output is sorted by month, then account.
func ClosedPositionTotals(closed []domain.ClosedPosition) []domain.MonthlyTotal {
	type key struct{ month, account string }
	sums := make(map[key]decimal.Decimal)
	for i := range closed {
		k := key{closed[i].CloseMonth(), closed[i].Account()}
		sums[k] = sums[k].Add(closed[i].GainLoss)
	}

	totals := make([]domain.MonthlyTotal, 0, len(sums))
	for k, v := range sums {
		totals = append(totals, domain.MonthlyTotal{Month: k.month, Account: k.account, GainLoss: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Month != totals[j].Month {
			return totals[i].Month < totals[j].Month
		}
		return totals[i].Account < totals[j].Account
	})
	return totals
}
