// Package classifier maps the free-text action column of an export row to a
// domain.ActionType.
//
// Rules are evaluated top-down and the first match wins, so the order of
// Rules is part of its meaning: "YOU BOUGHT ASSIGNED" sits above the generic
// "ASSIGNED" rule.
package classifier

import (
	"strings"

	"tradeLedger/internal/domain"
	"tradeLedger/internal/ports"
)

// Rule pairs a predicate over the raw action text with the resulting type.
type Rule struct {
	Name   string
	Match  func(action string) bool
	Result domain.ActionType
}

func exact(values ...string) func(string) bool {
	return func(action string) bool {
		for _, v := range values {
			if action == v {
				return true
			}
		}
		return false
	}
}

func prefix(values ...string) func(string) bool {
	return func(action string) bool {
		for _, v := range values {
			if strings.HasPrefix(action, v) {
				return true
			}
		}
		return false
	}
}

func either(a, b func(string) bool) func(string) bool {
	return func(action string) bool { return a(action) || b(action) }
}

// Rules is the ordered rule list. Matching is case-sensitive.
var Rules = []Rule{
	{Name: "exchanges", Match: exact("Exchanges"), Result: domain.ActionExchange},
	{Name: "dividend", Match: prefix("Dividend", "DIVIDEND"), Result: domain.ActionDividend},
	{Name: "contributions", Match: exact("Contributions"), Result: domain.ActionContribution},
	{Name: "transfer", Match: either(exact("Transfer"), prefix("TRANSFERRED")), Result: domain.ActionTransfer},
	{Name: "bought assigned", Match: prefix("YOU BOUGHT ASSIGNED"), Result: domain.ActionBuyAssigned},
	{Name: "assigned", Match: prefix("ASSIGNED"), Result: domain.ActionAssignment},
	{Name: "sold opening", Match: prefix("YOU SOLD OPENING"), Result: domain.ActionSellToOpen},
	{Name: "sold closing", Match: prefix("YOU SOLD CLOSING"), Result: domain.ActionSellToClose},
	{Name: "bought closing", Match: prefix("YOU BOUGHT CLOSING"), Result: domain.ActionBuyToClose},
	{Name: "bought opening", Match: prefix("YOU BOUGHT OPENING"), Result: domain.ActionBuyToOpen},
	{Name: "realized gain/loss", Match: exact("Realized Gain/Loss"), Result: domain.ActionRealizedGainLoss},
	{Name: "reinvestment", Match: prefix("REINVESTMENT"), Result: domain.ActionReinvestment},
}

// Classify returns the type of the first rule matching action, or a
// *ports.ClassificationError when none does.
func Classify(action string) (domain.ActionType, error) {
	for _, r := range Rules {
		if r.Match(action) {
			return r.Result, nil
		}
	}
	return "", &ports.ClassificationError{Action: action}
}

// ClassifyRecords sets ActionType on every record in place. rows carries the
// source line number of each record for error reporting and may be nil.
func ClassifyRecords(records []domain.TransactionRecord, rows []int) error {
	for i := range records {
		t, err := Classify(records[i].Action)
		if err != nil {
			if ce, ok := err.(*ports.ClassificationError); ok && i < len(rows) {
				ce.Row = rows[i]
			}
			return err
		}
		records[i].ActionType = t
	}
	return nil
}
