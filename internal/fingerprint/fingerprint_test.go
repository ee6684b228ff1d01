package fingerprint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLedger/internal/domain"
)

func sample() domain.TransactionRecord {
	settle := domain.NewDate(2024, 1, 8)
	return domain.TransactionRecord{
		RunDate:             domain.NewDate(2024, 1, 5),
		Account:             "INDIVIDUAL",
		Action:              "YOU SOLD OPENING TRANSACTION PUT (ABC)",
		ActionType:          domain.ActionSellToOpen,
		Symbol:              domain.StringPtr("-ABC240216P50"),
		SecurityDescription: "PUT (ABC) ABC CORP",
		SecurityType:        domain.StringPtr("Margin"),
		Quantity:            decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		Price:               decimal.NewNullDecimal(decimal.RequireFromString("5.05")),
		Commission:          decimal.NewNullDecimal(decimal.RequireFromString("0.65")),
		Amount:              decimal.NewNullDecimal(decimal.RequireFromString("504.33")),
		SettlementDate:      &settle,
	}
}

func TestOf_Deterministic(t *testing.T) {
	a, b := sample(), sample()
	assert.Equal(t, Of(&a), Of(&b))
	assert.Len(t, Of(&a), 64)

	// The stored fingerprint does not feed into itself.
	b.Fingerprint = "stale"
	assert.Equal(t, Of(&a), Of(&b))
}

func TestOf_EveryFieldContributes(t *testing.T) {
	base := sample()
	baseFP := Of(&base)

	mutations := map[string]func(r *domain.TransactionRecord){
		"run date":        func(r *domain.TransactionRecord) { r.RunDate = domain.NewDate(2024, 1, 6) },
		"account":         func(r *domain.TransactionRecord) { r.Account = "ROTH IRA" },
		"action":          func(r *domain.TransactionRecord) { r.Action += " " },
		"action type":     func(r *domain.TransactionRecord) { r.ActionType = domain.ActionBuyToOpen },
		"symbol":          func(r *domain.TransactionRecord) { r.Symbol = domain.StringPtr("XYZ") },
		"symbol absent":   func(r *domain.TransactionRecord) { r.Symbol = nil },
		"description":     func(r *domain.TransactionRecord) { r.SecurityDescription = "other" },
		"security type":   func(r *domain.TransactionRecord) { r.SecurityType = nil },
		"quantity":        func(r *domain.TransactionRecord) { r.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(1)) },
		"price":           func(r *domain.TransactionRecord) { r.Price = decimal.NullDecimal{} },
		"commission":      func(r *domain.TransactionRecord) { r.Commission = decimal.NewNullDecimal(decimal.Zero) },
		"fees":            func(r *domain.TransactionRecord) { r.Fees = decimal.NewNullDecimal(decimal.Zero) },
		"accrued":         func(r *domain.TransactionRecord) { r.AccruedInterest = decimal.NewNullDecimal(decimal.Zero) },
		"amount":          func(r *domain.TransactionRecord) { r.Amount = decimal.NewNullDecimal(decimal.NewFromInt(504)) },
		"settlement date": func(r *domain.TransactionRecord) { r.SettlementDate = nil },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := sample()
			mutate(&r)
			assert.NotEqual(t, baseFP, Of(&r))
		})
	}
}

func TestOf_FieldBoundariesAreUnambiguous(t *testing.T) {
	a, b := sample(), sample()
	a.Account, a.Action = "AB", "C"
	b.Account, b.Action = "A", "BC"
	assert.NotEqual(t, Of(&a), Of(&b))

	// Absent differs from an empty string.
	a, b = sample(), sample()
	a.Symbol = nil
	b.Symbol = new(string)
	assert.NotEqual(t, Of(&a), Of(&b))
}

func TestOf_NumericallyEqualDecimalsCollide(t *testing.T) {
	a, b := sample(), sample()
	a.Price = decimal.NewNullDecimal(decimal.RequireFromString("5.050"))
	assert.Equal(t, Of(&a), Of(&b))
}

func TestPartition(t *testing.T) {
	r1, r2, r3 := sample(), sample(), sample()
	r2.Account = "ROTH IRA"
	r3.Account = "JOINT"
	batch := []domain.TransactionRecord{r1, r2, r3, r1}
	Assign(batch)

	existing := map[string]struct{}{batch[1].Fingerprint: {}}
	fresh, dups := Partition(batch, existing)

	require.Len(t, fresh, 2)
	assert.Equal(t, "INDIVIDUAL", fresh[0].Account)
	assert.Equal(t, "JOINT", fresh[1].Account)
	require.Len(t, dups, 2)
	assert.Equal(t, "ROTH IRA", dups[0].Account)
	assert.Equal(t, "INDIVIDUAL", dups[1].Account)
}

func TestPartition_EmptyLedger(t *testing.T) {
	batch := []domain.TransactionRecord{sample()}
	Assign(batch)
	fresh, dups := Partition(batch, nil)
	assert.Len(t, fresh, 1)
	assert.Empty(t, dups)
}
