package utils

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/domain"
)

// RecordHeader is the column order of exported ledger records.
var RecordHeader = []string{
	"fingerprint", "run_date", "account", "action", "action_type", "symbol",
	"security_description", "security_type", "quantity", "price", "commission",
	"fees", "accrued_interest", "amount", "settlement_date",
}

// WriteRecordsToCSV writes records to filename, replacing any existing file.
func WriteRecordsToCSV(records []domain.TransactionRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteRecords(file, records); err != nil {
		return err
	}
	return file.Close()
}

// WriteRecords writes a header row then one row per record. Absent values are
// written as empty cells.
func WriteRecords(w io.Writer, records []domain.TransactionRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(RecordHeader); err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		row := []string{
			r.Fingerprint,
			r.RunDate.Format(domain.DateLayout),
			r.Account,
			r.Action,
			string(r.ActionType),
			optString(r.Symbol),
			r.SecurityDescription,
			optString(r.SecurityType),
			optDecimal(r.Quantity),
			optDecimal(r.Price),
			optDecimal(r.Commission),
			optDecimal(r.Fees),
			optDecimal(r.AccruedInterest),
			optDecimal(r.Amount),
			optDate(r),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func optDate(r *domain.TransactionRecord) string {
	if r.SettlementDate == nil {
		return ""
	}
	return r.SettlementDate.Format(domain.DateLayout)
}
