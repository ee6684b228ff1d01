// Package fingerprint derives the content-addressed identity of transaction
// records and filters batches against what the ledger already holds.
//
// The export carries no transaction id, so two rows with identical field
// values are the same transaction. The digest is SHA-256; a collision between
// distinct records would drop one of them silently, a risk that is accepted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/domain"
)

// Of returns the fingerprint of r. The Fingerprint field itself is ignored.
func Of(r *domain.TransactionRecord) string {
	var b strings.Builder
	writeString(&b, r.RunDate.Format(domain.DateLayout))
	writeString(&b, r.Account)
	writeString(&b, r.Action)
	writeString(&b, string(r.ActionType))
	writeOptional(&b, r.Symbol)
	writeString(&b, r.SecurityDescription)
	writeOptional(&b, r.SecurityType)
	writeDecimal(&b, r.Quantity)
	writeDecimal(&b, r.Price)
	writeDecimal(&b, r.Commission)
	writeDecimal(&b, r.Fees)
	writeDecimal(&b, r.AccruedInterest)
	writeDecimal(&b, r.Amount)
	writeDate(&b, r.SettlementDate)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Assign sets the fingerprint on every record in place.
func Assign(records []domain.TransactionRecord) {
	for i := range records {
		records[i].Fingerprint = Of(&records[i])
	}
}

// Partition splits fingerprinted candidates into records not yet in existing
// and duplicates. A fingerprint repeated inside the batch counts as a
// duplicate after its first occurrence. Input order is preserved.
func Partition(candidates []domain.TransactionRecord, existing map[string]struct{}) (fresh, duplicates []domain.TransactionRecord) {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.Fingerprint]; ok {
			duplicates = append(duplicates, c)
			continue
		}
		if _, ok := seen[c.Fingerprint]; ok {
			duplicates = append(duplicates, c)
			continue
		}
		seen[c.Fingerprint] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh, duplicates
}

// Length-prefixed fields keep "ab","c" distinct from "a","bc"; absent values
// encode as "-" so they never equal an empty string.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('+')
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

func writeOptional(b *strings.Builder, s *string) {
	if s == nil {
		b.WriteByte('-')
		return
	}
	writeString(b, *s)
}

func writeDecimal(b *strings.Builder, d decimal.NullDecimal) {
	if !d.Valid {
		b.WriteByte('-')
		return
	}
	writeString(b, d.Decimal.String())
}

func writeDate(b *strings.Builder, t *time.Time) {
	if t == nil {
		b.WriteByte('-')
		return
	}
	writeString(b, t.Format(domain.DateLayout))
}
