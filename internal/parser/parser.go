// Package parser turns an Accounts History export into transaction records.
//
// The export is not general CSV: it is a fixed preamble, one row per line split
// on a plain delimiter, and a fixed footer. Quoting is only understood to the
// extent of stripping enclosing quotes from single fields.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/domain"
	"tradeLedger/internal/ports"
)

// Batch is the ordered output of one parse. Rows[i] is the 1-based line number
// Records[i] came from.
type Batch struct {
	Records []domain.TransactionRecord
	Rows    []int
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return len(b.Records) }

// Parser reads exports of a single Format.
type Parser struct {
	format Format
}

// New creates a parser for the given format.
func New(format Format) (*Parser, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}
	return &Parser{format: format}, nil
}

// ParseFile parses the export at path.
func (p *Parser) ParseFile(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	b, err := p.Parse(f)
	if err != nil {
		if pe, ok := err.(*ports.ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return b, nil
}

// Parse reads a whole export. Records are not yet classified or fingerprinted.
func (p *Parser) Parse(r io.Reader) (*Batch, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, &ports.ParseError{Reason: fmt.Sprintf("read failed: %v", err)}
	}
	for i := range lines {
		lines[i] = p.repair(lines[i])
	}

	if len(lines) < p.format.boilerplate() {
		return nil, &ports.ParseError{Reason: fmt.Sprintf(
			"%d lines is shorter than the %d lines of header and footer in format %s",
			len(lines), p.format.boilerplate(), p.format.Version)}
	}

	start := p.format.PreambleLines
	if p.format.HeaderRow {
		if _, err := p.split(lines[start], start+1); err != nil {
			return nil, err
		}
		start++
	}
	end := len(lines) - p.format.FooterLines

	batch := &Batch{}
	for i := start; i < end; i++ {
		row := i + 1
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		cols, err := p.split(lines[i], row)
		if err != nil {
			return nil, err
		}
		rec, err := p.record(cols, row)
		if err != nil {
			return nil, err
		}
		batch.Records = append(batch.Records, rec)
		batch.Rows = append(batch.Rows, row)
	}
	return batch, nil
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

func (p *Parser) repair(line string) string {
	for _, s := range p.format.Substitutions {
		line = strings.ReplaceAll(line, s.Pattern, s.Replacement)
	}
	return line
}

// split cuts a line into exactly Columns fields, discarding tolerated extras.
func (p *Parser) split(line string, row int) ([]string, error) {
	cols := strings.Split(strings.TrimSpace(line), p.format.Delimiter)
	if len(cols) < Columns || len(cols) > Columns+p.format.ExtraColumns {
		return nil, &ports.ParseError{Row: row, Reason: fmt.Sprintf("expected %d columns, got %d", Columns, len(cols))}
	}
	return cols[:Columns], nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

// accountName drops the trailing account-number token.
func accountName(s string) string {
	fields := strings.Fields(clean(s))
	if len(fields) == 0 {
		return ""
	}
	return clean(strings.Join(fields[:len(fields)-1], " "))
}

func (p *Parser) record(cols []string, row int) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var err error

	if rec.RunDate, err = p.date(cols[0], "run date", row); err != nil {
		return rec, err
	}
	rec.Account = accountName(cols[1])
	rec.Action = clean(cols[2])
	rec.Symbol = domain.StringPtr(clean(cols[3]))
	rec.SecurityDescription = clean(cols[4])
	rec.SecurityType = domain.StringPtr(clean(cols[5]))

	numbers := []struct {
		name string
		dst  *decimal.NullDecimal
	}{
		{"quantity", &rec.Quantity},
		{"price", &rec.Price},
		{"commission", &rec.Commission},
		{"fees", &rec.Fees},
		{"accrued interest", &rec.AccruedInterest},
		{"amount", &rec.Amount},
	}
	for i, n := range numbers {
		if *n.dst, err = number(cols[6+i], n.name, row); err != nil {
			return rec, err
		}
	}

	if s := clean(cols[12]); s != "" {
		d, err := p.date(s, "settlement date", row)
		if err != nil {
			return rec, err
		}
		rec.SettlementDate = &d
	}
	return rec, nil
}

func (p *Parser) date(s, name string, row int) (time.Time, error) {
	s = clean(s)
	if s == "" {
		return time.Time{}, &ports.ParseError{Row: row, Reason: name + " is blank"}
	}
	for _, layout := range p.format.DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ports.ParseError{Row: row, Reason: fmt.Sprintf("unparsable %s %q", name, s)}
}

func number(s, name string, row int) (decimal.NullDecimal, error) {
	s = strings.TrimPrefix(clean(s), "+")
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, &ports.ParseError{Row: row, Reason: fmt.Sprintf("unparsable %s %q", name, s)}
	}
	return decimal.NewNullDecimal(d), nil
}
