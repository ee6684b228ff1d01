package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Columns is the number of data columns in an export row.
const Columns = 13

// Substitution is a literal text repair applied to every line before splitting.
type Substitution struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
}

// Format describes one version of the export layout: how much boilerplate
// surrounds the data block and which known-bad rows need repairing.
type Format struct {
	Version string `toml:"version"`
	// PreambleLines is the report header above the column-name row.
	PreambleLines int `toml:"preamble_lines"`
	// HeaderRow is true when a column-name row follows the preamble.
	HeaderRow bool `toml:"header_row"`
	// FooterLines is the disclaimer/summary block below the data.
	FooterLines int `toml:"footer_lines"`
	// ExtraColumns is how many trailing columns a row may carry beyond Columns.
	ExtraColumns  int            `toml:"extra_columns"`
	Delimiter     string         `toml:"delimiter"`
	DateLayouts   []string       `toml:"date_layouts"`
	Substitutions []Substitution `toml:"substitutions"`
}

// DefaultFormat is the Accounts History layout the ledger was built against.
// Some account names are exported quoted with an embedded comma or quote,
// which breaks plain comma splitting; the substitutions unquote them.
func DefaultFormat() Format {
	return Format{
		Version:       "accounts-history-v1",
		PreambleLines: 5,
		HeaderRow:     true,
		FooterLines:   16,
		ExtraColumns:  1,
		Delimiter:     ",",
		DateLayouts:   []string{"01/02/2006", "1/2/2006", "2006-01-02"},
		Substitutions: []Substitution{
			{Pattern: `"COINBASE, INC." 83853`, Replacement: `COINBASE INC. 83853`},
			{Pattern: `"BrokerageLink Roth" 652301714`, Replacement: `BrokerageLink Roth 652301714`},
			{Pattern: `"BrokerageLink" 652301713`, Replacement: `BrokerageLink 652301713`},
		},
	}
}

// LoadFormat reads a TOML format profile. Keys missing from the file keep
// their DefaultFormat values.
func LoadFormat(path string) (Format, error) {
	f := DefaultFormat()
	f.Substitutions = nil // decoding into a non-empty slice would merge element-wise
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Format{}, fmt.Errorf("failed to decode format profile %s: %w", path, err)
	}
	if !md.IsDefined("substitutions") {
		f.Substitutions = DefaultFormat().Substitutions
	}
	if err := f.Validate(); err != nil {
		return Format{}, fmt.Errorf("invalid format profile %s: %w", path, err)
	}
	return f, nil
}

// Validate checks the profile for values the parser cannot work with.
func (f Format) Validate() error {
	var errs []string
	if f.PreambleLines < 0 {
		errs = append(errs, "preamble_lines cannot be negative")
	}
	if f.FooterLines < 0 {
		errs = append(errs, "footer_lines cannot be negative")
	}
	if f.ExtraColumns < 0 {
		errs = append(errs, "extra_columns cannot be negative")
	}
	if f.Delimiter == "" {
		errs = append(errs, "delimiter must be set")
	}
	if len(f.DateLayouts) == 0 {
		errs = append(errs, "date_layouts must not be empty")
	}
	for i, s := range f.Substitutions {
		if s.Pattern == "" {
			errs = append(errs, fmt.Sprintf("substitutions[%d].pattern must be set", i))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (f Format) boilerplate() int {
	n := f.PreambleLines + f.FooterLines
	if f.HeaderRow {
		n++
	}
	return n
}
