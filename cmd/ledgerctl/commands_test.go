package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/domain"
)

const (
	columnHeader  = "Run Date,Account,Action,Symbol,Security Description,Security Type,Quantity,Price ($),Commission ($),Fees ($),Accrued Interest ($),Amount ($),Settlement Date"
	sellToOpenRow = "01/05/2024, INDIVIDUAL X12345678,YOU SOLD OPENING TRANSACTION PUT (ABC),-ABC240216P50,PUT (ABC) ABC CORP,Margin,-1,5.05,0.65,0.02,,504.33,01/08/2024"
	buyToCloseRow = "02/10/2024, INDIVIDUAL X12345678,YOU BOUGHT CLOSING TRANSACTION PUT (ABC),-ABC240216P50,PUT (ABC) ABC CORP,Margin,1,3.00,0.65,0.02,,-300.67,02/12/2024"
)

func writeExport(t *testing.T, dir string, rows ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("\n\nBrokerage\n\nAccounts History\n" + columnHeader + "\n")
	for _, r := range rows {
		b.WriteString(r + "\n")
	}
	b.WriteString(strings.Repeat("footer\n", 16))
	path := filepath.Join(dir, "Accounts_History.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// setupEnv points the CLI at a fresh database and captures stdout.
func setupEnv(t *testing.T) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("FORMAT_PROFILE", "")

	out = &bytes.Buffer{}
	prev := stdout
	stdout = out
	t.Cleanup(func() { stdout = prev })
	return dir, out
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func TestIngestThenReport(t *testing.T) {
	dir, out := setupEnv(t)
	path := writeExport(t, dir, sellToOpenRow, buyToCloseRow)

	require.Equal(t, subcommands.ExitSuccess, run(t, &ingestCmd{}, "-rm", path))
	assert.Contains(t, out.String(), "2 parsed, 2 new, 0 duplicate")
	assert.Contains(t, out.String(), "2024-02")
	assert.Contains(t, out.String(), "203.66")
	assert.NoFileExists(t, path)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &closedCmd{}))
	assert.Contains(t, out.String(), "-ABC240216P50")
	assert.Contains(t, out.String(), "203.66")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &openCmd{}))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "header only")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &recordsCmd{}, "-trading"))
	assert.Contains(t, out.String(), "sell_to_open")
	assert.Contains(t, out.String(), "buy_to_close")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &statsCmd{}))
	assert.Contains(t, out.String(), "Win rate")
	assert.Contains(t, out.String(), "100.0%")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &exportCmd{}))
	rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestIngestTwiceReportsDuplicates(t *testing.T) {
	dir, out := setupEnv(t)
	path := writeExport(t, dir, sellToOpenRow)

	require.Equal(t, subcommands.ExitSuccess, run(t, &ingestCmd{}, path))
	require.Equal(t, subcommands.ExitSuccess, run(t, &ingestCmd{}, path))
	assert.Contains(t, out.String(), "1 parsed, 0 new, 1 duplicate")
	assert.FileExists(t, path)
}

func TestIngestFailureKeepsFile(t *testing.T) {
	dir, _ := setupEnv(t)
	path := writeExport(t, dir, strings.Replace(sellToOpenRow, "YOU SOLD OPENING", "SOMETHING ELSE", 1))

	assert.Equal(t, subcommands.ExitFailure, run(t, &ingestCmd{}, "-rm", path))
	assert.FileExists(t, path)
}

func TestIngestRequiresFiles(t *testing.T) {
	setupEnv(t)
	assert.Equal(t, subcommands.ExitUsageError, run(t, &ingestCmd{}))
}

func TestExportToFile(t *testing.T) {
	dir, _ := setupEnv(t)
	require.Equal(t, subcommands.ExitSuccess, run(t, &ingestCmd{}, writeExport(t, dir, sellToOpenRow)))

	target := filepath.Join(dir, "out.csv")
	require.Equal(t, subcommands.ExitSuccess, run(t, &exportCmd{}, "-o", target))
	assert.FileExists(t, target)
}

func TestWriteTotals(t *testing.T) {
	var buf bytes.Buffer
	writeTotals(&buf, []domain.MonthlyTotal{
		{Month: "2024-02", Account: "INDIVIDUAL", GainLoss: decimal.RequireFromString("203.66")},
		{Month: "2024-03", Account: "ROTH IRA", GainLoss: decimal.NewFromInt(-5)},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"MONTH", "ACCOUNT", "GAIN/LOSS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2024-03", "ROTH", "IRA", "-5.00"}, strings.Fields(lines[2]))
}

func TestWriteStats_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeStats(&buf, analytics.AnalyzePerformance(nil))
	assert.Contains(t, buf.String(), "Closed positions")
	assert.Contains(t, buf.String(), "0.0%")
}
