package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"tradeLedger/config"
	"tradeLedger/internal/adapters/httpapi"
	"tradeLedger/internal/bootstrap"
	"tradeLedger/internal/utils"
)

// Commands lists the ledgerctl subcommands.
var Commands = []subcommands.Command{
	&ingestCmd{},
	&recordsCmd{},
	&closedCmd{},
	&openCmd{},
	&totalsCmd{},
	&statsCmd{},
	&exportCmd{},
	&serveCmd{},
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

func openRuntime() (*bootstrap.Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.Open(cfg, os.Stderr)
}

// withRuntime runs fn against an opened runtime and maps errors to exit codes.
func withRuntime(ctx context.Context, fn func(context.Context, *bootstrap.Runtime) error) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rt.Close()

	if err := fn(ctx, rt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type ingestCmd struct {
	remove bool
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "ingest one or more Accounts History exports into the ledger" }
func (*ingestCmd) Usage() string {
	return `ledgerctl ingest [-rm] <file>...

  Parses, classifies and deduplicates each export, then appends the new
  records. Files are processed in order; the first failure stops the run.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.remove, "rm", false, "Remove each export after it is ingested.")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		for _, path := range f.Args() {
			summary, err := rt.Service.Ingest(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: %d parsed, %d new, %d duplicate\n", path, summary.Parsed, summary.New, summary.Duplicates)
			if c.remove {
				if err := os.Remove(path); err != nil {
					return err
				}
			}
			if len(summary.Totals) > 0 {
				writeTotals(stdout, summary.Totals)
			}
		}
		return nil
	})
}

type recordsCmd struct {
	trading bool
}

func (*recordsCmd) Name() string     { return "records" }
func (*recordsCmd) Synopsis() string { return "list ledger records" }
func (*recordsCmd) Usage() string {
	return `ledgerctl records [-trading]

  Lists every ledger record by run date. With -trading only opening and
  closing trades are listed.
`
}

func (c *recordsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.trading, "trading", false, "List only opening and closing trades.")
}

func (c *recordsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		fetch := rt.Service.Records
		if c.trading {
			fetch = rt.Service.TradingRecords
		}
		records, err := fetch(ctx)
		if err != nil {
			return err
		}
		writeRecords(stdout, records)
		return nil
	})
}

type closedCmd struct{}

func (*closedCmd) Name() string           { return "closed" }
func (*closedCmd) Synopsis() string       { return "list closed positions" }
func (*closedCmd) Usage() string          { return "ledgerctl closed\n" }
func (*closedCmd) SetFlags(*flag.FlagSet) {}

func (*closedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		closed, err := rt.Service.ClosedPositions(ctx)
		if err != nil {
			return err
		}
		writeClosed(stdout, closed)
		return nil
	})
}

type openCmd struct{}

func (*openCmd) Name() string           { return "open" }
func (*openCmd) Synopsis() string       { return "list open positions" }
func (*openCmd) Usage() string          { return "ledgerctl open\n" }
func (*openCmd) SetFlags(*flag.FlagSet) {}

func (*openCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		open, err := rt.Service.OpenPositions(ctx)
		if err != nil {
			return err
		}
		writeOpen(stdout, open)
		return nil
	})
}

type totalsCmd struct{}

func (*totalsCmd) Name() string           { return "totals" }
func (*totalsCmd) Synopsis() string       { return "show realized gain/loss per month and account" }
func (*totalsCmd) Usage() string          { return "ledgerctl totals\n" }
func (*totalsCmd) SetFlags(*flag.FlagSet) {}

func (*totalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		totals, err := rt.Service.MonthlyTotals(ctx)
		if err != nil {
			return err
		}
		writeTotals(stdout, totals)
		return nil
	})
}

type statsCmd struct{}

func (*statsCmd) Name() string           { return "stats" }
func (*statsCmd) Synopsis() string       { return "show performance statistics over closed positions" }
func (*statsCmd) Usage() string          { return "ledgerctl stats\n" }
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		m, err := rt.Service.Stats(ctx)
		if err != nil {
			return err
		}
		writeStats(stdout, m)
		return nil
	})
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export ledger records as CSV" }
func (*exportCmd) Usage() string {
	return `ledgerctl export [-o <file>]

  Writes every ledger record as standard CSV, to stdout unless -o is given.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		records, err := rt.Service.Records(ctx)
		if err != nil {
			return err
		}
		if c.output == "" {
			return utils.WriteRecords(stdout, records)
		}
		if err := utils.WriteRecordsToCSV(records, c.output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d records written to %s\n", len(records), c.output)
		return nil
	})
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the read-only ledger API over HTTP" }
func (*serveCmd) Usage() string {
	return `ledgerctl serve [-addr <host:port>]

  Serves records, positions, totals and stats as JSON until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to HTTP_ADDR.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		addr := c.addr
		if addr == "" {
			addr = rt.Config.HTTPAddr
		}
		srv := httpapi.New(httpapi.Config{Addr: addr, Ledger: rt.Service, Logger: rt.Logger.With("http")})

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		return srv.Start(ctx)
	})
}
