package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/domain"
)

func writeRecords(w io.Writer, records []domain.TransactionRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN DATE\tACCOUNT\tTYPE\tSYMBOL\tQUANTITY\tAMOUNT\tACTION")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunDate.Format(domain.DateLayout), r.Account, r.ActionType, orDash(r.SymbolOrEmpty()),
			optDecimal(r.Quantity), optDecimal(r.Amount), r.Action)
	}
	tw.Flush()
}

func writeClosed(w io.Writer, closed []domain.ClosedPosition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tSYMBOL\tOPENED\tCLOSED\tQUANTITY\tGAIN/LOSS")
	var total decimal.Decimal
	for i := range closed {
		p := &closed[i]
		total = total.Add(p.GainLoss)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Account(), p.Symbol(), p.OpenDate().Format(domain.DateLayout), p.CloseDate().Format(domain.DateLayout),
			p.Quantity.String(), p.GainLoss.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t\tTOTAL\t%s\n", total.StringFixed(2))
	tw.Flush()
}

func writeOpen(w io.Writer, open []domain.OpenPosition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tSYMBOL\tOPENED\tTYPE\tQUANTITY\tAMOUNT")
	for i := range open {
		o := &open[i].Open
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Account, o.SymbolOrEmpty(), o.RunDate.Format(domain.DateLayout), o.ActionType,
			open[i].Quantity.String(), optDecimal(o.Amount))
	}
	tw.Flush()
}

func writeTotals(w io.Writer, totals []domain.MonthlyTotal) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tACCOUNT\tGAIN/LOSS")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Month, t.Account, t.GainLoss.StringFixed(2))
	}
	tw.Flush()
}

func writeStats(w io.Writer, m *analytics.PerformanceMetrics) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Closed positions\t%d\n", m.TotalTrades)
	fmt.Fprintf(tw, "Winning / losing\t%d / %d\n", m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(tw, "Win rate\t%.1f%%\n", m.WinRate*100)
	fmt.Fprintf(tw, "Total gain/loss\t%s\n", m.TotalGainLoss.StringFixed(2))
	fmt.Fprintf(tw, "Average win / loss\t%s / %s\n", m.AverageWin.StringFixed(2), m.AverageLoss.StringFixed(2))
	fmt.Fprintf(tw, "Largest win / loss\t%s / %s\n", m.LargestWin.StringFixed(2), m.LargestLoss.StringFixed(2))
	fmt.Fprintf(tw, "Profit factor\t%.2f\n", m.ProfitFactor)
	fmt.Fprintf(tw, "Expectancy\t%s\n", m.Expectancy.StringFixed(2))
	fmt.Fprintf(tw, "Max drawdown\t%s\n", m.MaxDrawdown.StringFixed(2))
	fmt.Fprintf(tw, "Streaks (win / loss)\t%d / %d\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	fmt.Fprintf(tw, "Average holding\t%.1f days\n", m.AverageHoldingPeriod.Hours()/24)
	for _, r := range m.GetSymbolResults() {
		fmt.Fprintf(tw, "  %s\t%s\n", r.Symbol, r.GainLoss.StringFixed(2))
	}
	tw.Flush()
}

func optDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
