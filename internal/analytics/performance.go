package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/domain"
)

// PerformanceMetrics summarizes realized results over closed positions.
type PerformanceMetrics struct {
	// Basic Metrics
	TotalTrades   int
	WinningTrades int
	LosingTrades  int // Includes break-even trades
	WinRate       float64
	TotalGainLoss decimal.Decimal
	GrossProfit   decimal.Decimal
	GrossLoss     decimal.Decimal // Negative or zero
	AverageWin    decimal.Decimal
	AverageLoss   decimal.Decimal // Negative or zero
	LargestWin    decimal.Decimal
	LargestLoss   decimal.Decimal
	ProfitFactor  float64 // GrossProfit / |GrossLoss|, 0 when there are no losses

	// Advanced Metrics
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageHoldingPeriod time.Duration
	MaxDrawdown          decimal.Decimal // Largest peak-to-trough fall of cumulative gain/loss
	Expectancy           decimal.Decimal // Mean gain/loss per trade
	BySymbol             map[string]decimal.Decimal
	EquityCurve          []EquityPoint
}

// EquityPoint is the cumulative realized gain/loss after a close.
type EquityPoint struct {
	Time     time.Time
	Value    decimal.Decimal
	Drawdown decimal.Decimal
}

// AnalyzePerformance calculates metrics from closed positions. The input is
// not modified.
func AnalyzePerformance(positions []domain.ClosedPosition) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		BySymbol:    make(map[string]decimal.Decimal),
		EquityCurve: make([]EquityPoint, 0, len(positions)),
	}

	if len(positions) == 0 {
		return metrics
	}

	sorted := make([]domain.ClosedPosition, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CloseDate().Before(sorted[j].CloseDate())
	})

	var cumulative, peak decimal.Decimal
	var consecutiveWins, consecutiveLosses int
	var totalHolding time.Duration

	for i := range sorted {
		p := &sorted[i]
		gl := p.GainLoss

		metrics.TotalTrades++
		if gl.IsPositive() {
			metrics.WinningTrades++
			metrics.GrossProfit = metrics.GrossProfit.Add(gl)
			consecutiveWins++
			consecutiveLosses = 0
			if gl.GreaterThan(metrics.LargestWin) {
				metrics.LargestWin = gl
			}
		} else {
			metrics.LosingTrades++
			metrics.GrossLoss = metrics.GrossLoss.Add(gl)
			consecutiveLosses++
			consecutiveWins = 0
			if gl.LessThan(metrics.LargestLoss) {
				metrics.LargestLoss = gl
			}
		}

		if consecutiveWins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = consecutiveLosses
		}

		metrics.TotalGainLoss = metrics.TotalGainLoss.Add(gl)
		metrics.BySymbol[p.Symbol()] = metrics.BySymbol[p.Symbol()].Add(gl)
		totalHolding += p.HoldingPeriod()

		cumulative = cumulative.Add(gl)
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		drawdown := peak.Sub(cumulative)
		if drawdown.GreaterThan(metrics.MaxDrawdown) {
			metrics.MaxDrawdown = drawdown
		}
		metrics.EquityCurve = append(metrics.EquityCurve, EquityPoint{
			Time:     p.CloseDate(),
			Value:    cumulative,
			Drawdown: drawdown,
		})
	}

	n := decimal.NewFromInt(int64(metrics.TotalTrades))
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	metrics.Expectancy = metrics.TotalGainLoss.Div(n)
	metrics.AverageHoldingPeriod = totalHolding / time.Duration(metrics.TotalTrades)
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = metrics.GrossProfit.Div(decimal.NewFromInt(int64(metrics.WinningTrades)))
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = metrics.GrossLoss.Div(decimal.NewFromInt(int64(metrics.LosingTrades)))
	}
	if !metrics.GrossLoss.IsZero() {
		metrics.ProfitFactor, _ = metrics.GrossProfit.Div(metrics.GrossLoss.Neg()).Float64()
	}

	return metrics
}

// SymbolResult is the realized gain/loss of one symbol.
type SymbolResult struct {
	Symbol   string          `json:"symbol"`
	GainLoss decimal.Decimal `json:"gain_loss"`
}

// GetSymbolResults returns BySymbol sorted by symbol.
func (m *PerformanceMetrics) GetSymbolResults() []SymbolResult {
	results := make([]SymbolResult, 0, len(m.BySymbol))
	for symbol, gl := range m.BySymbol {
		results = append(results, SymbolResult{Symbol: symbol, GainLoss: gl})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Symbol < results[j].Symbol
	})
	return results
}
