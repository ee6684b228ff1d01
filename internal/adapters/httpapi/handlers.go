package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/domain"
)

type recordResponse struct {
	Fingerprint         string              `json:"fingerprint"`
	RunDate             string              `json:"run_date"`
	Account             string              `json:"account"`
	Action              string              `json:"action"`
	ActionType          domain.ActionType   `json:"action_type"`
	Symbol              *string             `json:"symbol"`
	SecurityDescription string              `json:"security_description"`
	SecurityType        *string             `json:"security_type"`
	Quantity            decimal.NullDecimal `json:"quantity"`
	Price               decimal.NullDecimal `json:"price"`
	Commission          decimal.NullDecimal `json:"commission"`
	Fees                decimal.NullDecimal `json:"fees"`
	AccruedInterest     decimal.NullDecimal `json:"accrued_interest"`
	Amount              decimal.NullDecimal `json:"amount"`
	SettlementDate      *string             `json:"settlement_date"`
}

func newRecordResponse(r *domain.TransactionRecord) recordResponse {
	resp := recordResponse{
		Fingerprint:         r.Fingerprint,
		RunDate:             r.RunDate.Format(domain.DateLayout),
		Account:             r.Account,
		Action:              r.Action,
		ActionType:          r.ActionType,
		Symbol:              r.Symbol,
		SecurityDescription: r.SecurityDescription,
		SecurityType:        r.SecurityType,
		Quantity:            r.Quantity,
		Price:               r.Price,
		Commission:          r.Commission,
		Fees:                r.Fees,
		AccruedInterest:     r.AccruedInterest,
		Amount:              r.Amount,
	}
	if r.SettlementDate != nil {
		d := r.SettlementDate.Format(domain.DateLayout)
		resp.SettlementDate = &d
	}
	return resp
}

func newRecordResponses(records []domain.TransactionRecord) []recordResponse {
	out := make([]recordResponse, len(records))
	for i := range records {
		out[i] = newRecordResponse(&records[i])
	}
	return out
}

type closedPositionResponse struct {
	Account  string          `json:"account"`
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	GainLoss decimal.Decimal `json:"gain_loss"`
	Month    string          `json:"month"`
	Open     recordResponse  `json:"open"`
	Close    recordResponse  `json:"close"`
}

type openPositionResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	Open     recordResponse  `json:"open"`
}

type totalResponse struct {
	Month    string          `json:"month"`
	Account  string          `json:"account"`
	GainLoss decimal.Decimal `json:"gain_loss"`
}

type statsResponse struct {
	TotalTrades          int                      `json:"total_trades"`
	WinningTrades        int                      `json:"winning_trades"`
	LosingTrades         int                      `json:"losing_trades"`
	WinRate              float64                  `json:"win_rate"`
	TotalGainLoss        decimal.Decimal          `json:"total_gain_loss"`
	AverageWin           decimal.Decimal          `json:"average_win"`
	AverageLoss          decimal.Decimal          `json:"average_loss"`
	LargestWin           decimal.Decimal          `json:"largest_win"`
	LargestLoss          decimal.Decimal          `json:"largest_loss"`
	ProfitFactor         float64                  `json:"profit_factor"`
	MaxConsecutiveWins   int                      `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int                      `json:"max_consecutive_losses"`
	AverageHoldingDays   float64                  `json:"average_holding_days"`
	MaxDrawdown          decimal.Decimal          `json:"max_drawdown"`
	Expectancy           decimal.Decimal          `json:"expectancy"`
	BySymbol             []analytics.SymbolResult `json:"by_symbol"`
}

// handleHealth returns service liveness
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleRecords returns every ledger record
// GET /api/records
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.Records(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get records")
		return
	}
	s.writeJSON(w, r, newRecordResponses(records))
}

// handleTradingRecords returns opening and closing trades
// GET /api/records/trading
func (s *Server) handleTradingRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.TradingRecords(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get trading records")
		return
	}
	s.writeJSON(w, r, newRecordResponses(records))
}

// GET /api/positions/closed
func (s *Server) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	closed, err := s.ledger.ClosedPositions(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get closed positions")
		return
	}
	out := make([]closedPositionResponse, len(closed))
	for i := range closed {
		p := &closed[i]
		out[i] = closedPositionResponse{
			Account:  p.Account(),
			Symbol:   p.Symbol(),
			Quantity: p.Quantity,
			GainLoss: p.GainLoss,
			Month:    p.CloseMonth(),
			Open:     newRecordResponse(&p.Open),
			Close:    newRecordResponse(&p.Close),
		}
	}
	s.writeJSON(w, r, out)
}

// GET /api/positions/open
func (s *Server) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	open, err := s.ledger.OpenPositions(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get open positions")
		return
	}
	out := make([]openPositionResponse, len(open))
	for i := range open {
		out[i] = openPositionResponse{Quantity: open[i].Quantity, Open: newRecordResponse(&open[i].Open)}
	}
	s.writeJSON(w, r, out)
}

// handleTotals returns realized gain/loss per close month and account
// GET /api/totals
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.MonthlyTotals(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get totals")
		return
	}
	out := make([]totalResponse, len(totals))
	for i, t := range totals {
		out[i] = totalResponse{Month: t.Month, Account: t.Account, GainLoss: t.GainLoss}
	}
	s.writeJSON(w, r, out)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	m, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to get stats")
		return
	}
	s.writeJSON(w, r, statsResponse{
		TotalTrades:          m.TotalTrades,
		WinningTrades:        m.WinningTrades,
		LosingTrades:         m.LosingTrades,
		WinRate:              m.WinRate,
		TotalGainLoss:        m.TotalGainLoss,
		AverageWin:           m.AverageWin,
		AverageLoss:          m.AverageLoss,
		LargestWin:           m.LargestWin,
		LargestLoss:          m.LargestLoss,
		ProfitFactor:         m.ProfitFactor,
		MaxConsecutiveWins:   m.MaxConsecutiveWins,
		MaxConsecutiveLosses: m.MaxConsecutiveLosses,
		AverageHoldingDays:   m.AverageHoldingPeriod.Hours() / 24,
		MaxDrawdown:          m.MaxDrawdown,
		Expectancy:           m.Expectancy,
		BySymbol:             m.GetSymbolResults(),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.logger.Error(r.Context(), err, msg, map[string]interface{}{"path": r.URL.Path})
	http.Error(w, msg, http.StatusInternalServerError)
}

// writeJSON writes JSON response
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode JSON response")
	}
}
