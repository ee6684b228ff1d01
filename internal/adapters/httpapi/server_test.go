package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLedger/internal/analytics"
	"tradeLedger/internal/domain"
	"tradeLedger/internal/matcher"
	"tradeLedger/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// fakeLedger serves fixed records through the real matcher.
type fakeLedger struct {
	records []domain.TransactionRecord
	err     error
}

func (f *fakeLedger) Records(ctx context.Context) ([]domain.TransactionRecord, error) {
	return f.records, f.err
}

func (f *fakeLedger) TradingRecords(ctx context.Context) ([]domain.TransactionRecord, error) {
	var out []domain.TransactionRecord
	for _, r := range f.records {
		if r.ActionType.IsOpening() || r.ActionType.IsClosing() {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeLedger) ClosedPositions(ctx context.Context) ([]domain.ClosedPosition, error) {
	return matcher.ClosedPositions(f.records), f.err
}

func (f *fakeLedger) OpenPositions(ctx context.Context) ([]domain.OpenPosition, error) {
	return matcher.OpenPositions(f.records), f.err
}

func (f *fakeLedger) MonthlyTotals(ctx context.Context) ([]domain.MonthlyTotal, error) {
	return matcher.ClosedPositionTotals(matcher.ClosedPositions(f.records)), f.err
}

func (f *fakeLedger) Stats(ctx context.Context) (*analytics.PerformanceMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return analytics.AnalyzePerformance(matcher.ClosedPositions(f.records)), nil
}

func record(fp string, t domain.ActionType, qty, amount int64, base domain.TransactionRecord) domain.TransactionRecord {
	base.Fingerprint = fp
	base.ActionType = t
	base.Action = string(t)
	base.Account = "X"
	base.Symbol = domain.StringPtr("ABC")
	base.SecurityDescription = "ABC CORP"
	base.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(qty))
	base.Amount = decimal.NewNullDecimal(decimal.NewFromInt(amount))
	return base
}

func newTestServer(ledger Ledger) *Server {
	return New(Config{Addr: ":0", Ledger: ledger, Logger: &mockLogger{}})
}

func sampleLedger() *fakeLedger {
	settle := domain.NewDate(2024, 2, 12)
	return &fakeLedger{records: []domain.TransactionRecord{
		record("o1", domain.ActionSellToOpen, -100, 500, domain.TransactionRecord{RunDate: domain.NewDate(2024, 1, 5)}),
		record("c1", domain.ActionBuyToClose, 100, -300, domain.TransactionRecord{RunDate: domain.NewDate(2024, 2, 10), SettlementDate: &settle}),
		record("o2", domain.ActionBuyToOpen, 5, -50, domain.TransactionRecord{RunDate: domain.NewDate(2024, 3, 1)}),
		{
			Fingerprint:         "d1",
			RunDate:             domain.NewDate(2024, 1, 15),
			Account:             "X",
			Action:              "DIVIDEND RECEIVED",
			ActionType:          domain.ActionDividend,
			SecurityDescription: "ABC CORP",
			Amount:              decimal.NewNullDecimal(decimal.RequireFromString("12.5")),
		},
	}}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(&fakeLedger{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecords(t *testing.T) {
	s := newTestServer(sampleLedger())

	rec := get(t, s, "/api/records")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 4)
	assert.Equal(t, "o1", body[0]["fingerprint"])
	assert.Equal(t, "2024-01-05", body[0]["run_date"])
	assert.Equal(t, "sell_to_open", body[0]["action_type"])
	assert.Equal(t, "500", body[0]["amount"])

	// Absent values are null, never empty strings.
	assert.Nil(t, body[3]["symbol"])
	assert.Nil(t, body[3]["quantity"])
	assert.Nil(t, body[3]["settlement_date"])

	rec = get(t, s, "/api/records/trading")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 3)
}

func TestPositions(t *testing.T) {
	s := newTestServer(sampleLedger())

	rec := get(t, s, "/api/positions/closed")
	require.Equal(t, http.StatusOK, rec.Code)
	var closed []closedPositionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	require.Len(t, closed, 1)
	assert.Equal(t, "X", closed[0].Account)
	assert.Equal(t, "ABC", closed[0].Symbol)
	assert.Equal(t, "2024-02", closed[0].Month)
	assert.True(t, closed[0].GainLoss.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "o1", closed[0].Open.Fingerprint)
	assert.Equal(t, "c1", closed[0].Close.Fingerprint)

	rec = get(t, s, "/api/positions/open")
	require.Equal(t, http.StatusOK, rec.Code)
	var open []openPositionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, "o2", open[0].Open.Fingerprint)
	assert.True(t, open[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestTotalsAndStats(t *testing.T) {
	s := newTestServer(sampleLedger())

	rec := get(t, s, "/api/totals")
	require.Equal(t, http.StatusOK, rec.Code)
	var totals []totalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	require.Len(t, totals, 1)
	assert.Equal(t, "2024-02", totals[0].Month)
	assert.True(t, totals[0].GainLoss.Equal(decimal.NewFromInt(200)))

	rec = get(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1.0, stats.WinRate)
	assert.Equal(t, 36.0, stats.AverageHoldingDays)
	require.Len(t, stats.BySymbol, 1)
	assert.Equal(t, "ABC", stats.BySymbol[0].Symbol)
}

func TestEmptyLedgerReturnsEmptyArrays(t *testing.T) {
	s := newTestServer(&fakeLedger{records: []domain.TransactionRecord{}})
	for _, path := range []string{"/api/records", "/api/positions/closed", "/api/positions/open", "/api/totals"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestStoreErrorIsInternalServerError(t *testing.T) {
	s := newTestServer(&fakeLedger{err: &ports.StoreError{Op: "query", Err: ports.ErrQueryFailed}})
	for _, path := range []string{"/api/records", "/api/records/trading", "/api/positions/closed", "/api/positions/open", "/api/totals", "/api/stats"} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, newTestServer(&fakeLedger{}), "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
