package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/handspread/internal/herrors"
	"github.com/sells-group/handspread/internal/market"
	"github.com/sells-group/handspread/internal/model"
	"github.com/sells-group/handspread/internal/secdata"
	"github.com/sells-group/handspread/internal/secdata/secfake"
)

func fv(v float64) *float64 { return &v }

func aaplMetrics(revenue, netIncome float64) map[string]secdata.CitedValue {
	return map[string]secdata.CitedValue{
		"revenue":      {Value: fv(revenue), Unit: "USD", Concept: "Revenues", PeriodEnd: "2025-12-31", Filed: "2026-02-01", CIK: "0000320193", CompanyName: "Apple Inc."},
		"net_income":   {Value: fv(netIncome), Unit: "USD", Concept: "NetIncomeLoss"},
		"total_debt":   {Value: fv(100), Unit: "USD"},
		"cash":         {Value: fv(40), Unit: "USD"},
		"gross_profit": {Value: fv(revenue * 0.4), Unit: "USD"},
	}
}

func newTestEngine(sec *secfake.Provider, transport *market.FakeTransport) *Engine {
	mkt := market.NewClient(transport, 8, time.Minute)
	return New(sec, mkt, 5*time.Second, 0.21)
}

func fakeTransportFor(symbol string, price, shares, cap float64) *market.FakeTransport {
	ft := market.NewFakeTransport()
	ft.Quotes[symbol] = market.QuoteResponse{Price: price, HasPrice: true}
	ft.Profiles[symbol] = market.ProfileResponse{
		Name: symbol, ShareOutstandingM: shares / 1e6, HasShareOutstanding: true,
		MarketCapitalization: cap / 1e6, HasMarketCap: true,
	}
	return ft
}

func TestAnalyzeComps_EmptyTickersIsInvalidInput(t *testing.T) {
	sec := &secfake.Provider{}
	transport := market.NewFakeTransport()
	e := newTestEngine(sec, transport)

	_, err := e.AnalyzeComps(context.Background(), nil, "ltm", model.DefaultEVPolicy())
	require.Error(t, err)
	assert.True(t, herrors.IsInvalidInput(err))
}

func TestAnalyzeComps_HappyPath(t *testing.T) {
	sec := &secfake.Provider{
		Metrics: map[string]map[string]map[string]secdata.CitedValue{
			"AAPL": {
				"ltm":   aaplMetrics(1000, 200),
				"ltm-1": aaplMetrics(800, 150),
			},
		},
	}
	transport := fakeTransportFor("AAPL", 10, 100, 1000)
	e := newTestEngine(sec, transport)

	results, err := e.AnalyzeComps(context.Background(), []string{"AAPL"}, "ltm", model.DefaultEVPolicy())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "AAPL", r.Symbol)
	assert.Equal(t, "Apple Inc.", r.CompanyName)
	assert.Equal(t, "0000320193", r.CIK)
	assert.Empty(t, r.Errors)
	require.NotNil(t, r.EVBridge)
	require.NotNil(t, r.EVBridge.Value)
	assert.Equal(t, 1060.0, *r.EVBridge.Value) // 1000 + 100 - 40
	require.Contains(t, r.Multiples, "ev_revenue")
	require.Contains(t, r.Growth, "revenue")
	require.Contains(t, r.Operating, "gross_margin")
}

func TestAnalyzeComps_PartialMarketFailureIsolated(t *testing.T) {
	sec := &secfake.Provider{
		Metrics: map[string]map[string]map[string]secdata.CitedValue{
			"AAPL": {"ltm": aaplMetrics(1000, 200), "ltm-1": aaplMetrics(800, 150)},
			"MSFT": {"ltm": aaplMetrics(2000, 400), "ltm-1": aaplMetrics(1800, 350)},
		},
	}
	transport := fakeTransportFor("AAPL", 10, 100, 1000)
	transport.Errs["MSFT"] = eris.New("vendor unavailable")
	e := newTestEngine(sec, transport)

	results, err := e.AnalyzeComps(context.Background(), []string{"AAPL", "MSFT"}, "ltm", model.DefaultEVPolicy())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Empty(t, results[0].Errors)
	assert.NotNil(t, results[0].EVBridge)

	assert.Equal(t, "MSFT", results[1].Symbol)
	require.Len(t, results[1].Errors, 1)
	assert.Equal(t, "market", results[1].Errors[0].Stage)
	assert.Nil(t, results[1].EVBridge)
}

func TestAnalyzeComps_InputOrderPreserved(t *testing.T) {
	sec := &secfake.Provider{
		Metrics: map[string]map[string]map[string]secdata.CitedValue{
			"MSFT": {"ltm": aaplMetrics(2000, 400), "ltm-1": aaplMetrics(1800, 350)},
			"AAPL": {"ltm": aaplMetrics(1000, 200), "ltm-1": aaplMetrics(800, 150)},
		},
	}
	transport := market.NewFakeTransport()
	for _, s := range []string{"MSFT", "AAPL", "GOOG"} {
		transport.Quotes[s] = market.QuoteResponse{Price: 10, HasPrice: true}
		transport.Profiles[s] = market.ProfileResponse{ShareOutstandingM: 100, HasShareOutstanding: true, MarketCapitalization: 1000, HasMarketCap: true}
	}
	e := newTestEngine(sec, transport)

	results, err := e.AnalyzeComps(context.Background(), []string{"MSFT", "AAPL", "GOOG"}, "ltm", model.DefaultEVPolicy())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"MSFT", "AAPL", "GOOG"}, []string{results[0].Symbol, results[1].Symbol, results[2].Symbol})
}

func TestAnalyzeComps_SECBatchFailureRecordedPerTicker(t *testing.T) {
	sec := &secfake.Provider{Err: eris.New("companyfacts unreachable")}
	transport := fakeTransportFor("AAPL", 10, 100, 1000)
	e := newTestEngine(sec, transport)

	results, err := e.AnalyzeComps(context.Background(), []string{"AAPL"}, "ltm", model.DefaultEVPolicy())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Errors)
	assert.Nil(t, results[0].EVBridge)
}

func TestAnalyzeComps_SharedTimeoutRecordsTimeoutKind(t *testing.T) {
	sec := &secfake.Provider{
		Metrics: map[string]map[string]map[string]secdata.CitedValue{
			"AAPL": {"ltm": aaplMetrics(1000, 200), "ltm-1": aaplMetrics(800, 150)},
		},
		Delay: func(ctx context.Context) { <-ctx.Done() },
	}
	transport := fakeTransportFor("AAPL", 10, 100, 1000)
	mkt := market.NewClient(transport, 8, time.Minute)
	e := New(sec, mkt, 20*time.Millisecond, 0.21)

	results, err := e.AnalyzeComps(context.Background(), []string{"AAPL"}, "ltm", model.DefaultEVPolicy())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Errors)

	var kinds []string
	for _, e := range results[0].Errors {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, "timeout")
}

func TestPriorPeriod(t *testing.T) {
	assert.Equal(t, "ltm-1", priorPeriod("ltm"))
	assert.Equal(t, "annual:2023", priorPeriod("annual:2024"))
}
