package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/handspread/internal/model"
)

func snapshotWithPriceAndCap(price, cap float64) model.MarketSnapshot {
	return model.MarketSnapshot{
		Price:     model.MarketValue{Header: model.Header{Value: f(price), Unit: "USD"}},
		MarketCap: model.MarketValue{Header: model.Header{Value: f(cap), Unit: "USD"}},
	}
}

func TestComputeMultiples_EVRevenue(t *testing.T) {
	market := snapshotWithPriceAndCap(10, 1000)
	ev := model.NewComputedValue(f(1200), "USD", "market_cap", nil)
	secLTM := map[string]model.CitedValue{"revenue": cited(f(300), "USD")}

	got := ComputeMultiples(market, ev, secLTM)
	assert.Equal(t, 4.0, *got["ev_revenue"].Value)
}

func TestComputeMultiples_EVRevenue_CrossCurrencyBlocked(t *testing.T) {
	market := snapshotWithPriceAndCap(10, 1000)
	ev := model.NewComputedValue(f(1200), "USD", "market_cap", nil)
	secLTM := map[string]model.CitedValue{"revenue": cited(f(300), "CNY")}

	got := ComputeMultiples(market, ev, secLTM)
	assert.Nil(t, got["ev_revenue"].Value)
	assert.Contains(t, got["ev_revenue"].Warnings, "currency mismatch: CNY cited vs USD market")
}

func TestComputeMultiples_PE(t *testing.T) {
	market := snapshotWithPriceAndCap(10, 1000)
	ev := model.NewComputedValue(nil, "USD", "market_cap", nil)
	secLTM := map[string]model.CitedValue{"net_income": cited(f(100), "USD")}

	got := ComputeMultiples(market, ev, secLTM)
	assert.Equal(t, 10.0, *got["pe"].Value)
}

func TestComputeMultiples_DividendYield(t *testing.T) {
	market := snapshotWithPriceAndCap(20, 1000)
	ev := model.NewComputedValue(nil, "USD", "market_cap", nil)
	secLTM := map[string]model.CitedValue{"dividends_per_share": cited(f(1), "USD")}

	got := ComputeMultiples(market, ev, secLTM)
	assert.Equal(t, 0.05, *got["dividend_yield"].Value)
}

func TestComputeMultiples_AdjustedEBITDAIncluded(t *testing.T) {
	market := snapshotWithPriceAndCap(10, 1000)
	ev := model.NewComputedValue(f(1200), "USD", "market_cap", nil)
	secLTM := map[string]model.CitedValue{
		"operating_income":          cited(f(100), "USD"),
		"depreciation_amortization": cited(f(20), "USD"),
	}

	got := ComputeMultiples(market, ev, secLTM)
	assert.Equal(t, 120.0, *got["adjusted_ebitda"].Value)
	assert.Equal(t, 10.0, *got["ev_ebitda"].Value)
	assert.Contains(t, got["ev_ebitda"].Warnings, "SBC unavailable; adjusted EBITDA ≈ GAAP EBITDA")
}

func TestComputeMultiples_MissingDenominatorIsNull(t *testing.T) {
	market := snapshotWithPriceAndCap(10, 1000)
	ev := model.NewComputedValue(f(1200), "USD", "market_cap", nil)
	got := ComputeMultiples(market, ev, map[string]model.CitedValue{})
	assert.Nil(t, got["ev_revenue"].Value)
	assert.Nil(t, got["pe"].Value)
}
