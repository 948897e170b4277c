package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/handspread/internal/model"
)

func snapshotWithShares(shares float64) model.MarketSnapshot {
	return model.MarketSnapshot{
		SharesOutstanding: model.MarketValue{Header: model.Header{Value: f(shares), Unit: "shares"}},
	}
}

func TestComputeOperating_GrossMargin(t *testing.T) {
	secLTM := map[string]model.CitedValue{
		"revenue":      cited(f(200), "USD"),
		"gross_profit": cited(f(80), "USD"),
	}
	got := ComputeOperating(model.MarketSnapshot{}, secLTM, 0.21)
	assert.Equal(t, 0.4, *got["gross_margin"].Value)
}

func TestComputeOperating_RevenuePerShare(t *testing.T) {
	market := snapshotWithShares(100)
	secLTM := map[string]model.CitedValue{"revenue": cited(f(500), "USD")}
	got := ComputeOperating(market, secLTM, 0.21)
	assert.Equal(t, 5.0, *got["revenue_per_share"].Value)
	assert.Equal(t, "USD/shares", got["revenue_per_share"].Unit)
}

func TestComputeOperating_RevenuePerShare_CrossContextWarning(t *testing.T) {
	market := snapshotWithShares(100)
	secLTM := map[string]model.CitedValue{"revenue": cited(f(500), "CNY")}
	got := ComputeOperating(market, secLTM, 0.21)
	assert.NotNil(t, got["revenue_per_share"].Value)
	assert.Contains(t, got["revenue_per_share"].Warnings, "cross-context: SEC CNY revenue vs market share count")
}

func TestComputeOperating_ROIC(t *testing.T) {
	secLTM := map[string]model.CitedValue{
		"operating_income":   cited(f(100), "USD"),
		"total_debt":         cited(f(200), "USD"),
		"stockholders_equity": cited(f(300), "USD"),
	}
	got := ComputeOperating(model.MarketSnapshot{}, secLTM, 0.21)
	// 100 * 0.79 / 500 = 0.158
	assert.InDelta(t, 0.158, *got["roic"].Value, 1e-9)
}

func TestComputeOperating_ROIC_ZeroInvestedCapitalIsNull(t *testing.T) {
	secLTM := map[string]model.CitedValue{
		"operating_income":   cited(f(100), "USD"),
		"stockholders_equity": cited(f(0), "USD"),
	}
	got := ComputeOperating(model.MarketSnapshot{}, secLTM, 0.21)
	assert.Nil(t, got["roic"].Value)
	assert.Contains(t, got["roic"].Warnings, "zero invested capital")
}

func TestComputeOperating_ROIC_MissingOperatingIncomeIsNull(t *testing.T) {
	secLTM := map[string]model.CitedValue{
		"stockholders_equity": cited(f(300), "USD"),
	}
	got := ComputeOperating(model.MarketSnapshot{}, secLTM, 0.21)
	assert.Nil(t, got["roic"].Value)
}

func TestComputeOperating_AdjustedEBITDAMargin(t *testing.T) {
	secLTM := map[string]model.CitedValue{
		"revenue":                   cited(f(200), "USD"),
		"operating_income":          cited(f(60), "USD"),
		"depreciation_amortization": cited(f(20), "USD"),
	}
	got := ComputeOperating(model.MarketSnapshot{}, secLTM, 0.21)
	assert.Equal(t, 0.4, *got["adjusted_ebitda_margin"].Value)
}
