package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/handspread/internal/model"
)

func marketCapSnapshot(cap *float64) model.MarketSnapshot {
	return model.MarketSnapshot{
		MarketCap: model.MarketValue{Header: model.Header{Value: cap, Unit: "USD"}},
	}
}

func TestBuildEVBridge_SimpleTotalOnly(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	secLTM := map[string]model.CitedValue{
		"total_debt": cited(f(200), "USD"),
		"cash":       cited(f(50), "USD"),
	}
	got := BuildEVBridge(market, secLTM, model.DefaultEVPolicy())
	assert.NotNil(t, got.Value)
	assert.Equal(t, 1150.0, *got.Value) // 1000 + 200 - 50
}

func TestBuildEVBridge_NullMarketCap(t *testing.T) {
	market := marketCapSnapshot(nil)
	got := BuildEVBridge(market, map[string]model.CitedValue{}, model.DefaultEVPolicy())
	assert.Nil(t, got.Value)
}

func TestBuildEVBridge_CrossCurrencyBlocksBridge(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	secLTM := map[string]model.CitedValue{
		"total_debt": cited(f(200), "CNY"),
	}
	got := BuildEVBridge(market, secLTM, model.DefaultEVPolicy())
	assert.Nil(t, got.Value)
	assert.Contains(t, got.Warnings, "EV bridge blocked: SEC currency CNY ≠ USD market")
}

func TestBuildEVBridge_DebtModeSplit_PrefersTotalDebt(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	policy := model.DefaultEVPolicy()
	policy.DebtMode = model.DebtModeSplit
	policy.SubtractCash = false
	policy.SubtractMarketableSecurities = false
	secLTM := map[string]model.CitedValue{
		"total_debt":      cited(f(300), "USD"),
		"short_term_debt": cited(f(50), "USD"),
	}
	got := BuildEVBridge(market, secLTM, policy)
	assert.Equal(t, 1300.0, *got.Value)
}

func TestBuildEVBridge_DebtModeSplit_FallsBackToShortTerm(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	policy := model.DefaultEVPolicy()
	policy.DebtMode = model.DebtModeSplit
	policy.SubtractCash = false
	policy.SubtractMarketableSecurities = false
	secLTM := map[string]model.CitedValue{
		"short_term_debt": cited(f(50), "USD"),
	}
	got := BuildEVBridge(market, secLTM, policy)
	assert.Equal(t, 1050.0, *got.Value)
}

func TestBuildEVBridge_DebtModeTotalPlusShort_SumsBoth(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	policy := model.DefaultEVPolicy()
	policy.DebtMode = model.DebtModeTotalPlusShort
	policy.SubtractCash = false
	policy.SubtractMarketableSecurities = false
	secLTM := map[string]model.CitedValue{
		"total_debt":      cited(f(300), "USD"),
		"short_term_debt": cited(f(50), "USD"),
	}
	got := BuildEVBridge(market, secLTM, policy)
	assert.Equal(t, 1350.0, *got.Value)
}

func TestBuildEVBridge_OptionalComponentsIncluded(t *testing.T) {
	market := marketCapSnapshot(f(1000))
	policy := model.DefaultEVPolicy()
	policy.IncludeLeases = true
	policy.SubtractEquityMethodInvestments = true
	secLTM := map[string]model.CitedValue{
		"operating_lease_liabilities": cited(f(40), "USD"),
		"preferred_stock":             cited(f(10), "USD"),
		"noncontrolling_interests":    cited(f(5), "USD"),
		"cash":                        cited(f(20), "USD"),
		"marketable_securities":       cited(f(15), "USD"),
		"equity_method_investments":   cited(f(25), "USD"),
	}
	got := BuildEVBridge(market, secLTM, policy)
	// 1000 + 40 + 10 + 5 - 20 - 15 - 25
	assert.Equal(t, 995.0, *got.Value)
}

func TestBuildEVBridge_MissingComponentsContributeZero(t *testing.T) {
	market := marketCapSnapshot(f(500))
	got := BuildEVBridge(market, map[string]model.CitedValue{}, model.DefaultEVPolicy())
	assert.Equal(t, 500.0, *got.Value)
}
