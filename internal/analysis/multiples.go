package analysis

import (
	"fmt"

	"github.com/sells-group/handspread/internal/model"
)

// evMultiple divides ev by a cited denominator, gating on currency: any
// multiple mixing the USD EV/market_cap anchor with a non-USD cited
// denominator returns value=null with the cross-currency warning instead
// of dividing.
func evMultiple(formula string, ev model.ComputedValue, denomRole string, denom model.CitedValue, hasDenom bool) model.ComputedValue {
	components := map[string]model.Value{"enterprise_value": ev}
	if !hasDenom {
		return model.NewComputedValue(nil, "x", formula, components)
	}
	components[denomRole] = denom

	if IsCrossCurrency(denom.Unit) {
		return model.NewComputedValue(nil, "x", formula, components,
			fmt.Sprintf("currency mismatch: %s cited vs USD market", denom.Unit))
	}

	val, warns := safeDivide(ev.Value, denom.Value)
	return model.NewComputedValue(val, "x", formula, components, warns...)
}

// evMultipleComputed is evMultiple's variant for a ComputedValue
// denominator (adjusted_ebitda), which carries its own currency via Unit.
func evMultipleComputed(formula string, ev model.ComputedValue, denomRole string, denom model.ComputedValue) model.ComputedValue {
	components := map[string]model.Value{"enterprise_value": ev, denomRole: denom}

	if IsCrossCurrency(denom.Unit) {
		return model.NewComputedValue(nil, "x", formula, components,
			fmt.Sprintf("currency mismatch: %s cited vs USD market", denom.Unit))
	}

	val, warns := safeDivide(ev.Value, denom.Value)
	return model.NewComputedValue(val, "x", formula, components, warns...)
}

// equityMultiple divides market_cap by a cited denominator (pe, pb).
func equityMultiple(formula string, marketCap model.Value, denomRole string, denom model.CitedValue, hasDenom bool) model.ComputedValue {
	components := map[string]model.Value{"market_cap": marketCap}
	if !hasDenom {
		return model.NewComputedValue(nil, "x", formula, components)
	}
	components[denomRole] = denom

	if IsCrossCurrency(denom.Unit) {
		return model.NewComputedValue(nil, "x", formula, components,
			fmt.Sprintf("currency mismatch: %s cited vs USD market", denom.Unit))
	}

	val, warns := safeDivide(marketCap.GetValue(), denom.Value)
	return model.NewComputedValue(val, "x", formula, components, warns...)
}

// ComputeMultiples builds every EV and equity multiple plus the two
// yields, per §4.E's table.
func ComputeMultiples(market model.MarketSnapshot, ev model.ComputedValue, secLTM map[string]model.CitedValue) map[string]model.ComputedValue {
	result := make(map[string]model.ComputedValue)

	revenue, hasRevenue := ExtractSECValue(secLTM, "revenue")
	ebitdaGAAP, hasEBITDA := ExtractSECValue(secLTM, "ebitda")
	oi, hasOI := ExtractSECValue(secLTM, "operating_income")
	fcf, hasFCF := ExtractSECValue(secLTM, "free_cash_flow")
	netIncome, hasNetIncome := ExtractSECValue(secLTM, "net_income")
	equity, hasEquity := ExtractSECValue(secLTM, "stockholders_equity")
	dps, hasDPS := ExtractSECValue(secLTM, "dividends_per_share")
	dna, hasDNA := ExtractSECValue(secLTM, "depreciation_amortization")
	sbc, hasSBC := ExtractSECValue(secLTM, "stock_based_compensation")

	var oiPtr, dnaPtr, sbcPtr *model.CitedValue
	if hasOI {
		oiPtr = &oi
	}
	if hasDNA {
		dnaPtr = &dna
	}
	if hasSBC {
		sbcPtr = &sbc
	}
	adjEBITDA := ComputeAdjustedEBITDA(oiPtr, dnaPtr, sbcPtr)
	result["adjusted_ebitda"] = adjEBITDA

	result["ev_revenue"] = evMultiple("enterprise_value / revenue", ev, "revenue", revenue, hasRevenue)
	result["ev_ebitda"] = evMultipleComputed("enterprise_value / adjusted_ebitda", ev, "adjusted_ebitda", adjEBITDA)
	result["ev_ebitda_gaap"] = evMultiple("enterprise_value / ebitda", ev, "ebitda", ebitdaGAAP, hasEBITDA)
	result["ev_ebit"] = evMultiple("enterprise_value / operating_income", ev, "operating_income", oi, hasOI)
	result["ev_fcf"] = evMultiple("enterprise_value / free_cash_flow", ev, "free_cash_flow", fcf, hasFCF)

	result["pe"] = equityMultiple("market_cap / net_income", market.MarketCap, "net_income", netIncome, hasNetIncome)
	result["pb"] = equityMultiple("market_cap / stockholders_equity", market.MarketCap, "stockholders_equity", equity, hasEquity)

	result["fcf_yield"] = yieldMultiple("free_cash_flow / market_cap", fcf, hasFCF, market.MarketCap)
	result["dividend_yield"] = yieldMultiple("dividends_per_share / price", dps, hasDPS, market.Price)

	return result
}

// yieldMultiple computes a cited-over-market ratio expressed as a
// percentage (unit "%"): fcf_yield divides a USD-denominated figure
// (free_cash_flow) by market_cap; dividend_yield divides
// dividends_per_share by price. Both gate on the cited side's currency.
func yieldMultiple(formula string, numerator model.CitedValue, hasNumerator bool, marketDenominator model.Value) model.ComputedValue {
	components := map[string]model.Value{"market": marketDenominator}
	if !hasNumerator {
		return model.NewComputedValue(nil, "%", formula, components)
	}
	components["cited"] = numerator

	if IsCrossCurrency(numerator.Unit) {
		return model.NewComputedValue(nil, "%", formula, components,
			fmt.Sprintf("currency mismatch: %s cited vs USD market", numerator.Unit))
	}

	val, warns := safeDivide(numerator.Value, marketDenominator.GetValue())
	return model.NewComputedValue(val, "%", formula, components, warns...)
}
