package analysis

import (
	"fmt"

	"github.com/sells-group/handspread/internal/model"
)

// marginOnRevenue divides numerator by revenue, unit "pure". Used for the
// gross/EBITDA/adjusted-EBITDA/net/FCF margins and the three expense
// ratios — all SEC-only, so no currency gate applies.
func marginOnRevenue(formula string, numeratorRole string, numerator model.Value, hasNumerator bool, revenue model.CitedValue, hasRevenue bool) model.ComputedValue {
	components := map[string]model.Value{}
	if hasRevenue {
		components["revenue"] = revenue
	}
	if hasNumerator {
		components[numeratorRole] = numerator
	}
	if !hasNumerator || !hasRevenue {
		return model.NewComputedValue(nil, "pure", formula, components)
	}

	val, warns := safeDivide(numerator.GetValue(), revenue.Value)
	return model.NewComputedValue(val, "pure", formula, components, warns...)
}

// ComputeOperating computes the margin, expense-ratio, revenue-per-share,
// and ROIC metrics from a single period's cited values plus the market
// snapshot's share count. taxRate is an engine parameter (spec default
// 0.21).
func ComputeOperating(market model.MarketSnapshot, secLTM map[string]model.CitedValue, taxRate float64) map[string]model.ComputedValue {
	result := make(map[string]model.ComputedValue)

	revenue, hasRevenue := ExtractSECValue(secLTM, "revenue")
	grossProfit, hasGrossProfit := ExtractSECValue(secLTM, "gross_profit")
	ebitda, hasEBITDA := ExtractSECValue(secLTM, "ebitda")
	netIncome, hasNetIncome := ExtractSECValue(secLTM, "net_income")
	fcf, hasFCF := ExtractSECValue(secLTM, "free_cash_flow")
	rd, hasRD := ExtractSECValue(secLTM, "research_development")
	sga, hasSGA := ExtractSECValue(secLTM, "sga")
	capex, hasCapex := ExtractSECValue(secLTM, "capital_expenditures")
	oi, hasOI := ExtractSECValue(secLTM, "operating_income")
	totalDebt, hasTotalDebt := ExtractSECValue(secLTM, "total_debt")
	equity, hasEquity := ExtractSECValue(secLTM, "stockholders_equity")

	var oiPtr *model.CitedValue
	if hasOI {
		oiPtr = &oi
	}
	dna, hasDNA := ExtractSECValue(secLTM, "depreciation_amortization")
	sbc, hasSBC := ExtractSECValue(secLTM, "stock_based_compensation")
	var dnaPtr, sbcPtr *model.CitedValue
	if hasDNA {
		dnaPtr = &dna
	}
	if hasSBC {
		sbcPtr = &sbc
	}
	adjEBITDA := ComputeAdjustedEBITDA(oiPtr, dnaPtr, sbcPtr)

	result["gross_margin"] = marginOnRevenue("gross_profit / revenue", "gross_profit", grossProfit, hasGrossProfit, revenue, hasRevenue)
	result["ebitda_margin"] = marginOnRevenue("ebitda / revenue", "ebitda", ebitda, hasEBITDA, revenue, hasRevenue)
	result["adjusted_ebitda_margin"] = marginOnRevenue("adjusted_ebitda / revenue", "adjusted_ebitda", adjEBITDA, true, revenue, hasRevenue)
	result["net_margin"] = marginOnRevenue("net_income / revenue", "net_income", netIncome, hasNetIncome, revenue, hasRevenue)
	result["fcf_margin"] = marginOnRevenue("free_cash_flow / revenue", "free_cash_flow", fcf, hasFCF, revenue, hasRevenue)

	result["rd_to_revenue"] = marginOnRevenue("research_development / revenue", "research_development", rd, hasRD, revenue, hasRevenue)
	result["sga_to_revenue"] = marginOnRevenue("sga / revenue", "sga", sga, hasSGA, revenue, hasRevenue)
	result["capex_to_revenue"] = marginOnRevenue("capital_expenditures / revenue", "capital_expenditures", capex, hasCapex, revenue, hasRevenue)

	result["revenue_per_share"] = computeRevenuePerShare(revenue, hasRevenue, market)
	result["roic"] = computeROIC(oiPtr, totalDebt, hasTotalDebt, equity, hasEquity, taxRate)

	return result
}

func computeRevenuePerShare(revenue model.CitedValue, hasRevenue bool, market model.MarketSnapshot) model.ComputedValue {
	unit := "USD/shares"
	if hasRevenue && revenue.Unit != "" {
		unit = revenue.Unit + "/shares"
	}
	formula := "revenue / shares_outstanding"
	components := map[string]model.Value{"shares_outstanding": market.SharesOutstanding}
	if hasRevenue {
		components["revenue"] = revenue
	}
	if !hasRevenue {
		return model.NewComputedValue(nil, unit, formula, components)
	}

	var extraWarnings []string
	if IsCrossCurrency(revenue.Unit) {
		extraWarnings = append(extraWarnings, fmt.Sprintf("cross-context: SEC %s revenue vs market share count", revenue.Unit))
	}

	val, warns := safeDivide(revenue.Value, market.SharesOutstanding.Value)
	return model.NewComputedValue(val, unit, formula, components, append(extraWarnings, warns...)...)
}

func computeROIC(oi *model.CitedValue, totalDebt model.CitedValue, hasTotalDebt bool, equity model.CitedValue, hasEquity bool, taxRate float64) model.ComputedValue {
	formula := "operating_income * (1 - tax_rate) / (total_debt + stockholders_equity)"
	components := map[string]model.Value{}
	if oi != nil {
		components["operating_income"] = *oi
	}
	if hasTotalDebt {
		components["total_debt"] = totalDebt
	}
	if hasEquity {
		components["stockholders_equity"] = equity
	}

	if oi == nil || oi.Value == nil || !hasEquity || equity.Value == nil {
		return model.NewComputedValue(nil, "pure", formula, components)
	}

	investedCapital := *equity.Value
	if hasTotalDebt && totalDebt.Value != nil {
		investedCapital += *totalDebt.Value
	}
	if investedCapital == 0 {
		return model.NewComputedValue(nil, "pure", formula, components, "zero invested capital")
	}

	val := *oi.Value * (1 - taxRate) / investedCapital
	return model.NewComputedValue(&val, "pure", formula, components)
}
