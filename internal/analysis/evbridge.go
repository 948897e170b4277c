package analysis

import (
	"fmt"
	"strings"

	"github.com/sells-group/handspread/internal/model"
)

// BuildEVBridge assembles enterprise value from a market snapshot and the
// cited LTM balance-sheet items, per the policy in effect. Missing cited
// components contribute zero, except market_cap: a null market_cap makes
// the whole bridge null. Cross-currency SEC filings block the bridge
// entirely (fail-closed, no FX conversion).
func BuildEVBridge(market model.MarketSnapshot, secLTM map[string]model.CitedValue, policy model.EVPolicy) model.ComputedValue {
	var all []model.CitedValue
	for _, cv := range secLTM {
		all = append(all, cv)
	}
	currency, currencyWarnings := DetectSECCurrency(all...)
	if IsCrossCurrency(currency) {
		return model.NewComputedValue(nil, "USD", "enterprise value bridge", nil,
			fmt.Sprintf("EV bridge blocked: SEC currency %s ≠ USD market", currency))
	}

	components := make(map[string]model.Value)
	components["market_cap"] = market.MarketCap

	if market.MarketCap.GetValue() == nil {
		return model.NewComputedValue(nil, "USD", "enterprise value bridge", components, currencyWarnings...)
	}

	var formulaParts []string
	formulaParts = append(formulaParts, "market_cap")
	total := *market.MarketCap.GetValue()

	addRole := func(role string, cv model.CitedValue, op string) {
		components[role] = cv
		formulaParts = append(formulaParts, fmt.Sprintf("%s %s", op, role))
		if cv.Value != nil {
			if op == "+" {
				total += *cv.Value
			} else {
				total -= *cv.Value
			}
		}
	}

	totalDebt, hasTotalDebt := ExtractSECValue(secLTM, "total_debt")
	shortDebt, hasShortDebt := ExtractSECValue(secLTM, "short_term_debt")

	switch policy.DebtMode {
	case model.DebtModeTotalOnly:
		if hasTotalDebt {
			addRole("total_debt", totalDebt, "+")
		}
	case model.DebtModeSplit:
		// "split" filers report only one of the two concepts; use whichever
		// is present rather than risking a double count.
		if hasTotalDebt {
			addRole("total_debt", totalDebt, "+")
		} else if hasShortDebt {
			addRole("short_term_debt", shortDebt, "+")
		}
	case model.DebtModeTotalPlusShort:
		if hasTotalDebt {
			addRole("total_debt", totalDebt, "+")
		}
		if hasShortDebt {
			addRole("short_term_debt", shortDebt, "+")
		}
	}

	if policy.IncludeLeases {
		if cv, ok := ExtractSECValue(secLTM, "operating_lease_liabilities"); ok {
			addRole("operating_lease_liabilities", cv, "+")
		}
	}
	if policy.IncludePreferred {
		if cv, ok := ExtractSECValue(secLTM, "preferred_stock"); ok {
			addRole("preferred_stock", cv, "+")
		}
	}
	if policy.IncludeNCI {
		if cv, ok := ExtractSECValue(secLTM, "noncontrolling_interests"); ok {
			addRole("noncontrolling_interests", cv, "+")
		}
	}
	if policy.SubtractCash {
		if cv, ok := ExtractSECValue(secLTM, "cash"); ok {
			addRole("cash", cv, "-")
		}
	}
	if policy.SubtractMarketableSecurities {
		if cv, ok := ExtractSECValue(secLTM, "marketable_securities"); ok {
			addRole("marketable_securities", cv, "-")
		}
	}
	if policy.SubtractEquityMethodInvestments {
		if cv, ok := ExtractSECValue(secLTM, "equity_method_investments"); ok {
			addRole("equity_method_investments", cv, "-")
		}
	}

	formula := strings.Join(formulaParts, " ")
	return model.NewComputedValue(&total, "USD", formula, components, currencyWarnings...)
}
