package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/handspread/internal/model"
)

// growthMetrics lists the YoY relative-change metrics computed directly
// from two CitedValue periods. "eps_diluted" is the only per-share metric
// in this set, so it's the only one subject to the split-contamination
// skip.
var growthMetrics = []struct {
	name       string
	perShare   bool
}{
	{"revenue", false},
	{"gross_profit", false},
	{"operating_income", false},
	{"ebitda", false},
	{"net_income", false},
	{"eps_diluted", true},
	{"depreciation_amortization", false},
	{"free_cash_flow", false},
}

const splitContaminationMarker = "Possible stock split contamination"

func containsSplitWarning(warnings []string) bool {
	for _, w := range warnings {
		if strings.Contains(w, splitContaminationMarker) {
			return true
		}
	}
	return false
}

// growthFromCited computes (current-prior)/|prior| for a single metric,
// applying the split-contamination skip for per-share metrics and the
// zero-prior guard.
func growthFromCited(name string, current, prior model.CitedValue, hasCurrent, hasPrior, perShare bool) model.ComputedValue {
	formula := fmt.Sprintf("(%s_current - %s_prior) / abs(%s_prior)", name, name, name)
	components := map[string]model.Value{}
	if hasCurrent {
		components["current"] = current
	}
	if hasPrior {
		components["prior"] = prior
	}

	if !hasCurrent || !hasPrior || current.Value == nil || prior.Value == nil {
		return model.NewComputedValue(nil, "pure", formula, components)
	}

	if perShare && (containsSplitWarning(current.Warnings) || containsSplitWarning(prior.Warnings)) {
		return model.NewComputedValue(nil, "pure", formula, components, "skipped: stock split contamination")
	}

	if *prior.Value == 0 {
		return model.NewComputedValue(nil, "pure", formula, components, "prior period is zero")
	}

	val := (*current.Value - *prior.Value) / math.Abs(*prior.Value)
	return model.NewComputedValue(&val, "pure", formula, components)
}

// marginDelta computes the percentage-point change in (numerator/revenue)
// between the two periods.
func marginDelta(name string, numCurrent, numPrior model.Value, hasNumCurrent, hasNumPrior bool, revCurrent, revPrior model.CitedValue, hasRevCurrent, hasRevPrior bool) model.ComputedValue {
	formula := fmt.Sprintf("%s_margin_current - %s_margin_prior", name, name)
	components := map[string]model.Value{}
	if hasRevCurrent {
		components["revenue_current"] = revCurrent
	}
	if hasRevPrior {
		components["revenue_prior"] = revPrior
	}
	if hasNumCurrent {
		components[name+"_current"] = numCurrent
	}
	if hasNumPrior {
		components[name+"_prior"] = numPrior
	}

	if !hasNumCurrent || !hasNumPrior || !hasRevCurrent || !hasRevPrior {
		return model.NewComputedValue(nil, "%", formula, components)
	}

	curMargin, curWarn := safeDivide(numCurrent.GetValue(), revCurrent.Value)
	priorMargin, priorWarn := safeDivide(numPrior.GetValue(), revPrior.Value)
	if curMargin == nil || priorMargin == nil {
		return model.NewComputedValue(nil, "%", formula, components, append(curWarn, priorWarn...)...)
	}

	delta := *curMargin - *priorMargin
	return model.NewComputedValue(&delta, "%", formula, components)
}

// ComputeGrowth computes YoY growth for every metric in growthMetrics plus
// adjusted_ebitda, and the three margin deltas (gross, EBITDA, adjusted
// EBITDA), comparing sec_ltm against sec_ltm_minus_1.
func ComputeGrowth(secLTM, secLTMMinus1 map[string]model.CitedValue) map[string]model.ComputedValue {
	result := make(map[string]model.ComputedValue)

	for _, m := range growthMetrics {
		current, hasCurrent := ExtractSECValue(secLTM, m.name)
		prior, hasPrior := ExtractSECValue(secLTMMinus1, m.name)
		result[m.name] = growthFromCited(m.name, current, prior, hasCurrent, hasPrior, m.perShare)
	}

	adjEBITDACurrent := adjustedEBITDAFor(secLTM)
	adjEBITDAPrior := adjustedEBITDAFor(secLTMMinus1)
	result["adjusted_ebitda"] = growthFromComputed("adjusted_ebitda", adjEBITDACurrent, adjEBITDAPrior)

	revCurrent, hasRevCurrent := ExtractSECValue(secLTM, "revenue")
	revPrior, hasRevPrior := ExtractSECValue(secLTMMinus1, "revenue")

	grossCurrent, hasGrossCurrent := ExtractSECValue(secLTM, "gross_profit")
	grossPrior, hasGrossPrior := ExtractSECValue(secLTMMinus1, "gross_profit")
	result["gross_margin_delta"] = marginDelta("gross", grossCurrent, grossPrior, hasGrossCurrent, hasGrossPrior, revCurrent, revPrior, hasRevCurrent, hasRevPrior)

	ebitdaCurrent, hasEBITDACurrent := ExtractSECValue(secLTM, "ebitda")
	ebitdaPrior, hasEBITDAPrior := ExtractSECValue(secLTMMinus1, "ebitda")
	result["ebitda_margin_delta"] = marginDelta("ebitda", ebitdaCurrent, ebitdaPrior, hasEBITDACurrent, hasEBITDAPrior, revCurrent, revPrior, hasRevCurrent, hasRevPrior)

	result["adjusted_ebitda_margin_delta"] = marginDelta("adjusted_ebitda", adjEBITDACurrent, adjEBITDAPrior, true, true, revCurrent, revPrior, hasRevCurrent, hasRevPrior)

	return result
}

func adjustedEBITDAFor(metrics map[string]model.CitedValue) model.ComputedValue {
	oi, hasOI := ExtractSECValue(metrics, "operating_income")
	dna, hasDNA := ExtractSECValue(metrics, "depreciation_amortization")
	sbc, hasSBC := ExtractSECValue(metrics, "stock_based_compensation")
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
	return ComputeAdjustedEBITDA(oiPtr, dnaPtr, sbcPtr)
}

func growthFromComputed(name string, current, prior model.ComputedValue) model.ComputedValue {
	formula := fmt.Sprintf("(%s_current - %s_prior) / abs(%s_prior)", name, name, name)
	components := map[string]model.Value{"current": current, "prior": prior}

	if current.Value == nil || prior.Value == nil {
		return model.NewComputedValue(nil, "pure", formula, components)
	}
	if *prior.Value == 0 {
		return model.NewComputedValue(nil, "pure", formula, components, "prior period is zero")
	}

	val := (*current.Value - *prior.Value) / math.Abs(*prior.Value)
	return model.NewComputedValue(&val, "pure", formula, components)
}
