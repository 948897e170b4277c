// Package analysis implements the SEC-value extraction utilities, the
// EV-bridge builder, and the multiples/growth/operating metric
// computations (components C-G of the engine). Every function here is
// pure: given inputs and policy, it returns a populated model.ComputedValue
// directly — no exceptions, matching §7's "DataQuality never raises".
package analysis

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"

	"github.com/sells-group/handspread/internal/model"
)

// isISOCurrencyCode reports whether unit parses as a recognized ISO 4217
// currency code, distinguishing genuine currency units ("USD", "CNY") from
// the value model's other unit strings ("shares", "pure", "%", "x").
func isISOCurrencyCode(unit string) bool {
	_, err := currency.ParseISO(unit)
	return err == nil
}

// ExtractSECValue looks up name in metrics by normalized metric name.
// Absence returns (zero value, false); callers treat that exactly like a
// missing CitedValue.
func ExtractSECValue(metrics map[string]model.CitedValue, name string) (model.CitedValue, bool) {
	cv, ok := metrics[name]
	return cv, ok
}

// DetectSECCurrency reads the unit field of each representative cited
// value (which doubles as its currency code for monetary CitedValues) and
// returns the majority code, with a warning when the set is mixed. Returns
// ("", nil) when no value carries a recognizable currency unit.
func DetectSECCurrency(values ...model.CitedValue) (string, []string) {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v.Unit == "" || !isISOCurrencyCode(v.Unit) {
			continue
		}
		if counts[v.Unit] == 0 {
			order = append(order, v.Unit)
		}
		counts[v.Unit]++
	}
	if len(order) == 0 {
		return "", nil
	}

	majority := order[0]
	for _, u := range order[1:] {
		if counts[u] > counts[majority] {
			majority = u
		}
	}

	if len(order) > 1 {
		return majority, []string{fmt.Sprintf("mixed SEC currencies detected across filing concepts; using majority %s", majority)}
	}
	return majority, nil
}

// IsCrossCurrency reports whether secCurrency (as returned by
// DetectSECCurrency) differs from USD, the currency market inputs are
// always denominated in for this engine (no FX conversion, per spec §1
// non-goals).
func IsCrossCurrency(secCurrency string) bool {
	return secCurrency != "" && secCurrency != "USD"
}

// ComputeAdjustedEBITDA implements "OI + D&A + SBC" with graceful
// degradation: missing SBC still computes (GAAP EBITDA approximation,
// with a warning); missing OI or D&A makes the result null.
func ComputeAdjustedEBITDA(oi, dna, sbc *model.CitedValue) model.ComputedValue {
	components := make(map[string]model.Value)
	if oi != nil {
		components["operating_income"] = *oi
	}
	if dna != nil {
		components["depreciation_amortization"] = *dna
	}
	if sbc != nil {
		components["stock_based_compensation"] = *sbc
	}

	unit := "USD"
	if oi != nil && oi.Unit != "" {
		unit = oi.Unit
	}

	if oi == nil || dna == nil || oi.Value == nil || dna.Value == nil {
		return model.NewComputedValue(nil, unit, "OI + D&A + SBC", components)
	}

	if sbc == nil || sbc.Value == nil {
		sum := *oi.Value + *dna.Value
		return model.NewComputedValue(&sum, unit, "OI + D&A + SBC", components,
			"SBC unavailable; adjusted EBITDA ≈ GAAP EBITDA")
	}

	sum := *oi.Value + *dna.Value + *sbc.Value
	return model.NewComputedValue(&sum, unit, "OI + D&A + SBC", components)
}

// safeDivide divides numerator by denominator, returning (nil, warning)
// when the denominator is missing, zero, or non-finite, per the
// division-by-zero/missing rule (§4.E): never an error, always a warning
// attached to the resulting value instead.
func safeDivide(numerator, denominator *float64) (*float64, []string) {
	if numerator == nil {
		return nil, []string{"numerator unavailable"}
	}
	if denominator == nil {
		return nil, []string{"denominator unavailable"}
	}
	if *denominator == 0 {
		return nil, []string{"zero denominator"}
	}
	if math.IsNaN(*denominator) || math.IsInf(*denominator, 0) {
		return nil, []string{"non-finite denominator"}
	}
	result := *numerator / *denominator
	if *denominator < 0 {
		return &result, []string{"negative denominator: sign preserved"}
	}
	return &result, nil
}
