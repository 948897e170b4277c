package model

import "time"

// MarketSnapshot is the result of one market_client.FetchSnapshot call.
// MarketCap may be a MarketValue (vendor-reported) or a ComputedValue
// (price * shares_outstanding), per the ADR-safety preference rule.
type MarketSnapshot struct {
	Price             MarketValue `json:"price"`
	SharesOutstanding MarketValue `json:"shares_outstanding"`
	MarketCap         Value       `json:"market_cap"`
	CompanyName       *string     `json:"company_name,omitempty"`
	FetchedAt         time.Time   `json:"fetched_at"`
}

// DebtMode selects which combination of total_debt + short_term_debt feeds
// the EV bridge.
type DebtMode string

const (
	DebtModeTotalOnly      DebtMode = "total_only"
	DebtModeSplit          DebtMode = "split"
	DebtModeTotalPlusShort DebtMode = "total_plus_short_term"
)

// EVPolicy configures how build_ev_bridge assembles enterprise value from
// market cap and cited balance-sheet items.
type EVPolicy struct {
	DebtMode                        DebtMode `json:"debt_mode"`
	SubtractCash                    bool     `json:"subtract_cash"`
	SubtractMarketableSecurities    bool     `json:"subtract_marketable_securities"`
	IncludeLeases                   bool     `json:"include_leases"`
	IncludePreferred                bool     `json:"include_preferred"`
	IncludeNCI                      bool     `json:"include_nci"`
	SubtractEquityMethodInvestments bool     `json:"subtract_equity_method_investments"`
}

// DefaultEVPolicy returns the policy defaults listed in the EVPolicy table:
// total_only debt, subtract cash and marketable securities, include
// preferred and noncontrolling interests, exclude leases and equity-method
// investments.
func DefaultEVPolicy() EVPolicy {
	return EVPolicy{
		DebtMode:                     DebtModeTotalOnly,
		SubtractCash:                 true,
		SubtractMarketableSecurities: true,
		IncludeLeases:                false,
		IncludePreferred:             true,
		IncludeNCI:                   true,
	}
}

// AnalysisError is a structured per-stream or per-component failure
// descriptor attached to a CompanyAnalysis. It never aborts the rest of
// the analysis.
type AnalysisError struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CompanyAnalysis is the immutable per-ticker output of the engine.
type CompanyAnalysis struct {
	Symbol        string `json:"symbol"`
	CompanyName   string `json:"company_name,omitempty"`
	CIK           string `json:"cik,omitempty"`
	FiscalYearEnd string `json:"fiscal_year_end,omitempty"`

	Market *MarketSnapshot `json:"market,omitempty"`

	SECLTM       map[string]CitedValue `json:"sec_ltm,omitempty"`
	SECLTMMinus1 map[string]CitedValue `json:"sec_ltm_minus_1,omitempty"`

	EVBridge  *ComputedValue           `json:"ev_bridge,omitempty"`
	Multiples map[string]ComputedValue `json:"multiples,omitempty"`
	Growth    map[string]ComputedValue `json:"growth,omitempty"`
	Operating map[string]ComputedValue `json:"operating,omitempty"`

	Errors   []AnalysisError `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}
