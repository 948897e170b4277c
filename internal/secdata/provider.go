// Package secdata defines the contract for the SEC XBRL extraction library
// the engine depends on (out of scope per §1: "specified only by
// interface"). A concrete HTTP adapter lives in edgarclient; tests use
// secfake.
package secdata

import "context"

// Provider resolves, for a set of tickers and a period selector ("ltm",
// "ltm-1", or "annual:N"), a per-ticker mapping of normalized metric name to
// the CitedValue the library extracted for it.
type Provider interface {
	FetchMetrics(ctx context.Context, tickers []string, period string) (map[string]map[string]CitedValue, error)
}

// CitedValue mirrors model.CitedValue's shape at the provider boundary
// (value, unit, concept, accession, filed, filing_url, cik, warnings, plus
// enough period metadata for the engine to stamp FiscalYearEnd). Kept as a
// distinct type from model.CitedValue so this package has no dependency on
// internal/model; the engine converts at the boundary.
type CitedValue struct {
	Value        *float64
	Unit         string
	Warnings     []string
	Concept      string
	Metric       string
	FiscalYear   int
	FiscalPeriod string
	PeriodEnd    string
	FormType     string
	Filed        string
	Accession    string
	CIK          string
	FilingURL    string
	CompanyName  string
}
