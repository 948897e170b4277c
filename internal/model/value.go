// Package model defines the provenance-typed value variants and the
// top-level CompanyAnalysis entity that the analysis engine produces.
package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Value is implemented by MarketValue, CitedValue, and ComputedValue. It is
// the Go stand-in for a sum type: consumers type-switch on the concrete
// variant when they need variant-specific fields, and use the accessors
// below when only value/unit/warnings matter.
type Value interface {
	GetValue() *float64
	GetUnit() string
	GetWarnings() []string
	isValue()
}

// Header carries the fields common to every value variant.
type Header struct {
	Value    *float64 `json:"value"`
	Unit     string   `json:"unit"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h Header) GetValue() *float64    { return h.Value }
func (h Header) GetUnit() string       { return h.Unit }
func (h Header) GetWarnings() []string { return h.Warnings }

// MarketValue is a direct vendor datapoint (quote/profile endpoint).
type MarketValue struct {
	Header
	Vendor     string     `json:"vendor"`
	Endpoint   string     `json:"endpoint"`
	FetchedAt  time.Time  `json:"fetched_at"`
	AsOf       *time.Time `json:"as_of,omitempty"`
	RawPayload string     `json:"raw_payload,omitempty"`
	Notes      []string   `json:"notes,omitempty"`
}

func (MarketValue) isValue() {}

// NewMarketValue constructs a MarketValue with required metadata.
func NewMarketValue(value *float64, unit, vendor, endpoint string, fetchedAt time.Time) MarketValue {
	return MarketValue{
		Header:    Header{Value: value, Unit: unit},
		Vendor:    vendor,
		Endpoint:  endpoint,
		FetchedAt: fetchedAt,
	}
}

// Citation renders a short human-readable provenance string, e.g.
// "finnhub quote @ 2026-08-02T13:04:05Z".
func (m MarketValue) Citation() string {
	return fmt.Sprintf("%s %s @ %s", m.Vendor, m.Endpoint, m.FetchedAt.UTC().Format(time.RFC3339))
}

// FormatUSD renders the value as a fixed 2-decimal USD string using
// shopspring/decimal for exact rounding, or "n/a" when the value is null.
func (m MarketValue) FormatUSD() string {
	if m.Value == nil {
		return "n/a"
	}
	return "$" + decimal.NewFromFloat(*m.Value).StringFixed(2)
}

// CitedValue is an SEC filing datapoint resolved by the XBRL extraction
// library.
type CitedValue struct {
	Header
	Concept      string    `json:"concept"`
	Metric       string    `json:"metric"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod string    `json:"fiscal_period"`
	PeriodEnd    time.Time `json:"period_end"`
	FormType     string    `json:"form_type"`
	Filed        time.Time `json:"filed"`
	Accession    string    `json:"accession"`
	CIK          string    `json:"cik"`
	FilingURL    string    `json:"filing_url"`
}

func (CitedValue) isValue() {}

// Citation renders a short human-readable provenance string, e.g.
// "10-K Revenues @ 2026-02-01 (acc 0000320193-26-000012)".
func (c CitedValue) Citation() string {
	return fmt.Sprintf("%s %s @ %s (acc %s)", c.FormType, c.Concept, c.PeriodEnd.Format("2006-01-02"), c.Accession)
}

// ComputedValue is a derived value. Components form a directed acyclic
// graph by construction: a ComputedValue can only reference values that
// already exist, so cycles are structurally impossible.
type ComputedValue struct {
	Header
	Formula    string           `json:"formula"`
	Components map[string]Value `json:"components,omitempty"`
}

func (ComputedValue) isValue() {}

// NewComputedValue builds a ComputedValue, deduplicating warnings collected
// from its components (in insertion order: component warnings first, then
// any warnings produced locally) plus extra warnings supplied by the caller.
func NewComputedValue(value *float64, unit, formula string, components map[string]Value, extraWarnings ...string) ComputedValue {
	seen := make(map[string]bool)
	var warnings []string
	addAll := func(ws []string) {
		for _, w := range ws {
			if !seen[w] {
				seen[w] = true
				warnings = append(warnings, w)
			}
		}
	}
	// Map iteration order is randomized by the runtime, so walk roles
	// sorted by name to keep warning order (and the JSON the engine
	// emits) deterministic across calls with identical inputs.
	roles := make([]string, 0, len(components))
	for role := range components {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		addAll(components[role].GetWarnings())
	}
	addAll(extraWarnings)

	return ComputedValue{
		Header:     Header{Value: value, Unit: unit, Warnings: warnings},
		Formula:    formula,
		Components: components,
	}
}

// FormatMultiple renders a "x"-unit ComputedValue as "12.34x", or "n/a".
func (c ComputedValue) FormatMultiple() string {
	if c.Value == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*c.Value).Round(2).String() + "x"
}

// FormatPercent renders a "%"-unit ComputedValue as "1.70%", or "n/a".
func (c ComputedValue) FormatPercent() string {
	if c.Value == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*c.Value * 100).StringFixed(2) + "%"
}
