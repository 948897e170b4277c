package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestMarketValueCitation(t *testing.T) {
	fetchedAt := time.Date(2026, 8, 2, 13, 4, 5, 0, time.UTC)
	mv := NewMarketValue(f(186.0), "USD", "finnhub", "quote", fetchedAt)
	assert.Equal(t, "finnhub quote @ 2026-08-02T13:04:05Z", mv.Citation())
}

func TestMarketValueFormatUSD(t *testing.T) {
	mv := MarketValue{Header: Header{Value: f(186.006)}}
	assert.Equal(t, "$186.01", mv.FormatUSD())

	nullMV := MarketValue{}
	assert.Equal(t, "n/a", nullMV.FormatUSD())
}

func TestCitedValueCitation(t *testing.T) {
	cv := CitedValue{
		Concept:   "Revenues",
		FormType:  "10-K",
		PeriodEnd: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Accession: "0000320193-26-000012",
	}
	assert.Equal(t, "10-K Revenues @ 2026-02-01 (acc 0000320193-26-000012)", cv.Citation())
}

func TestComputedValueFormatMultiple(t *testing.T) {
	cv := ComputedValue{Header: Header{Value: f(12.346)}}
	assert.Equal(t, "12.35x", cv.FormatMultiple())

	nullCV := ComputedValue{}
	assert.Equal(t, "n/a", nullCV.FormatMultiple())
}

func TestComputedValueFormatPercent(t *testing.T) {
	cv := ComputedValue{Header: Header{Value: f(0.0170)}}
	assert.Equal(t, "1.70%", cv.FormatPercent())

	nullCV := ComputedValue{}
	assert.Equal(t, "n/a", nullCV.FormatPercent())
}

func TestNewComputedValue_WarningOrderIsDeterministicByRole(t *testing.T) {
	components := map[string]Value{
		"zzz_role": CitedValue{Header: Header{Warnings: []string{"z warning"}}},
		"aaa_role": CitedValue{Header: Header{Warnings: []string{"a warning"}}},
		"mmm_role": CitedValue{Header: Header{Warnings: []string{"m warning"}}},
	}

	for i := 0; i < 20; i++ {
		cv := NewComputedValue(f(1), "USD", "sum", components)
		assert.Equal(t, []string{"a warning", "m warning", "z warning"}, cv.Warnings)
	}
}

func TestNewComputedValue_DedupesAndAppendsExtraWarnings(t *testing.T) {
	components := map[string]Value{
		"role": CitedValue{Header: Header{Warnings: []string{"shared warning"}}},
	}
	cv := NewComputedValue(f(1), "USD", "sum", components, "shared warning", "extra warning")
	assert.Equal(t, []string{"shared warning", "extra warning"}, cv.Warnings)
}
