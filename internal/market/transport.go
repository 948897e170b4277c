// Package market fetches price/shares/market-cap snapshots from the market
// data vendor, with a TTL cache and bounded concurrency. The vendor SDK
// itself is out of scope (§1); Transport is the interface the engine's
// market client consumes, with one concrete HTTP adapter (finnhub-shaped,
// in http.go) and a fake for tests (in fake.go).
package market

import "context"

// QuoteResponse mirrors the vendor's quote endpoint (`c` = current price,
// `t` = quote epoch timestamp).
type QuoteResponse struct {
	Price     float64
	HasPrice  bool
	QuotedAt  int64 // unix seconds, vendor's "t" field; 0 if absent
}

// ProfileResponse mirrors the vendor's profile2 endpoint.
type ProfileResponse struct {
	Name                 string
	ShareOutstandingM    float64 // millions
	HasShareOutstanding  bool
	MarketCapitalization float64 // millions
	HasMarketCap         bool
}

// MetricResponse mirrors the vendor's metric endpoint, consulted only as a
// fallback when the profile endpoint omits shareOutstanding (§4 supplement
// 2).
type MetricResponse struct {
	ShareOutstanding    float64
	HasShareOutstanding bool
}

// Transport is the vendor SDK's contract as consumed by this package.
type Transport interface {
	Quote(ctx context.Context, symbol string) (QuoteResponse, error)
	Profile(ctx context.Context, symbol string) (ProfileResponse, error)
	Metric(ctx context.Context, symbol string) (MetricResponse, error)
}
