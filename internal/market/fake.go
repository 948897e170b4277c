package market

import "context"

// FakeTransport is a scripted Transport for tests, keyed by uppercase
// symbol. Calls is incremented per endpoint per symbol so tests can assert
// the idempotence property (one vendor round-trip per endpoint within TTL).
type FakeTransport struct {
	Quotes   map[string]QuoteResponse
	Profiles map[string]ProfileResponse
	Metrics  map[string]MetricResponse
	Errs     map[string]error // symbol -> error returned by every endpoint

	Calls map[string]int // "quote:AAPL" -> count
}

var _ Transport = (*FakeTransport)(nil)

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		Quotes:   make(map[string]QuoteResponse),
		Profiles: make(map[string]ProfileResponse),
		Metrics:  make(map[string]MetricResponse),
		Errs:     make(map[string]error),
		Calls:    make(map[string]int),
	}
}

func (f *FakeTransport) record(endpoint, symbol string) {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[endpoint+":"+symbol]++
}

func (f *FakeTransport) Quote(ctx context.Context, symbol string) (QuoteResponse, error) {
	f.record("quote", symbol)
	if err, ok := f.Errs[symbol]; ok {
		return QuoteResponse{}, err
	}
	return f.Quotes[symbol], nil
}

func (f *FakeTransport) Profile(ctx context.Context, symbol string) (ProfileResponse, error) {
	f.record("profile", symbol)
	if err, ok := f.Errs[symbol]; ok {
		return ProfileResponse{}, err
	}
	return f.Profiles[symbol], nil
}

func (f *FakeTransport) Metric(ctx context.Context, symbol string) (MetricResponse, error) {
	f.record("metric", symbol)
	if err, ok := f.Errs[symbol]; ok {
		return MetricResponse{}, err
	}
	return f.Metrics[symbol], nil
}
