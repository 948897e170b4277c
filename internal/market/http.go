package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// HTTPTransport implements Transport against Finnhub's REST API, rate
// limited the same way the teacher's HTTPFetcher rate-limits SEC hosts:
// one token-bucket limiter per host, eris-wrapped errors on any status
// other than 200.
type HTTPTransport struct {
	client  *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewHTTPTransport constructs an HTTPTransport. timeout bounds each
// individual vendor call.
func NewHTTPTransport(apiKey string, timeout time.Duration) *HTTPTransport {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: "https://finnhub.io/api/v1",
		limiter: rate.NewLimiter(30, 30),
	}
}

var _ Transport = (*HTTPTransport)(nil)

func (t *HTTPTransport) get(ctx context.Context, path string, symbol string, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limiter wait")
	}

	url := fmt.Sprintf("%s%s?symbol=%s&token=%s", t.baseURL, path, symbol, t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "vendor request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("vendor: unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decode vendor response")
	}
	return nil
}

func (t *HTTPTransport) Quote(ctx context.Context, symbol string) (QuoteResponse, error) {
	var raw struct {
		C float64 `json:"c"`
		T int64   `json:"t"`
	}
	if err := t.get(ctx, "/quote", symbol, &raw); err != nil {
		return QuoteResponse{}, eris.Wrapf(err, "quote %s", symbol)
	}
	return QuoteResponse{Price: raw.C, HasPrice: true, QuotedAt: raw.T}, nil
}

func (t *HTTPTransport) Profile(ctx context.Context, symbol string) (ProfileResponse, error) {
	var raw struct {
		Name                 string  `json:"name"`
		ShareOutstanding     float64 `json:"shareOutstanding"`
		MarketCapitalization float64 `json:"marketCapitalization"`
	}
	if err := t.get(ctx, "/stock/profile2", symbol, &raw); err != nil {
		return ProfileResponse{}, eris.Wrapf(err, "profile %s", symbol)
	}
	return ProfileResponse{
		Name:                 raw.Name,
		ShareOutstandingM:    raw.ShareOutstanding,
		HasShareOutstanding:  raw.ShareOutstanding > 0,
		MarketCapitalization: raw.MarketCapitalization,
		HasMarketCap:         raw.MarketCapitalization > 0,
	}, nil
}

func (t *HTTPTransport) Metric(ctx context.Context, symbol string) (MetricResponse, error) {
	var raw struct {
		Metric struct {
			ShareOutstanding float64 `json:"shareOutstanding"`
		} `json:"metric"`
	}
	if err := t.get(ctx, "/stock/metric", symbol, &raw); err != nil {
		return MetricResponse{}, eris.Wrapf(err, "metric %s", symbol)
	}
	return MetricResponse{
		ShareOutstanding:    raw.Metric.ShareOutstanding,
		HasShareOutstanding: raw.Metric.ShareOutstanding > 0,
	}, nil
}
