package market

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/handspread/internal/model"
)

// Client fetches MarketSnapshots through a Transport, with a TTL cache
// keyed by uppercase symbol and an N-permit semaphore bounding simultaneous
// vendor calls — the Go-idiomatic equivalent of finnhub_client.py's
// module-level dict cache and asyncio.Semaphore.
type Client struct {
	transport Transport
	ttl       time.Duration
	sem       *semaphore.Weighted

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	snapshot  model.MarketSnapshot
	expiresAt time.Time
}

// NewClient constructs a Client. concurrency is the semaphore permit count
// (spec default 8); ttl is the cache lifetime (spec default 300s, 0
// disables reuse).
func NewClient(transport Transport, concurrency int, ttl time.Duration) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		transport: transport,
		ttl:       ttl,
		sem:       semaphore.NewWeighted(int64(concurrency)),
		cache:     make(map[string]cacheEntry),
	}
}

// FetchSnapshot returns a MarketSnapshot for symbol, reusing a cached entry
// if one exists and is within TTL.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (model.MarketSnapshot, error) {
	upper := strings.ToUpper(symbol)

	if snap, ok := c.cached(upper); ok {
		return snap, nil
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return model.MarketSnapshot{}, eris.Wrap(err, "market: acquire concurrency permit")
	}
	defer c.sem.Release(1)

	// Re-check the cache after acquiring the permit: a concurrent caller
	// may have just populated it while we were waiting.
	if snap, ok := c.cached(upper); ok {
		return snap, nil
	}

	snap, err := c.fetch(ctx, upper)
	if err != nil {
		return model.MarketSnapshot{}, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.cache[upper] = cacheEntry{snapshot: snap, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
	}

	return snap, nil
}

func (c *Client) cached(upper string) (model.MarketSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[upper]
	if !ok || time.Now().After(entry.expiresAt) {
		return model.MarketSnapshot{}, false
	}
	return entry.snapshot, true
}

// ClearCache drops all cached entries.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func (c *Client) fetch(ctx context.Context, symbol string) (model.MarketSnapshot, error) {
	var quote QuoteResponse
	var profile ProfileResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.transport.Quote(gctx, symbol)
		if err != nil {
			return eris.Wrapf(err, "market: quote %s", symbol)
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		p, err := c.transport.Profile(gctx, symbol)
		if err != nil {
			return eris.Wrapf(err, "market: profile %s", symbol)
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.MarketSnapshot{}, err
	}

	fetchedAt := time.Now().UTC()

	price := sanitizeQuotePrice(quote, fetchedAt)

	shares := c.resolveSharesOutstanding(ctx, symbol, profile, fetchedAt)

	marketCap := resolveMarketCap(profile, price, shares, fetchedAt)

	var companyName *string
	if profile.Name != "" {
		name := profile.Name
		companyName = &name
	}

	snap := model.MarketSnapshot{
		Price:             price,
		SharesOutstanding: shares,
		MarketCap:         marketCap,
		CompanyName:       companyName,
		FetchedAt:         fetchedAt,
	}
	return snap, nil
}

// sanitizeQuotePrice enforces §4.B's quote-price sanitation: the price
// must be finite and strictly positive, or value is null with a warning.
func sanitizeQuotePrice(q QuoteResponse, fetchedAt time.Time) model.MarketValue {
	mv := model.NewMarketValue(nil, "USD", "finnhub", "quote", fetchedAt)
	if !q.HasPrice || q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		mv.Warnings = append(mv.Warnings, "invalid quote price")
		return mv
	}
	price := q.Price
	mv.Value = &price
	if q.QuotedAt > 0 {
		t := time.Unix(q.QuotedAt, 0).UTC()
		mv.AsOf = &t
	}
	return mv
}

// resolveSharesOutstanding prefers the profile endpoint's shareOutstanding
// (millions). When the profile omits it, it falls back to the metric
// endpoint with the ambiguous-scale heuristic recovered from
// finnhub_client.py (§4 supplement 2): values under 1,000 are assumed to
// already be in millions, values over 1,000,000 are assumed absolute, and
// the middle range is flagged as ambiguous but still used.
func (c *Client) resolveSharesOutstanding(ctx context.Context, symbol string, profile ProfileResponse, fetchedAt time.Time) model.MarketValue {
	mv := model.NewMarketValue(nil, "shares", "finnhub", "profile2", fetchedAt)

	if profile.HasShareOutstanding {
		shares := profile.ShareOutstandingM * 1e6
		mv.Value = &shares
		return mv
	}

	metric, err := c.transport.Metric(ctx, symbol)
	if err != nil || !metric.HasShareOutstanding {
		return mv
	}
	mv.Endpoint = "metric"

	raw := metric.ShareOutstanding
	switch {
	case raw < 1000:
		shares := raw * 1e6
		mv.Value = &shares
		mv.Notes = append(mv.Notes, "metric endpoint value below 1,000, assumed millions")
	case raw > 1_000_000:
		shares := raw
		mv.Value = &shares
		mv.Notes = append(mv.Notes, "metric endpoint value above 1,000,000, assumed absolute share count")
	default:
		shares := raw * 1e6
		mv.Value = &shares
		mv.Warnings = append(mv.Warnings, "ambiguous shares-outstanding scale from metric endpoint")
	}
	return mv
}

// resolveMarketCap implements the ADR-safety preference rule: a positive
// vendor-reported marketCapitalization wins outright; only when it is
// absent do we fall back to computing price * shares_outstanding.
func resolveMarketCap(profile ProfileResponse, price, shares model.MarketValue, fetchedAt time.Time) model.Value {
	if profile.HasMarketCap && profile.MarketCapitalization > 0 {
		capValue := profile.MarketCapitalization * 1e6
		mv := model.NewMarketValue(&capValue, "USD", "finnhub", "profile2", fetchedAt)
		return mv
	}

	if price.Value != nil && shares.Value != nil {
		computed := *price.Value * *shares.Value
		return model.NewComputedValue(&computed, "USD", "price * shares_outstanding", map[string]model.Value{
			"price":              price,
			"shares_outstanding": shares,
		})
	}

	return model.NewComputedValue(nil, "USD", "price * shares_outstanding", map[string]model.Value{
		"price":              price,
		"shares_outstanding": shares,
	})
}
