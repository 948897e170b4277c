// Package secfake is a scripted secdata.Provider for tests, in the spirit
// of the teacher's hand-written store/notion fakes (plain struct fakes,
// no mocking library — there is no pgxmock-equivalent for this interface).
package secfake

import (
	"context"

	"github.com/sells-group/handspread/internal/secdata"
)

// Provider returns scripted metrics per (ticker, period), or an error if
// Err is set.
type Provider struct {
	// Metrics maps ticker -> period -> metric -> CitedValue.
	Metrics map[string]map[string]map[string]secdata.CitedValue
	// Err, if set, is returned by every FetchMetrics call.
	Err error
	// Delay, if set, is called with the request context before FetchMetrics
	// answers; a context error present once it returns is passed back —
	// used to exercise the engine's shared timeout.
	Delay func(ctx context.Context)

	Calls []Call
}

// Call records one FetchMetrics invocation for test assertions.
type Call struct {
	Tickers []string
	Period  string
}

var _ secdata.Provider = (*Provider)(nil)

func (p *Provider) FetchMetrics(ctx context.Context, tickers []string, period string) (map[string]map[string]secdata.CitedValue, error) {
	p.Calls = append(p.Calls, Call{Tickers: tickers, Period: period})

	if p.Delay != nil {
		p.Delay(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}

	out := make(map[string]map[string]secdata.CitedValue, len(tickers))
	for _, ticker := range tickers {
		byPeriod, ok := p.Metrics[ticker]
		if !ok {
			continue
		}
		if metrics, ok := byPeriod[period]; ok {
			out[ticker] = metrics
		}
	}
	return out, nil
}
