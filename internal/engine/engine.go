// Package engine implements analyze_comps: the per-ticker orchestration
// that fans out to the SEC and market data sources, then runs the
// EV-bridge/multiples/growth/operating computations in sequence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/handspread/internal/analysis"
	"github.com/sells-group/handspread/internal/herrors"
	"github.com/sells-group/handspread/internal/market"
	"github.com/sells-group/handspread/internal/model"
	"github.com/sells-group/handspread/internal/secdata"
)

const dateLayout = "2006-01-02"

// Engine holds the collaborators analyze_comps fans out to.
type Engine struct {
	SEC     secdata.Provider
	Market  *market.Client
	Timeout time.Duration
	TaxRate float64
}

// New constructs an Engine. timeout bounds the whole analyze_comps call
// (spec default 60s); taxRate feeds ROIC (spec default 0.21).
func New(sec secdata.Provider, mkt *market.Client, timeout time.Duration, taxRate float64) *Engine {
	return &Engine{SEC: sec, Market: mkt, Timeout: timeout, TaxRate: taxRate}
}

// AnalyzeComps resolves CompanyAnalysis for every ticker, in input order.
// period selects the primary SEC window ("ltm", "ltm-1", or "annual:N" per
// §4.H); the prior-period window fed to growth is derived from it via
// priorPeriod. An empty ticker list is the taxonomy's only
// synchronously-raised error; every other failure is isolated to the
// affected ticker/stage and recorded in that entry's Errors instead of
// aborting the run.
func (e *Engine) AnalyzeComps(ctx context.Context, tickers []string, period string, policy model.EVPolicy) ([]model.CompanyAnalysis, error) {
	if len(tickers) == 0 {
		return nil, herrors.InvalidInputf("analyze_comps requires at least one ticker")
	}
	if period == "" {
		period = "ltm"
	}
	prior := priorPeriod(period)

	runID := uuid.New().String()
	logger := zap.L().With(zap.String("run_id", runID))
	logger.Info("analyze_comps started", zap.Strings("tickers", tickers), zap.Int("ticker_count", len(tickers)))

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	var secLTM, secLTMMinus1 map[string]map[string]secdata.CitedValue
	var secLTMErr, secLTMMinus1Err error

	marketSnapshots := make(map[string]model.MarketSnapshot)
	marketErrs := make(map[string]error)
	var marketMu sync.Mutex

	// Three independent streams per §5: SEC LTM, SEC LTM-1, and market —
	// all sharing ctx's deadline. None of these goroutines return a
	// non-nil error to g.Wait: a failed stream is recorded for later,
	// isolated assembly, never used to cancel its siblings.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := e.SEC.FetchMetrics(gctx, tickers, period)
		secLTM, secLTMErr = m, classifyTransportErr(err)
		if err != nil {
			logger.Warn("sec ltm fetch failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		m, err := e.SEC.FetchMetrics(gctx, tickers, prior)
		secLTMMinus1, secLTMMinus1Err = m, classifyTransportErr(err)
		if err != nil {
			logger.Warn("sec ltm-1 fetch failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		inner, innerCtx := errgroup.WithContext(gctx)
		for _, t := range tickers {
			t := t
			inner.Go(func() error {
				snap, err := e.Market.FetchSnapshot(innerCtx, t)
				marketMu.Lock()
				defer marketMu.Unlock()
				if err != nil {
					marketErrs[t] = classifyTransportErr(err)
					logger.Warn("market fetch failed", zap.String("ticker", t), zap.Error(err))
					return nil
				}
				marketSnapshots[t] = snap
				return nil
			})
		}
		return inner.Wait()
	})

	_ = g.Wait()

	results := make([]model.CompanyAnalysis, 0, len(tickers))
	for _, ticker := range tickers {
		results = append(results, e.analyzeTicker(ticker, policy,
			secLTM, secLTMErr, secLTMMinus1, secLTMMinus1Err,
			marketSnapshots, marketErrs))
	}

	logger.Info("analyze_comps complete", zap.Int("results", len(results)))
	return results, nil
}

func (e *Engine) analyzeTicker(
	ticker string,
	policy model.EVPolicy,
	secLTMAll map[string]map[string]secdata.CitedValue,
	secLTMErr error,
	secLTMMinus1All map[string]map[string]secdata.CitedValue,
	secLTMMinus1Err error,
	marketSnapshots map[string]model.MarketSnapshot,
	marketErrs map[string]error,
) model.CompanyAnalysis {
	out := model.CompanyAnalysis{Symbol: ticker}

	secLTM, hasLTM := convertPeriod(secLTMAll, secLTMErr, ticker, "sec_ltm", &out)
	secLTMMinus1, hasLTMMinus1 := convertPeriod(secLTMMinus1All, secLTMMinus1Err, ticker, "sec_ltm_minus_1", &out)

	if hasLTM {
		out.SECLTM = secLTM
		stampIdentity(&out, secLTMAll[ticker])
	}
	if hasLTMMinus1 {
		out.SECLTMMinus1 = secLTMMinus1
	}

	var market model.MarketSnapshot
	hasMarket := false
	if err, ok := marketErrs[ticker]; ok {
		out.Errors = append(out.Errors, model.AnalysisError{
			Stage: "market", Kind: string(herrors.ClassifyKind(err)), Message: err.Error(),
		})
	} else if snap, ok := marketSnapshots[ticker]; ok {
		market = snap
		out.Market = &snap
		hasMarket = true
	} else {
		out.Errors = append(out.Errors, model.AnalysisError{
			Stage: "market", Kind: string(herrors.KindUpstreamFailure), Message: "no market snapshot returned",
		})
	}

	if !hasMarket || !hasLTM {
		return out
	}

	evBridge := e.runStage(&out, "ev_bridge", func() model.ComputedValue {
		return analysis.BuildEVBridge(market, secLTM, policy)
	})
	if evBridge != nil {
		out.EVBridge = evBridge

		multiples := e.runStageMap(&out, "multiples", func() map[string]model.ComputedValue {
			return analysis.ComputeMultiples(market, *evBridge, secLTM)
		})
		out.Multiples = multiples
	}

	if hasLTMMinus1 {
		growth := e.runStageMap(&out, "growth", func() map[string]model.ComputedValue {
			return analysis.ComputeGrowth(secLTM, secLTMMinus1)
		})
		out.Growth = growth
	}

	operating := e.runStageMap(&out, "operating", func() map[string]model.ComputedValue {
		return analysis.ComputeOperating(market, secLTM, e.TaxRate)
	})
	out.Operating = operating

	return out
}

// runStage and runStageMap recover from a panicking computation stage so
// one component's bug never takes down the rest of a ticker's analysis.
func (e *Engine) runStage(out *model.CompanyAnalysis, stage string, fn func() model.ComputedValue) (result *model.ComputedValue) {
	defer func() {
		if r := recover(); r != nil {
			out.Errors = append(out.Errors, model.AnalysisError{
				Stage: stage, Kind: string(herrors.KindDataQuality), Message: "internal computation error",
			})
			result = nil
		}
	}()
	cv := fn()
	return &cv
}

func (e *Engine) runStageMap(out *model.CompanyAnalysis, stage string, fn func() map[string]model.ComputedValue) (result map[string]model.ComputedValue) {
	defer func() {
		if r := recover(); r != nil {
			out.Errors = append(out.Errors, model.AnalysisError{
				Stage: stage, Kind: string(herrors.KindDataQuality), Message: "internal computation error",
			})
			result = nil
		}
	}()
	return fn()
}

// convertPeriod extracts ticker's metrics from a batched provider result
// (recording a per-ticker AnalysisError if the whole batch failed or the
// ticker is simply absent from it) and converts them to model.CitedValue.
func convertPeriod(all map[string]map[string]secdata.CitedValue, batchErr error, ticker, stage string, out *model.CompanyAnalysis) (map[string]model.CitedValue, bool) {
	if batchErr != nil {
		out.Errors = append(out.Errors, model.AnalysisError{
			Stage: stage, Kind: string(herrors.ClassifyKind(batchErr)), Message: batchErr.Error(),
		})
		return nil, false
	}
	raw, ok := all[ticker]
	if !ok {
		out.Errors = append(out.Errors, model.AnalysisError{
			Stage: stage, Kind: string(herrors.KindUpstreamFailure), Message: "no data returned for ticker",
		})
		return nil, false
	}
	return convertMetrics(raw), true
}

func convertMetrics(raw map[string]secdata.CitedValue) map[string]model.CitedValue {
	out := make(map[string]model.CitedValue, len(raw))
	for name, cv := range raw {
		out[name] = model.CitedValue{
			Header: model.Header{
				Value:    cv.Value,
				Unit:     cv.Unit,
				Warnings: cv.Warnings,
			},
			Concept:      cv.Concept,
			Metric:       cv.Metric,
			FiscalYear:   cv.FiscalYear,
			FiscalPeriod: cv.FiscalPeriod,
			PeriodEnd:    parseDate(cv.PeriodEnd),
			FormType:     cv.FormType,
			Filed:        parseDate(cv.Filed),
			Accession:    cv.Accession,
			CIK:          cv.CIK,
			FilingURL:    cv.FilingURL,
		}
	}
	return out
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// priorPeriod derives the LTM-1-equivalent selector for period, per
// §4.F's "annual-only filers" note: the engine passes different period
// identifiers for the primary and prior windows, and an annual-only
// filer resolves to FY(N)/FY(N-1) on the library side. "annual:N"
// decrements N; everything else (including the default "ltm") gets a
// "-1" suffix.
func priorPeriod(period string) string {
	if n, ok := strings.CutPrefix(period, "annual:"); ok {
		if year, err := strconv.Atoi(n); err == nil {
			return fmt.Sprintf("annual:%d", year-1)
		}
	}
	return period + "-1"
}

// classifyTransportErr wraps a deadline-exceeded error from a shared
// analyze_comps context as herrors.Timeout, so ClassifyKind records the
// taxonomy's Timeout kind instead of defaulting to UpstreamFailure.
func classifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return herrors.Timeout(err)
	}
	return err
}

func stampIdentity(out *model.CompanyAnalysis, raw map[string]secdata.CitedValue) {
	for _, cv := range raw {
		if cv.CIK != "" {
			out.CIK = cv.CIK
		}
		if cv.CompanyName != "" {
			out.CompanyName = cv.CompanyName
		}
		if cv.PeriodEnd != "" {
			out.FiscalYearEnd = cv.PeriodEnd
		}
	}
}
