// Package edgarclient is a concrete secdata.Provider backed by the SEC's
// public XBRL companyfacts API. It exists for completeness — the engine
// itself only ever depends on secdata.Provider — and follows the rate
// limiting and error-wrapping idiom of the teacher's SEC fetchers.
package edgarclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/handspread/internal/secdata"
)

const tickerMapURL = "https://www.sec.gov/files/company_tickers.json"

// metricConcepts lists, in preference order, the us-gaap XBRL tags that
// resolve each normalized metric name. The first concept present in a
// filer's companyfacts payload wins.
var metricConcepts = map[string][]string{
	"revenue":                   {"RevenueFromContractWithCustomerExcludingAssessedTax", "Revenues", "SalesRevenueNet"},
	"gross_profit":              {"GrossProfit"},
	"operating_income":          {"OperatingIncomeLoss"},
	"ebitda":                    {"OperatingIncomeLoss"},
	"net_income":                {"NetIncomeLoss"},
	"eps_diluted":               {"EarningsPerShareDiluted"},
	"depreciation_amortization": {"DepreciationDepletionAndAmortization", "DepreciationAmortizationAndAccretionNet"},
	"stock_based_compensation":  {"ShareBasedCompensation"},
	"free_cash_flow":            {"NetCashProvidedByUsedInOperatingActivities"},
	"stockholders_equity":       {"StockholdersEquity"},
	"total_debt":                {"LongTermDebtNoncurrent", "DebtInstrumentCarryingAmount"},
	"short_term_debt":           {"LongTermDebtCurrent", "ShortTermBorrowings"},
	"cash":                      {"CashAndCashEquivalentsAtCarryingValue"},
	"marketable_securities":     {"MarketableSecuritiesCurrent", "ShortTermInvestments"},
	"operating_lease_liabilities": {"OperatingLeaseLiability"},
	"preferred_stock":           {"PreferredStockValue"},
	"noncontrolling_interests":  {"MinorityInterest"},
	"equity_method_investments": {"EquityMethodInvestments"},
	"dividends_per_share":       {"CommonStockDividendsPerShareDeclared"},
	"research_development":      {"ResearchAndDevelopmentExpense"},
	"sga":                       {"SellingGeneralAndAdministrativeExpense"},
	"capital_expenditures":      {"PaymentsToAcquirePropertyPlantAndEquipment"},
}

// MetricConcepts exposes the normalized-metric-to-XBRL-concept table for
// the diagnose command, in preference order.
func MetricConcepts() map[string][]string {
	out := make(map[string][]string, len(metricConcepts))
	for k, v := range metricConcepts {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Client is a secdata.Provider backed by data.sec.gov.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter

	mu      sync.Mutex
	cikByT  map[string]string // uppercase ticker -> zero-padded 10-digit CIK
	loadErr error
}

// New constructs a Client. userAgent must identify the calling application
// and a contact, per SEC's fair-use policy.
func New(userAgent, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://data.sec.gov"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(10, 10),
	}
}

var _ secdata.Provider = (*Client)(nil)

// FetchMetrics implements secdata.Provider.
func (c *Client) FetchMetrics(ctx context.Context, tickers []string, period string) (map[string]map[string]secdata.CitedValue, error) {
	if err := c.ensureTickerMap(ctx); err != nil {
		return nil, eris.Wrap(err, "edgarclient: load ticker map")
	}

	log := zap.L().With(zap.String("component", "edgarclient"), zap.String("period", period))

	out := make(map[string]map[string]secdata.CitedValue, len(tickers))
	for _, ticker := range tickers {
		upper := strings.ToUpper(ticker)
		cik, ok := c.cikByT[upper]
		if !ok {
			log.Warn("ticker not found in SEC ticker map", zap.String("ticker", upper))
			continue
		}

		facts, err := c.fetchCompanyFacts(ctx, cik)
		if err != nil {
			return nil, eris.Wrapf(err, "edgarclient: fetch company facts for %s", upper)
		}

		out[upper] = extractMetrics(facts, period)
	}

	return out, nil
}

func (c *Client) ensureTickerMap(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cikByT != nil || c.loadErr != nil {
		return c.loadErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tickerMapURL, nil)
	if err != nil {
		c.loadErr = eris.Wrap(err, "create ticker map request")
		return c.loadErr
	}
	req.Header.Set("User-Agent", c.userAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limiter wait")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.loadErr = eris.Wrap(err, "download ticker map")
		return c.loadErr
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.loadErr = eris.Errorf("ticker map: unexpected status %d", resp.StatusCode)
		return c.loadErr
	}

	var raw map[string]struct {
		CIKStr int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.loadErr = eris.Wrap(err, "decode ticker map")
		return c.loadErr
	}

	m := make(map[string]string, len(raw))
	for _, entry := range raw {
		m[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIKStr)
	}
	c.cikByT = m
	return nil
}

type companyFactsResponse struct {
	CIK        int    `json:"cik"`
	EntityName string `json:"entityName"`
	Facts      struct {
		USGAAP map[string]struct {
			Units map[string][]factUnit `json:"units"`
		} `json:"us-gaap"`
	} `json:"facts"`
}

type factUnit struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	Fy    int     `json:"fy"`
	Fp    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

func (c *Client) fetchCompanyFacts(ctx context.Context, cik string) (*companyFactsResponse, error) {
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, cik)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create companyfacts request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "download companyfacts")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("companyfacts: unexpected status %d from %s", resp.StatusCode, url)
	}

	var facts companyFactsResponse
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "decode companyfacts")
	}
	return &facts, nil
}

// extractMetrics picks, for each normalized metric, the most recent fact
// unit matching the requested period ("ltm" picks the latest annual
// duration fact as an approximation in this reference adapter; "ltm-1"
// picks the one before it; "annual:N" picks the latest-ending FY fact
// among those filed for fiscal year N).
func extractMetrics(facts *companyFactsResponse, period string) map[string]secdata.CitedValue {
	out := make(map[string]secdata.CitedValue)

	offset := 0
	fiscalYear := 0
	switch {
	case period == "ltm-1":
		offset = 1
	case strings.HasPrefix(period, "annual:"):
		if n, err := strconv.Atoi(strings.TrimPrefix(period, "annual:")); err == nil {
			fiscalYear = n
		}
	}

	for metric, concepts := range metricConcepts {
		for _, concept := range concepts {
			taxon, ok := facts.Facts.USGAAP[concept]
			if !ok {
				continue
			}
			units, ok := taxon.Units["USD"]
			if !ok {
				units, ok = taxon.Units["USD/shares"]
			}
			if !ok || len(units) == 0 {
				continue
			}

			annual := filterAnnual(units)
			if fiscalYear != 0 {
				var inYear []factUnit
				for _, u := range annual {
					if u.Fy == fiscalYear {
						inYear = append(inYear, u)
					}
				}
				annual = inYear
			}
			if offset >= len(annual) {
				continue
			}
			fact := annual[len(annual)-1-offset]

			val := fact.Val
			out[metric] = secdata.CitedValue{
				Value:        &val,
				Unit:         "USD",
				Concept:      concept,
				Metric:       metric,
				FiscalYear:   fact.Fy,
				FiscalPeriod: fact.Fp,
				PeriodEnd:    fact.End,
				FormType:     fact.Form,
				Filed:        fact.Filed,
				Accession:    fact.Accn,
				CIK:          fmt.Sprintf("%010d", facts.CIK),
				FilingURL:    fmt.Sprintf("https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&CIK=%010d", facts.CIK),
				CompanyName:  facts.EntityName,
			}
			break
		}
	}

	return out
}

// filterAnnual keeps facts reported for FY annual periods (fiscal period
// "FY", whatever the form type), sorted ascending by period end, oldest
// first.
func filterAnnual(units []factUnit) []factUnit {
	var annual []factUnit
	for _, u := range units {
		if u.Fp == "FY" {
			annual = append(annual, u)
		}
	}
	sort.SliceStable(annual, func(i, j int) bool { return annual[i].End < annual[j].End })
	return annual
}
