package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/handspread/internal/model"
)

var (
	analyzeTickers  string
	analyzeDebtMode string
	analyzePeriod   string
	analyzeFormat   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run analyze_comps for a comma-separated list of tickers and print the results (JSON or text)",
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := splitTickers(analyzeTickers)

		policy := model.DefaultEVPolicy()
		switch analyzeDebtMode {
		case "", "total_only":
			policy.DebtMode = model.DebtModeTotalOnly
		case "split":
			policy.DebtMode = model.DebtModeSplit
		case "total_plus_short_term":
			policy.DebtMode = model.DebtModeTotalPlusShort
		default:
			return eris.Errorf("unknown --debt-mode %q", analyzeDebtMode)
		}

		eng, err := buildEngine()
		if err != nil {
			return err
		}

		results, err := eng.AnalyzeComps(cmd.Context(), tickers, analyzePeriod, policy)
		if err != nil {
			return err
		}

		switch analyzeFormat {
		case "", "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"results": results})
		case "text":
			return printText(os.Stdout, results)
		default:
			return eris.Errorf("unknown --format %q", analyzeFormat)
		}
	},
}

// printText renders results in the human-readable format the teacher's
// report commands use: one block per ticker, provenance citations next to
// the figures they support.
func printText(w io.Writer, results []model.CompanyAnalysis) error {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := r.Symbol
		if r.CompanyName != "" {
			name = fmt.Sprintf("%s (%s)", r.Symbol, r.CompanyName)
		}
		fmt.Fprintln(w, name)

		if r.Market != nil {
			fmt.Fprintf(w, "  price: %s  [%s]\n", r.Market.Price.FormatUSD(), r.Market.Price.Citation())
		}
		if rev, ok := r.SECLTM["revenue"]; ok {
			fmt.Fprintf(w, "  revenue (LTM): %s\n", rev.Citation())
		}
		if ev, ok := r.Multiples["ev_revenue"]; ok {
			fmt.Fprintf(w, "  ev/revenue: %s\n", ev.FormatMultiple())
		}
		if g, ok := r.Growth["revenue"]; ok {
			fmt.Fprintf(w, "  revenue growth: %s\n", g.FormatPercent())
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  error[%s/%s]: %s\n", e.Stage, e.Kind, e.Message)
		}
	}
	return nil
}

func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTickers, "tickers", "", "comma-separated ticker symbols (required)")
	analyzeCmd.Flags().StringVar(&analyzeDebtMode, "debt-mode", "total_only", "debt_mode: total_only, split, or total_plus_short_term")
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "ltm", `period selector: "ltm" or "annual:N"`)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format: json or text")
	_ = analyzeCmd.MarkFlagRequired("tickers")
	rootCmd.AddCommand(analyzeCmd)
}
