package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/handspread/internal/secdata/edgarclient"
)

var diagnoseTicker string

// diagnoseCmd is a read-only debugging aid: for one ticker, it prints
// every normalized metric's candidate XBRL concepts and which one (if
// any) actually resolved in the filer's latest companyfacts payload.
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Print which XBRL concepts resolved for a ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		if diagnoseTicker == "" {
			return eris.New("--ticker is required")
		}

		client := edgarclient.New(cfg.SEC.UserAgent, cfg.SEC.BaseURL)
		resolved, err := client.FetchMetrics(cmd.Context(), []string{diagnoseTicker}, "ltm")
		if err != nil {
			return eris.Wrap(err, "diagnose: fetch metrics")
		}

		byTicker := resolved[diagnoseTicker]

		metrics := make([]string, 0)
		for name := range edgarclient.MetricConcepts() {
			metrics = append(metrics, name)
		}
		sort.Strings(metrics)

		candidates := edgarclient.MetricConcepts()
		for _, name := range metrics {
			cv, ok := byTicker[name]
			if !ok {
				fmt.Printf("%-28s UNRESOLVED  (tried: %v)\n", name, candidates[name])
				continue
			}
			fmt.Printf("%-28s %-45s value=%v accn=%s\n", name, cv.Concept, derefOrNil(cv.Value), cv.Accession)
		}

		return nil
	},
}

func derefOrNil(v *float64) any {
	if v == nil {
		return "null"
	}
	return *v
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseTicker, "ticker", "", "ticker symbol to diagnose (required)")
	_ = diagnoseCmd.MarkFlagRequired("ticker")
	rootCmd.AddCommand(diagnoseCmd)
}
