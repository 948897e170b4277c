package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/handspread/internal/config"
	"github.com/sells-group/handspread/internal/engine"
	"github.com/sells-group/handspread/internal/market"
	"github.com/sells-group/handspread/internal/secdata"
	"github.com/sells-group/handspread/internal/secdata/edgarclient"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "handspread",
	Short: "Comparable-company analysis from SEC XBRL and market data",
	Long:  "Fetches SEC filing concepts and vendor market data per ticker, builds the EV bridge, and computes multiples, growth, and operating metrics with full provenance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(cmd.Name()); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngine wires the SEC and market collaborators from cfg into an
// engine.Engine, shared by analyze and serve.
func buildEngine() (*engine.Engine, error) {
	sec := edgarclient.New(cfg.SEC.UserAgent, cfg.SEC.BaseURL)

	transport := market.NewHTTPTransport(cfg.Market.FinnhubAPIKey, time.Duration(cfg.Market.TimeoutSeconds)*time.Second)
	mkt := market.NewClient(transport, cfg.Market.Concurrency, time.Duration(cfg.Market.TTLSeconds)*time.Second)

	var provider secdata.Provider = sec
	return engine.New(provider, mkt, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second, cfg.Engine.TaxRate), nil
}
