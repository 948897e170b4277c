package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Market MarketConfig `yaml:"market" mapstructure:"market"`
	SEC    SECConfig    `yaml:"sec" mapstructure:"sec"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MarketConfig configures the market-data vendor client.
type MarketConfig struct {
	FinnhubAPIKey  string `yaml:"finnhub_api_key" mapstructure:"finnhub_api_key"`
	TTLSeconds     int    `yaml:"ttl_seconds" mapstructure:"ttl_seconds"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// SECConfig configures the SEC XBRL data provider.
type SECConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
}

// EngineConfig configures the comps analysis engine.
type EngineConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	TaxRate        float64 `yaml:"tax_rate" mapstructure:"tax_rate"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HANDSPREAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("market.ttl_seconds", 300)
	v.SetDefault("market.concurrency", 8)
	v.SetDefault("market.timeout_seconds", 10)
	v.SetDefault("sec.base_url", "https://data.sec.gov")
	v.SetDefault("engine.timeout_seconds", 60)
	v.SetDefault("engine.tax_rate", 0.21)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration is sufficient for the given run mode
// ("analyze", "serve", "diagnose").
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Market.FinnhubAPIKey == "" {
		problems = append(problems, "market.finnhub_api_key is required")
	}
	if c.SEC.UserAgent == "" {
		problems = append(problems, "sec.user_agent is required")
	}

	if c.Market.TTLSeconds < 0 {
		problems = append(problems, "market.ttl_seconds must be >= 0")
	}
	if c.Market.Concurrency < 1 {
		problems = append(problems, "market.concurrency must be >= 1")
	}
	if c.Engine.TaxRate < 0 || c.Engine.TaxRate > 1 {
		problems = append(problems, "engine.tax_rate must be between 0 and 1")
	}

	switch mode {
	case "analyze", "diagnose":
		// no additional requirements beyond the shared ones above
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
