package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Provider    ProviderConfig            `mapstructure:"provider"`
	Portfolio   PortfolioConfig           `mapstructure:"portfolio"`
	Strategies  map[string]StrategyConfig `mapstructure:"strategies"`
	WalkForward WalkForwardConfig         `mapstructure:"walkforward"`
	MonteCarlo  MonteCarloConfig          `mapstructure:"montecarlo"`
	Report      ReportConfig              `mapstructure:"report"`
	Archive     ArchiveConfig             `mapstructure:"archive"`
	Server      ServerConfig              `mapstructure:"server"`
	Metrics     MetricsConfig             `mapstructure:"metrics"`
	Advisor     AdvisorConfig             `mapstructure:"advisor"`
	Notifiers   map[string]NotifierConfig `mapstructure:"notifiers"`
}

// ProviderConfig selects and configures the market data source.
type ProviderConfig struct {
	Name     string         `mapstructure:"name"` // "openalgo", "binance", "csvfile"
	OpenAlgo OpenAlgoConfig `mapstructure:"openalgo"`
	CSVDir   string         `mapstructure:"csv_dir"`
}

// OpenAlgoConfig holds OpenAlgo server settings. Empty values fall back to
// the OPENALGO_HOST / OPENALGO_API_KEY environment variables.
type OpenAlgoConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"api_key"`
}

// PortfolioConfig holds simulation defaults. Size is the fraction of current
// equity committed per entry; fees/slippage are fractions per side.
type PortfolioConfig struct {
	InitCash float64 `mapstructure:"init_cash"`
	Size     float64 `mapstructure:"size"`
	Fees     float64 `mapstructure:"fees"`
	FixedFee float64 `mapstructure:"fixed_fee"`
	Slippage float64 `mapstructure:"slippage"`
}

type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// WalkForwardConfig holds default walk-forward split sizes.
type WalkForwardConfig struct {
	TrainDays int  `mapstructure:"train_days"`
	TestDays  int  `mapstructure:"test_days"`
	Anchored  bool `mapstructure:"anchored"`
}

// MonteCarloConfig holds default robustness-test settings.
type MonteCarloConfig struct {
	Runs int   `mapstructure:"runs"`
	Seed int64 `mapstructure:"seed"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	Dir          string `mapstructure:"dir"`
	ExportTrades bool   `mapstructure:"export_trades"`
}

// ArchiveConfig selects where saved runs are persisted.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AdvisorConfig holds LLM review settings.
type AdvisorConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

type NotifierConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyEnvFallbacks()

	return &cfg, nil
}

// applyEnvFallbacks fills OpenAlgo credentials from the conventional
// environment variables when the config file leaves them empty.
func (c *Config) applyEnvFallbacks() {
	if c.Provider.OpenAlgo.APIKey == "" {
		c.Provider.OpenAlgo.APIKey = os.Getenv("OPENALGO_API_KEY")
	}
	if c.Provider.OpenAlgo.Host == "" {
		c.Provider.OpenAlgo.Host = os.Getenv("OPENALGO_HOST")
	}
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cfg := &Config{
		Provider: ProviderConfig{
			Name: "openalgo",
			OpenAlgo: OpenAlgoConfig{
				Host: "http://127.0.0.1:5000",
			},
		},
		Portfolio: PortfolioConfig{
			InitCash: 1_000_000,
			Size:     0.75,
			Fees:     0.001,
			Slippage: 0,
		},
		WalkForward: WalkForwardConfig{
			TrainDays: 180,
			TestDays:  30,
		},
		MonteCarlo: MonteCarloConfig{
			Runs: 1000,
		},
		Report: ReportConfig{
			Dir: "reports",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "archive",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
	cfg.applyEnvFallbacks()
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Portfolio.InitCash <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("init_cash must be positive, got %f", c.Portfolio.InitCash))
	}
	if c.Portfolio.Size <= 0 || c.Portfolio.Size > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("size must be in (0, 1], got %f", c.Portfolio.Size))
	}
	if c.Portfolio.Fees < 0 || c.Portfolio.Fees >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fees must be in [0, 1), got %f", c.Portfolio.Fees))
	}
	if c.Portfolio.Slippage < 0 || c.Portfolio.Slippage >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("slippage must be in [0, 1), got %f", c.Portfolio.Slippage))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.WalkForward.TrainDays <= 0 || c.WalkForward.TestDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("walkforward windows must be positive, got train=%d test=%d",
				c.WalkForward.TrainDays, c.WalkForward.TestDays))
	}

	if c.MonteCarlo.Runs <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("montecarlo runs must be positive, got %d", c.MonteCarlo.Runs))
	}

	switch c.Provider.Name {
	case "", "openalgo", "binance", "csvfile":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider %q", c.Provider.Name))
	}
	if c.Provider.Name == "csvfile" && c.Provider.CSVDir == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("csv_dir required when provider is csvfile"))
	}

	// Advisor validation - if provider set, check config exists
	if c.Advisor.Provider != "" {
		switch c.Advisor.Provider {
		case "claude":
			if c.Advisor.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when advisor provider is claude"))
			}
		case "openai":
			if c.Advisor.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when advisor provider is openai"))
			}
		case "ollama":
			if c.Advisor.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when advisor provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown advisor provider %q", c.Advisor.Provider))
		}
	}

	return nil
}
