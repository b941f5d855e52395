package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/config"
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/provider"
	"github.com/marketcalls/quantbt/internal/provider/binance"
	"github.com/marketcalls/quantbt/internal/provider/csvfile"
	"github.com/marketcalls/quantbt/internal/provider/openalgo"
	"github.com/marketcalls/quantbt/internal/storage/archive"
	"github.com/marketcalls/quantbt/internal/strategy"
	"github.com/marketcalls/quantbt/internal/strategy/buy_hold"
	"github.com/marketcalls/quantbt/internal/strategy/ema_crossover"
	"github.com/marketcalls/quantbt/internal/strategy/macd"
	"github.com/marketcalls/quantbt/internal/strategy/momentum"
	"github.com/marketcalls/quantbt/internal/strategy/rsi_threshold"
	"github.com/marketcalls/quantbt/internal/strategy/supertrend"
)

// loadConfig loads the config file if one was given, otherwise falls
// back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newProvider builds the market data provider selected in the config.
// The exchange flag only applies to OpenAlgo.
func newProvider(cfg *config.Config, exchange string) (provider.Provider, error) {
	switch cfg.Provider.Name {
	case "", "openalgo":
		if cfg.Provider.OpenAlgo.APIKey == "" {
			return nil, core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openalgo api key not set, set OPENALGO_API_KEY or provider.openalgo.api_key"))
		}
		ex := core.ExchangeNSE
		if exchange != "" {
			ex = core.Exchange(exchange)
		}
		return openalgo.New(cfg.Provider.OpenAlgo.Host, cfg.Provider.OpenAlgo.APIKey, ex), nil
	case "binance":
		return binance.New(), nil
	case "csvfile":
		return csvfile.New(cfg.Provider.CSVDir), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider %q", cfg.Provider.Name))
	}
}

// newEngine registers all built-in strategy factories.
func newEngine(log *zap.Logger) *strategy.Engine {
	engine := strategy.NewEngine(log)
	engine.RegisterFactory("buy_hold", buy_hold.NewFromParams)
	engine.RegisterFactory("ema_crossover", ema_crossover.NewFromParams)
	engine.RegisterFactory("macd", macd.NewFromParams)
	engine.RegisterFactory("momentum", momentum.NewFromParams)
	engine.RegisterFactory("rsi_threshold", rsi_threshold.NewFromParams)
	engine.RegisterFactory("supertrend", supertrend.NewFromParams)
	return engine
}

func specFromConfig(cfg *config.Config) backtest.PortfolioSpec {
	return backtest.PortfolioSpec{
		InitCash: cfg.Portfolio.InitCash,
		Size:     cfg.Portfolio.Size,
		Fees:     cfg.Portfolio.Fees,
		FixedFee: cfg.Portfolio.FixedFee,
		Slippage: cfg.Portfolio.Slippage,
	}
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

// newArchiver builds the run archiver selected in the config.
func newArchiver(cfg *config.Config) (*archive.Archiver, error) {
	switch cfg.Archive.Type {
	case "", "localfs":
		path := cfg.Archive.Path
		if path == "" {
			path = "archive"
		}
		store, err := archive.NewLocalFS(path)
		if err != nil {
			return nil, fmt.Errorf("creating local archive: %w", err)
		}
		return archive.NewArchiver(store), nil
	case "s3":
		store, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 archive: %w", err)
		}
		return archive.NewArchiver(store), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", cfg.Archive.Type))
	}
}

// parseParams turns repeated key=value flags into a parameter map.
// Values that parse as numbers become numbers.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}
		if n, err := strconv.Atoi(value); err == nil {
			params[key] = n
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
		} else {
			params[key] = value
		}
	}
	return params, nil
}

// parseGrid turns repeated name=min:max:step flags into grid parameters.
// Appending ":int" forces integer values.
func parseGrid(specs []string) ([]backtest.Parameter, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --param-range flag is required")
	}

	grid := make([]backtest.Parameter, 0, len(specs))
	for _, spec := range specs {
		name, rangeSpec, found := strings.Cut(spec, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid grid %q, expected name=min:max:step", spec)
		}

		parts := strings.Split(rangeSpec, ":")
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("invalid grid %q, expected name=min:max:step[:int]", spec)
		}

		p := backtest.Parameter{Name: name}
		var err error
		if p.Min, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return nil, fmt.Errorf("invalid grid min in %q: %w", spec, err)
		}
		if p.Max, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return nil, fmt.Errorf("invalid grid max in %q: %w", spec, err)
		}
		if p.Step, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return nil, fmt.Errorf("invalid grid step in %q: %w", spec, err)
		}
		if len(parts) == 4 {
			if parts[3] != "int" {
				return nil, fmt.Errorf("invalid grid modifier %q, only \"int\" is supported", parts[3])
			}
			p.Integer = true
		}
		grid = append(grid, p)
	}
	return grid, nil
}
