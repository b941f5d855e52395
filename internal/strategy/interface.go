package strategy

import (
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

// Config holds strategy configuration
type Config struct {
	Enabled bool
	Params  map[string]any
}

// DataRequirements specifies what data a strategy needs
type DataRequirements struct {
	PriceHistory int // Bars of history needed
	Indicators   []string
}

// AnalysisContext provides data to strategies
type AnalysisContext struct {
	Symbol string
	OHLCV  []core.OHLCV
	Now    time.Time
}

// Strategy defines the interface for trading strategies
type Strategy interface {
	Name() string
	Description() string
	RequiredData() DataRequirements
	Init(cfg Config) error
	Analyze(ctx AnalysisContext) ([]core.Signal, error)
}

// Factory creates a fresh strategy instance from a parameter set. The
// optimizer and walk-forward analyzer use factories to evaluate candidate
// parameters without sharing state between runs.
type Factory func(params map[string]any) (Strategy, error)

// IntParam reads an integer parameter, accepting the numeric types viper
// and JSON decoding produce.
func IntParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// FloatParam reads a float parameter, accepting the numeric types viper
// and JSON decoding produce.
func FloatParam(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}
