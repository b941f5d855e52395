package ema_crossover

import (
	"fmt"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/indicator"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// EMACrossover implements an exponential moving average crossover strategy
type EMACrossover struct {
	fastPeriod int
	slowPeriod int
}

// New creates a new EMA Crossover strategy
func New(fastPeriod, slowPeriod int) *EMACrossover {
	return &EMACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
	}
}

// NewFromParams builds the strategy from a parameter map (factory form).
// Defaults are the 10/20 split used for daily equity bars.
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	fast := strategy.IntParam(params, "fast_period", 10)
	slow := strategy.IntParam(params, "slow_period", 20)
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("ema_crossover: periods must be positive, got %d/%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema_crossover: fast_period %d must be below slow_period %d", fast, slow)
	}
	return New(fast, slow), nil
}

func (m *EMACrossover) Name() string {
	return "ema_crossover"
}

func (m *EMACrossover) Description() string {
	return fmt.Sprintf("EMA Crossover (%d/%d)", m.fastPeriod, m.slowPeriod)
}

func (m *EMACrossover) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: m.slowPeriod * 3, // EMA needs warmup beyond its period
		Indicators:   []string{"EMA"},
	}
}

func (m *EMACrossover) Init(cfg strategy.Config) error {
	if fast := strategy.IntParam(cfg.Params, "fast_period", m.fastPeriod); fast > 0 {
		m.fastPeriod = fast
	}
	if slow := strategy.IntParam(cfg.Params, "slow_period", m.slowPeriod); slow > 0 {
		m.slowPeriod = slow
	}
	return nil
}

func (m *EMACrossover) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if len(ctx.OHLCV) < m.slowPeriod+1 {
		return nil, nil // Not enough data
	}

	// Extract closing prices
	prices := make([]float64, len(ctx.OHLCV))
	for i, bar := range ctx.OHLCV {
		prices[i] = bar.Close
	}

	fastEMA := indicator.EMA(m.fastPeriod, prices)
	slowEMA := indicator.EMA(m.slowPeriod, prices)

	n := len(prices)
	currFast, prevFast := fastEMA[n-1], fastEMA[n-2]
	currSlow, prevSlow := slowEMA[n-1], slowEMA[n-2]

	var signals []core.Signal

	// Golden Cross: fast crosses above slow
	if prevFast <= prevSlow && currFast > currSlow {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  m.calculateConfidence(currFast, currSlow),
			Reason:      fmt.Sprintf("Golden Cross: EMA%d (%.2f) crossed above EMA%d (%.2f)", m.fastPeriod, currFast, m.slowPeriod, currSlow),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"fast_ema": currFast,
				"slow_ema": currSlow,
				"type":     "golden_cross",
			},
		})
	}

	// Death Cross: fast crosses below slow
	if prevFast >= prevSlow && currFast < currSlow {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionSell,
			Confidence:  m.calculateConfidence(currFast, currSlow),
			Reason:      fmt.Sprintf("Death Cross: EMA%d (%.2f) crossed below EMA%d (%.2f)", m.fastPeriod, currFast, m.slowPeriod, currSlow),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"fast_ema": currFast,
				"slow_ema": currSlow,
				"type":     "death_cross",
			},
		})
	}

	return signals, nil
}

// calculateConfidence returns higher confidence for larger divergence
func (m *EMACrossover) calculateConfidence(fast, slow float64) float64 {
	diff := (fast - slow) / slow
	if diff < 0 {
		diff = -diff
	}

	// Scale to 0.5-0.9 range based on divergence
	confidence := 0.5 + (diff * 10)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}

func signalTime(ctx strategy.AnalysisContext) time.Time {
	if !ctx.Now.IsZero() {
		return ctx.Now
	}
	return ctx.OHLCV[len(ctx.OHLCV)-1].Time
}
