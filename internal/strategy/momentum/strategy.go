// Package momentum implements time-series momentum: long while the lookback
// return is positive, flat otherwise.
package momentum

import (
	"fmt"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// Momentum implements the time-series momentum strategy
type Momentum struct {
	lookback int
}

// New creates a new momentum strategy with the given lookback in bars
func New(lookback int) *Momentum {
	return &Momentum{lookback: lookback}
}

// NewFromParams builds the strategy from a parameter map (factory form)
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	lookback := strategy.IntParam(params, "lookback", 90)
	if lookback <= 0 {
		return nil, fmt.Errorf("momentum: lookback must be positive, got %d", lookback)
	}
	return New(lookback), nil
}

func (m *Momentum) Name() string {
	return "momentum"
}

func (m *Momentum) Description() string {
	return fmt.Sprintf("Time-Series Momentum (%d bars)", m.lookback)
}

func (m *Momentum) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: m.lookback + 2,
	}
}

func (m *Momentum) Init(cfg strategy.Config) error {
	if v := strategy.IntParam(cfg.Params, "lookback", m.lookback); v > 0 {
		m.lookback = v
	}
	return nil
}

func (m *Momentum) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	n := len(ctx.OHLCV)
	if n < m.lookback+2 {
		return nil, nil // Not enough data
	}

	curr := momentumAt(ctx.OHLCV, n-1, m.lookback)
	prev := momentumAt(ctx.OHLCV, n-2, m.lookback)

	var signals []core.Signal

	// Momentum turned positive: enter
	if prev <= 0 && curr > 0 {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  m.calculateConfidence(curr),
			Reason:      fmt.Sprintf("%d-bar return turned positive (%.2f%%)", m.lookback, curr*100),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"momentum": curr,
				"type":     "momentum_entry",
			},
		})
	}

	// Momentum turned negative: exit
	if prev >= 0 && curr < 0 {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionSell,
			Confidence:  m.calculateConfidence(curr),
			Reason:      fmt.Sprintf("%d-bar return turned negative (%.2f%%)", m.lookback, curr*100),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"momentum": curr,
				"type":     "momentum_exit",
			},
		})
	}

	return signals, nil
}

// momentumAt returns the lookback return ending at bar index i
func momentumAt(bars []core.OHLCV, i, lookback int) float64 {
	base := bars[i-lookback].Close
	if base == 0 {
		return 0
	}
	return (bars[i].Close - base) / base
}

// calculateConfidence scales with the magnitude of the momentum
func (m *Momentum) calculateConfidence(momentum float64) float64 {
	if momentum < 0 {
		momentum = -momentum
	}
	confidence := 0.5 + momentum*2
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
