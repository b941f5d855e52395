// Package rsi_threshold implements an RSI accumulation strategy: enter when
// the 14-period RSI drops below a buy threshold, exit when it rises above an
// exit threshold.
package rsi_threshold

import (
	"fmt"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/indicator"
	"github.com/marketcalls/quantbt/internal/strategy"
)

const rsiPeriod = 14

// RSIThreshold implements the RSI threshold strategy
type RSIThreshold struct {
	buyBelow  float64
	exitAbove float64
}

// New creates a new RSI threshold strategy
func New(buyBelow, exitAbove float64) *RSIThreshold {
	return &RSIThreshold{
		buyBelow:  buyBelow,
		exitAbove: exitAbove,
	}
}

// NewFromParams builds the strategy from a parameter map (factory form)
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	buyBelow := strategy.FloatParam(params, "buy_below", 30)
	exitAbove := strategy.FloatParam(params, "exit_above", 70)
	if buyBelow <= 0 || buyBelow >= 100 || exitAbove <= 0 || exitAbove > 100 {
		return nil, fmt.Errorf("rsi_threshold: thresholds must be within (0, 100), got %.1f/%.1f", buyBelow, exitAbove)
	}
	if buyBelow >= exitAbove {
		return nil, fmt.Errorf("rsi_threshold: buy_below %.1f must be below exit_above %.1f", buyBelow, exitAbove)
	}
	return New(buyBelow, exitAbove), nil
}

func (r *RSIThreshold) Name() string {
	return "rsi_threshold"
}

func (r *RSIThreshold) Description() string {
	return fmt.Sprintf("RSI Accumulation (buy<%.0f, exit>%.0f)", r.buyBelow, r.exitAbove)
}

func (r *RSIThreshold) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: rsiPeriod * 5, // RSI smoothing needs warmup
		Indicators:   []string{"RSI"},
	}
}

func (r *RSIThreshold) Init(cfg strategy.Config) error {
	if v := strategy.FloatParam(cfg.Params, "buy_below", r.buyBelow); v > 0 {
		r.buyBelow = v
	}
	if v := strategy.FloatParam(cfg.Params, "exit_above", r.exitAbove); v > 0 {
		r.exitAbove = v
	}
	return nil
}

func (r *RSIThreshold) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if len(ctx.OHLCV) < rsiPeriod+2 {
		return nil, nil // Not enough data
	}

	prices := make([]float64, len(ctx.OHLCV))
	for i, bar := range ctx.OHLCV {
		prices[i] = bar.Close
	}

	rsi := indicator.RSI(prices)
	n := len(rsi)
	curr, prev := rsi[n-1], rsi[n-2]

	var signals []core.Signal

	// Enter when RSI drops through the buy threshold
	if prev >= r.buyBelow && curr < r.buyBelow {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  r.calculateConfidence(curr),
			Reason:      fmt.Sprintf("RSI %.1f dropped below %.0f", curr, r.buyBelow),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"rsi":  curr,
				"type": "oversold_entry",
			},
		})
	}

	// Exit when RSI rises through the exit threshold
	if prev <= r.exitAbove && curr > r.exitAbove {
		signals = append(signals, core.Signal{
			Symbol:      ctx.Symbol,
			Action:      core.ActionSell,
			Confidence:  r.calculateConfidence(curr),
			Reason:      fmt.Sprintf("RSI %.1f rose above %.0f", curr, r.exitAbove),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"rsi":  curr,
				"type": "overbought_exit",
			},
		})
	}

	return signals, nil
}

// calculateConfidence scales with distance from the 50 midline
func (r *RSIThreshold) calculateConfidence(rsi float64) float64 {
	dist := rsi - 50
	if dist < 0 {
		dist = -dist
	}
	confidence := 0.5 + dist/125 // 0.5 at midline, 0.9 at the extremes
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
