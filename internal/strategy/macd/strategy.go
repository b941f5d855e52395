package macd

import (
	"fmt"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/indicator"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// minHistory covers the slow EMA plus signal-line settling before
// zero-line flips are trusted.
const minHistory = 35

// MACD implements a MACD zero-line regime strategy with a signal-candle
// breakout entry. The bar where MACD crosses above zero sets the trigger
// high; a later bar breaking that high opens the position. A cross back
// below zero exits.
type MACD struct{}

// New creates a new MACD breakout strategy (standard 12/26/9 periods)
func New() *MACD {
	return &MACD{}
}

// NewFromParams builds the strategy from a parameter map (factory form).
// The MACD periods are fixed at 12/26/9.
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	return New(), nil
}

func (m *MACD) Name() string {
	return "macd"
}

func (m *MACD) Description() string {
	return "MACD zero-line breakout (12/26/9)"
}

func (m *MACD) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: 130, // slow EMA warmup plus room for the regime flip
		Indicators:   []string{"MACD"},
	}
}

func (m *MACD) Init(cfg strategy.Config) error {
	return nil
}

func (m *MACD) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	n := len(ctx.OHLCV)
	if n < minHistory+2 {
		return nil, nil // Not enough data
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	for i, bar := range ctx.OHLCV {
		closes[i] = bar.Close
		highs[i] = bar.High
	}

	macdLine, _ := indicator.MACD(closes)

	// Replay zero-line flips to find the active regime and the high of
	// the bar that flipped it bullish.
	bull := false
	sigHigh := 0.0
	lastFlip := -1
	for i := 1; i < n; i++ {
		if macdLine[i-1] <= 0 && macdLine[i] > 0 {
			bull = true
			sigHigh = highs[i]
			lastFlip = i
		} else if macdLine[i-1] >= 0 && macdLine[i] < 0 {
			bull = false
			lastFlip = i
		}
	}

	last := n - 1

	if !bull {
		if lastFlip != last {
			return nil, nil
		}
		// Bearish flip on this bar closes any open position
		return []core.Signal{{
			Symbol:      ctx.Symbol,
			Action:      core.ActionSell,
			Confidence:  0.7,
			Reason:      fmt.Sprintf("MACD crossed below zero (%.2f)", macdLine[last]),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"macd": macdLine[last],
				"type": "bear_flip",
			},
		}}, nil
	}

	if lastFlip == last {
		return nil, nil // Flip bar only sets the trigger level
	}
	if highs[last-1] <= sigHigh && highs[last] > sigHigh {
		return []core.Signal{{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  0.7,
			Reason:      fmt.Sprintf("High %.2f broke the bullish flip candle high %.2f", highs[last], sigHigh),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"macd":         macdLine[last],
				"trigger_high": sigHigh,
				"type":         "signal_candle_breakout",
			},
		}}, nil
	}

	return nil, nil
}

func signalTime(ctx strategy.AnalysisContext) time.Time {
	if !ctx.Now.IsZero() {
		return ctx.Now
	}
	return ctx.OHLCV[len(ctx.OHLCV)-1].Time
}
