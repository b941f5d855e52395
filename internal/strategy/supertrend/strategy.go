package supertrend

import (
	"fmt"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/indicator"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// Supertrend implements a trend-following strategy around an ATR band.
// Price closing above the band flips the trend up (buy); closing below
// flips it down (sell).
type Supertrend struct {
	period     int
	multiplier float64
}

// New creates a new Supertrend strategy
func New(period int, multiplier float64) *Supertrend {
	return &Supertrend{
		period:     period,
		multiplier: multiplier,
	}
}

// NewFromParams builds the strategy from a parameter map (factory form).
// Defaults are the common 10-period, 3x multiplier setting.
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	period := strategy.IntParam(params, "period", 10)
	multiplier := strategy.FloatParam(params, "multiplier", 3.0)
	if period <= 0 {
		return nil, fmt.Errorf("supertrend: period must be positive, got %d", period)
	}
	if multiplier <= 0 {
		return nil, fmt.Errorf("supertrend: multiplier must be positive, got %g", multiplier)
	}
	return New(period, multiplier), nil
}

func (s *Supertrend) Name() string {
	return "supertrend"
}

func (s *Supertrend) Description() string {
	return fmt.Sprintf("Supertrend (%d, %.1f)", s.period, s.multiplier)
}

func (s *Supertrend) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: s.period * 6, // ATR warmup plus band carry-forward history
		Indicators:   []string{"ATR"},
	}
}

func (s *Supertrend) Init(cfg strategy.Config) error {
	if period := strategy.IntParam(cfg.Params, "period", s.period); period > 0 {
		s.period = period
	}
	if mult := strategy.FloatParam(cfg.Params, "multiplier", s.multiplier); mult > 0 {
		s.multiplier = mult
	}
	return nil
}

func (s *Supertrend) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	n := len(ctx.OHLCV)
	if n < s.period+2 {
		return nil, nil // Not enough data
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range ctx.OHLCV {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	line, dir := s.compute(highs, lows, closes)

	last := n - 1
	if dir[last] == dir[last-1] {
		return nil, nil
	}

	if dir[last] > 0 {
		return []core.Signal{{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  0.7,
			Reason:      fmt.Sprintf("Close %.2f crossed above supertrend %.2f", closes[last], line[last]),
			GeneratedAt: signalTime(ctx),
			Metadata: map[string]any{
				"supertrend": line[last],
				"type":       "trend_flip_up",
			},
		}}, nil
	}

	return []core.Signal{{
		Symbol:      ctx.Symbol,
		Action:      core.ActionSell,
		Confidence:  0.7,
		Reason:      fmt.Sprintf("Close %.2f crossed below supertrend %.2f", closes[last], line[last]),
		GeneratedAt: signalTime(ctx),
		Metadata: map[string]any{
			"supertrend": line[last],
			"type":       "trend_flip_down",
		},
	}}, nil
}

// compute derives the supertrend line and trend direction (+1 up, -1
// down) from ATR bands with the usual carry-forward tightening.
func (s *Supertrend) compute(highs, lows, closes []float64) ([]float64, []int) {
	n := len(closes)
	atr := indicator.ATR(s.period, highs, lows, closes)

	upper := make([]float64, n)
	lower := make([]float64, n)
	dir := make([]int, n)
	line := make([]float64, n)

	for i := 0; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		basicUpper := mid + s.multiplier*atr[i]
		basicLower := mid - s.multiplier*atr[i]

		if i == 0 {
			upper[i] = basicUpper
			lower[i] = basicLower
			dir[i] = -1
			if closes[i] > upper[i] {
				dir[i] = 1
			}
		} else {
			upper[i] = upper[i-1]
			if basicUpper < upper[i-1] || closes[i-1] > upper[i-1] {
				upper[i] = basicUpper
			}
			lower[i] = lower[i-1]
			if basicLower > lower[i-1] || closes[i-1] < lower[i-1] {
				lower[i] = basicLower
			}

			switch {
			case closes[i] > upper[i]:
				dir[i] = 1
			case closes[i] < lower[i]:
				dir[i] = -1
			default:
				dir[i] = dir[i-1]
			}
		}

		if dir[i] > 0 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}

	return line, dir
}

func signalTime(ctx strategy.AnalysisContext) time.Time {
	if !ctx.Now.IsZero() {
		return ctx.Now
	}
	return ctx.OHLCV[len(ctx.OHLCV)-1].Time
}
