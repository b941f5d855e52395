// Package buy_hold implements a buy-and-hold benchmark: one entry on the
// first analyzable bar, never an exit. Instances are single-run; create a
// fresh one per backtest via the factory.
package buy_hold

import (
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// BuyHold implements the buy-and-hold benchmark
type BuyHold struct {
	entered bool
}

// New creates a new buy-and-hold strategy
func New() *BuyHold {
	return &BuyHold{}
}

// NewFromParams builds the strategy from a parameter map (factory form)
func NewFromParams(params map[string]any) (strategy.Strategy, error) {
	return New(), nil
}

func (b *BuyHold) Name() string {
	return "buy_hold"
}

func (b *BuyHold) Description() string {
	return "Buy & Hold benchmark"
}

func (b *BuyHold) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		PriceHistory: 1,
	}
}

func (b *BuyHold) Init(cfg strategy.Config) error {
	b.entered = false
	return nil
}

func (b *BuyHold) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if b.entered || len(ctx.OHLCV) == 0 {
		return nil, nil
	}
	b.entered = true

	last := ctx.OHLCV[len(ctx.OHLCV)-1]
	return []core.Signal{{
		Symbol:      ctx.Symbol,
		Action:      core.ActionBuy,
		Confidence:  0.5,
		Reason:      "Buy & hold entry",
		GeneratedAt: last.Time,
		Metadata: map[string]any{
			"type": "benchmark_entry",
		},
	}}, nil
}
