package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/indicator"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// OHLCVProvider defines the interface for fetching historical OHLCV data
type OHLCVProvider interface {
	FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	provider OHLCVProvider
	logger   *zap.Logger
}

// New creates a new Backtester with the given OHLCV provider
func New(provider OHLCVProvider, logger ...*zap.Logger) *Backtester {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Backtester{
		provider: provider,
		logger:   l,
	}
}

// Request describes a single backtest run
type Request struct {
	Strategy strategy.Strategy
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval string
	Spec     PortfolioSpec
	Params   map[string]any
}

// Run executes a backtest for the given strategy and symbol over the
// specified time range. Raw strategy signals are reduced to alternating
// entry/exit pairs before simulation so repeated same-direction signals
// cannot pyramid.
func (b *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}

	ohlcv, err := b.provider.FetchHistory(req.Symbol, req.Start, req.End, interval)
	if err != nil {
		return nil, core.WrapError(core.ErrBacktestFailed, fmt.Errorf("fetching history: %w", err))
	}
	if len(ohlcv) == 0 {
		return nil, core.ErrNoData
	}

	signals, entries, exits, err := b.generateSignals(ctx, req.Strategy, req.Symbol, ohlcv)
	if err != nil {
		return nil, err
	}

	entries, exits = indicator.Exrem(entries, exits)
	trades, equity := Simulate(ohlcv, entries, exits, req.Spec)
	stats := ComputeStats(trades, equity, req.Spec.InitCash)

	b.logger.Debug("backtest complete",
		zap.String("strategy", req.Strategy.Name()),
		zap.String("symbol", req.Symbol),
		zap.Int("bars", len(ohlcv)),
		zap.Int("trades", len(trades)),
		zap.Duration("elapsed", time.Since(started)))

	return &Result{
		ID:        uuid.NewString(),
		Strategy:  req.Strategy.Name(),
		Symbol:    req.Symbol,
		Interval:  interval,
		StartDate: req.Start,
		EndDate:   req.End,
		Params:    req.Params,
		Spec:      req.Spec,
		Signals:   signals,
		Trades:    trades,
		Equity:    equity,
		Stats:     stats,
		Duration:  time.Since(started),
		CreatedAt: time.Now(),
	}, nil
}

// RunBars executes a backtest against an already fetched bar series.
// The optimizer and walk-forward analyzer use this to avoid refetching
// the same history for every candidate.
func (b *Backtester) RunBars(ctx context.Context, strat strategy.Strategy, symbol string, ohlcv []core.OHLCV, spec PortfolioSpec) (*Result, error) {
	if len(ohlcv) == 0 {
		return nil, core.ErrNoData
	}

	signals, entries, exits, err := b.generateSignals(ctx, strat, symbol, ohlcv)
	if err != nil {
		return nil, err
	}

	entries, exits = indicator.Exrem(entries, exits)
	trades, equity := Simulate(ohlcv, entries, exits, spec)
	stats := ComputeStats(trades, equity, spec.InitCash)

	return &Result{
		ID:        uuid.NewString(),
		Strategy:  strat.Name(),
		Symbol:    symbol,
		StartDate: ohlcv[0].Time,
		EndDate:   ohlcv[len(ohlcv)-1].Time,
		Spec:      spec,
		Signals:   signals,
		Trades:    trades,
		Equity:    equity,
		Stats:     stats,
		CreatedAt: time.Now(),
	}, nil
}

// generateSignals replays the strategy over a rolling window and maps
// its signals onto per-bar entry and exit flags.
func (b *Backtester) generateSignals(ctx context.Context, strat strategy.Strategy, symbol string, ohlcv []core.OHLCV) ([]core.Signal, []bool, []bool, error) {
	req := strat.RequiredData()
	windowSize := req.PriceHistory
	if windowSize <= 0 {
		windowSize = 1
	}

	if err := strat.Init(strategy.Config{Enabled: true}); err != nil {
		return nil, nil, nil, core.WrapError(core.ErrStrategyFailed, fmt.Errorf("initializing strategy: %w", err))
	}

	var all []core.Signal
	entries := make([]bool, len(ohlcv))
	exits := make([]bool, len(ohlcv))

	for i := 0; i < len(ohlcv); i++ {
		select {
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		default:
		}

		windowStart := 0
		if i-windowSize+1 > 0 {
			windowStart = i - windowSize + 1
		}
		window := ohlcv[windowStart : i+1]

		signals, err := strat.Analyze(strategy.AnalysisContext{
			Symbol: symbol,
			OHLCV:  window,
			Now:    ohlcv[i].Time,
		})
		if err != nil {
			b.logger.Debug("analysis error, skipping bar",
				zap.Int("bar", i), zap.Error(err))
			continue
		}

		for _, sig := range signals {
			sig.Price = ohlcv[i].Close
			sig.Strategy = strat.Name()
			all = append(all, sig)
			if sig.Action.IsEntry() {
				entries[i] = true
			}
			if sig.Action.IsExit() {
				exits[i] = true
			}
		}
	}

	return all, entries, exits, nil
}
