package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// stubProvider returns a fixed bar series regardless of the requested range
type stubProvider struct {
	bars []core.OHLCV
	err  error
}

func (p *stubProvider) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.bars, nil
}

// scriptedStrategy emits a buy or sell whenever the last close matches
// a scripted price
type scriptedStrategy struct {
	buyAt  map[float64]bool
	sellAt map[float64]bool
}

func (s *scriptedStrategy) Name() string        { return "scripted" }
func (s *scriptedStrategy) Description() string { return "test strategy" }
func (s *scriptedStrategy) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{PriceHistory: 1}
}
func (s *scriptedStrategy) Init(cfg strategy.Config) error { return nil }
func (s *scriptedStrategy) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if len(ctx.OHLCV) == 0 {
		return nil, nil
	}
	last := ctx.OHLCV[len(ctx.OHLCV)-1]
	if s.buyAt[last.Close] {
		return []core.Signal{{Symbol: ctx.Symbol, Action: core.ActionBuy, GeneratedAt: last.Time}}, nil
	}
	if s.sellAt[last.Close] {
		return []core.Signal{{Symbol: ctx.Symbol, Action: core.ActionSell, GeneratedAt: last.Time}}, nil
	}
	return nil, nil
}

func testSpec() PortfolioSpec {
	return PortfolioSpec{InitCash: 10000, Size: 0.75}
}

func TestBacktester_Run(t *testing.T) {
	provider := &stubProvider{bars: dailyBars([]float64{100, 102, 104, 106, 108, 110})}
	bt := New(provider)

	strat := &scriptedStrategy{
		buyAt:  map[float64]bool{102: true},
		sellAt: map[float64]bool{108: true},
	}

	result, err := bt.Run(context.Background(), Request{
		Strategy: strat,
		Symbol:   "TEST",
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		Spec:     testSpec(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ID == "" {
		t.Error("expected run ID")
	}
	if result.Strategy != "scripted" {
		t.Errorf("Strategy = %s, want scripted", result.Strategy)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	tr := result.Trades[0]
	if !tr.Closed {
		t.Error("expected closed trade")
	}
	if !almostEqual(tr.EntryPrice, 102) || !almostEqual(tr.ExitPrice, 108) {
		t.Errorf("fill prices = %f/%f, want 102/108", tr.EntryPrice, tr.ExitPrice)
	}
	if len(result.Equity) != 6 {
		t.Errorf("expected 6 equity points, got %d", len(result.Equity))
	}
	if result.Stats.TotalReturn <= 0 {
		t.Errorf("TotalReturn = %f, want > 0", result.Stats.TotalReturn)
	}
}

func TestBacktester_RepeatedSignalsCleaned(t *testing.T) {
	// Buys fire on every bar at 102 and 104; exrem keeps only the first
	provider := &stubProvider{bars: dailyBars([]float64{100, 102, 104, 102, 110})}
	bt := New(provider)

	strat := &scriptedStrategy{
		buyAt:  map[float64]bool{102: true, 104: true},
		sellAt: map[float64]bool{110: true},
	}

	result, err := bt.Run(context.Background(), Request{
		Strategy: strat,
		Symbol:   "TEST",
		Start:    time.Now().AddDate(0, 0, -5),
		End:      time.Now(),
		Spec:     testSpec(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Signals) != 4 {
		t.Errorf("expected 4 raw signals, got %d", len(result.Signals))
	}
	if len(result.Trades) != 1 {
		t.Errorf("expected 1 trade after cleaning, got %d", len(result.Trades))
	}
	if !almostEqual(result.Trades[0].EntryPrice, 102) {
		t.Errorf("EntryPrice = %f, want first entry at 102", result.Trades[0].EntryPrice)
	}
}

func TestBacktester_NoData(t *testing.T) {
	bt := New(&stubProvider{})
	_, err := bt.Run(context.Background(), Request{
		Strategy: &scriptedStrategy{},
		Symbol:   "TEST",
		Spec:     testSpec(),
	})
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("error = %v, want NO_DATA", err)
	}
}

func TestBacktester_ProviderError(t *testing.T) {
	bt := New(&stubProvider{err: errors.New("connection refused")})
	_, err := bt.Run(context.Background(), Request{
		Strategy: &scriptedStrategy{},
		Symbol:   "TEST",
		Spec:     testSpec(),
	})
	if !errors.Is(err, core.ErrBacktestFailed) {
		t.Errorf("error = %v, want BACKTEST_FAILED", err)
	}
}

func TestBacktester_ContextCancellation(t *testing.T) {
	provider := &stubProvider{bars: dailyBars(make([]float64, 1000))}
	for i := range provider.bars {
		provider.bars[i].Close = 100
	}
	bt := New(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bt.Run(ctx, Request{
		Strategy: &scriptedStrategy{},
		Symbol:   "TEST",
		Spec:     testSpec(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBacktester_RunBars(t *testing.T) {
	bt := New(&stubProvider{})
	bars := dailyBars([]float64{100, 102, 110})

	strat := &scriptedStrategy{
		buyAt:  map[float64]bool{102: true},
		sellAt: map[float64]bool{110: true},
	}

	result, err := bt.RunBars(context.Background(), strat, "TEST", bars, testSpec())
	if err != nil {
		t.Fatalf("RunBars() error = %v", err)
	}
	if len(result.Trades) != 1 {
		t.Errorf("expected 1 trade, got %d", len(result.Trades))
	}
	if !result.StartDate.Equal(bars[0].Time) || !result.EndDate.Equal(bars[2].Time) {
		t.Error("expected date range from bar series")
	}
}
