package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/core"
)

// Window is one train/test split of a walk-forward analysis
type Window struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// WindowResult holds the outcome of one walk-forward window: the
// parameters picked on the training slice and how they performed
// out-of-sample.
type WindowResult struct {
	Window     Window
	Params     map[string]any
	TrainScore float64
	TestScore  float64
	TestStats  Stats
}

// WalkForwardResult aggregates all windows. Stability blends the share
// of profitable out-of-sample windows with the consistency of their
// scores; values near 1 indicate parameters that keep working after
// the fitting period.
type WalkForwardResult struct {
	Strategy  string
	Symbol    string
	Objective string
	Anchored  bool
	Windows   []WindowResult
	Stability float64
	Elapsed   time.Duration
}

// WalkForwardRequest describes a walk-forward analysis
type WalkForwardRequest struct {
	StrategyName string
	Symbol       string
	Start        time.Time
	End          time.Time
	Interval     string
	Spec         PortfolioSpec
	Grid         []Parameter
	Objective    string
	TrainDays    int
	TestDays     int
	Anchored     bool
}

// SplitWindows cuts [start, end) into walk-forward windows. Rolling
// windows slide both edges forward by testDays; anchored windows keep
// the training start fixed and only extend.
func SplitWindows(start, end time.Time, trainDays, testDays int, anchored bool) []Window {
	if trainDays <= 0 || testDays <= 0 {
		return nil
	}

	var windows []Window
	trainStart := start
	trainEnd := start.AddDate(0, 0, trainDays)

	for {
		testEnd := trainEnd.AddDate(0, 0, testDays)
		if testEnd.After(end) {
			break
		}
		windows = append(windows, Window{
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
		trainEnd = trainEnd.AddDate(0, 0, testDays)
		if !anchored {
			trainStart = trainStart.AddDate(0, 0, testDays)
		}
	}
	return windows
}

// WalkForward optimizes on each training slice and validates the chosen
// parameters on the following unseen test slice.
func (o *Optimizer) WalkForward(ctx context.Context, req WalkForwardRequest) (res *WalkForwardResult, err error) {
	started := time.Now()
	defer func() { o.recordRun("walkforward", err) }()

	objective, err := ObjectiveByName(req.Objective)
	if err != nil {
		return nil, err
	}

	windows := SplitWindows(req.Start, req.End, req.TrainDays, req.TestDays, req.Anchored)
	if len(windows) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			errors.New("date range too short for the requested train/test split"))
	}

	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}
	ohlcv, err := o.bt.provider.FetchHistory(req.Symbol, req.Start, req.End, interval)
	if err != nil {
		return nil, core.WrapError(core.ErrBacktestFailed, fmt.Errorf("fetching history: %w", err))
	}
	if len(ohlcv) == 0 {
		return nil, core.ErrNoData
	}

	result := &WalkForwardResult{
		Strategy:  req.StrategyName,
		Symbol:    req.Symbol,
		Objective: req.Objective,
		Anchored:  req.Anchored,
	}

	for i, w := range windows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		train := barsBetween(ohlcv, w.TrainStart, w.TrainEnd)
		test := barsBetween(ohlcv, w.TestStart, w.TestEnd)
		if len(train) == 0 || len(test) == 0 {
			o.logger.Debug("skipping empty window", zap.Int("window", i))
			continue
		}

		best, err := o.optimizeBars(ctx, req.Symbol, train, req.Spec, req.Grid, objective)
		if err != nil {
			o.logger.Debug("window optimization failed", zap.Int("window", i), zap.Error(err))
			continue
		}

		oos, err := o.evaluate(ctx, req.Symbol, test, req.Spec, best.Params)
		if err != nil {
			o.logger.Debug("out-of-sample run failed", zap.Int("window", i), zap.Error(err))
			continue
		}

		result.Windows = append(result.Windows, WindowResult{
			Window:     w,
			Params:     best.Params,
			TrainScore: best.Score,
			TestScore:  objective(oos.Stats),
			TestStats:  oos.Stats,
		})
	}

	if len(result.Windows) == 0 {
		return nil, core.WrapError(core.ErrBacktestFailed, errors.New("no walk-forward window produced a result"))
	}

	result.Stability = stabilityScore(result.Windows)
	result.Elapsed = time.Since(started)
	return result, nil
}

// optimizeBars grid-searches a pre-sliced bar series
func (o *Optimizer) optimizeBars(ctx context.Context, symbol string, ohlcv []core.OHLCV, spec PortfolioSpec, grid []Parameter, objective Objective) (*Candidate, error) {
	best := Candidate{Score: math.Inf(-1)}
	for _, params := range expandGrid(grid) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		run, err := o.evaluate(ctx, symbol, ohlcv, spec, params)
		if err != nil {
			continue
		}
		score := objective(run.Stats)
		if score > best.Score {
			best = Candidate{Params: params, Score: score, Stats: run.Stats}
		}
	}
	if best.Params == nil {
		return nil, core.WrapError(core.ErrBacktestFailed, errors.New("no candidate produced a valid result"))
	}
	return &best, nil
}

// stabilityScore blends the fraction of profitable out-of-sample
// windows with the inverse coefficient of variation of their scores.
func stabilityScore(windows []WindowResult) float64 {
	var profitable int
	scores := make([]float64, 0, len(windows))
	for _, w := range windows {
		if w.TestStats.TotalReturn > 0 {
			profitable++
		}
		scores = append(scores, w.TestScore)
	}
	profitability := float64(profitable) / float64(len(windows))

	mean := meanOf(scores)
	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(scores)))

	consistency := 1.0
	if mean != 0 {
		cv := stdDev / math.Abs(mean)
		consistency = 1 / (1 + cv)
	} else if stdDev > 0 {
		consistency = 0
	}

	return (profitability + consistency) / 2
}

func barsBetween(ohlcv []core.OHLCV, start, end time.Time) []core.OHLCV {
	var out []core.OHLCV
	for _, bar := range ohlcv {
		if !bar.Time.Before(start) && bar.Time.Before(end) {
			out = append(out, bar)
		}
	}
	return out
}
