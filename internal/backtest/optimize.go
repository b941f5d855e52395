package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/metrics"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// Parameter defines one axis of the optimization grid. Integer
// parameters keep Step whole; values are emitted as int in the
// parameter map so strategy factories see their natural type.
type Parameter struct {
	Name    string
	Min     float64
	Max     float64
	Step    float64
	Integer bool
}

// Values expands the parameter into its grid points
func (p Parameter) Values() []float64 {
	if p.Step <= 0 || p.Max < p.Min {
		return []float64{p.Min}
	}
	var vals []float64
	for v := p.Min; v <= p.Max+1e-9; v += p.Step {
		vals = append(vals, v)
	}
	return vals
}

// Objective scores a backtest result. Higher is better.
type Objective func(Stats) float64

// ObjectiveByName returns a named objective function. Supported names:
// sharpe, sortino, calmar, return, profit_factor (profit-factor is
// accepted as a spelling variant).
func ObjectiveByName(name string) (Objective, error) {
	switch name {
	case "", "sharpe":
		return func(s Stats) float64 { return s.SharpeRatio }, nil
	case "sortino":
		return func(s Stats) float64 { return s.SortinoRatio }, nil
	case "calmar":
		return func(s Stats) float64 { return s.CalmarRatio }, nil
	case "return":
		return func(s Stats) float64 { return s.TotalReturn }, nil
	case "profit_factor", "profit-factor":
		return func(s Stats) float64 {
			if math.IsInf(s.ProfitFactor, 1) {
				return 1000
			}
			return s.ProfitFactor
		}, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown objective %q", name))
}

// Candidate is one evaluated point of the grid
type Candidate struct {
	Params map[string]any
	Score  float64
	Stats  Stats
}

// OptimizationResult holds the best parameter set and every evaluated
// candidate, sorted best first.
type OptimizationResult struct {
	Strategy    string
	Symbol      string
	Objective   string
	Best        *Result
	BestParams  map[string]any
	BestScore   float64
	Candidates  []Candidate
	Sensitivity *Sensitivity
	Elapsed     time.Duration
}

// Sensitivity summarizes how the objective behaves in the neighborhood
// of the best parameter set. A large drop from the best score to the
// neighborhood mean suggests a fragile, overfit peak.
type Sensitivity struct {
	Neighbors   int
	MeanScore   float64
	WorstScore  float64
	Degradation float64 // Fractional drop from best score to neighborhood mean
}

// Optimizer evaluates a strategy factory across a parameter grid
type Optimizer struct {
	bt      *Backtester
	factory strategy.Factory
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewOptimizer creates an optimizer around a backtester and a strategy factory
func NewOptimizer(bt *Backtester, factory strategy.Factory, logger ...*zap.Logger) *Optimizer {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Optimizer{bt: bt, factory: factory, logger: l}
}

// WithMetrics attaches a metrics registry. Grid searches and walk-forward
// runs then count evaluated candidates and completions by outcome.
func (o *Optimizer) WithMetrics(reg *metrics.Registry) *Optimizer {
	o.metrics = reg
	return o
}

func (o *Optimizer) recordRun(kind string, err error) {
	if o.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	o.metrics.RecordOptimizerRun(kind, status)
}

// OptimizeRequest describes a grid search
type OptimizeRequest struct {
	StrategyName string
	Symbol       string
	Start        time.Time
	End          time.Time
	Interval     string
	Spec         PortfolioSpec
	Grid         []Parameter
	Objective    string
}

// Optimize runs a full grid search and scores each candidate with the
// requested objective. History is fetched once and shared across all
// candidates.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (res *OptimizationResult, err error) {
	started := time.Now()
	defer func() { o.recordRun("optimize", err) }()

	objective, err := ObjectiveByName(req.Objective)
	if err != nil {
		return nil, err
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

	grid := expandGrid(req.Grid)
	if len(grid) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, errors.New("empty parameter grid"))
	}
	o.logger.Info("starting grid search",
		zap.String("strategy", req.StrategyName),
		zap.String("symbol", req.Symbol),
		zap.Int("candidates", len(grid)))

	result := &OptimizationResult{
		Strategy:  req.StrategyName,
		Symbol:    req.Symbol,
		Objective: req.Objective,
		BestScore: math.Inf(-1),
	}

	for _, params := range grid {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		run, err := o.evaluate(ctx, req.Symbol, ohlcv, req.Spec, params)
		if err != nil {
			o.logger.Debug("candidate failed", zap.Any("params", params), zap.Error(err))
			continue
		}

		score := objective(run.Stats)
		result.Candidates = append(result.Candidates, Candidate{
			Params: params,
			Score:  score,
			Stats:  run.Stats,
		})

		if score > result.BestScore {
			result.BestScore = score
			result.BestParams = params
			result.Best = run
		}
	}

	if result.Best == nil {
		return nil, core.WrapError(core.ErrBacktestFailed, errors.New("no candidate produced a valid result"))
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Score > result.Candidates[j].Score
	})

	result.Sensitivity = o.sensitivity(req.Grid, result)
	result.Elapsed = time.Since(started)
	return result, nil
}

func (o *Optimizer) evaluate(ctx context.Context, symbol string, ohlcv []core.OHLCV, spec PortfolioSpec, params map[string]any) (*Result, error) {
	if o.metrics != nil {
		o.metrics.RecordCandidates(1)
	}
	strat, err := o.factory(params)
	if err != nil {
		return nil, err
	}
	run, err := o.bt.RunBars(ctx, strat, symbol, ohlcv, spec)
	if err != nil {
		return nil, err
	}
	run.Params = params
	return run, nil
}

// sensitivity scores the candidates one grid step away from the best
// parameter set, using the already evaluated grid.
func (o *Optimizer) sensitivity(grid []Parameter, result *OptimizationResult) *Sensitivity {
	if result.BestParams == nil || len(result.Candidates) < 2 {
		return nil
	}

	steps := make(map[string]float64, len(grid))
	for _, p := range grid {
		steps[p.Name] = p.Step
	}

	sens := &Sensitivity{WorstScore: math.Inf(1)}
	var sum float64
	for _, c := range result.Candidates {
		if !isNeighbor(result.BestParams, c.Params, steps) {
			continue
		}
		sens.Neighbors++
		sum += c.Score
		if c.Score < sens.WorstScore {
			sens.WorstScore = c.Score
		}
	}
	if sens.Neighbors == 0 {
		return nil
	}

	sens.MeanScore = sum / float64(sens.Neighbors)
	if result.BestScore != 0 {
		sens.Degradation = (result.BestScore - sens.MeanScore) / math.Abs(result.BestScore)
	}
	return sens
}

// isNeighbor reports whether b differs from a by exactly one grid step
// on exactly one parameter.
func isNeighbor(a, b map[string]any, steps map[string]float64) bool {
	var diffs int
	for name, step := range steps {
		av := paramFloat(a[name])
		bv := paramFloat(b[name])
		d := math.Abs(av - bv)
		if d < 1e-9 {
			continue
		}
		if step <= 0 || d > step+1e-9 {
			return false
		}
		diffs++
	}
	return diffs == 1
}

func paramFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// expandGrid computes the cartesian product of all parameter values
func expandGrid(grid []Parameter) []map[string]any {
	if len(grid) == 0 {
		return nil
	}

	sets := []map[string]any{{}}
	for _, p := range grid {
		var next []map[string]any
		for _, base := range sets {
			for _, v := range p.Values() {
				params := make(map[string]any, len(base)+1)
				for k, bv := range base {
					params[k] = bv
				}
				if p.Integer {
					params[p.Name] = int(math.Round(v))
				} else {
					params[p.Name] = v
				}
				next = append(next, params)
			}
		}
		sets = next
	}
	return sets
}
