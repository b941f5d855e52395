package backtest

import (
	"math/rand"
	"sort"

	"github.com/marketcalls/quantbt/internal/core"
)

// MonteCarloResult summarizes the distribution of outcomes from
// resampling the order of a run's closed trades. The percentile maps
// are keyed 5, 25, 50, 75, 95.
type MonteCarloResult struct {
	Runs                int
	Trades              int
	FinalEquity         map[int]float64
	MaxDrawdown         map[int]float64
	ProbabilityOfProfit float64
	Seed                int64
	Resampled           bool
}

var mcPercentiles = []int{5, 25, 50, 75, 95}

// MonteCarlo shuffles the sequence of closed trade returns and replays
// each permutation against the starting capital. Trade PnL percentages
// are preserved; only their order changes, so the spread of final
// equities and drawdowns shows how much the headline result depends on
// trade ordering.
func MonteCarlo(result *Result, runs int, seed int64) (*MonteCarloResult, error) {
	return monteCarlo(result, runs, seed, false)
}

// MonteCarloResample draws bootstrap samples of the closed trade returns
// with replacement instead of permuting them. Unlike a pure shuffle this
// also varies which trades occur, so the bands are wider.
func MonteCarloResample(result *Result, runs int, seed int64) (*MonteCarloResult, error) {
	return monteCarlo(result, runs, seed, true)
}

func monteCarlo(result *Result, runs int, seed int64, resample bool) (*MonteCarloResult, error) {
	returns := closedReturns(result.Trades)
	if len(returns) < 2 {
		return nil, core.ErrNoTrades
	}
	if runs <= 0 {
		runs = 1000
	}

	rng := rand.New(rand.NewSource(seed))
	size := result.Spec.Size
	if size <= 0 || size > 1 {
		size = 1
	}

	finals := make([]float64, 0, runs)
	drawdowns := make([]float64, 0, runs)
	var profitable int

	sequence := make([]float64, len(returns))
	for run := 0; run < runs; run++ {
		if resample {
			for i := range sequence {
				sequence[i] = returns[rng.Intn(len(returns))]
			}
		} else {
			copy(sequence, returns)
			rng.Shuffle(len(sequence), func(i, j int) {
				sequence[i], sequence[j] = sequence[j], sequence[i]
			})
		}

		equity := result.Spec.InitCash
		peak := equity
		var maxDD float64
		for _, r := range sequence {
			// Each trade risks the configured fraction of equity
			equity += equity * size * r
			if equity > peak {
				peak = equity
			}
			if peak > 0 {
				dd := (peak - equity) / peak
				if dd > maxDD {
					maxDD = dd
				}
			}
		}

		finals = append(finals, equity)
		drawdowns = append(drawdowns, maxDD*100)
		if equity > result.Spec.InitCash {
			profitable++
		}
	}

	return &MonteCarloResult{
		Runs:                runs,
		Trades:              len(returns),
		FinalEquity:         percentiles(finals),
		MaxDrawdown:         percentiles(drawdowns),
		ProbabilityOfProfit: float64(profitable) / float64(runs) * 100,
		Seed:                seed,
		Resampled:           resample,
	}, nil
}

func closedReturns(trades []Trade) []float64 {
	var out []float64
	for _, t := range trades {
		if t.Closed {
			out = append(out, t.Return)
		}
	}
	return out
}

func percentiles(values []float64) map[int]float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	out := make(map[int]float64, len(mcPercentiles))
	for _, p := range mcPercentiles {
		idx := int(float64(p) / 100 * float64(len(sorted)-1))
		out[p] = sorted[idx]
	}
	return out
}
