// Package report renders backtest results as text, CSV and JSON.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/marketcalls/quantbt/internal/backtest"
)

const rule = "=================================================="

// Render produces the full text report for a single run: header, key
// metrics and the trade list.
func Render(r *backtest.Result) string {
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, " %s BACKTEST RESULTS\n", strings.ToUpper(r.Strategy))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run ID           : %s\n", r.ID)
	fmt.Fprintf(&b, "Symbol           : %s\n", r.Symbol)
	fmt.Fprintf(&b, "Period           : %s to %s\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	if len(r.Params) > 0 {
		fmt.Fprintf(&b, "Parameters       : %s\n", formatParams(r.Params))
	}
	fmt.Fprintln(&b)

	s := r.Stats
	fmt.Fprintf(&b, "Start Value      : %.2f\n", s.StartValue)
	fmt.Fprintf(&b, "End Value        : %.2f\n", s.EndValue)
	fmt.Fprintf(&b, "Total Return [%%] : %.2f\n", s.TotalReturn)
	fmt.Fprintf(&b, "CAGR [%%]         : %.2f\n", s.CAGR)
	fmt.Fprintf(&b, "Sharpe Ratio     : %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio    : %s\n", formatRatio(s.SortinoRatio))
	fmt.Fprintf(&b, "Calmar Ratio     : %.2f\n", s.CalmarRatio)
	fmt.Fprintf(&b, "Max Drawdown [%%] : %.2f\n", s.MaxDrawdown)
	fmt.Fprintf(&b, "Exposure [%%]     : %.2f\n", s.Exposure)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Total Trades     : %d\n", s.TotalTrades)
	fmt.Fprintf(&b, "Win Rate [%%]     : %.2f\n", s.WinRate)
	fmt.Fprintf(&b, "Profit Factor    : %s\n", formatRatio(s.ProfitFactor))
	fmt.Fprintf(&b, "Expectancy       : %.2f\n", s.Expectancy)
	fmt.Fprintf(&b, "Avg Win / Loss   : %.2f / %.2f\n", s.AvgWin, s.AvgLoss)
	fmt.Fprintf(&b, "Total Fees       : %.2f\n", s.TotalFees)

	if len(r.Trades) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Trades:")
		w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  #\tENTRY\tEXIT\tSHARES\tENTRY PX\tEXIT PX\tPNL\tRETURN %")
		for i, t := range r.Trades {
			exit := t.ExitTime.Format("2006-01-02")
			if !t.Closed {
				exit = "open"
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%.0f\t%.2f\t%.2f\t%.2f\t%.2f\n",
				i+1, t.EntryTime.Format("2006-01-02"), exit,
				t.Shares, t.EntryPrice, t.ExitPrice, t.PnL, t.Return*100)
		}
		w.Flush()
	}

	return b.String()
}

// RenderQuick produces the condensed one-block summary used by the
// quick-stats command.
func RenderQuick(r *backtest.Result) string {
	var b strings.Builder
	s := r.Stats

	fmt.Fprintf(&b, "%s on %s (%s to %s)\n",
		r.Strategy, r.Symbol,
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "  Return: %.2f%%  Sharpe: %.2f  MaxDD: %.2f%%  Trades: %d  Win: %.1f%%\n",
		s.TotalReturn, s.SharpeRatio, s.MaxDrawdown, s.TotalTrades, s.WinRate)

	return b.String()
}

// RenderComparison lays out several runs side by side, one row per
// strategy, sorted the way they were passed in.
func RenderComparison(results []*backtest.Result) string {
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, " STRATEGY COMPARISON")
	fmt.Fprintln(&b, rule)
	if len(results) > 0 {
		fmt.Fprintf(&b, "Symbol : %s\n", results[0].Symbol)
		fmt.Fprintf(&b, "Period : %s to %s\n",
			results[0].StartDate.Format("2006-01-02"),
			results[0].EndDate.Format("2006-01-02"))
	}
	fmt.Fprintln(&b)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tRETURN %\tCAGR %\tSHARPE\tSORTINO\tMAX DD %\tTRADES\tWIN %\tPF")
	for _, r := range results {
		s := r.Stats
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\t%.2f\t%d\t%.1f\t%s\n",
			r.Strategy, s.TotalReturn, s.CAGR, s.SharpeRatio,
			formatRatio(s.SortinoRatio), s.MaxDrawdown,
			s.TotalTrades, s.WinRate, formatRatio(s.ProfitFactor))
	}
	w.Flush()

	if best := bestBySharpe(results); best != nil {
		fmt.Fprintf(&b, "\nBest by Sharpe: %s (%.2f)\n", best.Strategy, best.Stats.SharpeRatio)
	}

	return b.String()
}

// RenderOptimization summarizes a grid search: the winner, its
// neighborhood sensitivity and the top candidates.
func RenderOptimization(o *backtest.OptimizationResult, top int) string {
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, " OPTIMIZATION: %s on %s\n", strings.ToUpper(o.Strategy), o.Symbol)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Objective   : %s\n", objectiveLabel(o.Objective))
	fmt.Fprintf(&b, "Candidates  : %d\n", len(o.Candidates))
	fmt.Fprintf(&b, "Best Params : %s\n", formatParams(o.BestParams))
	fmt.Fprintf(&b, "Best Score  : %.4f\n", o.BestScore)
	if o.Sensitivity != nil {
		fmt.Fprintf(&b, "Sensitivity : %d neighbors, mean %.4f, worst %.4f (%.1f%% degradation)\n",
			o.Sensitivity.Neighbors, o.Sensitivity.MeanScore,
			o.Sensitivity.WorstScore, o.Sensitivity.Degradation*100)
	}
	fmt.Fprintln(&b)

	if top <= 0 || top > len(o.Candidates) {
		top = len(o.Candidates)
	}
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPARAMS\tSCORE\tRETURN %\tSHARPE\tMAX DD %\tTRADES")
	for i, c := range o.Candidates[:top] {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.2f\t%.2f\t%.2f\t%d\n",
			i+1, formatParams(c.Params), c.Score,
			c.Stats.TotalReturn, c.Stats.SharpeRatio,
			c.Stats.MaxDrawdown, c.Stats.TotalTrades)
	}
	w.Flush()

	return b.String()
}

// RenderWalkForward summarizes the per-window out-of-sample results and
// the overall stability score.
func RenderWalkForward(wf *backtest.WalkForwardResult) string {
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, " WALK-FORWARD: %s on %s\n", strings.ToUpper(wf.Strategy), wf.Symbol)
	fmt.Fprintln(&b, rule)
	mode := "rolling"
	if wf.Anchored {
		mode = "anchored"
	}
	fmt.Fprintf(&b, "Mode      : %s\n", mode)
	fmt.Fprintf(&b, "Windows   : %d\n", len(wf.Windows))
	fmt.Fprintf(&b, "Objective : %s\n", objectiveLabel(wf.Objective))
	fmt.Fprintf(&b, "Stability : %.3f\n", wf.Stability)
	fmt.Fprintln(&b)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WINDOW\tTEST PERIOD\tPARAMS\tTRAIN SCORE\tTEST SCORE\tOOS RETURN %\tTRADES")
	for i, win := range wf.Windows {
		fmt.Fprintf(w, "%d\t%s to %s\t%s\t%.4f\t%.4f\t%.2f\t%d\n",
			i+1,
			win.Window.TestStart.Format("2006-01-02"),
			win.Window.TestEnd.Format("2006-01-02"),
			formatParams(win.Params),
			win.TrainScore, win.TestScore,
			win.TestStats.TotalReturn, win.TestStats.TotalTrades)
	}
	w.Flush()

	return b.String()
}

// RenderMonteCarlo summarizes the resampling distribution.
func RenderMonteCarlo(mc *backtest.MonteCarloResult) string {
	var b strings.Builder

	method := "shuffle"
	if mc.Resampled {
		method = "bootstrap"
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, " MONTE CARLO (trade order resampling)")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Method            : %s\n", method)
	fmt.Fprintf(&b, "Runs              : %d\n", mc.Runs)
	fmt.Fprintf(&b, "Closed Trades     : %d\n", mc.Trades)
	fmt.Fprintf(&b, "Seed              : %d\n", mc.Seed)
	fmt.Fprintf(&b, "P(profit) [%%]     : %.1f\n", mc.ProbabilityOfProfit)
	fmt.Fprintln(&b)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERCENTILE\tFINAL EQUITY\tMAX DRAWDOWN %")
	for _, p := range []int{5, 25, 50, 75, 95} {
		fmt.Fprintf(w, "p%d\t%.2f\t%.2f\n", p, mc.FinalEquity[p], mc.MaxDrawdown[p])
	}
	w.Flush()

	return b.String()
}

func bestBySharpe(results []*backtest.Result) *backtest.Result {
	var best *backtest.Result
	for _, r := range results {
		if best == nil || r.Stats.SharpeRatio > best.Stats.SharpeRatio {
			best = r
		}
	}
	return best
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func objectiveLabel(name string) string {
	if name == "" {
		return "sharpe"
	}
	return name
}

// formatParams renders a parameter map with stable key ordering
func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return "(defaults)"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}
