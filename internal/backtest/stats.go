package backtest

import (
	"math"
)

const tradingDaysPerYear = 252

// ComputeStats derives performance statistics from the trade list and
// equity curve of a run.
func ComputeStats(trades []Trade, equity []EquityPoint, initCash float64) Stats {
	s := Stats{StartValue: initCash}
	if len(equity) == 0 {
		s.EndValue = initCash
		return s
	}

	s.EndValue = equity[len(equity)-1].Equity
	if initCash > 0 {
		s.TotalReturn = (s.EndValue - initCash) / initCash * 100
	}

	years := equity[len(equity)-1].Time.Sub(equity[0].Time).Hours() / 24 / 365.25
	if years > 0 && initCash > 0 && s.EndValue > 0 {
		s.CAGR = (math.Pow(s.EndValue/initCash, 1/years) - 1) * 100
	}

	returns := barReturns(equity)
	s.SharpeRatio = sharpe(returns)
	s.SortinoRatio = sortino(returns)
	s.MaxDrawdown = maxDrawdown(equity) * 100
	if s.MaxDrawdown > 0 {
		s.CalmarRatio = s.CAGR / s.MaxDrawdown
	}

	var inMarket int
	for _, p := range equity {
		if p.InMarket {
			inMarket++
		}
	}
	s.Exposure = float64(inMarket) / float64(len(equity)) * 100

	var grossProfit, grossLoss, totalPnL float64
	var closed int
	for _, t := range trades {
		s.TotalFees += t.Fees
		if !t.Closed {
			s.OpenTrades++
			continue
		}
		closed++
		totalPnL += t.PnL
		if t.IsWin() {
			s.WinningTrades++
			grossProfit += t.PnL
			if t.PnL > s.LargestWin {
				s.LargestWin = t.PnL
			}
		} else {
			s.LosingTrades++
			grossLoss += -t.PnL
			if t.PnL < s.LargestLoss {
				s.LargestLoss = t.PnL
			}
		}
	}
	s.TotalTrades = len(trades)

	if closed > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(closed) * 100
		s.Expectancy = totalPnL / float64(closed)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -grossLoss / float64(s.LosingTrades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		s.ProfitFactor = math.Inf(1)
	}

	return s
}

// barReturns converts the equity curve into per-bar fractional returns
func barReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	return returns
}

// sharpe computes the annualized Sharpe ratio with a zero risk-free rate
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(tradingDaysPerYear)
}

// sortino computes the annualized Sortino ratio, penalizing only
// downside volatility
func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)

	var downside float64
	var n int
	for _, r := range returns {
		if r < 0 {
			downside += r * r
			n++
		}
	}
	if n == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	downDev := math.Sqrt(downside / float64(len(returns)))
	if downDev == 0 {
		return 0
	}

	return mean / downDev * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown finds the largest peak-to-trough decline of the equity curve
func maxDrawdown(equity []EquityPoint) float64 {
	var maxDD float64
	var peak float64

	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
