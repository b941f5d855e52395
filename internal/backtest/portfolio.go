package backtest

import (
	"math"

	"github.com/marketcalls/quantbt/internal/core"
)

// Simulate replays cleaned entry/exit flags against the bar series and
// returns the executed trades and the mark-to-market equity curve.
//
// Long-only, one position at a time. Entries buy whole shares worth
// Size of current equity at the bar close adjusted up by slippage;
// exits sell the full position at the close adjusted down. Percentage
// and fixed fees are charged on every fill. A position still open on
// the last bar is marked to its close and reported with Closed=false.
func Simulate(bars []core.OHLCV, entries, exits []bool, spec PortfolioSpec) ([]Trade, []EquityPoint) {
	if len(bars) == 0 {
		return nil, nil
	}

	cash := spec.InitCash
	var shares float64
	var open *Trade

	var trades []Trade
	equity := make([]EquityPoint, 0, len(bars))

	for i, bar := range bars {
		// Exit before entry so a flat day cannot double-fill
		if i < len(exits) && exits[i] && shares > 0 {
			fill := bar.Close * (1 - spec.Slippage)
			proceeds := shares * fill
			fee := proceeds*spec.Fees + spec.FixedFee
			cash += proceeds - fee

			open.ExitTime = bar.Time
			open.ExitPrice = fill
			open.Fees += fee
			open.PnL = proceeds - fee - open.Shares*open.EntryPrice - (open.Fees - fee)
			open.Return = open.PnL / (open.Shares * open.EntryPrice)
			open.Closed = true
			trades = append(trades, *open)

			shares = 0
			open = nil
		}

		if i < len(entries) && entries[i] && shares == 0 {
			fill := bar.Close * (1 + spec.Slippage)
			budget := cash * spec.Size
			qty := math.Floor(budget / fill)
			cost := qty * fill
			fee := cost*spec.Fees + spec.FixedFee
			if qty >= 1 && cost+fee <= cash {
				cash -= cost + fee
				shares = qty
				open = &Trade{
					Symbol:     bar.Symbol,
					EntryTime:  bar.Time,
					EntryPrice: fill,
					Shares:     qty,
					Fees:       fee,
				}
			}
		}

		equity = append(equity, EquityPoint{
			Time:     bar.Time,
			Equity:   cash + shares*bar.Close,
			InMarket: shares > 0,
		})
	}

	if open != nil {
		last := bars[len(bars)-1]
		open.ExitTime = last.Time
		open.ExitPrice = last.Close
		open.PnL = shares*last.Close - open.Fees - shares*open.EntryPrice
		open.Return = open.PnL / (open.Shares * open.EntryPrice)
		trades = append(trades, *open)
	}

	return trades, equity
}
