package backtest

import (
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

// PortfolioSpec holds the simulation parameters for a single run.
// Size is the fraction of current equity committed per entry. Fees and
// Slippage are fractions applied per side; FixedFee is a flat charge per
// fill on top of the percentage fee.
type PortfolioSpec struct {
	InitCash float64
	Size     float64
	Fees     float64
	FixedFee float64
	Slippage float64
}

// Result holds the complete backtest output
type Result struct {
	ID        string
	Strategy  string
	Symbol    string
	Interval  string
	StartDate time.Time
	EndDate   time.Time
	Params    map[string]any
	Spec      PortfolioSpec
	Signals   []core.Signal
	Trades    []Trade
	Equity    []EquityPoint
	Stats     Stats
	Duration  time.Duration
	CreatedAt time.Time
}

// Trade represents a simulated round trip. Open positions at the end of
// the run are marked to the last close with Closed=false.
type Trade struct {
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Shares     float64
	Fees       float64
	PnL        float64
	Return     float64 // Fractional return on entry notional, net of fees
	Closed     bool
}

// IsWin returns true if the trade was profitable net of fees
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint is one bar of the mark-to-market equity curve
type EquityPoint struct {
	Time     time.Time
	Equity   float64
	InMarket bool
}

// Stats holds performance statistics
type Stats struct {
	StartValue    float64
	EndValue      float64
	TotalReturn   float64 // Net return percentage
	CAGR          float64 // Annualized growth percentage
	SharpeRatio   float64 // Risk-adjusted return (annualized, rf=0)
	SortinoRatio  float64 // Downside risk-adjusted return
	CalmarRatio   float64 // CAGR over max drawdown
	MaxDrawdown   float64 // Largest peak-to-trough equity decline, percentage
	WinRate       float64 // Percentage of profitable closed trades
	ProfitFactor  float64 // Gross profit over gross loss
	Expectancy    float64 // Mean PnL per closed trade
	AvgWin        float64
	AvgLoss       float64
	LargestWin    float64
	LargestLoss   float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	OpenTrades    int
	TotalFees     float64
	Exposure      float64 // Percentage of bars with an open position
}
