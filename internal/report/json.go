package report

import (
	"encoding/json"
	"time"

	"github.com/marketcalls/quantbt/internal/backtest"
)

// ResultJSON is the serialized form of a run, stable across releases
// so archived results stay readable.
type ResultJSON struct {
	ID        string         `json:"id"`
	Strategy  string         `json:"strategy"`
	Symbol    string         `json:"symbol"`
	Interval  string         `json:"interval,omitempty"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Params    map[string]any `json:"params,omitempty"`
	Stats     backtest.Stats `json:"stats"`
	Trades    []TradeJSON    `json:"trades"`
	Equity    []EquityJSON   `json:"equity,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type TradeJSON struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     float64   `json:"shares"`
	Fees       float64   `json:"fees"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"return_pct"`
	Closed     bool      `json:"closed"`
}

type EquityJSON struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// ToJSON converts a run into its serialized form
func ToJSON(r *backtest.Result, includeEquity bool) ResultJSON {
	out := ResultJSON{
		ID:        r.ID,
		Strategy:  r.Strategy,
		Symbol:    r.Symbol,
		Interval:  r.Interval,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Params:    r.Params,
		Stats:     r.Stats,
		CreatedAt: r.CreatedAt,
		Trades:    make([]TradeJSON, 0, len(r.Trades)),
	}

	for _, t := range r.Trades {
		out.Trades = append(out.Trades, TradeJSON{
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Shares:     t.Shares,
			Fees:       t.Fees,
			PnL:        t.PnL,
			ReturnPct:  t.Return * 100,
			Closed:     t.Closed,
		})
	}

	if includeEquity {
		out.Equity = make([]EquityJSON, 0, len(r.Equity))
		for _, p := range r.Equity {
			out.Equity = append(out.Equity, EquityJSON{Time: p.Time, Equity: p.Equity})
		}
	}

	return out
}

// Marshal serializes a run to indented JSON
func Marshal(r *backtest.Result, includeEquity bool) ([]byte, error) {
	return json.MarshalIndent(ToJSON(r, includeEquity), "", "  ")
}
