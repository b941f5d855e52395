package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
)

var tradeHeader = []string{
	"entry_time", "exit_time", "entry_price", "exit_price",
	"shares", "fees", "pnl", "return_pct", "closed",
}

// WriteTrades writes the trade list as CSV
func WriteTrades(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}

	for _, t := range trades {
		exit := t.ExitTime.Format("2006-01-02")
		if !t.Closed {
			exit = ""
		}
		record := []string{
			t.EntryTime.Format("2006-01-02"),
			exit,
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.0f", t.Shares),
			fmt.Sprintf("%.4f", t.Fees),
			fmt.Sprintf("%.4f", t.PnL),
			fmt.Sprintf("%.4f", t.Return*100),
			fmt.Sprintf("%t", t.Closed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportTrades writes the trade list of a run to a CSV file
func ExportTrades(path string, r *backtest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return core.WrapError(core.ErrBacktestFailed, fmt.Errorf("creating trade export: %w", err))
	}
	defer f.Close()

	if err := WriteTrades(f, r.Trades); err != nil {
		return core.WrapError(core.ErrBacktestFailed, fmt.Errorf("writing trade export: %w", err))
	}
	return nil
}
