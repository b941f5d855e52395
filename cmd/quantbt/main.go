package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "quantbt",
	Short: "QuantBT - vectorized strategy backtesting",
	Long: `QuantBT backtests trading strategies against historical OHLCV data.
It supports parameter optimization, walk-forward analysis and Monte Carlo
robustness testing, with data from OpenAlgo, Binance or local CSV files.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
