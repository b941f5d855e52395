package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/report"
)

var (
	mcRuns     int
	mcSeed     int64
	mcResample bool
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo [strategy]",
	Short: "Monte Carlo robustness test",
	Long: `Run a backtest, then reshuffle its trade sequence many times to see how
sensitive the equity outcome is to trade ordering. Wide percentile spreads or
a low probability of profit indicate results driven by a few lucky trades.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonteCarlo,
}

func init() {
	montecarloCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	montecarloCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols")
	montecarloCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	montecarloCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	montecarloCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval")
	montecarloCmd.Flags().StringArrayVar(&backtestParams, "param", nil, "Strategy parameter as key=value (repeatable)")
	montecarloCmd.Flags().IntVar(&mcRuns, "runs", 0, "Number of reshuffles (defaults from config)")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "Random seed, 0 derives one from the clock")
	montecarloCmd.Flags().BoolVar(&mcResample, "resample", false, "Bootstrap with replacement instead of shuffling")

	montecarloCmd.MarkFlagRequired("symbol")
	montecarloCmd.MarkFlagRequired("from")
	montecarloCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(montecarloCmd)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	result, err := executeBacktest(cmd.Context(), log, cfg, args[0])
	if err != nil {
		return err
	}

	runs := mcRuns
	if runs == 0 {
		runs = cfg.MonteCarlo.Runs
	}
	seed := mcSeed
	if seed == 0 {
		seed = cfg.MonteCarlo.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var mc *backtest.MonteCarloResult
	if mcResample {
		mc, err = backtest.MonteCarloResample(result, runs, seed)
	} else {
		mc, err = backtest.MonteCarlo(result, runs, seed)
	}
	if err != nil {
		return err
	}

	fmt.Print(report.RenderQuick(result))
	fmt.Println()
	fmt.Print(report.RenderMonteCarlo(mc))
	return nil
}
