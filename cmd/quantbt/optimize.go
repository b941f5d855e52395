package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/report"
)

var (
	optimizeGrid      []string
	optimizeObjective string
	optimizeTop       int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [strategy]",
	Short: "Grid-search strategy parameters",
	Long: `Evaluate a strategy across a parameter grid and rank candidates by an
objective (sharpe, sortino, calmar, return, profit_factor; profit-factor
is accepted too). Ranges use name=min:max:step, with an optional :int
suffix for integer parameters:

  quantbt optimize rsi_threshold --symbol NIFTY --from 2023-01-01 --to 2024-01-01 \
    --param-range buy_below=20:40:5 --param-range exit_above=60:80:5`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	optimizeCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols")
	optimizeCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	optimizeCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	optimizeCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval")
	optimizeCmd.Flags().StringArrayVar(&optimizeGrid, "param-range", nil, "Parameter range as name=min:max:step[:int] (repeatable, required)")
	optimizeCmd.Flags().StringVar(&optimizeObjective, "objective", "sharpe", "Objective to maximize")
	optimizeCmd.Flags().IntVar(&optimizeTop, "top", 10, "Number of candidates to show")

	optimizeCmd.MarkFlagRequired("symbol")
	optimizeCmd.MarkFlagRequired("from")
	optimizeCmd.MarkFlagRequired("to")
	optimizeCmd.MarkFlagRequired("param-range")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	start, end, err := parseDateRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	grid, err := parseGrid(optimizeGrid)
	if err != nil {
		return err
	}

	prov, err := newProvider(cfg, backtestExchange)
	if err != nil {
		return err
	}

	engine := newEngine(log)
	factory, err := engine.Factory(args[0])
	if err != nil {
		return fmt.Errorf("strategy %q: %w", args[0], err)
	}

	opt := backtest.NewOptimizer(backtest.New(prov, log), factory, log)
	result, err := opt.Optimize(cmd.Context(), backtest.OptimizeRequest{
		StrategyName: args[0],
		Symbol:       backtestSymbol,
		Start:        start,
		End:          end,
		Interval:     backtestInterval,
		Spec:         specFromConfig(cfg),
		Grid:         grid,
		Objective:    optimizeObjective,
	})
	if err != nil {
		return err
	}

	fmt.Print(report.RenderOptimization(result, optimizeTop))
	return nil
}
