package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/report"
)

var (
	wfTrainDays int
	wfTestDays  int
	wfAnchored  bool
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward [strategy]",
	Short: "Run walk-forward analysis",
	Long: `Split the period into train/test windows, pick the best parameters on
each training slice and measure them out-of-sample. High stability means the
fitted parameters keep working after the fitting period.`,
	Args: cobra.ExactArgs(1),
	RunE: runWalkForward,
}

func init() {
	walkforwardCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	walkforwardCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols")
	walkforwardCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	walkforwardCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	walkforwardCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval")
	walkforwardCmd.Flags().StringArrayVar(&optimizeGrid, "param-range", nil, "Parameter range as name=min:max:step[:int] (repeatable, required)")
	walkforwardCmd.Flags().StringVar(&optimizeObjective, "objective", "sharpe", "Objective to maximize")
	walkforwardCmd.Flags().IntVar(&wfTrainDays, "train-days", 0, "Training window length in days (defaults from config)")
	walkforwardCmd.Flags().IntVar(&wfTestDays, "test-days", 0, "Test window length in days (defaults from config)")
	walkforwardCmd.Flags().BoolVar(&wfAnchored, "anchored", false, "Keep the training start fixed instead of rolling")

	walkforwardCmd.MarkFlagRequired("symbol")
	walkforwardCmd.MarkFlagRequired("from")
	walkforwardCmd.MarkFlagRequired("to")
	walkforwardCmd.MarkFlagRequired("param-range")

	rootCmd.AddCommand(walkforwardCmd)
}

func runWalkForward(cmd *cobra.Command, args []string) error {
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

	trainDays := wfTrainDays
	if trainDays == 0 {
		trainDays = cfg.WalkForward.TrainDays
	}
	testDays := wfTestDays
	if testDays == 0 {
		testDays = cfg.WalkForward.TestDays
	}
	anchored := wfAnchored || cfg.WalkForward.Anchored

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
	result, err := opt.WalkForward(cmd.Context(), backtest.WalkForwardRequest{
		StrategyName: args[0],
		Symbol:       backtestSymbol,
		Start:        start,
		End:          end,
		Interval:     backtestInterval,
		Spec:         specFromConfig(cfg),
		Grid:         grid,
		Objective:    optimizeObjective,
		TrainDays:    trainDays,
		TestDays:     testDays,
		Anchored:     anchored,
	})
	if err != nil {
		return err
	}

	fmt.Print(report.RenderWalkForward(result))
	return nil
}
