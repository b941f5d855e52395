package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/advisor"
	"github.com/marketcalls/quantbt/internal/advisor/factory"
	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/report"
)

var compareAnalyze bool

var compareCmd = &cobra.Command{
	Use:     "compare [strategy...]",
	Aliases: []string{"strategy-compare"},
	Short:   "Backtest several strategies on the same data",
	Long:    "Run multiple strategies over the same symbol and period, then rank them side by side",
	Args:    cobra.MinimumNArgs(2),
	RunE:    runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	compareCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols")
	compareCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	compareCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	compareCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval")
	compareCmd.Flags().BoolVar(&compareAnalyze, "analyze", false, "Ask the configured advisor to review the comparison")

	compareCmd.MarkFlagRequired("symbol")
	compareCmd.MarkFlagRequired("from")
	compareCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	prov, err := newProvider(cfg, backtestExchange)
	if err != nil {
		return err
	}

	engine := newEngine(log)
	bt := backtest.New(prov, log)
	spec := specFromConfig(cfg)

	results := make([]*backtest.Result, 0, len(args))
	for _, name := range args {
		strat, err := engine.New(name, nil)
		if err != nil {
			return fmt.Errorf("strategy %q: %w", name, err)
		}

		result, err := bt.Run(cmd.Context(), backtest.Request{
			Strategy: strat,
			Symbol:   backtestSymbol,
			Start:    start,
			End:      end,
			Interval: backtestInterval,
			Spec:     spec,
		})
		if err != nil {
			return fmt.Errorf("backtesting %q: %w", name, err)
		}
		results = append(results, result)
	}

	fmt.Print(report.RenderComparison(results))

	if compareAnalyze {
		provider, err := factory.New(cfg.Advisor)
		if err != nil {
			return fmt.Errorf("creating advisor: %w", err)
		}

		review, err := advisor.New(provider).ReviewComparison(cmd.Context(), results)
		if err != nil {
			return fmt.Errorf("advisor review: %w", err)
		}
		fmt.Printf("\nAdvisor Review\n--------------\n%s\n", review)
	}

	return nil
}
