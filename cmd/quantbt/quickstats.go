package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/report"
)

var quickstatsCmd = &cobra.Command{
	Use:     "quick-stats [strategy]",
	Aliases: []string{"quickstats"},
	Short:   "Run a backtest and print a condensed summary",
	Args:    cobra.ExactArgs(1),
	RunE:    runQuickstats,
}

func init() {
	quickstatsCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	quickstatsCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols")
	quickstatsCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	quickstatsCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	quickstatsCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval")
	quickstatsCmd.Flags().StringArrayVar(&backtestParams, "param", nil, "Strategy parameter as key=value (repeatable)")

	quickstatsCmd.MarkFlagRequired("symbol")
	quickstatsCmd.MarkFlagRequired("from")
	quickstatsCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(quickstatsCmd)
}

func runQuickstats(cmd *cobra.Command, args []string) error {
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

	fmt.Print(report.RenderQuick(result))
	return nil
}
