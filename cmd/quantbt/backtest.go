package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/advisor"
	"github.com/marketcalls/quantbt/internal/advisor/factory"
	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/config"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/notify/webhook"
	"github.com/marketcalls/quantbt/internal/report"
)

var (
	backtestSymbol   string
	backtestExchange string
	backtestFrom     string
	backtestTo       string
	backtestInterval string
	backtestParams   []string
	backtestExport   string
	backtestSave     bool
	backtestAnalyze  bool
	backtestNotify   bool

	// Portfolio overrides, negative means "use config"
	backtestCash     float64
	backtestSize     float64
	backtestFees     float64
	backtestSlippage float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a strategy backtest",
	Long:  "Run a strategy against historical data and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestExchange, "exchange", "", "Exchange for OpenAlgo symbols (e.g. NSE, NSE_INDEX)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "Bar interval (1m, 5m, 15m, 1h, 1d)")
	backtestCmd.Flags().StringArrayVar(&backtestParams, "param", nil, "Strategy parameter as key=value (repeatable)")
	backtestCmd.Flags().StringVar(&backtestExport, "export-trades", "", "Write the trade list to a CSV file")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "Archive the full result")
	backtestCmd.Flags().BoolVar(&backtestAnalyze, "analyze", false, "Ask the configured advisor to review the result")
	backtestCmd.Flags().BoolVar(&backtestNotify, "notify", false, "Send a run summary to the configured webhooks")
	backtestCmd.Flags().Float64Var(&backtestCash, "cash", -1, "Initial cash, overrides config")
	backtestCmd.Flags().Float64Var(&backtestSize, "size", -1, "Fraction of equity per entry, overrides config")
	backtestCmd.Flags().Float64Var(&backtestFees, "fees", -1, "Fee fraction per side, overrides config")
	backtestCmd.Flags().Float64Var(&backtestSlippage, "slippage", -1, "Slippage fraction, overrides config")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
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

	fmt.Print(report.Render(result))

	if backtestExport != "" {
		if err := report.ExportTrades(backtestExport, result); err != nil {
			return fmt.Errorf("exporting trades: %w", err)
		}
		fmt.Printf("\nTrades written to %s\n", backtestExport)
	}

	if backtestSave {
		arch, err := newArchiver(cfg)
		if err != nil {
			return err
		}
		if err := arch.SaveRun(cmd.Context(), result); err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		fmt.Printf("\nRun archived as %s\n", result.ID)
	}

	if backtestAnalyze {
		provider, err := factory.New(cfg.Advisor)
		if err != nil {
			return fmt.Errorf("creating advisor: %w", err)
		}
		review, err := advisor.New(provider).Review(cmd.Context(), result)
		if err != nil {
			return fmt.Errorf("advisor review: %w", err)
		}
		fmt.Printf("\nAdvisor Review\n--------------\n%s\n", review)
	}

	if backtestNotify {
		for name, nc := range cfg.Notifiers {
			if !nc.Enabled {
				continue
			}
			wh, err := webhook.New(nc.URL, nc.Headers)
			if err != nil {
				return fmt.Errorf("notifier %q: %w", name, err)
			}
			if err := wh.NotifyRun(cmd.Context(), result); err != nil {
				log.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
				continue
			}
			fmt.Printf("\nNotified %s\n", name)
		}
	}

	return nil
}

// executeBacktest wires the provider and strategy together and runs a
// single backtest from the shared command-line flags. The backtest,
// quickstats, compare and montecarlo commands all funnel through here.
func executeBacktest(ctx context.Context, log *zap.Logger, cfg *config.Config, strategyName string) (*backtest.Result, error) {
	start, end, err := parseDateRange(backtestFrom, backtestTo)
	if err != nil {
		return nil, err
	}

	params, err := parseParams(backtestParams)
	if err != nil {
		return nil, err
	}

	prov, err := newProvider(cfg, backtestExchange)
	if err != nil {
		return nil, err
	}

	engine := newEngine(log)
	strat, err := engine.New(strategyName, params)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", strategyName, err)
	}

	spec := specFromConfig(cfg)
	if backtestCash > 0 {
		spec.InitCash = backtestCash
	}
	if backtestSize > 0 {
		spec.Size = backtestSize
	}
	if backtestFees >= 0 {
		spec.Fees = backtestFees
	}
	if backtestSlippage >= 0 {
		spec.Slippage = backtestSlippage
	}

	bt := backtest.New(prov, log)
	return bt.Run(ctx, backtest.Request{
		Strategy: strat,
		Symbol:   backtestSymbol,
		Start:    start,
		End:      end,
		Interval: backtestInterval,
		Spec:     spec,
		Params:   params,
	})
}
