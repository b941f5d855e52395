package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/logger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived backtest runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived run IDs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the archived result for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	arch, err := newArchiver(cfg)
	if err != nil {
		return err
	}

	ids, err := arch.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no archived runs")
		return nil
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	arch, err := newArchiver(cfg)
	if err != nil {
		return err
	}

	data, err := arch.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
