package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marketcalls/quantbt/internal/logger"
)

var setupInit bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check configuration and list available components",
	Long:  "Validate the configuration file, report credential status and list the available providers and strategies",
	RunE:  runSetup,
}

const starterConfig = `provider:
  name: openalgo
  openalgo:
    host: ${OPENALGO_HOST}
    api_key: ${OPENALGO_API_KEY}

portfolio:
  init_cash: 1000000
  size: 0.75
  fees: 0.001
  slippage: 0

walkforward:
  train_days: 180
  test_days: 30

montecarlo:
  runs: 1000

archive:
  type: localfs
  path: archive

server:
  host: 0.0.0.0
  port: 8080

metrics:
  enabled: true
`

func init() {
	setupCmd.Flags().BoolVar(&setupInit, "init", false, "Write a starter quantbt.yaml in the current directory")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	if setupInit {
		if _, err := os.Stat("quantbt.yaml"); err == nil {
			return fmt.Errorf("quantbt.yaml already exists, not overwriting")
		}
		if err := os.WriteFile("quantbt.yaml", []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing quantbt.yaml: %w", err)
		}
		fmt.Println("wrote quantbt.yaml")
		fmt.Println()
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	fmt.Println("Configuration")
	fmt.Println("-------------")
	if cfgFile != "" {
		fmt.Printf("config file      : %s\n", cfgFile)
	} else {
		fmt.Println("config file      : (defaults)")
	}
	fmt.Printf("provider         : %s\n", cfg.Provider.Name)
	fmt.Printf("init cash        : %.0f\n", cfg.Portfolio.InitCash)
	fmt.Printf("position size    : %.2f\n", cfg.Portfolio.Size)
	fmt.Printf("fees per side    : %.4f\n", cfg.Portfolio.Fees)
	fmt.Printf("archive          : %s\n", cfg.Archive.Type)

	fmt.Println()
	fmt.Println("Credentials")
	fmt.Println("-----------")
	fmt.Printf("OPENALGO_API_KEY : %s\n", credentialStatus(cfg.Provider.OpenAlgo.APIKey, os.Getenv("OPENALGO_API_KEY")))
	fmt.Printf("OPENALGO_HOST    : %s\n", credentialStatus(cfg.Provider.OpenAlgo.Host, os.Getenv("OPENALGO_HOST")))
	if cfg.Advisor.Provider != "" {
		fmt.Printf("advisor          : %s (configured)\n", cfg.Advisor.Provider)
	} else {
		fmt.Println("advisor          : not configured")
	}

	fmt.Println()
	fmt.Println("Providers")
	fmt.Println("---------")
	for _, name := range []string{"openalgo", "binance", "csvfile"} {
		marker := " "
		if name == cfg.Provider.Name || (cfg.Provider.Name == "" && name == "openalgo") {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}

	fmt.Println()
	fmt.Println("Strategies")
	fmt.Println("----------")
	engine := newEngine(log)
	names := engine.Names()
	sort.Strings(names)
	for _, name := range names {
		desc := ""
		if strat, err := engine.New(name, nil); err == nil {
			desc = strat.Description()
		}
		fmt.Printf("  %-15s %s\n", name, desc)
	}

	return nil
}

func credentialStatus(configured, env string) string {
	switch {
	case configured != "":
		return "set"
	case env != "":
		return "set (env)"
	default:
		return "missing"
	}
}
