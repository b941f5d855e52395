package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/api"
	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/logger"
	"github.com/marketcalls/quantbt/internal/metrics"
	"github.com/marketcalls/quantbt/internal/provider"
	"github.com/marketcalls/quantbt/internal/storage/run"
)

const runStoreSize = 500

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backtest HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	prov, err := newProvider(cfg, "")
	if err != nil {
		return err
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	server := api.NewServer(api.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Spec: specFromConfig(cfg),
	}, newEngine(log), backtest.New(provider.Instrument(prov, registry), log), run.NewMemoryStore(runStoreSize), registry, log)

	log.Info("starting quantbt server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", prov.Name()),
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
