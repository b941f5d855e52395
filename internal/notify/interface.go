// Package notify pushes run completion events to external sinks.
package notify

import (
	"context"

	"github.com/marketcalls/quantbt/internal/backtest"
)

// Notifier delivers a completed run summary to an external endpoint.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// NotifyRun sends a run completion event
	NotifyRun(ctx context.Context, result *backtest.Result) error
}
