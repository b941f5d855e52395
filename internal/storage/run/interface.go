// Package run keeps completed backtest results available for listing
// and retrieval, e.g. by the HTTP API.
package run

import (
	"context"
	"time"

	"github.com/marketcalls/quantbt/internal/backtest"
)

// Store defines the interface for run persistence.
type Store interface {
	// Save persists a completed run.
	Save(ctx context.Context, result *backtest.Result) error

	// Get retrieves a run by its ID.
	Get(ctx context.Context, id string) (*backtest.Result, error)

	// List retrieves runs matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*backtest.Result, error)

	// Count returns the number of runs matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing runs.
type ListFilter struct {
	Symbol   string
	Strategy string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
