package provider

import (
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

// Provider defines the interface for market data sources
type Provider interface {
	// Name returns the provider identifier (e.g., "openalgo", "binance")
	Name() string

	// FetchQuote fetches a real-time quote for a symbol
	FetchQuote(symbol string) (*core.Quote, error)

	// FetchHistory fetches historical OHLCV data, sorted ascending by time.
	// interval: "1m", "5m", "15m", "1h", "1d"
	FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
