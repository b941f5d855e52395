package provider

import (
	"time"

	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/metrics"
)

// instrumented decorates a provider and counts every request by outcome.
type instrumented struct {
	Provider
	registry *metrics.Registry
}

// Instrument wraps p so that each fetch increments the provider request
// counter, labeled by provider name and outcome. A nil registry returns
// p unchanged.
func Instrument(p Provider, reg *metrics.Registry) Provider {
	if reg == nil {
		return p
	}
	return &instrumented{Provider: p, registry: reg}
}

func (p *instrumented) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	bars, err := p.Provider.FetchHistory(symbol, start, end, interval)
	p.registry.RecordProviderRequest(p.Name(), outcome(err))
	return bars, err
}

func (p *instrumented) FetchQuote(symbol string) (*core.Quote, error) {
	quote, err := p.Provider.FetchQuote(symbol)
	p.registry.RecordProviderRequest(p.Name(), outcome(err))
	return quote, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
