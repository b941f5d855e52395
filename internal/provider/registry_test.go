package provider

import (
	"testing"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) FetchQuote(symbol string) (*core.Quote, error) {
	return &core.Quote{Symbol: symbol, Price: 1}, nil
}
func (s *stubProvider) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	r.Register(&stubProvider{name: "openalgo"})
	r.Register(&stubProvider{name: "binance"})

	p, ok := r.Get("openalgo")
	if !ok {
		t.Fatal("expected to find openalgo")
	}
	if p.Name() != "openalgo" {
		t.Errorf("Name() = %s, want openalgo", p.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("unexpected provider for unknown name")
	}

	names := r.Names()
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %d", len(names))
	}
}

func TestRegistry_ReplaceOnSameName(t *testing.T) {
	r := NewRegistry()
	first := &stubProvider{name: "openalgo"}
	second := &stubProvider{name: "openalgo"}

	r.Register(first)
	r.Register(second)

	p, _ := r.Get("openalgo")
	if p != Provider(second) {
		t.Error("expected later registration to win")
	}
	if len(r.Names()) != 1 {
		t.Errorf("expected 1 name, got %d", len(r.Names()))
	}
}
