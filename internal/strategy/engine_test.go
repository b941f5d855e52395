package strategy

import (
	"errors"
	"testing"

	"github.com/marketcalls/quantbt/internal/core"
)

type stubStrategy struct {
	name     string
	lookback int
}

func (s *stubStrategy) Name() string        { return s.name }
func (s *stubStrategy) Description() string { return "stub" }
func (s *stubStrategy) RequiredData() DataRequirements {
	return DataRequirements{PriceHistory: s.lookback}
}
func (s *stubStrategy) Init(cfg Config) error { return nil }
func (s *stubStrategy) Analyze(ctx AnalysisContext) ([]core.Signal, error) {
	return nil, nil
}

func TestEngine_RegisterAndGet(t *testing.T) {
	e := NewEngine()
	e.Register(&stubStrategy{name: "alpha"})

	s, ok := e.Get("alpha")
	if !ok {
		t.Fatal("expected to find alpha")
	}
	if s.Name() != "alpha" {
		t.Errorf("Name() = %s, want alpha", s.Name())
	}

	if _, ok := e.Get("missing"); ok {
		t.Error("unexpected strategy for unknown name")
	}
}

func TestEngine_Factory(t *testing.T) {
	e := NewEngine()
	e.RegisterFactory("alpha", func(params map[string]any) (Strategy, error) {
		return &stubStrategy{name: "alpha", lookback: IntParam(params, "lookback", 10)}, nil
	})

	s, err := e.New("alpha", map[string]any{"lookback": 42})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.RequiredData().PriceHistory != 42 {
		t.Errorf("PriceHistory = %d, want 42", s.RequiredData().PriceHistory)
	}
}

func TestEngine_New_Unregistered(t *testing.T) {
	e := NewEngine()
	_, err := e.New("ghost", nil)
	if !errors.Is(err, core.ErrStrategyNotFound) {
		t.Errorf("error = %v, want STRATEGY_NOT_FOUND", err)
	}
}

func TestEngine_Names(t *testing.T) {
	e := NewEngine()
	e.RegisterFactory("a", func(map[string]any) (Strategy, error) { return &stubStrategy{name: "a"}, nil })
	e.RegisterFactory("b", func(map[string]any) (Strategy, error) { return &stubStrategy{name: "b"}, nil })

	if got := len(e.Names()); got != 2 {
		t.Errorf("expected 2 names, got %d", got)
	}
}

func TestIntParam(t *testing.T) {
	params := map[string]any{
		"as_int":   5,
		"as_int64": int64(6),
		"as_float": 7.0,
		"bad":      "nope",
	}

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{"as_int", 0, 5},
		{"as_int64", 0, 6},
		{"as_float", 0, 7},
		{"bad", 3, 3},
		{"missing", 9, 9},
	}

	for _, tt := range tests {
		if got := IntParam(params, tt.key, tt.def); got != tt.want {
			t.Errorf("IntParam(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestFloatParam(t *testing.T) {
	params := map[string]any{
		"as_float": 2.5,
		"as_int":   3,
	}

	if got := FloatParam(params, "as_float", 0); got != 2.5 {
		t.Errorf("FloatParam(as_float) = %f, want 2.5", got)
	}
	if got := FloatParam(params, "as_int", 0); got != 3.0 {
		t.Errorf("FloatParam(as_int) = %f, want 3.0", got)
	}
	if got := FloatParam(params, "missing", 1.5); got != 1.5 {
		t.Errorf("FloatParam(missing) = %f, want 1.5", got)
	}
}
