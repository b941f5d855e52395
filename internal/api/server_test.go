package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/metrics"
	"github.com/marketcalls/quantbt/internal/provider"
	"github.com/marketcalls/quantbt/internal/storage/run"
	"github.com/marketcalls/quantbt/internal/strategy"
)

type fixedProvider struct {
	bars []core.OHLCV
	err  error
}

func (p *fixedProvider) Name() string { return "fixed" }

func (p *fixedProvider) FetchQuote(symbol string) (*core.Quote, error) {
	return nil, core.ErrNoData
}

func (p *fixedProvider) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	return p.bars, p.err
}

type crossStrategy struct {
	threshold float64
}

func (s *crossStrategy) Name() string        { return "cross" }
func (s *crossStrategy) Description() string { return "Buys above a fixed threshold" }
func (s *crossStrategy) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{PriceHistory: 1}
}
func (s *crossStrategy) Init(cfg strategy.Config) error { return nil }
func (s *crossStrategy) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	close := ctx.OHLCV[len(ctx.OHLCV)-1].Close
	if close > s.threshold {
		return []core.Signal{{Symbol: ctx.Symbol, Action: core.ActionBuy}}, nil
	}
	return []core.Signal{{Symbol: ctx.Symbol, Action: core.ActionSell}}, nil
}

func testBars(closes ...float64) []core.OHLCV {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = core.OHLCV{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func newTestServer(t *testing.T, bars []core.OHLCV) (*Server, run.Store) {
	t.Helper()

	engine := strategy.NewEngine()
	engine.RegisterFactory("cross", func(params map[string]any) (strategy.Strategy, error) {
		return &crossStrategy{threshold: strategy.FloatParam(params, "threshold", 100)}, nil
	})

	registry := metrics.NewRegistry()
	bt := backtest.New(provider.Instrument(&fixedProvider{bars: bars}, registry))
	store := run.NewMemoryStore(100)

	srv := NewServer(Config{
		Host: "127.0.0.1",
		Port: 0,
		Spec: backtest.PortfolioSpec{InitCash: 10000, Size: 0.75, Fees: 0.001},
	}, engine, bt, store, registry, zap.NewNop())

	return srv, store
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("strategies = %d, want 1", len(resp.Data))
	}
	if resp.Data[0].Name != "cross" {
		t.Errorf("name = %s", resp.Data[0].Name)
	}
	if resp.Data[0].Description == "" {
		t.Error("expected description")
	}
}

func TestBacktestEndpoint(t *testing.T) {
	srv, store := newTestServer(t, testBars(90, 110, 120, 95, 90))

	body, _ := json.Marshal(map[string]any{
		"strategy": "cross",
		"symbol":   "NIFTY",
		"start":    "2024-01-01",
		"end":      "2024-01-05",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Strategy string `json:"strategy"`
			Trades   int    `json:"trades"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Strategy != "cross" {
		t.Errorf("strategy = %s", resp.Data.Strategy)
	}
	if resp.Data.Trades != 1 {
		t.Errorf("trades = %d, want 1", resp.Data.Trades)
	}

	// completed run is persisted
	saved, err := store.Get(context.Background(), resp.Data.ID)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", resp.Data.ID, err)
	}
	if saved.Symbol != "NIFTY" {
		t.Errorf("saved symbol = %s", saved.Symbol)
	}
}

func TestBacktestEndpoint_Validation(t *testing.T) {
	srv, _ := newTestServer(t, testBars(100))

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "missing strategy",
			body: map[string]any{"symbol": "NIFTY", "start": "2024-01-01", "end": "2024-01-05"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad start date",
			body: map[string]any{"strategy": "cross", "symbol": "NIFTY", "start": "January", "end": "2024-01-05"},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown strategy",
			body: map[string]any{"strategy": "nope", "symbol": "NIFTY", "start": "2024-01-01", "end": "2024-01-05"},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRunsEndpoints(t *testing.T) {
	srv, store := newTestServer(t, nil)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.Save(context.Background(), &backtest.Result{
			ID:        fmt.Sprintf("run-%d", i),
			Strategy:  "cross",
			Symbol:    "NIFTY",
			StartDate: now.AddDate(0, -6, 0),
			EndDate:   now,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var listResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(listResp.Data) != 2 {
		t.Fatalf("runs = %d, want 2", len(listResp.Data))
	}
	if listResp.Data[0].ID != "run-2" {
		t.Errorf("first run = %s, want newest", listResp.Data[0].ID)
	}

	// fetch single run with full detail
	req = httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d", rec.Code)
	}

	// unknown run
	req = httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("http_requests_in_flight")) {
		t.Error("expected prometheus metrics output")
	}
}

func TestOptimizeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testBars(90, 110, 120, 95, 90))

	body, _ := json.Marshal(map[string]any{
		"strategy":  "cross",
		"symbol":    "NIFTY",
		"start":     "2024-01-01",
		"end":       "2024-01-05",
		"objective": "return",
		"top":       2,
		"grid": []map[string]any{
			{"name": "threshold", "min": 95, "max": 105, "step": 5},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Objective  string         `json:"objective"`
			BestParams map[string]any `json:"best_params"`
			Evaluated  int            `json:"evaluated"`
			Candidates []struct {
				Score  float64 `json:"score"`
				Trades int     `json:"trades"`
			} `json:"candidates"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Objective != "return" {
		t.Errorf("objective = %s", resp.Data.Objective)
	}
	if resp.Data.Evaluated != 3 {
		t.Errorf("evaluated = %d, want 3", resp.Data.Evaluated)
	}
	if len(resp.Data.Candidates) != 2 {
		t.Fatalf("candidates = %d, want top 2", len(resp.Data.Candidates))
	}
	if resp.Data.BestParams["threshold"] == nil {
		t.Error("expected best_params to carry the grid parameter")
	}
	if resp.Data.Candidates[0].Trades != 1 {
		t.Errorf("trades = %d, want 1", resp.Data.Candidates[0].Trades)
	}
}

func TestOptimizeEndpoint_Validation(t *testing.T) {
	srv, _ := newTestServer(t, testBars(90, 110, 120))

	grid := []map[string]any{{"name": "threshold", "min": 95, "max": 105, "step": 5}}
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "missing grid",
			body: map[string]any{"strategy": "cross", "symbol": "NIFTY", "start": "2024-01-01", "end": "2024-01-05"},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown strategy",
			body: map[string]any{"strategy": "nope", "symbol": "NIFTY", "start": "2024-01-01", "end": "2024-01-05", "grid": grid},
			want: http.StatusNotFound,
		},
		{
			name: "bad end date",
			body: map[string]any{"strategy": "cross", "symbol": "NIFTY", "start": "2024-01-01", "end": "soon", "grid": grid},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint_RecordsActivity(t *testing.T) {
	srv, _ := newTestServer(t, testBars(90, 110, 120, 95, 90))

	body, _ := json.Marshal(map[string]any{
		"strategy": "cross",
		"symbol":   "NIFTY",
		"start":    "2024-01-01",
		"end":      "2024-01-05",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("backtest status = %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]any{
		"strategy":  "cross",
		"symbol":    "NIFTY",
		"start":     "2024-01-01",
		"end":       "2024-01-05",
		"objective": "return",
		"grid": []map[string]any{
			{"name": "threshold", "min": 95, "max": 105, "step": 5},
		},
	})
	req = httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	for _, metric := range []string{
		`quantbt_provider_requests_total{provider="fixed",status="success"}`,
		`quantbt_optimizer_runs_total{kind="optimize",status="success"}`,
		"quantbt_optimizer_candidates_total",
		"quantbt_signals_generated_total",
	} {
		if !bytes.Contains(rec.Body.Bytes(), []byte(metric)) {
			t.Errorf("expected %s in metrics output", metric)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/runs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
