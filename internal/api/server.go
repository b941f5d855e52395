// Package api exposes backtest runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marketcalls/quantbt/internal/api/response"
	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/metrics"
	"github.com/marketcalls/quantbt/internal/report"
	"github.com/marketcalls/quantbt/internal/storage/run"
	"github.com/marketcalls/quantbt/internal/strategy"
)

// Config holds server configuration
type Config struct {
	Host string
	Port int
	Spec backtest.PortfolioSpec
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux

	engine     *strategy.Engine
	backtester *backtest.Backtester
	runs       run.Store
	registry   *metrics.Registry
	spec       backtest.PortfolioSpec
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, engine *strategy.Engine, bt *backtest.Backtester, runs run.Store, registry *metrics.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     logger,
		mux:        mux,
		engine:     engine,
		backtester: bt,
		runs:       runs,
		registry:   registry,
		spec:       cfg.Spec,
	}

	s.setupRoutes()

	var handler http.Handler = mux
	if registry != nil {
		handler = metrics.HTTPMiddleware(registry)(mux)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // backtests run inline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/strategies", s.handleStrategies)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/api/runs/", s.handleRunByID)
	s.mux.HandleFunc("/api/backtest", s.handleBacktest)
	s.mux.HandleFunc("/api/optimize", s.handleOptimize)

	if s.registry != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type strategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	names := s.engine.Names()
	sort.Strings(names)

	infos := make([]strategyInfo, 0, len(names))
	for _, name := range names {
		info := strategyInfo{Name: name}
		if strat, err := s.engine.New(name, nil); err == nil {
			info.Description = strat.Description()
		}
		infos = append(infos, info)
	}

	response.JSON(w, http.StatusOK, infos)
}

type runSummary struct {
	ID          string    `json:"id"`
	Strategy    string    `json:"strategy"`
	Symbol      string    `json:"symbol"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalReturn float64   `json:"total_return"`
	Sharpe      float64   `json:"sharpe"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Trades      int       `json:"trades"`
	CreatedAt   time.Time `json:"created_at"`
}

func summarize(r *backtest.Result) runSummary {
	return runSummary{
		ID:          r.ID,
		Strategy:    r.Strategy,
		Symbol:      r.Symbol,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		TotalReturn: r.Stats.TotalReturn,
		Sharpe:      r.Stats.SharpeRatio,
		MaxDrawdown: r.Stats.MaxDrawdown,
		Trades:      r.Stats.TotalTrades,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := run.ListFilter{
		Symbol:   q.Get("symbol"),
		Strategy: q.Get("strategy"),
		Limit:    50,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	results, err := s.runs.List(r.Context(), filter)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	summaries := make([]runSummary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, summarize(res))
	}
	response.JSON(w, http.StatusOK, summaries)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" {
		response.Error(w, http.StatusBadRequest, core.ErrRunNotFound)
		return
	}

	result, err := s.runs.Get(r.Context(), id)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, report.ToJSON(result, true))
}

type backtestRequest struct {
	Strategy string         `json:"strategy"`
	Symbol   string         `json:"symbol"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Interval string         `json:"interval,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("strategy and symbol are required")))
		return
	}

	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	strat, err := s.engine.New(req.Strategy, req.Params)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	started := time.Now()
	result, err := s.backtester.Run(r.Context(), backtest.Request{
		Strategy: strat,
		Symbol:   req.Symbol,
		Start:    start,
		End:      end,
		Interval: req.Interval,
		Spec:     s.spec,
		Params:   req.Params,
	})
	if err != nil {
		if s.registry != nil {
			s.registry.RecordBacktest("error", time.Since(started).Seconds())
		}
		response.Error(w, response.StatusFor(err), err)
		return
	}
	if s.registry != nil {
		s.registry.RecordBacktest("success", time.Since(started).Seconds())
		for _, sig := range result.Signals {
			s.registry.RecordSignal(result.Strategy, string(sig.Action))
		}
	}

	if err := s.runs.Save(r.Context(), result); err != nil {
		s.logger.Warn("saving run failed", zap.Error(err))
	} else if s.registry != nil {
		if n, err := s.runs.Count(r.Context(), run.ListFilter{}); err == nil {
			s.registry.SetRunsStored(n)
		}
	}

	response.JSON(w, http.StatusOK, summarize(result))
}

type gridParam struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer,omitempty"`
}

type optimizeRequest struct {
	Strategy  string      `json:"strategy"`
	Symbol    string      `json:"symbol"`
	Start     string      `json:"start"`
	End       string      `json:"end"`
	Interval  string      `json:"interval,omitempty"`
	Objective string      `json:"objective,omitempty"`
	Top       int         `json:"top,omitempty"`
	Grid      []gridParam `json:"grid"`
}

type candidateSummary struct {
	Params      map[string]any `json:"params"`
	Score       float64        `json:"score"`
	TotalReturn float64        `json:"total_return"`
	Trades      int            `json:"trades"`
}

type optimizeSummary struct {
	Strategy   string             `json:"strategy"`
	Symbol     string             `json:"symbol"`
	Objective  string             `json:"objective"`
	BestParams map[string]any     `json:"best_params"`
	BestScore  float64            `json:"best_score"`
	Evaluated  int                `json:"evaluated"`
	Candidates []candidateSummary `json:"candidates"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("strategy and symbol are required")))
		return
	}
	if len(req.Grid) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("a non-empty parameter grid is required")))
		return
	}

	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	factory, err := s.engine.Factory(req.Strategy)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	grid := make([]backtest.Parameter, 0, len(req.Grid))
	for _, g := range req.Grid {
		grid = append(grid, backtest.Parameter{
			Name:    g.Name,
			Min:     g.Min,
			Max:     g.Max,
			Step:    g.Step,
			Integer: g.Integer,
		})
	}

	opt := backtest.NewOptimizer(s.backtester, factory, s.logger).WithMetrics(s.registry)
	result, err := opt.Optimize(r.Context(), backtest.OptimizeRequest{
		StrategyName: req.Strategy,
		Symbol:       req.Symbol,
		Start:        start,
		End:          end,
		Interval:     req.Interval,
		Spec:         s.spec,
		Grid:         grid,
		Objective:    req.Objective,
	})
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	top := req.Top
	if top <= 0 {
		top = 10
	}
	if top > len(result.Candidates) {
		top = len(result.Candidates)
	}

	summary := optimizeSummary{
		Strategy:   result.Strategy,
		Symbol:     result.Symbol,
		Objective:  result.Objective,
		BestParams: result.BestParams,
		BestScore:  result.BestScore,
		Evaluated:  len(result.Candidates),
		Candidates: make([]candidateSummary, 0, top),
	}
	for _, c := range result.Candidates[:top] {
		summary.Candidates = append(summary.Candidates, candidateSummary{
			Params:      c.Params,
			Score:       c.Score,
			TotalReturn: c.Stats.TotalReturn,
			Trades:      c.Stats.TotalTrades,
		})
	}

	response.JSON(w, http.StatusOK, summary)
}

// parseDateRange parses the YYYY-MM-DD bounds shared by the backtest
// and optimize requests.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid start date: %w", err))
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid end date: %w", err))
	}
	return start, end, nil
}
