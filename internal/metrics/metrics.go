package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal      *prometheus.CounterVec
	backtestDuration    prometheus.Histogram
	optimizerRuns       *prometheus.CounterVec
	candidatesEvaluated prometheus.Counter
	providerRequests    *prometheus.CounterVec
	signalsGenerated    *prometheus.CounterVec
	runsStored          prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbt_backtests_total",
			Help: "Total number of backtests by outcome",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantbt_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
	r.optimizerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbt_optimizer_runs_total",
			Help: "Total number of optimizer and walk-forward runs",
		},
		[]string{"kind", "status"},
	)
	r.candidatesEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quantbt_optimizer_candidates_total",
			Help: "Total number of parameter candidates evaluated",
		},
	)
	r.providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbt_provider_requests_total",
			Help: "Total number of market data provider requests",
		},
		[]string{"provider", "status"},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbt_signals_generated_total",
			Help: "Total number of signals generated during backtests",
		},
		[]string{"strategy", "action"},
	)
	r.runsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantbt_runs_stored",
			Help: "Number of runs held in the run store",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.optimizerRuns)
	reg.MustRegister(r.candidatesEvaluated)
	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.runsStored)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordOptimizerRun records an optimizer or walk-forward completion.
func (r *Registry) RecordOptimizerRun(kind, status string) {
	r.optimizerRuns.WithLabelValues(kind, status).Inc()
}

// RecordCandidates adds to the evaluated candidate count.
func (r *Registry) RecordCandidates(n int) {
	r.candidatesEvaluated.Add(float64(n))
}

// RecordProviderRequest records a market data fetch.
func (r *Registry) RecordProviderRequest(provider, status string) {
	r.providerRequests.WithLabelValues(provider, status).Inc()
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(strategy, action string) {
	r.signalsGenerated.WithLabelValues(strategy, action).Inc()
}

// SetRunsStored sets the run store size.
func (r *Registry) SetRunsStored(n int) {
	r.runsStored.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
