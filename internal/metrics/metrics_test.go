package metrics

import (
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func hasMetric(t *testing.T, reg *Registry, name string) bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return true
		}
	}
	return false
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRequest("GET", "/api/runs", 200, 0.05)

	if !hasMetric(t, reg, "http_requests_total") {
		t.Error("expected http_requests_total metric")
	}
	if !hasMetric(t, reg, "http_request_duration_seconds") {
		t.Error("expected http_request_duration_seconds metric")
	}
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()
	reg.RecordBacktest("success", 1.5)
	reg.RecordBacktest("error", 0.1)

	if !hasMetric(t, reg, "quantbt_backtests_total") {
		t.Error("expected quantbt_backtests_total metric")
	}
	if !hasMetric(t, reg, "quantbt_backtest_duration_seconds") {
		t.Error("expected quantbt_backtest_duration_seconds metric")
	}
}

func TestRegistry_RecordOptimizerRun(t *testing.T) {
	reg := NewRegistry()
	reg.RecordOptimizerRun("grid", "success")
	reg.RecordCandidates(48)

	if !hasMetric(t, reg, "quantbt_optimizer_runs_total") {
		t.Error("expected quantbt_optimizer_runs_total metric")
	}
	if !hasMetric(t, reg, "quantbt_optimizer_candidates_total") {
		t.Error("expected quantbt_optimizer_candidates_total metric")
	}
}

func TestRegistry_RecordProviderRequest(t *testing.T) {
	reg := NewRegistry()
	reg.RecordProviderRequest("openalgo", "success")

	if !hasMetric(t, reg, "quantbt_provider_requests_total") {
		t.Error("expected quantbt_provider_requests_total metric")
	}
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		if got := statusToString(tt.status); got != tt.expected {
			t.Errorf("statusToString(%d) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}
