package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketcalls/quantbt/internal/core"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"symbol": "NIFTY"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}

	var resp SuccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data type = %T", resp.Data)
	}
	if data["symbol"] != "NIFTY" {
		t.Errorf("symbol = %v", data["symbol"])
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_CoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, core.ErrRunNotFound)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != "RUN_NOT_FOUND" {
		t.Errorf("code = %s", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Error("expected message")
	}
}

func TestError_WrappedCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError,
		core.WrapError(core.ErrBacktestFailed, errors.New("provider timeout")))

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != "BACKTEST_FAILED" {
		t.Errorf("code = %s", resp.Error.Code)
	}
	if resp.Error.Cause != "provider timeout" {
		t.Errorf("cause = %s", resp.Error.Cause)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrRunNotFound, http.StatusNotFound},
		{core.ErrStrategyNotFound, http.StatusNotFound},
		{core.ErrConfigInvalid, http.StatusBadRequest},
		{core.ErrNoData, http.StatusUnprocessableEntity},
		{core.ErrProviderFailed, http.StatusBadGateway},
		{core.ErrBacktestFailed, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{core.WrapError(core.ErrRunNotFound, errors.New("inner")), http.StatusNotFound},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError, errors.New("boom"))

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %s", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Errorf("cause = %s, want empty", resp.Error.Cause)
	}
}
