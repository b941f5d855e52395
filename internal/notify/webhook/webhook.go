// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
)

// Webhook posts run summaries as JSON to a configured URL
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// NotifyRun posts the run summary
func (w *Webhook) NotifyRun(ctx context.Context, result *backtest.Result) error {
	payload := map[string]any{
		"type":         "backtest_complete",
		"run_id":       result.ID,
		"strategy":     result.Strategy,
		"symbol":       result.Symbol,
		"start_date":   result.StartDate.Format("2006-01-02"),
		"end_date":     result.EndDate.Format("2006-01-02"),
		"total_return": result.Stats.TotalReturn,
		"sharpe":       result.Stats.SharpeRatio,
		"max_drawdown": result.Stats.MaxDrawdown,
		"trades":       result.Stats.TotalTrades,
		"win_rate":     result.Stats.WinRate,
		"created_at":   result.CreatedAt.Format(time.RFC3339),
	}
	return w.post(ctx, payload)
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("marshaling payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("posting webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("webhook returned %d", resp.StatusCode))
	}

	return nil
}
