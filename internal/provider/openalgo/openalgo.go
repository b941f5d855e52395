// Package openalgo implements a data provider backed by an OpenAlgo server.
package openalgo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

// OpenAlgo implements the provider interface against the OpenAlgo REST API
type OpenAlgo struct {
	client   *http.Client
	host     string
	apiKey   string
	exchange core.Exchange
}

// New creates a new OpenAlgo provider. All history requests are scoped to
// the given exchange (e.g., "NSE").
func New(host, apiKey string, exchange core.Exchange) *OpenAlgo {
	return &OpenAlgo{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		host:     host,
		apiKey:   apiKey,
		exchange: exchange,
	}
}

func (o *OpenAlgo) Name() string {
	return "openalgo"
}

// Exchange returns the exchange this provider is scoped to.
func (o *OpenAlgo) Exchange() core.Exchange {
	return o.exchange
}

// FetchQuote fetches the latest quote via /api/v1/quotes
func (o *OpenAlgo) FetchQuote(symbol string) (*core.Quote, error) {
	reqBody := map[string]any{
		"apikey":   o.apiKey,
		"symbol":   symbol,
		"exchange": string(o.exchange),
	}

	var result quotesResponse
	if err := o.post("/api/v1/quotes", reqBody, &result); err != nil {
		return nil, err
	}
	if result.Status != "success" {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("openalgo quotes: status %q: %s", result.Status, result.Message))
	}

	return &core.Quote{
		Symbol:   symbol,
		Exchange: o.exchange,
		Price:    result.Data.LTP,
		Open:     result.Data.Open,
		High:     result.Data.High,
		Low:      result.Data.Low,
		Volume:   result.Data.Volume,
		Bid:      result.Data.Bid,
		Ask:      result.Data.Ask,
		Time:     time.Now(),
		Source:   "openalgo",
	}, nil
}

// FetchHistory fetches historical OHLCV data via /api/v1/history
func (o *OpenAlgo) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	reqBody := map[string]any{
		"apikey":     o.apiKey,
		"symbol":     symbol,
		"exchange":   string(o.exchange),
		"interval":   toInterval(interval),
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}

	var result historyResponse
	if err := o.post("/api/v1/history", reqBody, &result); err != nil {
		return nil, err
	}
	if result.Status != "success" {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("openalgo history: status %q: %s", result.Status, result.Message))
	}

	data := make([]core.OHLCV, 0, len(result.Data))
	for _, bar := range result.Data {
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			Volume:   bar.Volume,
			Time:     time.Unix(bar.Timestamp, 0),
		})
	}

	return data, nil
}

func (o *OpenAlgo) post(path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", o.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("openalgo request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("openalgo: unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toInterval maps the internal interval notation to OpenAlgo's. OpenAlgo
// uses "D" for daily bars and passes intraday intervals through.
func toInterval(interval string) string {
	switch interval {
	case "1m", "3m", "5m", "10m", "15m", "30m":
		return interval
	case "1h":
		return "1h"
	case "1d", "D", "":
		return "D"
	case "1w", "W":
		return "W"
	default:
		return "D"
	}
}

// OpenAlgo API response types
type historyResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Data    []historyBar `json:"data"`
}

type historyBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

type quotesResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    quoteData `json:"data"`
}

type quoteData struct {
	LTP    float64 `json:"ltp"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}
