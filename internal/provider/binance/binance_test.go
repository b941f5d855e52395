package binance

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBinance_Name(t *testing.T) {
	b := New()
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"15m", "15m"},
		{"1h", "1h"},
		{"4h", "4h"},
		{"1d", "1d"},
		{"unknown", "1d"},
	}

	b := New()
	for _, tc := range tests {
		got := b.toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestBinance_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Binance kline format: [openTime, open, high, low, close, volume, ...]
		fmt.Fprint(w, `[[1700000000000,"100.0","105.0","99.0","102.0","1000.5",1700086399999],
			[1700086400000,"102.0","108.0","101.0","106.0","1200.0",1700172799999]]`)
	}))
	defer srv.Close()

	b := NewWithBaseURL(srv.URL)
	end := time.Now()
	start := end.AddDate(0, 0, -2)

	data, err := b.FetchHistory("BTCUSDT", start, end, "1d")
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}

	if len(data) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(data))
	}
	if data[0].Open != 100.0 || data[0].Close != 102.0 {
		t.Errorf("bar 0 = %+v, want open=100 close=102", data[0])
	}
	if data[1].Volume != 1200 {
		t.Errorf("bar 1 volume = %d, want 1200", data[1].Volume)
	}
}

func TestBinance_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"BTCUSDT","lastPrice":"43250.10","openPrice":"42800.00",
			"highPrice":"43500.00","lowPrice":"42600.00","volume":"12345.6",
			"bidPrice":"43250.00","askPrice":"43250.20","closeTime":1700000000000}`)
	}))
	defer srv.Close()

	b := NewWithBaseURL(srv.URL)
	quote, err := b.FetchQuote("BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}

	if quote.Price != 43250.10 {
		t.Errorf("Price = %f, want 43250.10", quote.Price)
	}
	if !quote.IsValid() {
		t.Error("expected valid quote")
	}
}

func TestBinance_FetchHistory_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := NewWithBaseURL(srv.URL)
	_, err := b.FetchHistory("BTCUSDT", time.Now().AddDate(0, 0, -1), time.Now(), "1d")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}
