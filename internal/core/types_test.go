package core

import (
	"testing"
	"time"
)

func TestQuote_IsValid(t *testing.T) {
	q := Quote{
		Symbol:   "SBIN",
		Exchange: ExchangeNSE,
		Price:    792.40,
		Volume:   1000000,
		Time:     time.Now(),
	}

	if !q.IsValid() {
		t.Error("expected valid quote")
	}

	invalid := Quote{Symbol: "", Price: 0}
	if invalid.IsValid() {
		t.Error("expected invalid quote")
	}
}

func TestExchange_Constants(t *testing.T) {
	exchanges := []Exchange{ExchangeNSE, ExchangeNSEIndex, ExchangeBSE, ExchangeBinance, ExchangeLocal}
	expected := []string{"NSE", "NSE_INDEX", "BSE", "BINANCE", "LOCAL"}

	for i, e := range exchanges {
		if string(e) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], e)
		}
	}
}

func TestAction_Constants(t *testing.T) {
	actions := []Action{ActionBuy, ActionSell, ActionHold, ActionStrongBuy, ActionStrongSell}
	expected := []string{"buy", "sell", "hold", "strong_buy", "strong_sell"}

	for i, a := range actions {
		if string(a) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], a)
		}
	}
}

func TestAction_EntryExit(t *testing.T) {
	tests := []struct {
		action Action
		entry  bool
		exit   bool
	}{
		{ActionBuy, true, false},
		{ActionStrongBuy, true, false},
		{ActionSell, false, true},
		{ActionStrongSell, false, true},
		{ActionHold, false, false},
	}

	for _, tt := range tests {
		if got := tt.action.IsEntry(); got != tt.entry {
			t.Errorf("%s IsEntry() = %v, want %v", tt.action, got, tt.entry)
		}
		if got := tt.action.IsExit(); got != tt.exit {
			t.Errorf("%s IsExit() = %v, want %v", tt.action, got, tt.exit)
		}
	}
}
