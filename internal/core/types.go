package core

import "time"

// Exchange identifies the venue a symbol trades on.
type Exchange string

const (
	ExchangeNSE      Exchange = "NSE"
	ExchangeNSEIndex Exchange = "NSE_INDEX"
	ExchangeBSE      Exchange = "BSE"
	ExchangeBinance  Exchange = "BINANCE"
	ExchangeLocal    Exchange = "LOCAL" // CSV fixtures
)

// Quote represents a real-time price quote
type Quote struct {
	Symbol   string
	Exchange Exchange
	Price    float64
	Open     float64
	High     float64
	Low      float64
	Volume   int64
	Bid      float64
	Ask      float64
	Time     time.Time
	Source   string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "15m", "1h", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy        Action = "buy"
	ActionSell       Action = "sell"
	ActionHold       Action = "hold"
	ActionStrongBuy  Action = "strong_buy"
	ActionStrongSell Action = "strong_sell"
)

// IsEntry reports whether the action opens a long position.
func (a Action) IsEntry() bool {
	return a == ActionBuy || a == ActionStrongBuy
}

// IsExit reports whether the action closes a long position.
func (a Action) IsExit() bool {
	return a == ActionSell || a == ActionStrongSell
}

// Signal represents a trading signal from a strategy
type Signal struct {
	Symbol      string
	Action      Action
	Confidence  float64
	Price       float64 // Price at signal generation
	Reason      string
	Strategy    string
	Metadata    map[string]any
	GeneratedAt time.Time
}
