// Package indicator provides technical indicators used by strategies.
// Calculations are delegated to github.com/cinar/indicator; every function
// returns a series aligned 1:1 with the input bars.
package indicator

import (
	"github.com/cinar/indicator"
)

// SMA calculates Simple Moving Average
func SMA(period int, values []float64) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	return indicator.Sma(period, values)
}

// EMA calculates Exponential Moving Average
func EMA(period int, values []float64) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	return indicator.Ema(period, values)
}

// RSI calculates the 14-period Relative Strength Index
func RSI(closing []float64) []float64 {
	if len(closing) == 0 {
		return []float64{}
	}
	_, rsi := indicator.Rsi(closing)
	return rsi
}

// MACD calculates the MACD line and its signal line
func MACD(closing []float64) (macd, signal []float64) {
	if len(closing) == 0 {
		return []float64{}, []float64{}
	}
	return indicator.Macd(closing)
}

// ATR calculates the Average True Range
func ATR(period int, high, low, closing []float64) []float64 {
	if period <= 0 || len(closing) == 0 {
		return []float64{}
	}
	_, atr := indicator.Atr(period, high, low, closing)
	return atr
}

// Bollinger calculates Bollinger Bands (20-period, 2 standard deviations)
func Bollinger(closing []float64) (middle, upper, lower []float64) {
	if len(closing) == 0 {
		return []float64{}, []float64{}, []float64{}
	}
	return indicator.BollingerBands(closing)
}
