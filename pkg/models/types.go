package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// Signal values used for MACD and moving average crossovers
const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// Candle represents OHLCV candlestick data
type Candle struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Timeframe string          `json:"timeframe" db:"timeframe"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Open      decimal.Decimal `json:"open" db:"open"`
	High      decimal.Decimal `json:"high" db:"high"`
	Low       decimal.Decimal `json:"low" db:"low"`
	Close     decimal.Decimal `json:"close" db:"close"`
	Volume    decimal.Decimal `json:"volume" db:"volume"`
}

// MarketSummary is the price/technical snapshot for one symbol.
// RSI is nil when there were not enough candles to compute it.
type MarketSummary struct {
	Timestamp      time.Time       `json:"timestamp"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
	PriceChange24h float64         `json:"price_change_24h"`
	RSI            *float64        `json:"rsi,omitempty"`
	MACDSignal     string          `json:"macd_signal"`
	MASignal       string          `json:"ma_signal"`
}
