package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RSI conditions
const (
	RSIOverbought = "Overbought"
	RSIOversold   = "Oversold"
	RSINeutral    = "Neutral"
)

// LatestNewsLimit caps the news items embedded into an analysis record
const LatestNewsLimit = 5

// AnalysisRecord is the composite per-symbol market analysis
type AnalysisRecord struct {
	Timestamp           time.Time           `json:"timestamp"`
	Symbol              string              `json:"symbol"`
	PriceAnalysis       PriceAnalysis       `json:"price_analysis"`
	TechnicalIndicators TechnicalIndicators `json:"technical_indicators"`
	MarketSentiment     MarketSentiment     `json:"market_sentiment"`
	LLMAnalysis         string              `json:"llm_analysis"`
}

// PriceAnalysis holds the price part of an analysis
type PriceAnalysis struct {
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChange24h float64         `json:"price_change_24h"`
	Trend          string          `json:"trend"`
}

// TechnicalIndicators holds the interpreted indicator values
type TechnicalIndicators struct {
	RSICondition string `json:"rsi_condition"`
	MACDSignal   string `json:"macd_signal"`
}

// MarketSentiment holds the aggregated news sentiment
type MarketSentiment struct {
	NewsSentiment SentimentLabel   `json:"news_sentiment"`
	LatestNews    []ScoredNewsItem `json:"latest_news"`
	NewsCount     int              `json:"news_count"`
}

// NarrativeContext is what the narrative generator receives
type NarrativeContext struct {
	Generated time.Time
	Market    *MarketSummary
	Symbol    string
	Trend     string
	Sentiment SentimentLabel
	Technical TechnicalIndicators
	News      []ScoredNewsItem
	NewsCount int
}
