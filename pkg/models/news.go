package models

import (
	"strings"
	"time"
)

// SentimentLabel is the coarse polarity class of a news item or a set of items
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// ParseSentimentLabel converts a stored label back into a SentimentLabel
func ParseSentimentLabel(s string) (SentimentLabel, bool) {
	switch SentimentLabel(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return SentimentLabel(s), true
	}
	return "", false
}

// LabelForPolarity classifies a single item's polarity.
// Zero is the only neutral value at item level.
func LabelForPolarity(polarity float64) SentimentLabel {
	switch {
	case polarity > 0:
		return SentimentPositive
	case polarity < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ScoredNewsItem represents single normalized news item with its polarity
type ScoredNewsItem struct {
	PublishedAt    time.Time      `json:"published_at" db:"published_at"`
	Title          string         `json:"title" db:"title"`
	Summary        string         `json:"summary" db:"summary"`
	URL            string         `json:"url" db:"url"`
	Source         string         `json:"source" db:"source"`
	Sentiment      float64        `json:"sentiment" db:"sentiment"`
	SentimentLabel SentimentLabel `json:"sentiment_label" db:"sentiment_label"`
}

// NewScoredNewsItem builds an item and derives its label from polarity
func NewScoredNewsItem(title, summary, url, source string, publishedAt time.Time, polarity float64) ScoredNewsItem {
	return ScoredNewsItem{
		Title:          title,
		Summary:        summary,
		URL:            url,
		Source:         source,
		PublishedAt:    publishedAt,
		Sentiment:      polarity,
		SentimentLabel: LabelForPolarity(polarity),
	}
}

// NewsSnapshot is the cached news result for one symbol
type NewsSnapshot struct {
	Timestamp time.Time        `json:"timestamp" db:"timestamp"`
	Symbol    string           `json:"symbol" db:"symbol"`
	Items     []ScoredNewsItem `json:"items" db:"items"`
}

// NewNewsSnapshot stamps items with the creation time
func NewNewsSnapshot(symbol string, items []ScoredNewsItem, now time.Time) *NewsSnapshot {
	if items == nil {
		items = []ScoredNewsItem{}
	}
	return &NewsSnapshot{
		Symbol:    NormalizeSymbol(symbol),
		Timestamp: now,
		Items:     items,
	}
}

// NormalizeSymbol returns the canonical uppercase ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
