package sentiment

import (
	"math"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Aggregate thresholds. Negative needs a stronger average than Positive.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.2
)

// Aggregate reduces scored items to one label from their mean polarity
func Aggregate(items []models.ScoredNewsItem) models.SentimentLabel {
	if len(items) == 0 {
		return models.SentimentNeutral
	}

	var total float64
	for _, item := range items {
		total += item.Sentiment
	}
	avg := total / float64(len(items))

	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		logger.Error("error calculating sentiment, average is not finite",
			zap.Int("items", len(items)),
			zap.Float64("total", total),
		)
		return models.SentimentNeutral
	}

	switch {
	case avg > PositiveThreshold:
		return models.SentimentPositive
	case avg < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
