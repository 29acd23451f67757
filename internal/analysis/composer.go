package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/sentiment"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

var (
	// ErrNoMarketData means no price data exists for the symbol
	ErrNoMarketData = errors.New("no market data")
	// ErrComposeFailed wraps every other failure while building a record
	ErrComposeFailed = errors.New("analysis compose failed")
)

// RSI thresholds
const (
	RSIOverboughtLevel = 70.0
	RSIOversoldLevel   = 30.0
)

// MarketDataProvider returns the market summary of a symbol, nil if none
type MarketDataProvider interface {
	GetSummary(ctx context.Context, symbol string, force bool) (*models.MarketSummary, error)
}

// NewsSource returns scored news and never fails
type NewsSource interface {
	Fetch(ctx context.Context, symbol string, limit int, force bool) []models.ScoredNewsItem
}

// Narrator writes the prose part of an analysis
type Narrator interface {
	Narrate(ctx context.Context, nc *models.NarrativeContext) (string, error)
}

// Composer builds AnalysisRecords from market data, news and a narrative
type Composer struct {
	market    MarketDataProvider
	news      NewsSource
	narrator  Narrator
	newsLimit int
	now       func() time.Time
}

// NewComposer creates new analysis composer
func NewComposer(market MarketDataProvider, news NewsSource, narrator Narrator, newsLimit int) *Composer {
	return &Composer{
		market:    market,
		news:      news,
		narrator:  narrator,
		newsLimit: newsLimit,
		now:       time.Now,
	}
}

// Compose builds the analysis of one symbol. The result is all or
// nothing: any failure yields a nil record.
func (c *Composer) Compose(ctx context.Context, symbol string) (record *models.AnalysisRecord, err error) {
	symbol = models.NormalizeSymbol(symbol)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while composing analysis",
				zap.String("symbol", symbol),
				zap.Any("panic", r),
			)
			record = nil
			err = fmt.Errorf("%w for %s: panic: %v", ErrComposeFailed, symbol, r)
		}
	}()

	summary, err := c.market.GetSummary(ctx, symbol, false)
	if err != nil {
		logger.Error("failed to get market data",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w for %s: %w", ErrNoMarketData, symbol, err)
	}
	if summary == nil {
		logger.Warn("no market data", zap.String("symbol", symbol))
		return nil, fmt.Errorf("%w for %s", ErrNoMarketData, symbol)
	}

	items := c.news.Fetch(ctx, symbol, c.newsLimit, false)

	trend := orDefault(summary.MASignal, models.SignalNeutral)
	technical := models.TechnicalIndicators{
		RSICondition: RSICondition(summary.RSI),
		MACDSignal:   orDefault(summary.MACDSignal, models.SignalNeutral),
	}
	newsSentiment := sentiment.Aggregate(items)

	narrative, err := c.narrator.Narrate(ctx, &models.NarrativeContext{
		Generated: c.now().UTC(),
		Market:    summary,
		Symbol:    symbol,
		Trend:     trend,
		Sentiment: newsSentiment,
		Technical: technical,
		News:      items,
		NewsCount: len(items),
	})
	if err != nil {
		logger.Error("failed to generate narrative",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w for %s: %w", ErrComposeFailed, symbol, err)
	}

	latest := items
	if len(latest) > models.LatestNewsLimit {
		latest = latest[:models.LatestNewsLimit]
	}
	latestNews := make([]models.ScoredNewsItem, len(latest))
	copy(latestNews, latest)

	record = &models.AnalysisRecord{
		Timestamp: c.now().UTC(),
		Symbol:    symbol,
		PriceAnalysis: models.PriceAnalysis{
			CurrentPrice:   summary.Price,
			PriceChange24h: summary.PriceChange24h,
			Trend:          trend,
		},
		TechnicalIndicators: technical,
		MarketSentiment: models.MarketSentiment{
			NewsSentiment: newsSentiment,
			LatestNews:    latestNews,
			NewsCount:     len(items),
		},
		LLMAnalysis: narrative,
	}

	logger.Info("analysis composed",
		zap.String("symbol", symbol),
		zap.String("sentiment", string(newsSentiment)),
		zap.Int("news_count", len(items)),
	)

	return record, nil
}

// Overview composes every symbol, skipping the ones that fail
func (c *Composer) Overview(ctx context.Context, symbols []string) []*models.AnalysisRecord {
	records := make([]*models.AnalysisRecord, 0, len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}

		record, err := c.Compose(ctx, symbol)
		if err != nil {
			logger.Warn("skipping symbol in overview",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}

	return records
}

// RSICondition classifies an RSI value, Neutral when absent
func RSICondition(rsi *float64) string {
	switch {
	case rsi == nil:
		return models.RSINeutral
	case *rsi >= RSIOverboughtLevel:
		return models.RSIOverbought
	case *rsi < RSIOversoldLevel:
		return models.RSIOversold
	default:
		return models.RSINeutral
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
