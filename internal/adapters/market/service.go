package market

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/internal/indicators"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// CandleStore persists daily candles
type CandleStore interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
	GetLatestCandle(ctx context.Context, symbol, timeframe string) (*models.Candle, error)
	SaveCandles(ctx context.Context, candles []models.Candle) error
}

// DailySource loads the full daily history of a symbol
type DailySource interface {
	FetchDaily(ctx context.Context, symbol string) ([]models.Candle, error)
}

// Service produces market summaries from stored or freshly pulled candles
type Service struct {
	store          CandleStore
	source         DailySource
	calc           *indicators.Calculator
	updateInterval time.Duration
	historyDays    int
	now            func() time.Time
}

// NewService creates new market data service
func NewService(store CandleStore, source DailySource, cfg *config.MarketConfig) *Service {
	return &Service{
		store:          store,
		source:         source,
		calc:           indicators.NewCalculator(),
		updateInterval: cfg.UpdateInterval,
		historyDays:    cfg.HistoryDays,
		now:            time.Now,
	}
}

// GetSummary returns the market summary for symbol. A nil summary with
// nil error means there is no data for it at all.
func (s *Service) GetSummary(ctx context.Context, symbol string, force bool) (*models.MarketSummary, error) {
	symbol = models.NormalizeSymbol(symbol)

	candles, err := s.candles(ctx, symbol, force)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, nil
	}

	return s.calc.Summarize(symbol, candles)
}

func (s *Service) candles(ctx context.Context, symbol string, force bool) ([]models.Candle, error) {
	if !force && s.isFresh(ctx, symbol) {
		candles, err := s.store.GetCandles(ctx, symbol, Timeframe, s.historyDays)
		if err == nil && len(candles) > 0 {
			return candles, nil
		}
		if err != nil {
			logger.Warn("failed to load stored candles",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}

	fetched, err := s.source.FetchDaily(ctx, symbol)
	if err != nil {
		logger.Warn("failed to fetch daily candles, trying stored ones",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return s.stored(ctx, symbol, err)
	}

	if s.store != nil && len(fetched) > 0 {
		if err := s.store.SaveCandles(ctx, fetched); err != nil {
			logger.Error("failed to save candles",
				zap.String("symbol", symbol),
				zap.Int("count", len(fetched)),
				zap.Error(err),
			)
		}
	}

	logger.Info("fetched daily candles",
		zap.String("symbol", symbol),
		zap.Int("count", len(fetched)),
	)

	if s.historyDays > 0 && len(fetched) > s.historyDays {
		fetched = fetched[len(fetched)-s.historyDays:]
	}
	return fetched, nil
}

// stored serves whatever history is on record after a fetch failure
func (s *Service) stored(ctx context.Context, symbol string, fetchErr error) ([]models.Candle, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no market data for %s: %w", symbol, fetchErr)
	}

	candles, err := s.store.GetCandles(ctx, symbol, Timeframe, s.historyDays)
	if err != nil {
		return nil, fmt.Errorf("no market data for %s: fetch: %v, store: %w", symbol, fetchErr, err)
	}
	return candles, nil
}

func (s *Service) isFresh(ctx context.Context, symbol string) bool {
	if s.store == nil {
		return false
	}

	latest, err := s.store.GetLatestCandle(ctx, symbol, Timeframe)
	if err != nil {
		logger.Warn("failed to read latest candle",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return false
	}
	if latest == nil {
		return false
	}

	return s.now().Sub(latest.Timestamp) < s.updateInterval
}
