package news

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// FallbackChain wraps the fetcher and degrades to older data instead
// of failing: cache store, then CSV mirror, then nothing
type FallbackChain struct {
	fetcher *Fetcher
	store   Store
	disk    *CSVStore
}

// NewFallbackChain creates chain over fetcher's own store and mirror
func NewFallbackChain(fetcher *Fetcher) *FallbackChain {
	return &FallbackChain{
		fetcher: fetcher,
		store:   fetcher.Store(),
		disk:    fetcher.Mirror(),
	}
}

// Fetch never fails. The returned slice is empty when every tier is.
func (c *FallbackChain) Fetch(ctx context.Context, symbol string, limit int, force bool) []models.ScoredNewsItem {
	symbol = models.NormalizeSymbol(symbol)

	items, err := c.fetcher.Fetch(ctx, symbol, limit, force)
	if err == nil {
		return items
	}
	logFallback("provider", symbol, err)

	items, err = c.fromStore(ctx, symbol)
	if err == nil {
		logger.Info("serving news from cache store after fetch failure",
			zap.String("symbol", symbol),
			zap.Int("count", len(items)),
		)
		return items
	}
	logFallback("store", symbol, err)

	items, err = c.fromDisk(symbol)
	if err == nil {
		logger.Info("serving news from csv mirror after fetch failure",
			zap.String("symbol", symbol),
			zap.Int("count", len(items)),
		)
		return items
	}
	logFallback("csv", symbol, err)

	return []models.ScoredNewsItem{}
}

func (c *FallbackChain) fromStore(ctx context.Context, symbol string) ([]models.ScoredNewsItem, error) {
	snapshot, err := c.store.GetLatestSnapshot(ctx, symbol)
	if err != nil {
		if KindOf(err) == 0 {
			err = newError(KindPersistence, "fallback_store", symbol, err)
		}
		return nil, err
	}
	if snapshot == nil {
		return nil, newError(KindNotFound, "fallback_store", symbol, ErrNoSnapshot)
	}
	return snapshot.Items, nil
}

func (c *FallbackChain) fromDisk(symbol string) ([]models.ScoredNewsItem, error) {
	if c.disk == nil {
		return nil, newError(KindNotFound, "fallback_csv", symbol, ErrNoSnapshot)
	}
	return c.disk.Load(symbol)
}

func logFallback(tier, symbol string, err error) {
	fields := []zap.Field{
		zap.String("tier", tier),
		zap.String("symbol", symbol),
		zap.Error(err),
	}

	var newsErr *Error
	if errors.As(err, &newsErr) {
		fields = append(fields, zap.String("kind", newsErr.Kind.String()))
	}

	switch {
	case errors.Is(err, ErrNoSnapshot):
		logger.Debug("news tier empty", fields...)
	case newsErr != nil && newsErr.Kind == KindDecode:
		logger.Error("news tier holds corrupt data", fields...)
	default:
		logger.Warn("news tier failed", fields...)
	}
}
