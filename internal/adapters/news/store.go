package news

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// LayeredStore writes to every backend and reads the newest snapshot
// any of them holds. It behaves as one Cache Store to its callers.
type LayeredStore struct {
	stores []Store
	names  []string
}

// NewLayeredStore creates store over named backends, fastest first
func NewLayeredStore() *LayeredStore {
	return &LayeredStore{}
}

// Add appends a backend
func (l *LayeredStore) Add(name string, store Store) *LayeredStore {
	l.stores = append(l.stores, store)
	l.names = append(l.names, name)
	return l
}

// SaveSnapshot succeeds if at least one backend accepted the write
func (l *LayeredStore) SaveSnapshot(ctx context.Context, snapshot *models.NewsSnapshot) error {
	var errs []error
	for i, store := range l.stores {
		if err := store.SaveSnapshot(ctx, snapshot); err != nil {
			logger.Warn("snapshot backend write failed",
				zap.String("backend", l.names[i]),
				zap.String("symbol", snapshot.Symbol),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) == len(l.stores) && len(errs) > 0 {
		return newError(KindPersistence, "save", snapshot.Symbol, errors.Join(errs...))
	}
	return nil
}

// GetLatestSnapshot returns the newest snapshot across backends
func (l *LayeredStore) GetLatestSnapshot(ctx context.Context, symbol string) (*models.NewsSnapshot, error) {
	var (
		latest *models.NewsSnapshot
		errs   []error
	)

	for i, store := range l.stores {
		snapshot, err := store.GetLatestSnapshot(ctx, symbol)
		if err != nil {
			logger.Warn("snapshot backend read failed",
				zap.String("backend", l.names[i]),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if snapshot != nil && (latest == nil || snapshot.Timestamp.After(latest.Timestamp)) {
			latest = snapshot
		}
	}

	if latest == nil && len(errs) == len(l.stores) && len(errs) > 0 {
		return nil, newError(KindPersistence, "get_latest", symbol, errors.Join(errs...))
	}
	return latest, nil
}
