package news

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

// StalenessPolicy decides whether the stored snapshot can be served
// without asking the provider again
type StalenessPolicy struct {
	store Store
	now   func() time.Time
}

// NewStalenessPolicy creates new policy over store
func NewStalenessPolicy(store Store) *StalenessPolicy {
	return &StalenessPolicy{store: store, now: time.Now}
}

// IsFresh reports whether the latest snapshot is younger than interval.
// Missing snapshots, store errors and zero timestamps are never fresh.
func (p *StalenessPolicy) IsFresh(ctx context.Context, symbol string, interval time.Duration) bool {
	snapshot, err := p.store.GetLatestSnapshot(ctx, symbol)
	if err != nil {
		logger.Warn("failed to read snapshot for staleness check",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return false
	}
	if snapshot == nil || snapshot.Timestamp.IsZero() {
		return false
	}

	return p.now().Sub(snapshot.Timestamp) < interval
}
