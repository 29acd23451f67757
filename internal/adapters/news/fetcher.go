package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/sentiment"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// publishedLayouts are tried in order when parsing provider timestamps
var publishedLayouts = []string{
	"20060102T150405",
	"20060102T1504",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

// Fetcher serves cached news while it is fresh and otherwise pulls,
// scores and persists a new snapshot
type Fetcher struct {
	provider Provider
	scorer   sentiment.Scorer
	store    Store
	mirror   *CSVStore
	policy   *StalenessPolicy
	interval time.Duration
	now      func() time.Time
}

// NewFetcher creates new news fetcher. mirror may be nil.
func NewFetcher(provider Provider, scorer sentiment.Scorer, store Store, mirror *CSVStore, interval time.Duration) *Fetcher {
	return &Fetcher{
		provider: provider,
		scorer:   scorer,
		store:    store,
		mirror:   mirror,
		policy:   NewStalenessPolicy(store),
		interval: interval,
		now:      time.Now,
	}
}

// Store returns the cache store the fetcher writes to
func (f *Fetcher) Store() Store {
	return f.store
}

// Mirror returns the on-disk mirror, nil if none
func (f *Fetcher) Mirror() *CSVStore {
	return f.mirror
}

// Fetch returns scored news for symbol. Provider failures come back as
// KindTransientFetch; persistence failures are logged and swallowed.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, limit int, force bool) ([]models.ScoredNewsItem, error) {
	symbol = models.NormalizeSymbol(symbol)

	if !force && f.policy.IsFresh(ctx, symbol, f.interval) {
		snapshot, err := f.store.GetLatestSnapshot(ctx, symbol)
		if err == nil && snapshot != nil {
			logger.Debug("serving cached news",
				zap.String("symbol", symbol),
				zap.Time("snapshot_at", snapshot.Timestamp),
				zap.Int("count", len(snapshot.Items)),
			)
			return snapshot.Items, nil
		}
	}

	feed, err := f.provider.FetchFeed(ctx, symbol, limit)
	if err != nil {
		return nil, newError(KindTransientFetch, "fetch", symbol,
			fmt.Errorf("%s: %w", f.provider.GetName(), err))
	}

	if feed.Notice != "" {
		logger.Info("news provider notice",
			zap.String("provider", f.provider.GetName()),
			zap.String("symbol", symbol),
			zap.String("notice", feed.Notice),
		)
	}

	if !feed.HasFeed {
		logger.Warn("news payload has no feed",
			zap.String("provider", f.provider.GetName()),
			zap.String("symbol", symbol),
		)
		return []models.ScoredNewsItem{}, nil
	}

	items := make([]models.ScoredNewsItem, 0, len(feed.Articles))
	for _, article := range feed.Articles {
		polarity := f.scorer.AnalyzeSentiment(article.Title + " " + article.Summary)
		items = append(items, models.NewScoredNewsItem(
			article.Title,
			article.Summary,
			article.URL,
			article.Source,
			parsePublished(article.TimePublished),
			polarity,
		))
	}

	f.persist(ctx, models.NewNewsSnapshot(symbol, items, f.now().UTC()))

	logger.Info("fetched news",
		zap.String("provider", f.provider.GetName()),
		zap.String("symbol", symbol),
		zap.Int("count", len(items)),
	)

	return items, nil
}

func (f *Fetcher) persist(ctx context.Context, snapshot *models.NewsSnapshot) {
	if err := f.store.SaveSnapshot(ctx, snapshot); err != nil {
		logger.Error("failed to save news snapshot",
			zap.String("symbol", snapshot.Symbol),
			zap.Error(err),
		)
	}

	if f.mirror == nil {
		return
	}
	if err := f.mirror.Save(snapshot.Symbol, snapshot.Items); err != nil {
		logger.Error("failed to mirror news to csv",
			zap.String("symbol", snapshot.Symbol),
			zap.String("path", f.mirror.Path(snapshot.Symbol)),
			zap.Error(err),
		)
	}
}

func parsePublished(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}

	logger.Debug("unparseable publish time", zap.String("value", value))
	return time.Time{}
}
