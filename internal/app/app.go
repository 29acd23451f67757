package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/alphavantage"
	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/internal/adapters/database"
	"github.com/selivandex/sentiment-analyst/internal/adapters/llm"
	"github.com/selivandex/sentiment-analyst/internal/adapters/market"
	"github.com/selivandex/sentiment-analyst/internal/adapters/news"
	"github.com/selivandex/sentiment-analyst/internal/adapters/redis"
	"github.com/selivandex/sentiment-analyst/internal/analysis"
	"github.com/selivandex/sentiment-analyst/internal/health"
	"github.com/selivandex/sentiment-analyst/internal/sentiment"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

// App holds the wired pipeline shared by the entry points
type App struct {
	Config   *config.Config
	Composer *analysis.Composer
	News     *news.FallbackChain
	Market   *market.Service
	Narrator *llm.Narrator
	Health   *health.Checker

	closers []func() error
}

// Build connects storage and wires providers, fetcher, market service,
// narrator and composer
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Health: health.NewChecker()}

	db, err := initDatabase(cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(db.Close)
	a.Health.Register("database", db)

	avClient := alphavantage.NewClient(&cfg.AlphaVantage)

	// Snapshot store: Redis in front of Postgres when enabled
	var store news.Store = news.NewRepository(db.DB())
	if cfg.Redis.Enabled {
		cache, err := redis.New(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, using postgres snapshots only", zap.Error(err))
		} else {
			a.onClose(cache.Close)
			a.Health.Register("redis", cache)
			store = news.NewLayeredStore().
				Add("redis", news.NewRedisStore(cache, cfg.News.RedisTTL)).
				Add("postgres", store)
		}
	}

	provider, err := newsProvider(cfg, avClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	fetcher := news.NewFetcher(
		provider,
		sentiment.NewAnalyzer(),
		store,
		news.NewCSVStore(cfg.News.FallbackDir),
		cfg.News.RefreshInterval,
	)
	a.News = news.NewFallbackChain(fetcher)

	candles := initCandleStore(cfg, db, a)
	a.Market = market.NewService(candles, market.NewAlphaVantageSource(avClient, cfg.Market.Currency), &cfg.Market)

	narrator, closeLLM, err := llm.NewFromConfig(ctx, &cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	a.onClose(closeLLM)
	a.Narrator = narrator

	a.Composer = analysis.NewComposer(a.Market, a.News, narrator, cfg.Analysis.NewsLimit)

	logger.Info("analysis pipeline ready",
		zap.String("news_provider", provider.GetName()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Duration("refresh_interval", cfg.News.RefreshInterval),
	)

	return a, nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// initDatabase initializes database connection and runs migrations
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// initCandleStore prefers ClickHouse and falls back to the Postgres table
func initCandleStore(cfg *config.Config, pg *database.DB, a *App) *market.Repository {
	if cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouse(&cfg.ClickHouse)
		if err == nil {
			a.onClose(ch.Close)
			a.Health.Register("clickhouse", ch)
			return market.NewRepository(ch.DB())
		}
		logger.Warn("clickhouse unavailable, storing candles in postgres", zap.Error(err))
	}
	return market.NewRepository(pg.DB())
}

func newsProvider(cfg *config.Config, client *alphavantage.Client) (news.Provider, error) {
	switch cfg.News.Provider {
	case "alphavantage":
		return news.NewAlphaVantageProvider(client, cfg.News.AssetClass), nil
	case "rss":
		return news.NewRSSProvider(cfg.News.RSSFeeds, 15*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
}
