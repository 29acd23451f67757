package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/internal/adapters/telegram"
	"github.com/selivandex/sentiment-analyst/internal/api"
	"github.com/selivandex/sentiment-analyst/internal/app"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/templates"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("crypto market assistant starting...",
		zap.String("news_provider", cfg.News.Provider),
		zap.Strings("symbols", cfg.Analysis.DefaultSymbols),
	)

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(cfg.API.GinMode)
	server := api.NewServer(cfg.API.Port, api.Deps{
		Analyzer:       a.Composer,
		News:           a.News,
		Market:         a.Market,
		Health:         a.Health,
		DefaultSymbols: cfg.Analysis.DefaultSymbols,
		NewsLimit:      cfg.News.DefaultLimit,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	if cfg.Telegram.Enabled {
		startTelegram(ctx, cfg, a)
	}

	a.Health.SetReady(true)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
	}

	logger.Info("shutting down gracefully...")
	a.Health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", zap.Error(err))
	}

	return nil
}

// startTelegram runs the bot in background; a broken bot never stops the API
func startTelegram(ctx context.Context, cfg *config.Config, a *app.App) {
	renderer, err := templates.NewManager(cfg.LLM.TemplatesDir)
	if err != nil {
		logger.Error("failed to load telegram templates", zap.Error(err))
		return
	}

	bot, err := telegram.NewBot(&cfg.Telegram, telegram.Deps{
		Analyzer:       a.Composer,
		News:           a.News,
		Market:         a.Market,
		Chat:           a.Narrator,
		Templates:      renderer,
		DefaultSymbols: cfg.Analysis.DefaultSymbols,
		NewsLimit:      cfg.News.DefaultLimit,
	})
	if err != nil {
		logger.Error("failed to create telegram bot", zap.Error(err))
		return
	}

	go func() {
		defer bot.Close()
		if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("telegram bot error", zap.Error(err))
		}
	}()

	logger.Info("📱 telegram bot started")
}
