package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/internal/app"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

func main() {
	symbol := flag.String("symbol", "BTC", "symbol to analyze")
	newsOnly := flag.Bool("news", false, "print scored news instead of the full analysis")
	force := flag.Bool("force", false, "bypass cached news")
	flag.Parse()

	if flag.NArg() > 0 {
		*symbol = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, models.NormalizeSymbol(*symbol), *newsOnly, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, symbol string, newsOnly, force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var out interface{}
	if newsOnly {
		out = a.News.Fetch(ctx, symbol, cfg.News.DefaultLimit, force)
	} else {
		record, err := a.Composer.Compose(ctx, symbol)
		if err != nil {
			return err
		}
		out = record
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
