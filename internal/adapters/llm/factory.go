package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/templates"
)

// NewFromConfig builds the narrator for the configured provider. The
// returned close func must be called on shutdown.
func NewFromConfig(ctx context.Context, cfg *config.LLMConfig) (*Narrator, func() error, error) {
	renderer, err := templates.NewManager(cfg.TemplatesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	var (
		completer Completer
		closeFn   = func() error { return nil }
	)

	switch cfg.Provider {
	case "gemini":
		gemini, err := NewGeminiCompleter(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		completer = gemini
		closeFn = gemini.Close
	case "openai", "":
		completer = NewOpenAICompleter(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	logger.Info("narrator initialized",
		zap.String("provider", completer.Name()),
		zap.String("model", cfg.Model),
	)

	return NewNarrator(completer, renderer, cfg.Timeout), closeFn, nil
}
