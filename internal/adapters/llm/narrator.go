package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
	"github.com/selivandex/sentiment-analyst/pkg/templates"
)

// Texts returned instead of a model answer when the provider fails
const (
	AnalysisFallback = "Sorry, I couldn't generate the analysis at the moment."
	ChatFallback     = "I apologize, but I encountered an error processing your request."
)

const (
	analysisTemplate = "market_analysis.tmpl"
	chatTemplate     = "chat.tmpl"
)

// Completer sends one prompt to a language model
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Narrator turns analysis context into prose through a Completer
type Narrator struct {
	completer Completer
	templates templates.Renderer
	timeout   time.Duration
}

// NewNarrator creates new narrator. A zero timeout disables the deadline.
func NewNarrator(completer Completer, renderer templates.Renderer, timeout time.Duration) *Narrator {
	return &Narrator{
		completer: completer,
		templates: renderer,
		timeout:   timeout,
	}
}

// Narrate writes the market narrative. Provider failures yield
// AnalysisFallback; only a broken prompt template is an error.
func (n *Narrator) Narrate(ctx context.Context, nc *models.NarrativeContext) (string, error) {
	prompt, err := n.templates.ExecuteTemplate(analysisTemplate, nc)
	if err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	text, err := n.complete(ctx, prompt)
	if err != nil {
		logger.Error("error generating analysis",
			zap.String("provider", n.completer.Name()),
			zap.String("symbol", nc.Symbol),
			zap.Error(err),
		)
		return AnalysisFallback, nil
	}

	return text, nil
}

// Chat answers a free-form question, with market context when given
func (n *Narrator) Chat(ctx context.Context, question string, market *models.MarketSummary) (string, error) {
	prompt, err := n.templates.ExecuteTemplate(chatTemplate, struct {
		Market   *models.MarketSummary
		Question string
	}{
		Market:   market,
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render chat prompt: %w", err)
	}

	text, err := n.complete(ctx, prompt)
	if err != nil {
		logger.Error("error getting chat response",
			zap.String("provider", n.completer.Name()),
			zap.Error(err),
		)
		return ChatFallback, nil
	}

	return text, nil
}

func (n *Narrator) complete(ctx context.Context, prompt string) (string, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := n.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s returned empty response", n.completer.Name())
	}

	logger.Debug("llm response",
		zap.String("provider", n.completer.Name()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(text)),
	)

	return text, nil
}
