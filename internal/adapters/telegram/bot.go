package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/internal/analysis"
	"github.com/selivandex/sentiment-analyst/internal/sentiment"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
	"github.com/selivandex/sentiment-analyst/pkg/templates"
)

const maxMessageLength = 4096

// Analyzer builds analysis records
type Analyzer interface {
	Compose(ctx context.Context, symbol string) (*models.AnalysisRecord, error)
	Overview(ctx context.Context, symbols []string) []*models.AnalysisRecord
}

// NewsSource returns scored news for a symbol
type NewsSource interface {
	Fetch(ctx context.Context, symbol string, limit int, force bool) []models.ScoredNewsItem
}

// Chatter answers free-form questions
type Chatter interface {
	Chat(ctx context.Context, question string, market *models.MarketSummary) (string, error)
}

// Sender delivers messages to Telegram
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Deps are the services the bot answers commands with
type Deps struct {
	Analyzer       Analyzer
	News           NewsSource
	Market         analysis.MarketDataProvider
	Chat           Chatter
	Templates      templates.Renderer
	DefaultSymbols []string
	NewsLimit      int
}

// Bot answers market commands in a single configured chat
type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	chatID int64
	deps   Deps
}

// NewBot creates new Telegram bot
func NewBot(cfg *config.TelegramConfig, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("telegram bot initialized",
		zap.String("username", api.Self.UserName),
	)

	return &Bot{
		api:    api,
		sender: api,
		chatID: cfg.ChatID,
		deps:   deps,
	}, nil
}

// Start listens for commands until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	logger.Info("telegram bot started, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			// Only process messages from configured chat
			if update.Message.Chat.ID != b.chatID {
				continue
			}

			go b.reply(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message) {
	response := b.HandleCommand(ctx, message)
	if response == "" {
		return
	}

	if err := b.SendMessage(response); err != nil {
		logger.Error("failed to send telegram response", zap.Error(err))
	}
}

// HandleCommand returns the reply for a message, empty for non-commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) string {
	if !message.IsCommand() {
		return ""
	}

	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	logger.Info("received telegram command",
		zap.String("command", command),
		zap.String("args", args),
		zap.Int64("from_chat", message.Chat.ID),
	)

	var (
		response string
		err      error
	)

	switch command {
	case "start", "help":
		response, err = b.render("telegram_help.tmpl", map[string]interface{}{"Symbols": b.deps.DefaultSymbols})
	case "analysis":
		response, err = b.handleAnalysis(ctx, args)
	case "news":
		response, err = b.handleNews(ctx, args)
	case "overview":
		response, err = b.render("telegram_overview.tmpl", b.deps.Analyzer.Overview(ctx, b.deps.DefaultSymbols))
	case "ask":
		response, err = b.handleAsk(ctx, args)
	default:
		response = fmt.Sprintf("❓ Unknown command: /%s\nUse /help to see available commands", command)
	}

	if err != nil {
		logger.Error("command handler error", zap.Error(err), zap.String("command", command))
		return fmt.Sprintf("❌ Error: %v", err)
	}

	return response
}

func (b *Bot) handleAnalysis(ctx context.Context, args string) (string, error) {
	symbol := firstSymbol(args)
	if symbol == "" {
		return "Usage: /analysis SYMBOL, for example /analysis BTC", nil
	}

	record, err := b.deps.Analyzer.Compose(ctx, symbol)
	if errors.Is(err, analysis.ErrNoMarketData) {
		return fmt.Sprintf("No market data for %s", symbol), nil
	}
	if err != nil {
		return "", fmt.Errorf("analysis for %s failed", symbol)
	}

	return b.render("telegram_analysis.tmpl", record)
}

func (b *Bot) handleNews(ctx context.Context, args string) (string, error) {
	symbol := firstSymbol(args)
	if symbol == "" {
		return "Usage: /news SYMBOL, for example /news ETH", nil
	}

	items := b.deps.News.Fetch(ctx, symbol, b.deps.NewsLimit, false)

	return b.render("telegram_news.tmpl", map[string]interface{}{
		"Symbol":    symbol,
		"Sentiment": sentiment.Aggregate(items),
		"Items":     items,
	})
}

func (b *Bot) handleAsk(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "Usage: /ask QUESTION", nil
	}

	// Attach market context when the question names a known symbol
	var market *models.MarketSummary
	if symbol := mentionedSymbol(question, b.deps.DefaultSymbols); symbol != "" && b.deps.Market != nil {
		summary, err := b.deps.Market.GetSummary(ctx, symbol, false)
		if err != nil {
			logger.Warn("market context unavailable for chat",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
		market = summary
	}

	return b.deps.Chat.Chat(ctx, question, market)
}

func (b *Bot) render(name string, data interface{}) (string, error) {
	return b.deps.Templates.ExecuteTemplate(name, data)
}

// SendMessage sends text message, split into Telegram sized chunks
func (b *Bot) SendMessage(text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(b.chatID, chunk)
		msg.DisableWebPagePreview = true

		if _, err := b.sender.Send(msg); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	return nil
}

// Close closes bot connection
func (b *Bot) Close() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
		logger.Info("telegram bot stopped")
	}
}

func firstSymbol(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return models.NormalizeSymbol(fields[0])
}

func mentionedSymbol(text string, symbols []string) string {
	for _, word := range strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		for _, symbol := range symbols {
			if word == models.NormalizeSymbol(symbol) {
				return word
			}
		}
	}
	return ""
}

// splitMessage cuts text into chunks of at most limit runes, preferring line breaks
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string

	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}

	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
