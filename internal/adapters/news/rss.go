package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// symbolKeywords are the names a symbol goes by in headlines
var symbolKeywords = map[string][]string{
	"BTC":  {"bitcoin", "btc"},
	"ETH":  {"ethereum", "ether", "eth"},
	"BNB":  {"bnb", "binance coin"},
	"XRP":  {"xrp", "ripple"},
	"ADA":  {"cardano", "ada"},
	"SOL":  {"solana", "sol"},
	"DOGE": {"dogecoin", "doge"},
}

// RSSProvider reads news from RSS/Atom feeds and keeps the
// entries that mention the requested symbol
type RSSProvider struct {
	parser *gofeed.Parser
	feeds  []string
}

// NewRSSProvider creates new RSS provider
func NewRSSProvider(feeds []string, timeout time.Duration) *RSSProvider {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &RSSProvider{
		parser: parser,
		feeds:  feeds,
	}
}

func (r *RSSProvider) GetName() string {
	return "rss"
}

func (r *RSSProvider) FetchFeed(ctx context.Context, symbol string, limit int) (*Feed, error) {
	keywords := keywordsFor(symbol)
	result := &Feed{Articles: make([]RawArticle, 0)}

	var errs []error
	for _, feedURL := range r.feeds {
		if len(result.Articles) >= limit {
			break
		}

		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Warn("failed to parse rss feed",
				zap.String("feed", feedURL),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", feedURL, err))
			continue
		}
		result.HasFeed = true

		for _, item := range feed.Items {
			if len(result.Articles) >= limit {
				break
			}

			summary := cleanHTML(item.Description)
			if !isRelevant(item.Title+" "+summary, keywords) {
				continue
			}

			published := item.Published
			if item.PublishedParsed != nil {
				published = item.PublishedParsed.UTC().Format(time.RFC3339)
			}

			result.Articles = append(result.Articles, RawArticle{
				Title:         strings.TrimSpace(item.Title),
				Summary:       summary,
				URL:           item.Link,
				Source:        feed.Title,
				TimePublished: published,
			})
		}
	}

	if !result.HasFeed && len(errs) > 0 {
		return nil, fmt.Errorf("all rss feeds failed: %w", errors.Join(errs...))
	}

	logger.Debug("fetched RSS news",
		zap.String("symbol", symbol),
		zap.Int("count", len(result.Articles)),
	)

	return result, nil
}

func keywordsFor(symbol string) []string {
	symbol = models.NormalizeSymbol(symbol)
	if kw, ok := symbolKeywords[symbol]; ok {
		return kw
	}
	return []string{strings.ToLower(symbol)}
}

// isRelevant checks if article mentions any keyword as a whole word
func isRelevant(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	words := tokenizeLower(text)
	joined := " " + strings.Join(words, " ") + " "
	for _, keyword := range keywords {
		if strings.Contains(joined, " "+keyword+" ") {
			return true
		}
	}

	return false
}

func tokenizeLower(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func cleanHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
