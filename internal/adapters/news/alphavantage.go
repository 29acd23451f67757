package news

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/alphavantage"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Querier performs one Alpha Vantage call
type Querier interface {
	Query(ctx context.Context, params url.Values, out interface{}) error
}

// AlphaVantageProvider fetches news from the NEWS_SENTIMENT endpoint
type AlphaVantageProvider struct {
	client     Querier
	assetClass string
}

// NewAlphaVantageProvider creates new Alpha Vantage news provider
func NewAlphaVantageProvider(client Querier, assetClass string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		client:     client,
		assetClass: assetClass,
	}
}

func (p *AlphaVantageProvider) GetName() string {
	return "alphavantage"
}

// Ticker maps a symbol into the provider's "<asset-class>:<SYMBOL>" form
func (p *AlphaVantageProvider) Ticker(symbol string) string {
	return fmt.Sprintf("%s:%s", p.assetClass, models.NormalizeSymbol(symbol))
}

func (p *AlphaVantageProvider) FetchFeed(ctx context.Context, symbol string, limit int) (*Feed, error) {
	params := url.Values{
		"function": {"NEWS_SENTIMENT"},
		"tickers":  {p.Ticker(symbol)},
		"limit":    {strconv.Itoa(limit)},
	}

	var result struct {
		alphavantage.Notices
		Feed *[]struct {
			Title         string `json:"title"`
			Summary       string `json:"summary"`
			URL           string `json:"url"`
			Source        string `json:"source"`
			TimePublished string `json:"time_published"`
		} `json:"feed"`
	}

	if err := p.client.Query(ctx, params, &result); err != nil {
		return nil, err
	}

	feed := &Feed{Notice: result.Text()}
	if result.Feed == nil {
		return feed, nil
	}

	feed.HasFeed = true
	feed.Articles = make([]RawArticle, 0, len(*result.Feed))
	for _, item := range *result.Feed {
		feed.Articles = append(feed.Articles, RawArticle{
			Title:         item.Title,
			Summary:       item.Summary,
			URL:           item.URL,
			Source:        item.Source,
			TimePublished: item.TimePublished,
		})
	}

	logger.Debug("fetched Alpha Vantage news",
		zap.String("ticker", p.Ticker(symbol)),
		zap.Int("count", len(feed.Articles)),
	)

	return feed, nil
}
