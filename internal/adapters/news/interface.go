package news

import (
	"context"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// RawArticle is one provider entry before scoring
type RawArticle struct {
	Title         string
	Summary       string
	URL           string
	Source        string
	TimePublished string
}

// Feed is a provider response. HasFeed is false when the payload
// carried no news collection at all.
type Feed struct {
	Notice   string
	Articles []RawArticle
	HasFeed  bool
}

// Provider represents upstream news source
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchFeed requests up to limit articles about symbol
	FetchFeed(ctx context.Context, symbol string, limit int) (*Feed, error)
}

// Store persists the latest snapshot per symbol.
// GetLatestSnapshot returns (nil, nil) when nothing is stored.
type Store interface {
	SaveSnapshot(ctx context.Context, snapshot *models.NewsSnapshot) error
	GetLatestSnapshot(ctx context.Context, symbol string) (*models.NewsSnapshot, error)
}
