package news

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

type memoryStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.NewsSnapshot
	saves     int
	saveErr   error
	getErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]*models.NewsSnapshot)}
}

func (s *memoryStore) SaveSnapshot(_ context.Context, snapshot *models.NewsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots[snapshot.Symbol] = snapshot
	return nil
}

func (s *memoryStore) GetLatestSnapshot(_ context.Context, symbol string) (*models.NewsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.snapshots[models.NormalizeSymbol(symbol)], nil
}

type stubProvider struct {
	feed  *Feed
	err   error
	calls int
	last  string
}

func (p *stubProvider) GetName() string { return "stub" }

func (p *stubProvider) FetchFeed(_ context.Context, symbol string, _ int) (*Feed, error) {
	p.calls++
	p.last = symbol
	if p.err != nil {
		return nil, p.err
	}
	return p.feed, nil
}

// tableScorer returns a fixed polarity per text
type tableScorer map[string]float64

func (s tableScorer) AnalyzeSentiment(text string) float64 {
	return s[text]
}

type fakeCache struct {
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string), ttl: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if c.err != nil {
		return redis.NewStringResult("", c.err)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if c.err != nil {
		return redis.NewStatusResult("", c.err)
	}
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unsupported value"))
	}
	c.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}
