package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// KeyValueCache is the subset of the Redis client the snapshot store needs
type KeyValueCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the latest snapshot per symbol under one key
type RedisStore struct {
	cache KeyValueCache
	ttl   time.Duration
}

// NewRedisStore creates new Redis snapshot store
func NewRedisStore(cache KeyValueCache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

func snapshotKey(symbol string) string {
	return "news:snapshot:" + models.NormalizeSymbol(symbol)
}

// SaveSnapshot overwrites the symbol key with the snapshot
func (s *RedisStore) SaveSnapshot(ctx context.Context, snapshot *models.NewsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return newError(KindPersistence, "save", snapshot.Symbol, fmt.Errorf("failed to marshal snapshot: %w", err))
	}

	if err := s.cache.Set(ctx, snapshotKey(snapshot.Symbol), data, s.ttl).Err(); err != nil {
		return newError(KindPersistence, "save", snapshot.Symbol, fmt.Errorf("failed to set snapshot: %w", err))
	}

	return nil
}

// GetLatestSnapshot returns the stored snapshot or nil
func (s *RedisStore) GetLatestSnapshot(ctx context.Context, symbol string) (*models.NewsSnapshot, error) {
	data, err := s.cache.Get(ctx, snapshotKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindPersistence, "get_latest", symbol, fmt.Errorf("failed to get snapshot: %w", err))
	}

	var snapshot models.NewsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, newError(KindDecode, "get_latest", symbol, fmt.Errorf("failed to unmarshal snapshot: %w", err))
	}

	return &snapshot, nil
}
