package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

const clickhouseCandlesDDL = `
	CREATE TABLE IF NOT EXISTS market_ohlcv (
		timestamp DateTime64(3, 'UTC'),
		symbol    LowCardinality(String),
		timeframe LowCardinality(String),
		open      Float64,
		high      Float64,
		low       Float64,
		close     Float64,
		volume    Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, timeframe, timestamp)
`

// NewClickHouse opens ClickHouse connection through the database/sql driver
// and makes sure the candle table exists
func NewClickHouse(cfg *config.ClickHouseConfig) (*DB, error) {
	conn, err := sqlx.Open("clickhouse", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}

	if _, err := conn.ExecContext(ctx, clickhouseCandlesDDL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create market_ohlcv table: %w", err)
	}

	logger.Info("clickhouse connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return &DB{conn: conn, driver: "clickhouse"}, nil
}
