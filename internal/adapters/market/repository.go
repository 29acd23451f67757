package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Repository handles candle storage. It works against ClickHouse or,
// when ClickHouse is disabled, the PostgreSQL market_ohlcv table.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new market repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type candleRow struct {
	Timestamp time.Time `db:"timestamp"`
	Symbol    string    `db:"symbol"`
	Timeframe string    `db:"timeframe"`
	Open      float64   `db:"open"`
	High      float64   `db:"high"`
	Low       float64   `db:"low"`
	Close     float64   `db:"close"`
	Volume    float64   `db:"volume"`
}

func (r candleRow) toModel() models.Candle {
	return models.Candle{
		Timestamp: r.Timestamp.UTC(),
		Symbol:    r.Symbol,
		Timeframe: r.Timeframe,
		Open:      models.NewDecimal(r.Open),
		High:      models.NewDecimal(r.High),
		Low:       models.NewDecimal(r.Low),
		Close:     models.NewDecimal(r.Close),
		Volume:    models.NewDecimal(r.Volume),
	}
}

func (r *Repository) isClickHouse() bool {
	return r.db.DriverName() == "clickhouse"
}

// GetCandles returns up to limit most recent candles, oldest first
func (r *Repository) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	query := r.db.Rebind(`
		SELECT timestamp, symbol, timeframe, open, high, low, close, volume
		FROM market_ohlcv
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`)
	if r.isClickHouse() {
		// ReplacingMergeTree deduplicates lazily
		query = `
			SELECT timestamp, symbol, timeframe, open, high, low, close, volume
			FROM market_ohlcv FINAL
			WHERE symbol = ? AND timeframe = ?
			ORDER BY timestamp DESC
			LIMIT ?
		`
	}

	var rows []candleRow
	if err := r.db.SelectContext(ctx, &rows, query, symbol, timeframe, limit); err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}

	candles := make([]models.Candle, len(rows))
	for i, row := range rows {
		// reverse to chronological order
		candles[len(rows)-1-i] = row.toModel()
	}

	return candles, nil
}

// GetLatestCandle returns the most recent candle or nil
func (r *Repository) GetLatestCandle(ctx context.Context, symbol, timeframe string) (*models.Candle, error) {
	query := r.db.Rebind(`
		SELECT timestamp, symbol, timeframe, open, high, low, close, volume
		FROM market_ohlcv
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`)

	var row candleRow
	err := r.db.GetContext(ctx, &row, query, symbol, timeframe)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest candle: %w", err)
	}

	candle := row.toModel()
	return &candle, nil
}

// SaveCandles writes candles in one transaction. Existing bars are
// replaced.
func (r *Repository) SaveCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	query := r.db.Rebind(`
		INSERT INTO market_ohlcv (timestamp, symbol, timeframe, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timeframe, timestamp) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if r.isClickHouse() {
		query = `
			INSERT INTO market_ohlcv (timestamp, symbol, timeframe, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx,
			c.Timestamp.UTC(),
			c.Symbol,
			c.Timeframe,
			c.Open.InexactFloat64(),
			c.High.InexactFloat64(),
			c.Low.InexactFloat64(),
			c.Close.InexactFloat64(),
			c.Volume.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert candle %s %s: %w", c.Symbol, c.Timestamp.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candles: %w", err)
	}

	return nil
}
