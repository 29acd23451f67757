package news

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Repository stores news snapshots in PostgreSQL
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new news repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type snapshotRow struct {
	Timestamp time.Time `db:"timestamp"`
	Symbol    string    `db:"symbol"`
	Items     []byte    `db:"items"`
}

// SaveSnapshot appends a snapshot; readers only ever see the newest one
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.NewsSnapshot) error {
	items, err := json.Marshal(snapshot.Items)
	if err != nil {
		return newError(KindPersistence, "save", snapshot.Symbol, fmt.Errorf("failed to marshal items: %w", err))
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO news_snapshots (symbol, timestamp, items)
		VALUES ($1, $2, $3)
	`, snapshot.Symbol, snapshot.Timestamp, items)
	if err != nil {
		return newError(KindPersistence, "save", snapshot.Symbol, fmt.Errorf("failed to insert snapshot: %w", err))
	}

	return nil
}

// GetLatestSnapshot returns the newest snapshot for symbol or nil
func (r *Repository) GetLatestSnapshot(ctx context.Context, symbol string) (*models.NewsSnapshot, error) {
	symbol = models.NormalizeSymbol(symbol)

	var row snapshotRow
	err := r.db.GetContext(ctx, &row, `
		SELECT symbol, timestamp, items
		FROM news_snapshots
		WHERE symbol = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindPersistence, "get_latest", symbol, fmt.Errorf("failed to query snapshot: %w", err))
	}

	var items []models.ScoredNewsItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, newError(KindDecode, "get_latest", symbol, fmt.Errorf("failed to unmarshal items: %w", err))
	}

	return &models.NewsSnapshot{
		Symbol:    row.Symbol,
		Timestamp: row.Timestamp,
		Items:     items,
	}, nil
}
