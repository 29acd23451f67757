package news

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

var csvHeader = []string{"title", "summary", "url", "source", "published_at", "sentiment", "sentiment_label"}

// CSVStore mirrors the latest items of each symbol into one CSV file.
// It is the last tier the fallback chain reads before giving up.
type CSVStore struct {
	dir string
}

// NewCSVStore creates new CSV mirror rooted at dir
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// Path returns the file backing symbol
func (s *CSVStore) Path(symbol string) string {
	return filepath.Join(s.dir, models.NormalizeSymbol(symbol)+"_news.csv")
}

// Save overwrites the symbol file with items
func (s *CSVStore) Save(symbol string, items []models.ScoredNewsItem) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return newError(KindPersistence, "csv_save", symbol, fmt.Errorf("failed to create dir: %w", err))
	}

	path := s.Path(symbol)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*")
	if err != nil {
		return newError(KindPersistence, "csv_save", symbol, fmt.Errorf("failed to create file: %w", err))
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return newError(KindPersistence, "csv_save", symbol, err)
	}
	for _, item := range items {
		record := []string{
			item.Title,
			item.Summary,
			item.URL,
			item.Source,
			item.PublishedAt.Format(time.RFC3339Nano),
			strconv.FormatFloat(item.Sentiment, 'g', -1, 64),
			string(item.SentimentLabel),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return newError(KindPersistence, "csv_save", symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return newError(KindPersistence, "csv_save", symbol, fmt.Errorf("failed to flush csv: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return newError(KindPersistence, "csv_save", symbol, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return newError(KindPersistence, "csv_save", symbol, fmt.Errorf("failed to replace %s: %w", path, err))
	}
	return nil
}

// Load reads the symbol file back. A missing file is KindNotFound,
// a row that does not parse is KindDecode.
func (s *CSVStore) Load(symbol string) ([]models.ScoredNewsItem, error) {
	f, err := os.Open(s.Path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, newError(KindNotFound, "csv_load", symbol, ErrNoSnapshot)
	}
	if err != nil {
		return nil, newError(KindPersistence, "csv_load", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(KindNotFound, "csv_load", symbol, ErrNoSnapshot)
		}
		return nil, newError(KindDecode, "csv_load", symbol, fmt.Errorf("failed to read header: %w", err))
	}

	items := make([]models.ScoredNewsItem, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newError(KindDecode, "csv_load", symbol, err)
		}

		item, err := decodeRecord(record)
		if err != nil {
			return nil, newError(KindDecode, "csv_load", symbol, err)
		}
		items = append(items, item)
	}

	return items, nil
}

func decodeRecord(record []string) (models.ScoredNewsItem, error) {
	var publishedAt time.Time
	if record[4] != "" {
		t, err := time.Parse(time.RFC3339Nano, record[4])
		if err != nil {
			return models.ScoredNewsItem{}, fmt.Errorf("bad published_at %q: %w", record[4], err)
		}
		publishedAt = t
	}

	sentiment, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return models.ScoredNewsItem{}, fmt.Errorf("bad sentiment %q: %w", record[5], err)
	}

	label, ok := models.ParseSentimentLabel(record[6])
	if !ok {
		return models.ScoredNewsItem{}, fmt.Errorf("bad sentiment_label %q", record[6])
	}

	return models.ScoredNewsItem{
		Title:          record[0],
		Summary:        record[1],
		URL:            record[2],
		Source:         record[3],
		PublishedAt:    publishedAt,
		Sentiment:      sentiment,
		SentimentLabel: label,
	}, nil
}

// CSVSnapshotStore adapts the mirror to the Store interface so it can
// sit inside a LayeredStore when no database is configured.
type CSVSnapshotStore struct {
	csv *CSVStore
}

// NewCSVSnapshotStore wraps a CSV mirror as a Store. The snapshot
// timestamp is the file modification time.
func NewCSVSnapshotStore(csv *CSVStore) *CSVSnapshotStore {
	return &CSVSnapshotStore{csv: csv}
}

func (s *CSVSnapshotStore) SaveSnapshot(_ context.Context, snapshot *models.NewsSnapshot) error {
	if err := s.csv.Save(snapshot.Symbol, snapshot.Items); err != nil {
		return err
	}
	return os.Chtimes(s.csv.Path(snapshot.Symbol), snapshot.Timestamp, snapshot.Timestamp)
}

func (s *CSVSnapshotStore) GetLatestSnapshot(_ context.Context, symbol string) (*models.NewsSnapshot, error) {
	info, err := os.Stat(s.csv.Path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindPersistence, "csv_stat", symbol, err)
	}

	items, err := s.csv.Load(symbol)
	if KindOf(err) == KindNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.NewsSnapshot{
		Timestamp: info.ModTime().UTC(),
		Symbol:    models.NormalizeSymbol(symbol),
		Items:     items,
	}, nil
}
