package news

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

func TestCSVStore_RoundTrip(t *testing.T) {
	store := NewCSVStore(t.TempDir())

	items := []models.ScoredNewsItem{
		models.NewScoredNewsItem(`Bitcoin "breaks" out, again`, "line one\nline two", "https://x/1", "Desk", time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC), 0.125),
		models.NewScoredNewsItem("Exchange hacked", "", "https://x/2", "Wire", time.Time{}, -0.7),
		models.NewScoredNewsItem("Quiet day", "nothing", "", "", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 0),
	}

	if err := store.Save("btc", items); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if filepath.Base(store.Path("btc")) != "BTC_news.csv" {
		t.Errorf("Unexpected file name %s", store.Path("btc"))
	}

	got, err := store.Load("BTC")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), len(got))
	}
	for i := range items {
		want := items[i]
		if got[i].Title != want.Title || got[i].Summary != want.Summary || got[i].URL != want.URL || got[i].Source != want.Source {
			t.Errorf("item %d text mismatch: got %+v want %+v", i, got[i], want)
		}
		if !got[i].PublishedAt.Equal(want.PublishedAt) {
			t.Errorf("item %d published_at: got %v want %v", i, got[i].PublishedAt, want.PublishedAt)
		}
		if got[i].Sentiment != want.Sentiment || got[i].SentimentLabel != want.SentimentLabel {
			t.Errorf("item %d sentiment: got %v/%s want %v/%s", i, got[i].Sentiment, got[i].SentimentLabel, want.Sentiment, want.SentimentLabel)
		}
	}
}

func TestCSVStore_HeaderOnlyFile(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	if err := store.Save("ADA", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(store.Path("ADA"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "title,summary,url,source,published_at,sentiment,sentiment_label\n" {
		t.Errorf("Unexpected file contents %q", data)
	}

	items, err := store.Load("ADA")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestCSVStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir)

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Load("XRP")
		if KindOf(err) != KindNotFound {
			t.Errorf("Expected KindNotFound, got %v", err)
		}
		if !errors.Is(err, ErrNoSnapshot) {
			t.Errorf("Expected ErrNoSnapshot in chain, got %v", err)
		}
	})

	t.Run("bad sentiment", func(t *testing.T) {
		content := "title,summary,url,source,published_at,sentiment,sentiment_label\n" +
			"a,b,c,d,2024-01-01T00:00:00Z,high,Positive\n"
		if err := os.WriteFile(store.Path("SOL"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := store.Load("SOL")
		if KindOf(err) != KindDecode {
			t.Errorf("Expected KindDecode, got %v", err)
		}
	})

	t.Run("bad label", func(t *testing.T) {
		content := "title,summary,url,source,published_at,sentiment,sentiment_label\n" +
			"a,b,c,d,2024-01-01T00:00:00Z,0.5,Bullish\n"
		if err := os.WriteFile(store.Path("DOT"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := store.Load("DOT")
		if KindOf(err) != KindDecode {
			t.Errorf("Expected KindDecode, got %v", err)
		}
	})

	t.Run("wrong column count", func(t *testing.T) {
		content := "title,summary,url,source,published_at,sentiment,sentiment_label\n" + "a,b\n"
		if err := os.WriteFile(store.Path("LTC"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := store.Load("LTC")
		if KindOf(err) != KindDecode {
			t.Errorf("Expected KindDecode, got %v", err)
		}
	})
}

func TestCSVSnapshotStore(t *testing.T) {
	store := NewCSVSnapshotStore(NewCSVStore(t.TempDir()))
	ctx := context.Background()

	got, err := store.GetLatestSnapshot(ctx, "BTC")
	if err != nil || got != nil {
		t.Fatalf("Expected (nil, nil) for empty dir, got (%v, %v)", got, err)
	}

	snapshot := models.NewNewsSnapshot("BTC", []models.ScoredNewsItem{
		models.NewScoredNewsItem("a", "", "", "", time.Time{}, 0.1),
	}, testNow)
	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err = store.GetLatestSnapshot(ctx, "btc")
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if !got.Timestamp.Equal(testNow) {
		t.Errorf("Expected timestamp %v, got %v", testNow, got.Timestamp)
	}
	if len(got.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(got.Items))
	}
}

func TestRedisStore(t *testing.T) {
	cache := newFakeCache()
	store := NewRedisStore(cache, 24*time.Hour)
	ctx := context.Background()

	got, err := store.GetLatestSnapshot(ctx, "BTC")
	if err != nil || got != nil {
		t.Fatalf("Expected (nil, nil) for missing key, got (%v, %v)", got, err)
	}

	snapshot := models.NewNewsSnapshot("BTC", []models.ScoredNewsItem{
		models.NewScoredNewsItem("a", "b", "c", "d", testNow, -0.5),
	}, testNow)
	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, ok := cache.data["news:snapshot:BTC"]; !ok {
		t.Fatalf("Expected key news:snapshot:BTC, have %v", cache.data)
	}
	if cache.ttl["news:snapshot:BTC"] != 24*time.Hour {
		t.Errorf("Expected ttl 24h, got %v", cache.ttl["news:snapshot:BTC"])
	}

	got, err = store.GetLatestSnapshot(ctx, "btc")
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if !got.Timestamp.Equal(testNow) || len(got.Items) != 1 || got.Items[0].SentimentLabel != models.SentimentNegative {
		t.Errorf("Unexpected snapshot %+v", got)
	}

	cache.data["news:snapshot:ETH"] = "{not json"
	if _, err := store.GetLatestSnapshot(ctx, "ETH"); KindOf(err) != KindDecode {
		t.Errorf("Expected KindDecode, got %v", err)
	}

	cache.err = errors.New("connection refused")
	if _, err := store.GetLatestSnapshot(ctx, "BTC"); KindOf(err) != KindPersistence {
		t.Errorf("Expected KindPersistence, got %v", err)
	}
	if err := store.SaveSnapshot(ctx, snapshot); KindOf(err) != KindPersistence {
		t.Errorf("Expected KindPersistence, got %v", err)
	}
}

func TestLayeredStore(t *testing.T) {
	logger.InitNop()
	ctx := context.Background()

	fast := newMemoryStore()
	slow := newMemoryStore()
	layered := NewLayeredStore().Add("fast", fast).Add("slow", slow)

	older := models.NewNewsSnapshot("BTC", nil, testNow.Add(-time.Hour))
	newer := models.NewNewsSnapshot("BTC", nil, testNow)
	fast.snapshots["BTC"] = older
	slow.snapshots["BTC"] = newer

	got, err := layered.GetLatestSnapshot(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if got != newer {
		t.Errorf("Expected newest snapshot, got %v", got.Timestamp)
	}

	fast.getErr = errors.New("down")
	if got, err := layered.GetLatestSnapshot(ctx, "BTC"); err != nil || got != newer {
		t.Errorf("Expected surviving backend to answer, got (%v, %v)", got, err)
	}

	slow.getErr = errors.New("down too")
	if _, err := layered.GetLatestSnapshot(ctx, "BTC"); KindOf(err) != KindPersistence {
		t.Errorf("Expected KindPersistence when all backends fail, got %v", err)
	}

	fast.saveErr = errors.New("read only")
	if err := layered.SaveSnapshot(ctx, newer); err != nil {
		t.Errorf("Expected partial write to succeed, got %v", err)
	}
	if slow.saves != 1 {
		t.Errorf("Expected slow backend to be written, got %d saves", slow.saves)
	}

	slow.saveErr = errors.New("read only")
	if err := layered.SaveSnapshot(ctx, newer); KindOf(err) != KindPersistence {
		t.Errorf("Expected KindPersistence when all writes fail, got %v", err)
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	snapshot := models.NewNewsSnapshot("BTC", []models.ScoredNewsItem{
		models.NewScoredNewsItem("t", "s", "u", "src", testNow, 0.5),
	}, testNow)

	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"timestamp", "symbol", "items"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected key %q in %s", key, data)
		}
	}
}
