package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/selivandex/sentiment-analyst/internal/adapters/alphavantage"
	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

func newAlphaVantageProvider(t *testing.T, body string) (*AlphaVantageProvider, *url.Values) {
	t.Helper()
	logger.InitNop()

	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := alphavantage.NewClient(&config.AlphaVantageConfig{
		APIKey:            "key",
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
	})
	return NewAlphaVantageProvider(client, "CRYPTO"), &captured
}

func TestAlphaVantageProvider_FetchFeed(t *testing.T) {
	provider, query := newAlphaVantageProvider(t, `{
		"items": "2",
		"feed": [
			{"title": "Bitcoin rallies", "summary": "Strong inflows", "url": "https://n/1", "source": "Desk", "time_published": "20240301T101500"},
			{"title": "Miners sell", "summary": "", "url": "https://n/2", "source": "Wire", "time_published": "20240301T090000"}
		]
	}`)

	feed, err := provider.FetchFeed(context.Background(), "btc", 7)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}

	q := *query
	if q.Get("function") != "NEWS_SENTIMENT" || q.Get("tickers") != "CRYPTO:BTC" || q.Get("limit") != "7" {
		t.Errorf("Unexpected query %v", q)
	}

	if !feed.HasFeed {
		t.Fatal("Expected HasFeed")
	}
	if len(feed.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(feed.Articles))
	}
	if feed.Articles[0].Title != "Bitcoin rallies" || feed.Articles[0].TimePublished != "20240301T101500" {
		t.Errorf("Unexpected first article %+v", feed.Articles[0])
	}
}

func TestAlphaVantageProvider_MissingFeed(t *testing.T) {
	provider, _ := newAlphaVantageProvider(t, `{"Information": "rate limit"}`)

	feed, err := provider.FetchFeed(context.Background(), "BTC", 10)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}
	if feed.HasFeed {
		t.Error("Expected HasFeed=false")
	}
	if feed.Notice != "rate limit" {
		t.Errorf("Expected notice, got %q", feed.Notice)
	}
}

func TestAlphaVantageProvider_EmptyFeed(t *testing.T) {
	provider, _ := newAlphaVantageProvider(t, `{"feed": []}`)

	feed, err := provider.FetchFeed(context.Background(), "BTC", 10)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}
	if !feed.HasFeed || len(feed.Articles) != 0 {
		t.Errorf("Expected present but empty feed, got %+v", feed)
	}
}

func TestAlphaVantageProvider_APIError(t *testing.T) {
	provider, _ := newAlphaVantageProvider(t, `{"Error Message": "Invalid API call"}`)

	_, err := provider.FetchFeed(context.Background(), "BTC", 10)
	var apiErr *alphavantage.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Crypto Desk</title>
  <link>https://desk.example</link>
  <description>news</description>
  <item>
    <title>Bitcoin hits new high</title>
    <link>https://desk.example/1</link>
    <description>&lt;p&gt;Traders &amp;amp; funds pile in&lt;/p&gt;</description>
    <pubDate>Fri, 01 Mar 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Ethereum upgrade ships</title>
    <link>https://desk.example/2</link>
    <description>Validators ready</description>
    <pubDate>Fri, 01 Mar 2024 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Subtle mention</title>
    <link>https://desk.example/3</link>
    <description>The btc chart looks weak</description>
    <pubDate>Fri, 01 Mar 2024 08:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

func TestRSSProvider_FetchFeed(t *testing.T) {
	logger.InitNop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	provider := NewRSSProvider([]string{srv.URL}, 5*time.Second)

	feed, err := provider.FetchFeed(context.Background(), "BTC", 10)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}
	if !feed.HasFeed {
		t.Fatal("Expected HasFeed")
	}
	if len(feed.Articles) != 2 {
		t.Fatalf("Expected 2 BTC articles, got %d: %+v", len(feed.Articles), feed.Articles)
	}

	first := feed.Articles[0]
	if first.Source != "Crypto Desk" {
		t.Errorf("Expected source Crypto Desk, got %q", first.Source)
	}
	if first.Summary != "Traders & funds pile in" {
		t.Errorf("Expected cleaned summary, got %q", first.Summary)
	}
	if first.TimePublished != "2024-03-01T10:00:00Z" {
		t.Errorf("Expected RFC3339 time, got %q", first.TimePublished)
	}

	limited, err := provider.FetchFeed(context.Background(), "BTC", 1)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}
	if len(limited.Articles) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited.Articles))
	}
}

func TestRSSProvider_AllFeedsFail(t *testing.T) {
	logger.InitNop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	provider := NewRSSProvider([]string{srv.URL}, 5*time.Second)
	if _, err := provider.FetchFeed(context.Background(), "BTC", 10); err == nil {
		t.Error("Expected error when every feed fails")
	}
}

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Bitcoin rallies", true},
		{"BTC/USD breaks out", true},
		{"Ethereum falls", false},
		{"abtcd is not a word match", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := isRelevant(tt.text, keywordsFor("btc")); got != tt.want {
				t.Errorf("isRelevant(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
