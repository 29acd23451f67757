package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	logger.InitNop()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.AlphaVantageConfig{
		APIKey:            "demo",
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
	})
}

func TestClient_Query(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"items": "2", "Note": "slow down"}`))
	})

	var out struct {
		Notices
		Items string `json:"items"`
	}
	err := client.Query(context.Background(), url.Values{"function": {"NEWS_SENTIMENT"}}, &out)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if gotQuery.Get("apikey") != "demo" {
		t.Errorf("Expected apikey demo, got %q", gotQuery.Get("apikey"))
	}
	if gotQuery.Get("function") != "NEWS_SENTIMENT" {
		t.Errorf("Expected function NEWS_SENTIMENT, got %q", gotQuery.Get("function"))
	}
	if out.Items != "2" {
		t.Errorf("Expected items 2, got %q", out.Items)
	}
	if out.Text() != "slow down" {
		t.Errorf("Expected note to be decoded, got %q", out.Text())
	}
}

func TestClient_QueryErrors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})

		var out map[string]interface{}
		if err := client.Query(context.Background(), url.Values{}, &out); err == nil {
			t.Error("Expected error for 502 response")
		}
	})

	t.Run("api error message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Error Message": "Invalid API call"}`))
		})

		var out map[string]interface{}
		err := client.Query(context.Background(), url.Values{}, &out)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Expected APIError, got %v", err)
		}
		if apiErr.Message != "Invalid API call" {
			t.Errorf("Unexpected message %q", apiErr.Message)
		}
	})

	t.Run("not json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		})

		var out map[string]interface{}
		if err := client.Query(context.Background(), url.Values{}, &out); err == nil {
			t.Error("Expected decode error")
		}
	})
}
