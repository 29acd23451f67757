package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

// APIError is returned when Alpha Vantage rejects the call itself
// (bad function, bad symbol, invalid key)
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage error: %s", e.Message)
}

// Notices are informational fields Alpha Vantage returns instead of data,
// typically when the rate limit is hit
type Notices struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// Text returns the first non-empty notice
func (n Notices) Text() string {
	if n.Note != "" {
		return n.Note
	}
	return n.Information
}

// Client is a thin rate-limited Alpha Vantage query client
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates new Alpha Vantage client
func NewClient(cfg *config.AlphaVantageConfig) *Client {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Query performs GET baseURL?params&apikey=... and decodes the JSON body into out
func (c *Client) Query(ctx context.Context, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	logger.Debug("alpha vantage response",
		zap.String("function", params.Get("function")),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("bytes", len(body)),
	)

	var apiErr struct {
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if apiErr.ErrorMessage != "" {
		return &APIError{Message: apiErr.ErrorMessage}
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
