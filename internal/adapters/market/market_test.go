package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/selivandex/sentiment-analyst/internal/adapters/alphavantage"
	"github.com/selivandex/sentiment-analyst/internal/adapters/config"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

const dailyPayload = `{
	"Meta Data": {"2. Digital Currency Code": "BTC"},
	"Time Series (Digital Currency Daily)": {
		"2024-03-02": {"1. open": "101", "2. high": "105", "3. low": "99", "4. close": "104", "5. volume": "12.5"},
		"2024-03-01": {"1. open": "100", "2. high": "102", "3. low": "98", "4. close": "101", "5. volume": "10"}
	}
}`

const legacyDailyPayload = `{
	"Time Series (Digital Currency Daily)": {
		"2024-03-01": {
			"1a. open (EUR)": "90", "1b. open (USD)": "100",
			"2a. high (EUR)": "95", "2b. high (USD)": "105",
			"3a. low (EUR)": "85", "3b. low (USD)": "95",
			"4a. close (EUR)": "92", "4b. close (USD)": "102",
			"5. volume": "7", "6. market cap (USD)": "7"
		}
	}
}`

func newTestSource(t *testing.T, body string) *AlphaVantageSource {
	t.Helper()
	logger.InitNop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "DIGITAL_CURRENCY_DAILY" {
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := alphavantage.NewClient(&config.AlphaVantageConfig{
		APIKey:            "key",
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
	})
	return NewAlphaVantageSource(client, "USD")
}

func TestAlphaVantageSource_FetchDaily(t *testing.T) {
	source := newTestSource(t, dailyPayload)

	candles, err := source.FetchDaily(context.Background(), "btc")
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}

	first := candles[0]
	if !first.Timestamp.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected oldest first, got %v", first.Timestamp)
	}
	if first.Symbol != "BTC" || first.Timeframe != Timeframe {
		t.Errorf("Unexpected identity %s/%s", first.Symbol, first.Timeframe)
	}
	if !candles[1].Close.Equal(models.NewDecimal(104)) || !candles[1].Volume.Equal(models.NewDecimal(12.5)) {
		t.Errorf("Unexpected values %+v", candles[1])
	}
}

func TestAlphaVantageSource_LegacyKeys(t *testing.T) {
	source := newTestSource(t, legacyDailyPayload)

	candles, err := source.FetchDaily(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(candles))
	}
	if !candles[0].Close.Equal(models.NewDecimal(92)) {
		t.Errorf("Expected market close 92, got %s", candles[0].Close)
	}
}

func TestAlphaVantageSource_MissingSeries(t *testing.T) {
	source := newTestSource(t, `{"Note": "call frequency exceeded"}`)

	if _, err := source.FetchDaily(context.Background(), "BTC"); err == nil {
		t.Error("Expected error for payload without series")
	}
}

type memoryCandles struct {
	candles []models.Candle
	saves   int
	getErr  error
}

func (m *memoryCandles) GetCandles(_ context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := m.candles
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memoryCandles) GetLatestCandle(_ context.Context, symbol, timeframe string) (*models.Candle, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if len(m.candles) == 0 {
		return nil, nil
	}
	c := m.candles[len(m.candles)-1]
	return &c, nil
}

func (m *memoryCandles) SaveCandles(_ context.Context, candles []models.Candle) error {
	m.saves++
	m.candles = candles
	return nil
}

type stubSource struct {
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubSource) FetchDaily(context.Context, string) ([]models.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func dailyCandles(end time.Time, count int, start float64) []models.Candle {
	candles := make([]models.Candle, count)
	for i := 0; i < count; i++ {
		price := start + float64(i)
		candles[i] = models.Candle{
			Symbol:    "BTC",
			Timeframe: Timeframe,
			Timestamp: end.AddDate(0, 0, i-count+1),
			Open:      models.NewDecimal(price),
			High:      models.NewDecimal(price + 1),
			Low:       models.NewDecimal(price - 1),
			Close:     models.NewDecimal(price),
			Volume:    models.NewDecimal(10),
		}
	}
	return candles
}

func newTestService(store CandleStore, source DailySource, now time.Time) *Service {
	logger.InitNop()
	svc := NewService(store, source, &config.MarketConfig{UpdateInterval: 24 * time.Hour, HistoryDays: 365})
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_UsesFreshStoredCandles(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryCandles{candles: dailyCandles(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 60, 100)}
	source := &stubSource{err: errors.New("must not be called")}

	summary, err := newTestService(store, source, now).GetSummary(context.Background(), "BTC", false)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if source.calls != 0 {
		t.Errorf("Expected no source calls, got %d", source.calls)
	}
	if !summary.Price.Equal(models.NewDecimal(159)) {
		t.Errorf("Expected price 159, got %s", summary.Price)
	}
	if summary.MASignal != models.SignalBullish {
		t.Errorf("Expected bullish MA, got %s", summary.MASignal)
	}
}

func TestService_RefreshesStaleCandles(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryCandles{candles: dailyCandles(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10, 100)}
	fresh := dailyCandles(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 30, 200)
	source := &stubSource{candles: fresh}

	summary, err := newTestService(store, source, now).GetSummary(context.Background(), "BTC", false)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if source.calls != 1 || store.saves != 1 {
		t.Errorf("Expected fetch and save, got %d calls %d saves", source.calls, store.saves)
	}
	if !summary.Price.Equal(models.NewDecimal(229)) {
		t.Errorf("Expected price 229, got %s", summary.Price)
	}
}

func TestService_ForceFetches(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryCandles{candles: dailyCandles(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 10, 100)}
	source := &stubSource{candles: dailyCandles(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 10, 300)}

	if _, err := newTestService(store, source, now).GetSummary(context.Background(), "BTC", true); err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("Expected forced fetch, got %d calls", source.calls)
	}
}

func TestService_FetchFailureFallsBackToStore(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryCandles{candles: dailyCandles(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10, 100)}
	source := &stubSource{err: errors.New("rate limited")}

	summary, err := newTestService(store, source, now).GetSummary(context.Background(), "BTC", false)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if !summary.Price.Equal(models.NewDecimal(109)) {
		t.Errorf("Expected stale price 109, got %s", summary.Price)
	}
}

func TestService_NoDataAnywhere(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	source := &stubSource{}

	summary, err := newTestService(&memoryCandles{}, source, now).GetSummary(context.Background(), "XYZ", false)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary != nil {
		t.Errorf("Expected nil summary, got %+v", summary)
	}

	_, err = newTestService(nil, &stubSource{err: errors.New("down")}, now).GetSummary(context.Background(), "BTC", false)
	if err == nil {
		t.Error("Expected error without store and source")
	}
}
