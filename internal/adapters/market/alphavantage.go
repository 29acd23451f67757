package market

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selivandex/sentiment-analyst/internal/adapters/alphavantage"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Timeframe of the candles this package stores
const Timeframe = "1d"

const dailySeriesKey = "Time Series (Digital Currency Daily)"

// Querier performs one Alpha Vantage call
type Querier interface {
	Query(ctx context.Context, params url.Values, out interface{}) error
}

// AlphaVantageSource loads daily candles from DIGITAL_CURRENCY_DAILY
type AlphaVantageSource struct {
	client Querier
	market string
}

// NewAlphaVantageSource creates new daily candle source quoted in market
func NewAlphaVantageSource(client Querier, market string) *AlphaVantageSource {
	return &AlphaVantageSource{client: client, market: market}
}

// FetchDaily returns candles for symbol, oldest first
func (s *AlphaVantageSource) FetchDaily(ctx context.Context, symbol string) ([]models.Candle, error) {
	symbol = models.NormalizeSymbol(symbol)
	params := url.Values{
		"function": {"DIGITAL_CURRENCY_DAILY"},
		"symbol":   {symbol},
		"market":   {s.market},
	}

	var result map[string]interface{}
	if err := s.client.Query(ctx, params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch daily series for %s: %w", symbol, err)
	}

	raw, ok := result[dailySeriesKey].(map[string]interface{})
	if !ok {
		var notices alphavantage.Notices
		if note, ok := result["Note"].(string); ok {
			notices.Note = note
		}
		if info, ok := result["Information"].(string); ok {
			notices.Information = info
		}
		return nil, fmt.Errorf("no daily series for %s: %s", symbol, notices.Text())
	}

	candles := make([]models.Candle, 0, len(raw))
	for day, fields := range raw {
		values, ok := fields.(map[string]interface{})
		if !ok {
			continue
		}

		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in daily series: %w", day, err)
		}

		candle, err := parseDailyValues(values)
		if err != nil {
			return nil, fmt.Errorf("bad values for %s on %s: %w", symbol, day, err)
		}
		candle.Symbol = symbol
		candle.Timeframe = Timeframe
		candle.Timestamp = ts

		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	return candles, nil
}

// parseDailyValues reads "1. open" style keys. Older payloads carry
// "1a. open (USD)" for the requested market and "1b." for USD, the
// market one wins.
func parseDailyValues(values map[string]interface{}) (models.Candle, error) {
	var candle models.Candle
	targets := map[byte]*decimal.Decimal{
		'1': &candle.Open,
		'2': &candle.High,
		'3': &candle.Low,
		'4': &candle.Close,
		'5': &candle.Volume,
	}
	found := make(map[byte]bool)

	for key, v := range values {
		if len(key) < 3 {
			continue
		}
		target, ok := targets[key[0]]
		if !ok {
			continue
		}
		if strings.HasPrefix(key[1:], "b.") {
			continue
		}

		s, ok := v.(string)
		if !ok {
			return candle, fmt.Errorf("field %q is not a string", key)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return candle, fmt.Errorf("field %q: %w", key, err)
		}
		*target = d
		found[key[0]] = true
	}

	if !found['4'] {
		return candle, fmt.Errorf("missing close")
	}
	return candle, nil
}
