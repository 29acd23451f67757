package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/cinar/indicator"

	"github.com/selivandex/sentiment-analyst/pkg/models"
)

const (
	// RSIPeriod is the lookback of the RSI the library computes
	RSIPeriod = 14
	// MAPeriod is the moving average the price is compared against
	MAPeriod = 50
	// minMACDCandles is the slow EMA length
	minMACDCandles = 26
)

// ErrNoCandles is returned when there is nothing to summarize
var ErrNoCandles = errors.New("no candles")

// Calculator calculates technical indicators from candle data
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Summarize builds a market summary from candles ordered oldest first.
// Indicators without enough history are left nil or neutral.
func (c *Calculator) Summarize(symbol string, candles []models.Candle) (*models.MarketSummary, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoCandles)
	}

	last := candles[len(candles)-1]
	summary := &models.MarketSummary{
		Timestamp:  last.Timestamp,
		Symbol:     models.NormalizeSymbol(symbol),
		Price:      last.Close,
		Volume24h:  last.Volume,
		RSI:        c.RSI(candles),
		MACDSignal: c.MACDSignal(candles),
		MASignal:   c.MASignal(candles),
	}

	if len(candles) >= 2 {
		summary.PriceChange24h = models.PercentChange(last.Close, candles[len(candles)-2].Close)
	}

	return summary, nil
}

// RSI returns the latest RSI(14), nil without enough data
func (c *Calculator) RSI(candles []models.Candle) *float64 {
	if len(candles) < RSIPeriod+1 {
		return nil
	}

	_, rsi := indicator.Rsi(closes(candles))
	if len(rsi) == 0 {
		return nil
	}

	value := rsi[len(rsi)-1]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

// MACDSignal classifies the latest MACD histogram
func (c *Calculator) MACDSignal(candles []models.Candle) string {
	if len(candles) < minMACDCandles {
		return models.SignalNeutral
	}

	macdLine, signalLine := indicator.Macd(closes(candles))
	if len(macdLine) == 0 || len(signalLine) == 0 {
		return models.SignalNeutral
	}

	histogram := macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1]
	if histogram > 0 {
		return models.SignalBullish
	}
	return models.SignalBearish
}

// MASignal compares the last close against SMA(50)
func (c *Calculator) MASignal(candles []models.Candle) string {
	sma, err := c.CalculateSMA(candles, MAPeriod)
	if err != nil {
		return models.SignalNeutral
	}

	price := candles[len(candles)-1].Close.InexactFloat64()
	if price > sma {
		return models.SignalBullish
	}
	return models.SignalBearish
}

// CalculateSMA calculates Simple Moving Average
func (c *Calculator) CalculateSMA(candles []models.Candle, period int) (float64, error) {
	if len(candles) < period {
		return 0, fmt.Errorf("insufficient candles for SMA calculation")
	}

	sma := indicator.Sma(period, closes(candles))
	if len(sma) == 0 {
		return 0, fmt.Errorf("SMA calculation failed")
	}
	return sma[len(sma)-1], nil
}

func closes(candles []models.Candle) []float64 {
	values := make([]float64, len(candles))
	for i, candle := range candles {
		values[i] = candle.Close.InexactFloat64()
	}
	return values
}
