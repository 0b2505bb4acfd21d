// Package market implements the REST clients for the market data sources:
// Binance for candlestick history and CoinDCX for live ticker prices.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Candle is one kline bar. Prices and volume arrive as strings on the wire
// and are parsed into floats.
type Candle struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// BinanceClient fetches candlestick data from the Binance public REST API.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBinanceClient creates a Binance klines client. baseURL should point at
// the API root (e.g. https://api.binance.com) without a trailing path.
func NewBinanceClient(baseURL string, timeout time.Duration, logger *slog.Logger) *BinanceClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &BinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "binance_client"),
	}
}

// GetCandles fetches the most recent 'limit' candles for the given symbol
// and interval. The wire format is a JSON array of arrays; only the fields
// the signal engine needs are decoded.
func (c *BinanceClient) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create klines request for %s: %w", symbol, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines request for %s returned status %d", symbol, resp.StatusCode)
	}

	// Each kline is a 12-element array: open time, open, high, low, close,
	// volume, close time, and five fields this client ignores.
	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode klines response for %s: %w", symbol, err)
	}

	candles := make([]Candle, 0, len(raw))
	for i, k := range raw {
		if len(k) < 7 {
			return nil, fmt.Errorf("kline %d for %s has %d fields, want at least 7", i, symbol, len(k))
		}

		var openMS, closeMS int64
		if err := json.Unmarshal(k[0], &openMS); err != nil {
			return nil, fmt.Errorf("kline %d for %s: bad open time: %w", i, symbol, err)
		}
		if err := json.Unmarshal(k[6], &closeMS); err != nil {
			return nil, fmt.Errorf("kline %d for %s: bad close time: %w", i, symbol, err)
		}

		candle := Candle{
			OpenTime:  time.UnixMilli(openMS).UTC(),
			CloseTime: time.UnixMilli(closeMS).UTC(),
		}
		for idx, dst := range map[int]*float64{
			1: &candle.Open,
			2: &candle.High,
			3: &candle.Low,
			4: &candle.Close,
			5: &candle.Volume,
		} {
			var s string
			if err := json.Unmarshal(k[idx], &s); err != nil {
				return nil, fmt.Errorf("kline %d for %s: field %d is not a string: %w", i, symbol, idx, err)
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline %d for %s: field %d %q is not a number: %w", i, symbol, idx, s, err)
			}
			*dst = f
		}

		candles = append(candles, candle)
	}

	c.logger.DebugContext(ctx, "Fetched candles", "symbol", symbol, "interval", interval, "count", len(candles))
	return candles, nil
}
