package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// tickerEntry is one market entry of the CoinDCX ticker response. LastPrice
// arrives as a string.
type tickerEntry struct {
	Market    string `json:"market"`
	LastPrice string `json:"last_price"`
}

// CoinDCXClient fetches live ticker prices from the CoinDCX public API.
type CoinDCXClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCoinDCXClient creates a CoinDCX ticker client. baseURL should point at
// the API root (e.g. https://api.coindcx.com) without a trailing path.
func NewCoinDCXClient(baseURL string, timeout time.Duration, logger *slog.Logger) *CoinDCXClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinDCXClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "coindcx_client"),
	}
}

// GetPrices fetches the full exchange ticker and returns a map of market
// name to last traded price. Entries with a missing market name, missing
// price, or unparsable price are skipped rather than failing the call.
func (c *CoinDCXClient) GetPrices(ctx context.Context) (map[string]float64, error) {
	reqURL := c.baseURL + "/exchange/ticker"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ticker request returned status %d", resp.StatusCode)
	}

	var entries []tickerEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode ticker response: %w", err)
	}

	prices := make(map[string]float64, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.Market == "" || e.LastPrice == "" {
			skipped++
			continue
		}
		price, err := strconv.ParseFloat(e.LastPrice, 64)
		if err != nil {
			skipped++
			continue
		}
		prices[e.Market] = price
	}

	c.logger.DebugContext(ctx, "Fetched ticker prices", "markets", len(prices), "skipped", skipped)
	return prices, nil
}
