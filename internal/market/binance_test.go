package market_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/candlebot/candlebot/internal/market"
)

const klinesFixture = `[
  [1700000000000, "100.10", "101.00", "99.50", "100.50", "1234.56", 1700000059999, "0", 10, "0", "0", "0"],
  [1700000060000, "100.50", "102.00", "100.00", "101.75", "2345.67", 1700000119999, "0", 12, "0", "0", "0"]
]`

func TestBinanceGetCandles(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(klinesFixture))
	}))
	defer srv.Close()

	client := market.NewBinanceClient(srv.URL, 5*time.Second, nil)
	candles, err := client.GetCandles(context.Background(), "BTCUSDT", "1m", 100)
	if err != nil {
		t.Fatalf("GetCandles returned error: %v", err)
	}

	if gotPath != "/api/v3/klines" {
		t.Errorf("request path = %q, want /api/v3/klines", gotPath)
	}
	if gotQuery != "interval=1m&limit=100&symbol=BTCUSDT" {
		t.Errorf("request query = %q, want interval=1m&limit=100&symbol=BTCUSDT", gotQuery)
	}

	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}

	first := candles[0]
	if !first.OpenTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Errorf("OpenTime = %v, want %v", first.OpenTime, time.UnixMilli(1700000000000).UTC())
	}
	if first.Open != 100.10 || first.High != 101.00 || first.Low != 99.50 || first.Close != 100.50 {
		t.Errorf("first candle OHLC = %v/%v/%v/%v, want 100.10/101.00/99.50/100.50",
			first.Open, first.High, first.Low, first.Close)
	}
	if first.Volume != 1234.56 {
		t.Errorf("first candle volume = %v, want 1234.56", first.Volume)
	}
	if candles[1].Close != 101.75 {
		t.Errorf("second candle close = %v, want 101.75", candles[1].Close)
	}
}

func TestBinanceGetCandlesErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"server error status", http.StatusInternalServerError, "", true},
		{"malformed json", http.StatusOK, `{"not": "an array"}`, true},
		{"short kline row", http.StatusOK, `[[1700000000000, "1", "1"]]`, true},
		{"non-numeric price", http.StatusOK, `[[1700000000000, "abc", "1", "1", "1", "1", 1700000059999, "0", 1, "0", "0", "0"]]`, true},
		{"empty array", http.StatusOK, `[]`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := market.NewBinanceClient(srv.URL, 5*time.Second, nil)
			_, err := client.GetCandles(context.Background(), "BTCUSDT", "1m", 100)
			if (err != nil) != tc.wantErr {
				t.Errorf("GetCandles error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBinanceGetCandlesContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := market.NewBinanceClient(srv.URL, 5*time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetCandles(ctx, "BTCUSDT", "1m", 100); err == nil {
		t.Error("GetCandles with cancelled context returned nil error")
	}
}
