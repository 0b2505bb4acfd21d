package market_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/candlebot/candlebot/internal/market"
)

func TestCoinDCXGetPrices(t *testing.T) {
	t.Parallel()

	fixture := `[
	  {"market": "BTCUSDT", "last_price": "65000.5"},
	  {"market": "ETHUSDT", "last_price": "3500.25"},
	  {"market": "", "last_price": "1.0"},
	  {"market": "NOPRICE"},
	  {"market": "BADPRICE", "last_price": "not-a-number"}
	]`

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := market.NewCoinDCXClient(srv.URL, 5*time.Second, nil)
	prices, err := client.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices returned error: %v", err)
	}

	if gotPath != "/exchange/ticker" {
		t.Errorf("request path = %q, want /exchange/ticker", gotPath)
	}

	// Entries with missing names, missing prices, or unparsable prices are
	// skipped rather than failing the call.
	if len(prices) != 2 {
		t.Fatalf("got %d prices, want 2: %v", len(prices), prices)
	}
	if prices["BTCUSDT"] != 65000.5 {
		t.Errorf("BTCUSDT price = %v, want 65000.5", prices["BTCUSDT"])
	}
	if prices["ETHUSDT"] != 3500.25 {
		t.Errorf("ETHUSDT price = %v, want 3500.25", prices["ETHUSDT"])
	}
}

func TestCoinDCXGetPricesErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error status", http.StatusBadGateway, ""},
		{"malformed json", http.StatusOK, `{"market": "BTCUSDT"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := market.NewCoinDCXClient(srv.URL, 5*time.Second, nil)
			if _, err := client.GetPrices(context.Background()); err == nil {
				t.Error("GetPrices returned nil error")
			}
		})
	}
}
