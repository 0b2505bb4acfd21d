// Package tasks implements the builtin scheduled tasks of candlebot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"context"
	"log/slog"

	"github.com/candlebot/candlebot/internal/config"
	"github.com/candlebot/candlebot/internal/database"
	"github.com/candlebot/candlebot/internal/gemini"
	"github.com/candlebot/candlebot/internal/market"
	"github.com/candlebot/candlebot/internal/signal"
)

// CandleSource provides candle history for a symbol.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
}

// PriceSource provides live last-traded prices by market name.
type PriceSource interface {
	GetPrices(ctx context.Context) (map[string]float64, error)
}

// Notifier delivers Markdown messages to the configured destination chat.
// A nil Notifier means delivery is disabled; tasks log instead of sending.
type Notifier interface {
	SendMarkdown(ctx context.Context, text string) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	Candles      CandleSource
	Prices       PriceSource
	GeminiClient gemini.Client
	Notifier     Notifier
}

// signalParams maps the signal section of the configuration onto the
// engine's parameter set.
func signalParams(cfg config.SignalConfig) signal.Params {
	return signal.Params{
		RequireHighVolume: cfg.RequireHighVolume,
		PriceBuffer:       cfg.PriceBuffer,
		EMAFast:           cfg.EMAFast,
		EMASlow:           cfg.EMASlow,
		RSIPeriod:         cfg.RSIPeriod,
		RSIBull:           cfg.RSIBull,
		RSIBear:           cfg.RSIBear,
		VolumeWindow:      cfg.VolumeWindow,
		VolumeFactor:      cfg.VolumeFactor,
		TrendWindow:       cfg.TrendWindow,
	}
}
