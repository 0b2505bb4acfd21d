package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/candlebot/candlebot/internal/database"
	"github.com/candlebot/candlebot/internal/signal"
)

// newMarketScanTask creates the scheduled task that scans the configured
// markets: one ticker fetch, then per-symbol candle fetch, strategy
// evaluation, signal recording, and delivery. Per-symbol errors are logged
// and skipped; the task itself fails only when the ticker fetch fails or
// every symbol fails.
func newMarketScanTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "market_scan")
	params := signalParams(deps.Config.Signal)
	marketCfg := deps.Config.Market

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting market scan", "symbols", len(marketCfg.Symbols))
		startTime := time.Now()

		prices, err := deps.Prices.GetPrices(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch live prices", "error", err)
			return fmt.Errorf("failed to fetch live prices: %w", err)
		}

		var scanned, failed, signals int
		for _, symbol := range marketCfg.Symbols {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			symLog := log.With("symbol", symbol)

			candles, err := deps.Candles.GetCandles(ctx, symbol, marketCfg.Interval, marketCfg.CandleLimit)
			if err != nil {
				symLog.ErrorContext(ctx, "Failed to fetch candles, skipping symbol", "error", err)
				failed++
				continue
			}
			if len(candles) < signal.MinCandles {
				symLog.WarnContext(ctx, "Not enough candle data, skipping symbol",
					"count", len(candles), "required", signal.MinCandles)
				continue
			}

			livePrice, ok := prices[symbol]
			if !ok {
				symLog.WarnContext(ctx, "Live price not found, skipping symbol")
				continue
			}

			ev := signal.Evaluate(params, symbol, candles, livePrice)
			report := signal.FormatReport(params, ev)
			scanned++

			symLog.InfoContext(ctx, "Symbol evaluated",
				"live_price", ev.LivePrice,
				"ema_fast", ev.EMAFast,
				"ema_slow", ev.EMASlow,
				"rsi", ev.RSI,
				"high_volume", ev.HighVolume,
				"direction", string(ev.Direction),
				"low_volume_signal", ev.LowVolume)

			if !ev.HasSignal() {
				symLog.DebugContext(ctx, "No signal, report not delivered", "report", report)
				continue
			}
			signals++

			sig := &database.Signal{
				Symbol:    symbol,
				Direction: string(ev.Direction),
				LowVolume: ev.LowVolume,
				Price:     ev.LivePrice,
				RSI:       ev.RSI,
				EMAFast:   ev.EMAFast,
				EMASlow:   ev.EMASlow,
				Volume:    ev.Volume,
				VolumeAvg: ev.VolumeAvg,
				Message:   report,
			}
			if err := deps.Store.SaveSignal(ctx, sig); err != nil {
				symLog.ErrorContext(ctx, "Failed to record signal", "error", err)
			}

			if deps.Notifier == nil {
				symLog.InfoContext(ctx, "Delivery disabled, signal not sent", "direction", string(ev.Direction))
				continue
			}
			if err := deps.Notifier.SendMarkdown(ctx, report); err != nil {
				symLog.ErrorContext(ctx, "Failed to deliver signal report", "error", err)
			}
		}

		duration := time.Since(startTime)
		if scanned == 0 && failed > 0 {
			log.ErrorContext(ctx, "Market scan failed for all symbols", "failed", failed, "duration", duration)
			return fmt.Errorf("market scan failed for all %d symbols", failed)
		}

		log.InfoContext(ctx, "Market scan finished",
			"scanned", scanned, "failed", failed, "signals", signals, "duration", duration)
		return nil
	}
}
