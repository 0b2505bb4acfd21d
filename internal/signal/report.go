package signal

import (
	"fmt"
	"math"
	"strings"
)

// FormatReport renders the per-symbol Markdown analysis report delivered to
// Telegram. Line structure and wording follow the established report format
// so downstream consumers (and humans) see a stable layout.
func FormatReport(p Params, ev Evaluation) string {
	base, quote := SplitSymbol(ev.Symbol)

	emaFastPos := "Below"
	if ev.LivePrice > ev.EMAFast {
		emaFastPos = "Above"
	}
	emaSlowPos := "Below"
	if ev.LivePrice > ev.EMASlow {
		emaSlowPos = "Above"
	}

	momentum := "Bearish Momentum ❌"
	if ev.RSI > p.RSIBull {
		momentum = "Bullish Momentum ✅"
	}

	volNote := "Normal Volume"
	if ev.HighVolume {
		volNote = "🔥 High Volume"
	}

	signalLine := "🎯 Strategy Signal: ❌ No signal"
	switch {
	case ev.Direction == DirectionLong && ev.LowVolume:
		signalLine = "🎯 Strategy Signal: ⚠️ LONG Valid but Low Volume"
	case ev.Direction == DirectionLong:
		signalLine = "🎯 Strategy Signal: 📈 LONG Entry ✅"
	case ev.Direction == DirectionShort && ev.LowVolume:
		signalLine = "🎯 Strategy Signal: ⚠️ SHORT Valid but Low Volume"
	case ev.Direction == DirectionShort:
		signalLine = "🎯 Strategy Signal: 📉 SHORT Entry ✅"
	}

	lines := []string{
		fmt.Sprintf("\n📊 Analyzing: %s/%s", base, quote),
		fmt.Sprintf("➡️ Live Price: `%.5f`", ev.LivePrice),
		fmt.Sprintf("📈 EMA%d: `%.5f` → %s", p.EMAFast, ev.EMAFast, emaFastPos),
		fmt.Sprintf("📉 EMA%d: `%.5f` → %s", p.EMASlow, ev.EMASlow, emaSlowPos),
		fmt.Sprintf("📊 RSI(%d): `%s` → %s", p.RSIPeriod, formatRSI(ev.RSI), momentum),
		fmt.Sprintf("🔊 Volume: `%.2f` (Avg: `%.2f`) → %s", ev.Volume, ev.VolumeAvg, volNote),
		signalLine,
	}

	return strings.Join(lines, "\n")
}

// formatRSI renders the RSI value for the report. A warm-up NaN prints as
// "nan", lowercase.
func formatRSI(x float64) string {
	if math.IsNaN(x) {
		return "nan"
	}
	return fmt.Sprintf("%.1f", x)
}

// SplitSymbol splits a market symbol like BTCUSDT into its base and quote
// parts for display. Quote currencies are assumed to be four characters,
// as is the case for the USDT markets the scanner targets.
func SplitSymbol(symbol string) (base, quote string) {
	if len(symbol) <= 4 {
		return symbol, ""
	}
	return symbol[:len(symbol)-4], symbol[len(symbol)-4:]
}
