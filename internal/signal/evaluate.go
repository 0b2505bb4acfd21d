package signal

import (
	"math"

	"github.com/candlebot/candlebot/internal/market"
)

// Direction is the outcome of a strategy evaluation.
type Direction string

// Evaluation outcomes.
const (
	DirectionNone  Direction = ""
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Params holds the strategy parameters. Zero values are not usable; callers
// populate from configuration or use DefaultParams in tests.
type Params struct {
	RequireHighVolume bool
	PriceBuffer       float64
	EMAFast           int
	EMASlow           int
	RSIPeriod         int
	RSIBull           float64
	RSIBear           float64
	VolumeWindow      int
	VolumeFactor      float64
	TrendWindow       int
}

// DefaultParams returns the canonical EMA20/EMA50 + RSI(14) parameter set.
func DefaultParams() Params {
	return Params{
		RequireHighVolume: true,
		PriceBuffer:       0.001,
		EMAFast:           20,
		EMASlow:           50,
		RSIPeriod:         14,
		RSIBull:           55,
		RSIBear:           45,
		VolumeWindow:      20,
		VolumeFactor:      1.5,
		TrendWindow:       3,
	}
}

// MinCandles is the minimum candle history required before a symbol is
// evaluated; shorter series are skipped by the scan.
const MinCandles = 50

// Evaluation is the full outcome of evaluating one symbol: the indicator
// snapshot, the derived conditions, and the strategy direction.
type Evaluation struct {
	Symbol    string
	LivePrice float64

	EMAFast   float64
	EMASlow   float64
	RSI       float64
	Volume    float64
	VolumeAvg float64

	HighVolume bool
	TrendUp    bool
	TrendDown  bool

	Direction Direction
	LowVolume bool // direction is valid but volume confirmation failed
}

// HasSignal reports whether the evaluation produced a LONG or SHORT signal,
// including the low-volume variants.
func (e Evaluation) HasSignal() bool {
	return e.Direction != DirectionNone
}

// Evaluate runs the strategy for one symbol over its candle history and the
// live price. The price must clear a buffer band around both EMAs, RSI must
// confirm momentum, and the fast EMA must have led (or trailed) the slow
// EMA for the whole trend window. When volume confirmation is required and
// the last volume is not high, a valid direction is demoted to a low-volume
// signal rather than dropped.
//
// RSI is rounded to one decimal before threshold comparison, matching the
// rounded value shown in the report. Comparisons against NaN warm-up values
// are false, so short histories never signal.
func Evaluate(p Params, symbol string, candles []market.Candle, livePrice float64) Evaluation {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	emaFast := EMA(closes, p.EMAFast)
	emaSlow := EMA(closes, p.EMASlow)
	rsi := RSI(closes, p.RSIPeriod)
	volAvg := RollingMean(volumes, p.VolumeWindow)

	last := len(candles) - 1
	ev := Evaluation{
		Symbol:    symbol,
		LivePrice: livePrice,
		EMAFast:   emaFast[last],
		EMASlow:   emaSlow[last],
		RSI:       roundTo1(rsi[last]),
		Volume:    volumes[last],
		VolumeAvg: volAvg[last],
	}

	ev.HighVolume = ev.Volume > p.VolumeFactor*ev.VolumeAvg

	ev.TrendUp = true
	ev.TrendDown = true
	for i := last - p.TrendWindow + 1; i <= last; i++ {
		if i < 0 {
			ev.TrendUp = false
			ev.TrendDown = false
			break
		}
		ev.TrendUp = ev.TrendUp && emaFast[i] > emaSlow[i]
		ev.TrendDown = ev.TrendDown && emaFast[i] < emaSlow[i]
	}

	aboveFast := livePrice > ev.EMAFast*(1+p.PriceBuffer)
	belowFast := livePrice < ev.EMAFast*(1-p.PriceBuffer)
	aboveSlow := livePrice > ev.EMASlow*(1+p.PriceBuffer)
	belowSlow := livePrice < ev.EMASlow*(1-p.PriceBuffer)

	switch {
	case aboveFast && aboveSlow && ev.RSI > p.RSIBull && ev.TrendUp:
		ev.Direction = DirectionLong
		ev.LowVolume = p.RequireHighVolume && !ev.HighVolume
	case belowFast && belowSlow && ev.RSI < p.RSIBear && ev.TrendDown:
		ev.Direction = DirectionShort
		ev.LowVolume = p.RequireHighVolume && !ev.HighVolume
	}

	return ev
}

func roundTo1(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Round(x*10) / 10
}
