// Package signal implements the market signal engine: indicator math over
// candle series, strategy evaluation, and report formatting. It performs
// no I/O.
package signal

import "math"

// EMA computes the exponentially weighted moving average of the series with
// the given span, matching the adjusted weighting scheme (weights (1-a)^i
// with a = 2/(span+1), normalized over the observed samples). The result is
// defined from the first sample onward.
func EMA(series []float64, span int) []float64 {
	out := make([]float64, len(series))
	if span < 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	var num, den float64
	for i, x := range series {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// RSI computes the relative strength index over the series using simple
// rolling means of gains and losses. Values are NaN until period+1 samples
// have been observed. All-gain windows yield 100, all-loss windows yield 0.
func RSI(series []float64, period int) []float64 {
	n := len(series)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || n < period+1 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// The first delta does not exist, so the first full window ends at
	// index 'period'.
	var sumGain, sumLoss float64
	for i := 1; i < n; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
		if i > period {
			sumGain -= gains[i-period]
			sumLoss -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// RollingMean computes the simple moving average of the series over the
// given window. Values are NaN until a full window has been observed.
func RollingMean(series []float64, window int) []float64 {
	n := len(series)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 1 || n < window {
		return out
	}

	var sum float64
	for i, x := range series {
		sum += x
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}
