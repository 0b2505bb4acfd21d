package signal_test

import (
	"math"
	"testing"

	"github.com/candlebot/candlebot/internal/signal"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tolerance
}

func TestEMA(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		series   []float64
		span     int
		expected []float64
	}{
		{
			name:     "span 3 over rising series",
			series:   []float64{1, 2, 3, 4, 5},
			span:     3,
			expected: []float64{1, 1.6666666666666667, 2.4285714285714284, 3.2666666666666666, 4.161290322580645},
		},
		{
			name:     "span 2 over two samples",
			series:   []float64{10, 20},
			span:     2,
			expected: []float64{10, 17.5},
		},
		{
			name:     "constant series stays constant",
			series:   []float64{7, 7, 7, 7},
			span:     20,
			expected: []float64{7, 7, 7, 7},
		},
		{
			name:     "single sample",
			series:   []float64{42},
			span:     50,
			expected: []float64{42},
		},
		{
			name:     "empty series",
			series:   nil,
			span:     20,
			expected: []float64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := signal.EMA(tc.series, tc.span)
			if len(got) != len(tc.expected) {
				t.Fatalf("EMA returned %d values, want %d", len(got), len(tc.expected))
			}
			for i := range got {
				if !almostEqual(got[i], tc.expected[i]) {
					t.Errorf("EMA[%d] = %v, want %v", i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestRSI(t *testing.T) {
	t.Parallel()

	t.Run("warm-up values are NaN", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{100, 101, 100, 102, 101, 103}, 3)
		for i := 0; i < 3; i++ {
			if !math.IsNaN(got[i]) {
				t.Errorf("RSI[%d] = %v, want NaN during warm-up", i, got[i])
			}
		}
	})

	t.Run("mixed gains and losses", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{100, 101, 100, 102, 101, 103}, 3)
		expected := []float64{math.NaN(), math.NaN(), math.NaN(), 75, 50, 80}
		for i := range expected {
			if !almostEqual(got[i], expected[i]) {
				t.Errorf("RSI[%d] = %v, want %v", i, got[i], expected[i])
			}
		}
	})

	t.Run("classic 14-period reference", func(t *testing.T) {
		t.Parallel()

		series := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28}
		got := signal.RSI(series, 14)
		if !almostEqual(got[14], 70.46413502109705) {
			t.Errorf("RSI[14] = %v, want 70.46413502109705", got[14])
		}
	})

	t.Run("all gains saturate at 100", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{1, 2, 3, 4, 5}, 3)
		if !almostEqual(got[4], 100) {
			t.Errorf("RSI[4] = %v, want 100 for an all-gain window", got[4])
		}
	})

	t.Run("all losses saturate at 0", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{5, 4, 3, 2, 1}, 3)
		if !almostEqual(got[4], 0) {
			t.Errorf("RSI[4] = %v, want 0 for an all-loss window", got[4])
		}
	})

	t.Run("flat series stays NaN", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{5, 5, 5, 5, 5}, 3)
		if !math.IsNaN(got[4]) {
			t.Errorf("RSI[4] = %v, want NaN when there are no gains and no losses", got[4])
		}
	})

	t.Run("short series is all NaN", func(t *testing.T) {
		t.Parallel()

		got := signal.RSI([]float64{1, 2, 3}, 14)
		for i, v := range got {
			if !math.IsNaN(v) {
				t.Errorf("RSI[%d] = %v, want NaN for a series shorter than the period", i, v)
			}
		}
	})
}

func TestRollingMean(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		series   []float64
		window   int
		expected []float64
	}{
		{
			name:     "window 3",
			series:   []float64{1, 2, 3, 4, 5},
			window:   3,
			expected: []float64{math.NaN(), math.NaN(), 2, 3, 4},
		},
		{
			name:     "window equals length",
			series:   []float64{2, 4, 6},
			window:   3,
			expected: []float64{math.NaN(), math.NaN(), 4},
		},
		{
			name:     "window longer than series",
			series:   []float64{1, 2},
			window:   20,
			expected: []float64{math.NaN(), math.NaN()},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := signal.RollingMean(tc.series, tc.window)
			if len(got) != len(tc.expected) {
				t.Fatalf("RollingMean returned %d values, want %d", len(got), len(tc.expected))
			}
			for i := range got {
				if !almostEqual(got[i], tc.expected[i]) {
					t.Errorf("RollingMean[%d] = %v, want %v", i, got[i], tc.expected[i])
				}
			}
		})
	}
}
