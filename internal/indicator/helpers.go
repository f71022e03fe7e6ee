package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

func highs(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}

	return out
}

func lows(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}

	return out
}

func volumes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}

	return out
}

func typicalPrice(b types.Bar) float64 {
	return (b.High + b.Low + b.Close) / 3
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func sma(values []float64, period int) float64 {
	if len(values) < period || period <= 0 {
		return 0
	}

	return mean(values[len(values)-period:])
}

// emaMultiplier returns the smoothing factor 2/(period+1).
func emaMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

// emaSeries computes a full EMA series seeded by an SMA of the first
// period values, matching the teacher's pandas-ewm-compatible convention.
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	out := make([]float64, len(values))
	seed := mean(values[:period])

	for i := 0; i < period; i++ {
		out[i] = seed
	}

	alpha := emaMultiplier(period)
	cur := seed

	for i := period; i < len(values); i++ {
		cur = values[i]*alpha + cur*(1-alpha)
		out[i] = cur
	}

	return out
}

func ema(values []float64, period int) float64 {
	series := emaSeries(values, period)
	if series == nil {
		return 0
	}

	return series[len(series)-1]
}

// emaStep advances a single EMA value by one new observation.
func emaStep(prev, value float64, period int) float64 {
	alpha := emaMultiplier(period)

	return value*alpha + prev*(1-alpha)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := mean(values)
	sumSq := 0.0

	for _, v := range values {
		d := v - m
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)))
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

func sumOf(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}

	return s
}

// basePeriod returns the configured period, or a conservative default when
// the config leaves it at the zero value.
func basePeriod(config types.IndicatorConfig) int {
	if config.Period <= 0 {
		return 14
	}

	return config.Period
}

func lastN[T any](values []T, n int) []T {
	if n > len(values) {
		n = len(values)
	}

	return values[len(values)-n:]
}
