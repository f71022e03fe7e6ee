package indicator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// SMA is the simple moving average: stateless, recomputed from the last
// `period` closes on every call.
type SMA struct{}

func (SMA) Name() types.IndicatorType { return types.IndicatorTypeSMA }

func (SMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	need := config.WarmupBars()
	if insufficientBars(bars, need) {
		return Result{}, nil
	}

	return Result{Valid: true, Value: sma(closes(bars), need)}, nil
}

// EMA is stateful: given a previous result it advances by one step using
// only the latest close; otherwise it bootstraps from an SMA seed over the
// full window, matching the teacher's pandas-ewm-compatible convention.
type EMA struct{}

func (EMA) Name() types.IndicatorType { return types.IndicatorTypeEMA }

func (EMA) Calculate(bars []types.Bar, config types.IndicatorConfig, previous *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	if previous != nil && previous.Valid {
		latest := bars[len(bars)-1].Close

		return Result{Valid: true, Value: emaStep(previous.Value, latest, period)}, nil
	}

	return Result{Valid: true, Value: ema(closes(bars), period)}, nil
}

// WMA is the linearly-weighted moving average: weight i+1 for the i-th
// oldest bar in the window, most recent bar weighted heaviest.
type WMA struct{}

func (WMA) Name() types.IndicatorType { return types.IndicatorTypeWMA }

func (WMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	window := lastN(closes(bars), period)

	return Result{Valid: true, Value: weightedMovingAverage(window)}, nil
}

func weightedMovingAverage(window []float64) float64 {
	var weightedSum, weightTotal float64

	for i, v := range window {
		w := float64(i + 1)
		weightedSum += v * w
		weightTotal += w
	}

	return weightedSum / weightTotal
}

// HMA is the Hull moving average: WMA(2*WMA(n/2) - WMA(n), sqrt(n)),
// smoother and more responsive than a plain WMA/SMA.
type HMA struct{}

func (HMA) Name() types.IndicatorType { return types.IndicatorTypeHMA }

func (HMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	closesAll := closes(bars)
	halfPeriod := period / 2
	sqrtPeriod := isqrt(period)

	raw := make([]float64, 0, sqrtPeriod)
	for i := period; i <= len(closesAll); i++ {
		window := closesAll[:i]
		wmaHalf := weightedMovingAverage(lastN(window, halfPeriod))
		wmaFull := weightedMovingAverage(lastN(window, period))
		raw = append(raw, 2*wmaHalf-wmaFull)
	}

	if len(raw) < sqrtPeriod {
		return Result{}, nil
	}

	return Result{Valid: true, Value: weightedMovingAverage(lastN(raw, sqrtPeriod))}, nil
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}

	r := 1
	for r*r < n {
		r++
	}

	return r
}

// VWAP is the session-cumulative volume-weighted average price: stateful,
// carrying cumulative (price*volume) and volume totals across calls.
type VWAP struct{}

func (VWAP) Name() types.IndicatorType { return types.IndicatorTypeVWAP }

func (VWAP) Calculate(bars []types.Bar, _ types.IndicatorConfig, previous *Result) (Result, error) {
	if len(bars) == 0 {
		return Result{}, nil
	}

	var cumPV, cumVol float64

	if previous != nil && previous.Valid {
		cumPV = previous.Values["cum_pv"]
		cumVol = previous.Values["cum_volume"]
		latest := bars[len(bars)-1]
		cumPV += typicalPrice(latest) * latest.Volume
		cumVol += latest.Volume
	} else {
		for _, b := range bars {
			cumPV += typicalPrice(b) * b.Volume
			cumVol += b.Volume
		}
	}

	if cumVol == 0 {
		return Result{}, nil
	}

	return Result{Valid: true, Value: cumPV / cumVol, Values: map[string]float64{"vwap": cumPV / cumVol, "cum_pv": cumPV, "cum_volume": cumVol}}, nil
}

// TWAP is the time-weighted average price over the window: a plain mean
// of typical prices, stateless.
type TWAP struct{}

func (TWAP) Name() types.IndicatorType { return types.IndicatorTypeTWAP }

func (TWAP) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	window := lastN(bars, period)

	prices := make([]float64, len(window))
	for i, b := range window {
		prices[i] = typicalPrice(b)
	}

	return Result{Valid: true, Value: mean(prices)}, nil
}

// DEMA is the double exponential moving average: 2*EMA(n) - EMA(EMA(n)).
type DEMA struct{}

func (DEMA) Name() types.IndicatorType { return types.IndicatorTypeDEMA }

func (DEMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	series := emaSeries(closes(bars), period)
	if series == nil {
		return Result{}, nil
	}

	emaOfEma := emaSeries(series, period)
	if emaOfEma == nil {
		return Result{}, nil
	}

	dema := 2*series[len(series)-1] - emaOfEma[len(emaOfEma)-1]

	return Result{Valid: true, Value: dema}, nil
}

// TEMA is the triple exponential moving average:
// 3*EMA(n) - 3*EMA(EMA(n)) + EMA(EMA(EMA(n))).
type TEMA struct{}

func (TEMA) Name() types.IndicatorType { return types.IndicatorTypeTEMA }

func (TEMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	ema1 := emaSeries(closes(bars), period)
	if ema1 == nil {
		return Result{}, nil
	}

	ema2 := emaSeries(ema1, period)
	if ema2 == nil {
		return Result{}, nil
	}

	ema3 := emaSeries(ema2, period)
	if ema3 == nil {
		return Result{}, nil
	}

	tema := 3*ema1[len(ema1)-1] - 3*ema2[len(ema2)-1] + ema3[len(ema3)-1]

	return Result{Valid: true, Value: tema}, nil
}
