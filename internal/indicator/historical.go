package indicator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// PivotPoints computes the classic floor-trader pivot and its first two
// support/resistance bands from the most recently completed window.
type PivotPoints struct{}

func (PivotPoints) Name() types.IndicatorType { return types.IndicatorTypePivotPoints }

func (PivotPoints) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	prior := bars[len(bars)-1]
	pivot := (prior.High + prior.Low + prior.Close) / 3

	return Result{Valid: true, Values: map[string]float64{
		"pivot": pivot,
		"r1":    2*pivot - prior.Low,
		"s1":    2*pivot - prior.High,
		"r2":    pivot + (prior.High - prior.Low),
		"s2":    pivot - (prior.High - prior.Low),
	}}, nil
}

// NPeriodHighLow is the highest high and lowest low over the window.
type NPeriodHighLow struct{}

func (NPeriodHighLow) Name() types.IndicatorType { return types.IndicatorTypeNPeriodHighLow }

func (NPeriodHighLow) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	window := lastN(bars, period)

	return Result{Valid: true, Values: map[string]float64{
		"high": maxOf(highs(window)),
		"low":  minOf(lows(window)),
	}}, nil
}

// SwingDetection flags the center bar of the window as a swing high and/or
// swing low using a symmetric fractal: the center's high (low) must be the
// strict max (min) across `period` bars on each side.
type SwingDetection struct{}

func (SwingDetection) Name() types.IndicatorType { return types.IndicatorTypeSwingDetection }

func (SwingDetection) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	window := lastN(bars, 2*period+1)
	center := window[period]

	isSwingHigh := true
	isSwingLow := true

	for i, b := range window {
		if i == period {
			continue
		}

		if b.High >= center.High {
			isSwingHigh = false
		}

		if b.Low <= center.Low {
			isSwingLow = false
		}
	}

	values := map[string]float64{"swing_high": 0, "swing_low": 0}
	if isSwingHigh {
		values["swing_high"] = 1
	}

	if isSwingLow {
		values["swing_low"] = 1
	}

	return Result{Valid: true, Values: values}, nil
}

// AverageVolume is a plain average of volume over the window (an alias of
// VolumeSMA kept distinct so callers can key session-state history by the
// historical-support indicator family from spec §4.8).
type AverageVolume struct{}

func (AverageVolume) Name() types.IndicatorType { return types.IndicatorTypeAverageVolume }

func (AverageVolume) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	return Result{Valid: true, Value: mean(lastN(volumes(bars), period))}, nil
}

// AverageRange is the mean high-low range over the window.
type AverageRange struct{}

func (AverageRange) Name() types.IndicatorType { return types.IndicatorTypeAverageRange }

func (AverageRange) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	window := lastN(bars, period)

	ranges := make([]float64, len(window))
	for i, b := range window {
		ranges[i] = b.High - b.Low
	}

	return Result{Valid: true, Value: mean(ranges)}, nil
}

// DailyATR is Wilder-smoothed ATR intended to run over daily bars.
type DailyATR struct{}

func (DailyATR) Name() types.IndicatorType { return types.IndicatorTypeDailyATR }

func (DailyATR) Calculate(bars []types.Bar, config types.IndicatorConfig, previous *Result) (Result, error) {
	return (ATR{}).Calculate(bars, config, previous)
}

// GapStatistics summarizes open-vs-prior-close gaps over the window: mean
// gap, largest gap up, largest gap down.
type GapStatistics struct{}

func (GapStatistics) Name() types.IndicatorType { return types.IndicatorTypeGapStatistics }

func (GapStatistics) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period+1) {
		return Result{}, nil
	}

	window := lastN(bars, period+1)

	gaps := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		gaps = append(gaps, window[i].Open-window[i-1].Close)
	}

	return Result{Valid: true, Values: map[string]float64{
		"mean_gap": mean(gaps),
		"max_up":   maxOf(gaps),
		"max_down": minOf(gaps),
	}}, nil
}

// RangeRatio is the latest bar's high-low range divided by the average
// range over the trailing window, excluding the latest bar itself.
type RangeRatio struct{}

func (RangeRatio) Name() types.IndicatorType { return types.IndicatorTypeRangeRatio }

func (RangeRatio) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()+1) {
		return Result{}, nil
	}

	trailing := lastN(bars[:len(bars)-1], period)

	ranges := make([]float64, len(trailing))
	for i, b := range trailing {
		ranges[i] = b.High - b.Low
	}

	avg := mean(ranges)
	if avg == 0 {
		return Result{}, nil
	}

	latest := bars[len(bars)-1]

	return Result{Valid: true, Value: (latest.High - latest.Low) / avg}, nil
}
