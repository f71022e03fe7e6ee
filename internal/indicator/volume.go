package indicator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// OBV is On-Balance Volume: stateful running total, incremented or
// decremented by the latest bar's volume depending on the direction of its
// close relative to the previous bar.
type OBV struct{}

func (OBV) Name() types.IndicatorType { return types.IndicatorTypeOBV }

func (OBV) Calculate(bars []types.Bar, _ types.IndicatorConfig, previous *Result) (Result, error) {
	if len(bars) < 2 {
		return Result{}, nil
	}

	if previous != nil && previous.Valid {
		latest := bars[len(bars)-1]
		prevClose := bars[len(bars)-2].Close

		return Result{Valid: true, Value: obvStep(previous.Value, latest, prevClose)}, nil
	}

	running := 0.0
	for i := 1; i < len(bars); i++ {
		running = obvStep(running, bars[i], bars[i-1].Close)
	}

	return Result{Valid: true, Value: running}, nil
}

func obvStep(running float64, bar types.Bar, prevClose float64) float64 {
	switch {
	case bar.Close > prevClose:
		return running + bar.Volume
	case bar.Close < prevClose:
		return running - bar.Volume
	default:
		return running
	}
}

// PVT is the Price-Volume Trend: stateful running total of
// volume * percentage price change.
type PVT struct{}

func (PVT) Name() types.IndicatorType { return types.IndicatorTypePVT }

func (PVT) Calculate(bars []types.Bar, _ types.IndicatorConfig, previous *Result) (Result, error) {
	if len(bars) < 2 {
		return Result{}, nil
	}

	if previous != nil && previous.Valid {
		latest := bars[len(bars)-1]
		prevClose := bars[len(bars)-2].Close

		return Result{Valid: true, Value: pvtStep(previous.Value, latest, prevClose)}, nil
	}

	running := 0.0
	for i := 1; i < len(bars); i++ {
		running = pvtStep(running, bars[i], bars[i-1].Close)
	}

	return Result{Valid: true, Value: running}, nil
}

func pvtStep(running float64, bar types.Bar, prevClose float64) float64 {
	if prevClose == 0 {
		return running
	}

	return running + bar.Volume*(bar.Close-prevClose)/prevClose
}

// VolumeSMA is a simple moving average of volume.
type VolumeSMA struct{}

func (VolumeSMA) Name() types.IndicatorType { return types.IndicatorTypeVolumeSMA }

func (VolumeSMA) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	return Result{Valid: true, Value: sma(volumes(bars), period)}, nil
}

// VolumeRatio is the latest bar's volume divided by the average volume over
// the trailing window, excluding the latest bar itself.
type VolumeRatio struct{}

func (VolumeRatio) Name() types.IndicatorType { return types.IndicatorTypeVolumeRatio }

func (VolumeRatio) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()+1) {
		return Result{}, nil
	}

	trailing := lastN(volumes(bars[:len(bars)-1]), period)
	avg := mean(trailing)

	if avg == 0 {
		return Result{}, nil
	}

	latest := bars[len(bars)-1].Volume

	return Result{Valid: true, Value: latest / avg}, nil
}
