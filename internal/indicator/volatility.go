package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// ATR is the Average True Range, Wilder-smoothed over true range.
type ATR struct{}

func (ATR) Name() types.IndicatorType { return types.IndicatorTypeATR }

func (ATR) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	window := lastN(bars, period+1)
	trueRanges := trueRangeSeries(window)

	avg := mean(trueRanges[:period])

	for i := period; i < len(trueRanges); i++ {
		avg = (avg*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return Result{Valid: true, Value: avg}, nil
}

func trueRangeSeries(bars []types.Bar) []float64 {
	out := make([]float64, 0, len(bars)-1)

	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		cur := bars[i]

		tr := maxOf([]float64{
			cur.High - cur.Low,
			abs(cur.High - prevClose),
			abs(cur.Low - prevClose),
		})
		out = append(out, tr)
	}

	return out
}

// BollingerBands is a middle SMA with upper/lower bands at +/- k standard
// deviations (k defaults to 2).
type BollingerBands struct{}

func (BollingerBands) Name() types.IndicatorType { return types.IndicatorTypeBollingerBands }

func (BollingerBands) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	k := 2.0
	if v, ok := config.Params["k"].(float64); ok && v > 0 {
		k = v
	}

	window := lastN(closes(bars), period)
	middle := mean(window)
	sd := stddev(window)

	return Result{Valid: true, Values: map[string]float64{
		"middle": middle,
		"upper":  middle + k*sd,
		"lower":  middle - k*sd,
	}}, nil
}

// Keltner is an EMA midline with upper/lower bands offset by a multiple of
// ATR.
type Keltner struct{}

func (Keltner) Name() types.IndicatorType { return types.IndicatorTypeKeltner }

func (Keltner) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	multiplier := 2.0
	if v, ok := config.Params["multiplier"].(float64); ok && v > 0 {
		multiplier = v
	}

	middle := ema(closes(bars), period)

	atrResult, err := (ATR{}).Calculate(bars, config, nil)
	if err != nil || !atrResult.Valid {
		return Result{}, nil
	}

	return Result{Valid: true, Values: map[string]float64{
		"middle": middle,
		"upper":  middle + multiplier*atrResult.Value,
		"lower":  middle - multiplier*atrResult.Value,
	}}, nil
}

// Donchian is the highest-high / lowest-low channel over the window.
type Donchian struct{}

func (Donchian) Name() types.IndicatorType { return types.IndicatorTypeDonchian }

func (Donchian) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	window := lastN(bars, period)
	upper := maxOf(highs(window))
	lower := minOf(lows(window))

	return Result{Valid: true, Values: map[string]float64{
		"upper":  upper,
		"lower":  lower,
		"middle": (upper + lower) / 2,
	}}, nil
}

// StdDev is the standard deviation of closes over the window.
type StdDev struct{}

func (StdDev) Name() types.IndicatorType { return types.IndicatorTypeStdDev }

func (StdDev) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period) {
		return Result{}, nil
	}

	return Result{Valid: true, Value: stddev(lastN(closes(bars), period))}, nil
}

// HistoricalVolatility is the annualized standard deviation of log returns,
// expressed as a percentage.
type HistoricalVolatility struct{}

func (HistoricalVolatility) Name() types.IndicatorType { return types.IndicatorTypeHistoricalVolatility }

func (HistoricalVolatility) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period+1) {
		return Result{}, nil
	}

	window := lastN(closes(bars), period+1)

	returns := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 {
			continue
		}

		returns = append(returns, math.Log(window[i]/window[i-1]))
	}

	if len(returns) == 0 {
		return Result{}, nil
	}

	barsPerYear := 252.0

	annualized := stddev(returns) * math.Sqrt(barsPerYear) * 100

	return Result{Valid: true, Value: annualized}, nil
}
