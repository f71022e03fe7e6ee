package indicator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// RSI is the Wilder-smoothed Relative Strength Index.
type RSI struct{}

func (RSI) Name() types.IndicatorType { return types.IndicatorTypeRSI }

func (RSI) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	window := lastN(closes(bars), period+1)

	gains := make([]float64, 0, period)
	losses := make([]float64, 0, period)

	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return Result{Valid: true, Value: 100}, nil
	}

	rs := avgGain / avgLoss

	return Result{Valid: true, Value: 100 - (100 / (1 + rs))}, nil
}

// MACD is fast-EMA minus slow-EMA, with a signal line (EMA of the MACD
// line) and a histogram (macd - signal).
type MACD struct{}

func (MACD) Name() types.IndicatorType { return types.IndicatorTypeMACD }

func (MACD) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	fast, slow, signalPeriod := macdPeriods(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	c := closes(bars)

	fastSeries := emaSeries(c, fast)
	slowSeries := emaSeries(c, slow)

	if fastSeries == nil || slowSeries == nil {
		return Result{}, nil
	}

	offset := len(fastSeries) - len(slowSeries)
	macdLine := make([]float64, len(slowSeries))

	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries := emaSeries(macdLine, signalPeriod)
	if signalSeries == nil {
		macd := macdLine[len(macdLine)-1]

		return Result{Valid: true, Values: map[string]float64{"macd": macd, "signal": 0, "histogram": macd}}, nil
	}

	macd := macdLine[len(macdLine)-1]
	signal := signalSeries[len(signalSeries)-1]

	return Result{Valid: true, Values: map[string]float64{"macd": macd, "signal": signal, "histogram": macd - signal}}, nil
}

func macdPeriods(config types.IndicatorConfig) (fast, slow, signal int) {
	fast, slow, signal = 12, 26, 9

	if v, ok := config.Params["fast"].(int); ok && v > 0 {
		fast = v
	}

	if v, ok := config.Params["slow"].(int); ok && v > 0 {
		slow = v
	}

	if v, ok := config.Params["signal"].(int); ok && v > 0 {
		signal = v
	}

	return fast, slow, signal
}

// Stochastic is the %K/%D oscillator over the high/low range.
type Stochastic struct{}

func (Stochastic) Name() types.IndicatorType { return types.IndicatorTypeStochastic }

func (Stochastic) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	smooth := 3
	if v, ok := config.Params["smooth"].(int); ok && v > 0 {
		smooth = v
	}

	kValues := make([]float64, 0, smooth)
	allBars := bars

	for i := 0; i < smooth && len(allBars)-i >= period; i++ {
		window := allBars[:len(allBars)-i]
		w := lastN(window, period)
		highest := maxOf(highs(w))
		lowest := minOf(lows(w))
		close := w[len(w)-1].Close

		k := 50.0
		if highest != lowest {
			k = (close - lowest) / (highest - lowest) * 100
		}

		kValues = append([]float64{k}, kValues...)
	}

	if len(kValues) == 0 {
		return Result{}, nil
	}

	k := kValues[len(kValues)-1]
	d := mean(kValues)

	return Result{Valid: true, Values: map[string]float64{"k": k, "d": d}}, nil
}

// CCI is the Commodity Channel Index over typical price.
type CCI struct{}

func (CCI) Name() types.IndicatorType { return types.IndicatorTypeCCI }

func (CCI) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	window := lastN(bars, period)

	tp := make([]float64, len(window))
	for i, b := range window {
		tp[i] = typicalPrice(b)
	}

	smaTP := mean(tp)

	meanDeviation := 0.0
	for _, v := range tp {
		meanDeviation += abs(v - smaTP)
	}

	meanDeviation /= float64(len(tp))

	if meanDeviation == 0 {
		return Result{Valid: true, Value: 0}, nil
	}

	cci := (tp[len(tp)-1] - smaTP) / (0.015 * meanDeviation)

	return Result{Valid: true, Value: cci}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

// ROC is the rate of change: percentage price change over the period.
type ROC struct{}

func (ROC) Name() types.IndicatorType { return types.IndicatorTypeROC }

func (ROC) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period+1) {
		return Result{}, nil
	}

	c := closes(bars)
	current := c[len(c)-1]
	past := c[len(c)-1-period]

	if past == 0 {
		return Result{}, nil
	}

	return Result{Valid: true, Value: (current - past) / past * 100}, nil
}

// MomentumDiff is the raw price difference over the period (unlike ROC,
// not normalized to a percentage).
type MomentumDiff struct{}

func (MomentumDiff) Name() types.IndicatorType { return types.IndicatorTypeMomentumDiff }

func (MomentumDiff) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := config.WarmupBars()
	if insufficientBars(bars, period+1) {
		return Result{}, nil
	}

	c := closes(bars)

	return Result{Valid: true, Value: c[len(c)-1] - c[len(c)-1-period]}, nil
}

// WilliamsR is %R: (highest high - close) / (highest high - lowest low) * -100.
type WilliamsR struct{}

func (WilliamsR) Name() types.IndicatorType { return types.IndicatorTypeWilliamsR }

func (WilliamsR) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	period := basePeriod(config)
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	window := lastN(bars, period)
	highest := maxOf(highs(window))
	lowest := minOf(lows(window))

	if highest == lowest {
		return Result{Valid: true, Value: -50}, nil
	}

	close := window[len(window)-1].Close

	return Result{Valid: true, Value: (highest - close) / (highest - lowest) * -100}, nil
}

// UltimateOscillator blends three Williams-style buying-pressure ratios
// over 7/14/28-bar windows (Larry Williams' original periods), weighted
// 4:2:1 toward the shortest window.
type UltimateOscillator struct{}

func (UltimateOscillator) Name() types.IndicatorType { return types.IndicatorTypeUltimateOscillator }

func (UltimateOscillator) Calculate(bars []types.Bar, config types.IndicatorConfig, _ *Result) (Result, error) {
	if insufficientBars(bars, config.WarmupBars()) {
		return Result{}, nil
	}

	avg7 := buyingPressureAverage(bars, 7)
	avg14 := buyingPressureAverage(bars, 14)
	avg28 := buyingPressureAverage(bars, 28)

	uo := 100 * (4*avg7 + 2*avg14 + avg28) / 7

	return Result{Valid: true, Value: uo}, nil
}

func buyingPressureAverage(bars []types.Bar, period int) float64 {
	window := lastN(bars, period+1)
	if len(window) < 2 {
		return 0
	}

	var bp, tr float64

	for i := 1; i < len(window); i++ {
		prevClose := window[i-1].Close
		cur := window[i]

		trueLow := minOf([]float64{cur.Low, prevClose})
		trueHigh := maxOf([]float64{cur.High, prevClose})

		bp += cur.Close - trueLow
		tr += trueHigh - trueLow
	}

	if tr == 0 {
		return 0
	}

	return bp / tr
}
