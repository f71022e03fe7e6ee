package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorType names a concrete indicator calculator.
type IndicatorType string

const (
	// Trend.
	IndicatorTypeSMA  IndicatorType = "sma"
	IndicatorTypeEMA  IndicatorType = "ema"
	IndicatorTypeWMA  IndicatorType = "wma"
	IndicatorTypeHMA  IndicatorType = "hma"
	IndicatorTypeVWAP IndicatorType = "vwap"
	IndicatorTypeTWAP IndicatorType = "twap"
	IndicatorTypeDEMA IndicatorType = "dema"
	IndicatorTypeTEMA IndicatorType = "tema"

	// Momentum.
	IndicatorTypeRSI                IndicatorType = "rsi"
	IndicatorTypeMACD               IndicatorType = "macd"
	IndicatorTypeStochastic         IndicatorType = "stochastic"
	IndicatorTypeCCI                IndicatorType = "cci"
	IndicatorTypeROC                IndicatorType = "roc"
	IndicatorTypeMomentumDiff       IndicatorType = "momentum_diff"
	IndicatorTypeWilliamsR          IndicatorType = "williams_r"
	IndicatorTypeUltimateOscillator IndicatorType = "ultimate_oscillator"

	// Volatility.
	IndicatorTypeATR                  IndicatorType = "atr"
	IndicatorTypeBollingerBands       IndicatorType = "bollinger_bands"
	IndicatorTypeKeltner              IndicatorType = "keltner"
	IndicatorTypeDonchian             IndicatorType = "donchian"
	IndicatorTypeStdDev               IndicatorType = "stddev"
	IndicatorTypeHistoricalVolatility IndicatorType = "historical_volatility"

	// Volume.
	IndicatorTypeOBV         IndicatorType = "obv"
	IndicatorTypePVT         IndicatorType = "pvt"
	IndicatorTypeVolumeSMA   IndicatorType = "volume_sma"
	IndicatorTypeVolumeRatio IndicatorType = "volume_ratio"

	// Support / historical.
	IndicatorTypePivotPoints    IndicatorType = "pivot_points"
	IndicatorTypeNPeriodHighLow IndicatorType = "n_period_high_low"
	IndicatorTypeSwingDetection IndicatorType = "swing_detection"
	IndicatorTypeAverageVolume  IndicatorType = "average_volume"
	IndicatorTypeAverageRange   IndicatorType = "average_range"
	IndicatorTypeDailyATR       IndicatorType = "daily_atr"
	IndicatorTypeGapStatistics  IndicatorType = "gap_statistics"
	IndicatorTypeRangeRatio     IndicatorType = "range_ratio"

	// Teacher-specific extras, kept and adapted from the original indicator
	// package (not in the required list, but harmless to carry forward).
	IndicatorTypeRangeFilter IndicatorType = "range_filter"
	IndicatorTypeWaddahAttar IndicatorType = "waddah_attar"
)

// IndicatorKind classifies an indicator by analytical category.
type IndicatorKind string

const (
	IndicatorKindTrend             IndicatorKind = "trend"
	IndicatorKindMomentum          IndicatorKind = "momentum"
	IndicatorKindVolatility        IndicatorKind = "volatility"
	IndicatorKindVolume            IndicatorKind = "volume"
	IndicatorKindSupportResistance IndicatorKind = "support-resistance"
	IndicatorKindHistorical        IndicatorKind = "historical"
)

// IndicatorConfig describes how one indicator instance should be computed.
type IndicatorConfig struct {
	Name     IndicatorType
	Kind     IndicatorKind
	Period   int // 0 means the calculator's own default, omitted from the key
	Interval Interval
	Params   map[string]any
}

// Key returns "{name}_{period}_{interval}", or "{name}_{interval}" when
// Period is 0, per spec §3.
func (c IndicatorConfig) Key() string {
	if c.Period == 0 {
		return fmt.Sprintf("%s_%s", c.Name, c.Interval)
	}

	return fmt.Sprintf("%s_%d_%s", c.Name, c.Period, c.Interval)
}

func (c IndicatorConfig) period() int {
	if c.Period <= 0 {
		return 14
	}

	return c.Period
}

// WarmupBars returns the minimum trailing bar count this indicator needs
// before it can produce a valid result, per spec §4.8. Most indicators
// need exactly `period` bars; the named exceptions below need more.
func (c IndicatorConfig) WarmupBars() int {
	period := c.period()

	switch c.Name {
	case IndicatorTypeMACD:
		return 26
	case IndicatorTypeTEMA:
		return 3 * period
	case IndicatorTypeDEMA:
		return 2 * period
	case IndicatorTypeStochastic:
		smooth := 3
		if v, ok := c.Params["smooth"].(int); ok && v > 0 {
			smooth = v
		}

		return period + smooth
	case IndicatorTypeUltimateOscillator:
		return 28
	case IndicatorTypeRSI, IndicatorTypeATR, IndicatorTypeDailyATR:
		return period + 1
	case IndicatorTypeSwingDetection:
		return 2*period + 1
	default:
		return period
	}
}

// IndicatorData is the published result of one indicator instance.
// CurrentValue is either a scalar (float64), a named-field map
// (map[string]float64), or absent (Valid=false) during warm-up.
type IndicatorData struct {
	CurrentValue any
	Valid        bool
	LastUpdated  time.Time
	State        optional.Option[any] // opaque calculator-owned carry state, for stateful indicators
	History      []IndicatorPoint
}

// IndicatorPoint is one historical sample of an indicator's value, kept
// when the caller requested history retention.
type IndicatorPoint struct {
	Time  time.Time
	Value any
}
