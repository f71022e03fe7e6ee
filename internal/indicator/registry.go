package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Registry manages all available indicator calculators.
type Registry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

type registry struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewRegistry creates an empty indicator registry.
func NewRegistry() Registry {
	return &registry{indicators: make(map[types.IndicatorType]Indicator)}
}

// NewDefaultRegistry creates a registry pre-populated with every indicator
// this package implements. The range_filter and waddah_attar indicator
// types have no calculator here and are not registered.
func NewDefaultRegistry() Registry {
	r := NewRegistry()

	for _, ind := range allIndicators() {
		_ = r.RegisterIndicator(ind)
	}

	return r
}

func (r *registry) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return apperrors.Newf(apperrors.ErrCodeInvariantDuplicateStream, "indicator %q already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

func (r *registry) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ind, exists := r.indicators[name]
	if !exists {
		return nil, apperrors.Newf(apperrors.ErrCodeInvariantUnknownIndicator, "indicator %q not registered", name)
	}

	return ind, nil
}

func (r *registry) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	return names
}

func (r *registry) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return apperrors.Newf(apperrors.ErrCodeInvariantUnknownIndicator, "indicator %q not registered", name)
	}

	delete(r.indicators, name)

	return nil
}

func allIndicators() []Indicator {
	return []Indicator{
		// Trend.
		SMA{}, EMA{}, WMA{}, HMA{}, VWAP{}, TWAP{}, DEMA{}, TEMA{},
		// Momentum.
		RSI{}, MACD{}, Stochastic{}, CCI{}, ROC{}, MomentumDiff{}, WilliamsR{}, UltimateOscillator{},
		// Volatility.
		ATR{}, BollingerBands{}, Keltner{}, Donchian{}, StdDev{}, HistoricalVolatility{},
		// Volume.
		OBV{}, PVT{}, VolumeSMA{}, VolumeRatio{},
		// Support / historical.
		PivotPoints{}, NPeriodHighLow{}, SwingDetection{}, AverageVolume{}, AverageRange{}, DailyATR{}, GapStatistics{}, RangeRatio{},
	}
}
