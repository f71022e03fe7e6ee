// Package indicator implements IndicatorFramework (spec §4.8): a registry
// of named calculators, each a pure function of (bars, config,
// previous-result) that never reaches outside its own inputs for state.
package indicator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// Result is one indicator evaluation. Scalar indicators set Value; named
// multi-value indicators (MACD, Bollinger Bands, Stochastic, Keltner,
// Donchian, pivot points, high/low, gap stats) set Values instead. VWAP sets
// both: Value, plus Values holding "vwap" and its running totals. Valid is
// false until the caller has supplied at least config.WarmupBars() bars.
type Result struct {
	Valid  bool
	Value  float64
	Values map[string]float64
}

// Indicator is a pure calculator: bars must be supplied oldest-first,
// already trimmed to (at least) config.WarmupBars() entries by the caller.
// Stateful indicators (EMA, VWAP, OBV, PVT) accept their own previous
// Result to update incrementally instead of recomputing from scratch;
// pass nil on the first call for a given (symbol, interval, key).
type Indicator interface {
	Name() types.IndicatorType
	Calculate(bars []types.Bar, config types.IndicatorConfig, previous *Result) (Result, error)
}

func insufficientBars(bars []types.Bar, need int) bool {
	return len(bars) < need
}
