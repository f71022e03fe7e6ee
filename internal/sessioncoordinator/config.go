// Package sessioncoordinator implements SessionCoordinator (spec §4.6): the
// six-phase state machine that drives a trading day from initialization
// through streaming to end-of-session, wiring TimeService, MarketDataFacade,
// SessionState, ReplayQueueCoordinator, the derived-bar Aggregator, the live
// QualityEngine, and the IndicatorFramework together.
package sessioncoordinator

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// HistoricalConfig is one entry of the Phase 2 historical-load plan: load
// trailingDays of history, for these intervals, for these symbols.
type HistoricalConfig struct {
	Symbols      []string
	TrailingDays int
	Intervals    []types.Interval
}

// SymbolConfig is one configured symbol's full interval plan: the base
// interval actually streamed and the intervals generated from it.
type SymbolConfig struct {
	Symbol           string
	ConfiguredBases  []types.Interval // candidate base intervals available from the provider; one is chosen to stream
	OtherIntervals   []types.Interval // every other configured interval, generated from the chosen base
	IndicatorConfigs map[types.Interval][]types.IndicatorConfig
	StreamQuotes     bool
}

// Config is the full session plan handed to New.
type Config struct {
	ExchangeGroup    string
	AssetClass       string
	Symbols          []SymbolConfig
	Historical       []HistoricalConfig
	SpeedMultiplier  float64 // 0 = data-driven, >0 = clock-driven wall-clock pacing
	BacktestEndDate  time.Time
	TrailingWindow   int
}

// basePriority ranks candidate base intervals per spec §4.6 Phase 1's
// backtest rule: stream exactly one base, priority 1s > 1m > 1d.
var basePriority = map[types.Interval]int{
	"1s": 0,
	"1m": 1,
	"1d": 2,
}

// chooseBase picks the highest-priority interval present in candidates.
// Ties or unranked intervals fall back to the first candidate so a caller
// that passes a single custom interval (e.g. in a unit test) still works.
func chooseBase(candidates []types.Interval) (types.Interval, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	bestRank, ok := basePriority[best]

	if !ok {
		bestRank = len(basePriority)
	}

	for _, c := range candidates[1:] {
		rank, ok := basePriority[c]
		if !ok {
			rank = len(basePriority)
		}

		if rank < bestRank {
			best, bestRank = c, rank
		}
	}

	return best, true
}

// plannedIntervals is the Phase 1 outcome for one symbol: which interval is
// streamed, and which are generated from it.
type plannedIntervals struct {
	base      types.Interval
	generated []types.Interval
}
