package derive

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// Aggregator is the live DataProcessor half of spec §4.7: on every base-bar
// arrival it recomputes any newly-complete derived windows for a symbol's
// configured derived intervals and appends them to SessionState.
type Aggregator struct {
	state *sessionstate.State
	loc   *time.Location
	// derived maps a symbol to the set of derived intervals it maintains,
	// keyed by the single base interval they're generated from (spec
	// §4.6 Phase 1's STREAMED/GENERATED split — one base per symbol).
	derived map[string][]types.Interval
}

// NewAggregator builds an Aggregator that reads/writes through state and
// aligns windows in loc.
func NewAggregator(state *sessionstate.State, loc *time.Location) *Aggregator {
	return &Aggregator{state: state, loc: loc, derived: make(map[string][]types.Interval)}
}

// Configure registers symbol's generated intervals, each derived from
// baseInterval, and marks them in SessionState so readers can see the
// derivation relationship.
func (a *Aggregator) Configure(symbol string, baseInterval types.Interval, generated []types.Interval) {
	a.derived[symbol] = generated

	for _, interval := range generated {
		a.state.MarkDerived(symbol, interval, baseInterval)
	}
}

// OnBaseBar is called after a base bar has been appended to SessionState
// for symbol. sessionClose, if non-zero and reached, lets a final partial
// window close out at end-of-session (spec §4.7).
func (a *Aggregator) OnBaseBar(symbol string, baseInterval types.Interval, sessionClose time.Time) error {
	for _, derivedInterval := range a.derived[symbol] {
		if err := a.emitNewWindows(symbol, baseInterval, derivedInterval, sessionClose); err != nil {
			return err
		}
	}

	return nil
}

func (a *Aggregator) emitNewWindows(symbol string, baseInterval, derivedInterval types.Interval, sessionClose time.Time) error {
	base := a.state.GetBars(symbol, baseInterval, nil, nil, true)
	if len(base) == 0 {
		return nil
	}

	existing := a.state.GetBars(symbol, derivedInterval, nil, nil, true)

	// Only recompute windows starting at or after the last emitted
	// derived bar, so live computation stays O(base bars since last
	// emission) rather than O(whole session) on every tick.
	startFrom := 0

	if len(existing) > 0 {
		last := existing[len(existing)-1].Timestamp

		for i, b := range base {
			if b.Timestamp.Before(last) {
				continue
			}

			startFrom = i

			break
		}
	}

	windows, err := Windows(base[startFrom:], derivedInterval, a.loc, sessionClose)
	if err != nil {
		return err
	}

	var newest time.Time
	if len(existing) > 0 {
		newest = existing[len(existing)-1].Timestamp
	}

	for _, w := range windows {
		if !w.Timestamp.After(newest) {
			continue
		}

		if err := a.state.AppendBar(symbol, derivedInterval, w); err != nil {
			return err
		}

		a.state.SetQuality(symbol, derivedInterval, qualityOf(a.state, symbol, baseInterval))
	}

	return nil
}

func qualityOf(state *sessionstate.State, symbol string, interval types.Interval) float64 {
	q, ok := state.GetQualityMetric(symbol, interval)
	if !ok {
		return 100
	}

	return q
}
