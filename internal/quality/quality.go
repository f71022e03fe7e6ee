// Package quality implements the live half of QualityEngine (spec §4.7):
// per-interval expected-bar accounting against the trading calendar,
// gap detection, and quality propagation from a base interval to the
// derived intervals computed from it.
package quality

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// Engine is the live quality scorer bound to one SessionState/TimeService
// pair.
type Engine struct {
	state         *sessionstate.State
	ts            timeservice.TimeService
	exchangeGroup string
	assetClass    string
}

// New builds an Engine.
func New(state *sessionstate.State, ts timeservice.TimeService, exchangeGroup, assetClass string) *Engine {
	return &Engine{state: state, ts: ts, exchangeGroup: exchangeGroup, assetClass: assetClass}
}

// Recompute scores (symbol, interval) against the current session's
// regular-hours open, per spec §4.7: expected = floor((now-open)/interval),
// observed = bars currently held, score = min(100, 100*observed/expected)
// when expected > 0, else 100. Also detects gaps and writes both into
// SessionState. Called on every bar-arrival notification and on periodic
// staleness wake-ups.
func (e *Engine) Recompute(symbol string, interval types.Interval, now time.Time) error {
	step, err := interval.Duration()
	if err != nil {
		return err
	}

	loc, err := e.ts.MarketTimezone(e.exchangeGroup, e.assetClass)
	if err != nil {
		return err
	}

	session, err := e.ts.TradingSession(now, e.exchangeGroup, e.assetClass)
	if err != nil {
		return err
	}

	bars := e.state.GetBars(symbol, interval, nil, nil, true)

	if !session.IsTradingDay {
		e.state.SetQuality(symbol, interval, 100)

		return nil
	}

	open, ok := session.RegularOpen.Take()
	if ok != nil {
		e.state.SetQuality(symbol, interval, 100)

		return nil
	}

	openAt := open.On(now.In(loc), loc)

	expected := 0
	if now.After(openAt) {
		expected = int(now.Sub(openAt) / step)
	}

	observed := len(bars)

	score := 100.0
	if expected > 0 {
		score = min(100.0, 100.0*float64(observed)/float64(expected))
	}

	e.state.SetQuality(symbol, interval, score)
	e.state.SetGaps(symbol, interval, detectGaps(bars, step))

	return nil
}

// detectGaps enumerates half-open ranges [expected_ts, next_observed_ts)
// wherever prev.Timestamp + interval < next.Timestamp, per spec §4.7.
func detectGaps(bars []types.Bar, step time.Duration) []types.Gap {
	if len(bars) < 2 {
		return nil
	}

	var gaps []types.Gap

	for i := 1; i < len(bars); i++ {
		expectedNext := bars[i-1].Timestamp.Add(step)
		if expectedNext.Before(bars[i].Timestamp) {
			missing := int(bars[i].Timestamp.Sub(expectedNext) / step)
			gaps = append(gaps, types.Gap{From: expectedNext, To: bars[i].Timestamp, Count: missing})
		}
	}

	return gaps
}

// PropagateToDerived sets every derived interval's quality equal to its
// base interval's quality, per spec §4.7's deterministic-function
// rationale.
func (e *Engine) PropagateToDerived(symbol string) {
	for derived, base := range e.state.DerivedIntervals(symbol) {
		baseQuality, ok := e.state.GetQualityMetric(symbol, base)
		if !ok {
			continue
		}

		e.state.SetQuality(symbol, derived, baseQuality)
	}
}
