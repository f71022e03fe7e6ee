// Package derive implements the derived-bar aggregation half of spec §4.7:
// turning a contiguous run of base-interval bars into derived-interval
// bars, window-aligned to the exchange's own timezone, only emitting a
// window once it is known to be complete.
package derive

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// AlignWindow floors t to the start of its N-duration window in loc, per
// spec §4.7's `floor(first.timestamp, N)` rule.
func AlignWindow(t time.Time, window time.Duration, loc *time.Location) time.Time {
	local := t.In(loc)

	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := local.Sub(dayStart)
	aligned := offset - offset%window

	return dayStart.Add(aligned)
}

// Windows computes every *complete* derived bar obtainable from base
// (ordered, same symbol/interval, base.Interval == baseInterval), aligned
// into derivedInterval windows in loc. A window is complete only if a base
// bar at or after its end boundary is present in base, or sessionClose is
// non-zero and at or before the window's end (spec §4.7's two completion
// conditions). Base bars must already be sorted ascending by timestamp.
func Windows(base []types.Bar, derivedInterval types.Interval, loc *time.Location, sessionClose time.Time) ([]types.Bar, error) {
	if len(base) == 0 {
		return nil, nil
	}

	window, err := derivedInterval.Duration()
	if err != nil {
		return nil, err
	}

	if window <= 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "derived interval %q has non-positive duration", derivedInterval)
	}

	symbol := base[0].Symbol

	var out []types.Bar

	i := 0
	for i < len(base) {
		winStart := AlignWindow(base[i].Timestamp, window, loc)
		winEnd := winStart.Add(window)

		j := i
		for j < len(base) && base[j].Timestamp.Before(winEnd) {
			j++
		}

		complete := j < len(base) || (!sessionClose.IsZero() && !sessionClose.After(winEnd))
		if !complete {
			break
		}

		group := base[i:j]
		if len(group) > 0 {
			out = append(out, aggregateGroup(symbol, group, derivedInterval, winStart))
		}

		i = j
	}

	return out, nil
}

func aggregateGroup(symbol string, group []types.Bar, interval types.Interval, start time.Time) types.Bar {
	b := types.Bar{
		Symbol:    symbol,
		Timestamp: start,
		Interval:  interval,
		Open:      group[0].Open,
		Close:     group[len(group)-1].Close,
		High:      group[0].High,
		Low:       group[0].Low,
	}

	for _, g := range group {
		if g.High > b.High {
			b.High = g.High
		}

		if g.Low < b.Low {
			b.Low = g.Low
		}

		b.Volume += g.Volume
	}

	return b
}

// Ratio reports how many base-interval units fit in one derived-interval
// unit, validating that derivedInterval is an exact multiple of
// baseInterval (spec §4.7's "interval N a multiple of base B").
func Ratio(baseInterval, derivedInterval types.Interval) (int, error) {
	baseDur, err := baseInterval.Duration()
	if err != nil {
		return 0, err
	}

	derivedDur, err := derivedInterval.Duration()
	if err != nil {
		return 0, err
	}

	if baseDur <= 0 || derivedDur%baseDur != 0 {
		return 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval,
			"derived interval %q is not an exact multiple of base %q", derivedInterval, baseInterval)
	}

	return int(derivedDur / baseDur), nil
}
