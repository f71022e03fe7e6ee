package sessioncoordinator

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/derive"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// phase2HistoricalManagement implements spec §4.6 Phase 2: load trailing
// historical windows per HistoricalConfig entry, compute historical
// indicators, compute historical quality, and synthesize derived historical
// bars from each symbol's base-interval history.
func (c *Coordinator) phase2HistoricalManagement() error {
	loc, err := c.locFor()
	if err != nil {
		return err
	}

	loader := func(symbol string, interval types.Interval, date time.Time) ([]types.Bar, error) {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.Add(24 * time.Hour)

		return c.mkt.GetBars(symbol, interval, dayStart, dayEnd)
	}

	for _, hc := range c.cfg.Historical {
		end, err := c.ts.PreviousTradingDate(c.sessionDate, 1, c.cfg.ExchangeGroup, c.cfg.AssetClass)
		if err != nil {
			return err
		}

		start := end

		if hc.TrailingDays > 1 {
			start, err = c.ts.PreviousTradingDate(end, hc.TrailingDays-1, c.cfg.ExchangeGroup, c.cfg.AssetClass)
			if err != nil {
				return err
			}
		}

		dates, err := c.ts.TradingDatesInRange(start, end, c.cfg.ExchangeGroup, c.cfg.AssetClass)
		if err != nil {
			return err
		}

		for _, symbol := range hc.Symbols {
			if _, err := c.state.LoadHistoricalBars(symbol, hc.Intervals, dates, loc, loader); err != nil {
				return err
			}
		}
	}

	for symbol, plan := range c.plans {
		if err := c.computeHistoricalIndicators(symbol, plan); err != nil {
			return err
		}

		if err := c.computeHistoricalQuality(symbol, plan, loc); err != nil {
			return err
		}

		c.synthesizeHistoricalDerivedBars(symbol, plan, loc)
	}

	return nil
}

func (c *Coordinator) computeHistoricalIndicators(symbol string, plan plannedIntervals) error {
	intervals := append([]types.Interval{plan.base}, plan.generated...)

	for _, sym := range c.cfg.Symbols {
		if sym.Symbol != symbol {
			continue
		}

		for _, interval := range intervals {
			for _, cfg := range sym.IndicatorConfigs[interval] {
				result, err := c.fw.EvaluateHistorical(symbol, interval, cfg)
				if err != nil {
					return err
				}

				data := types.IndicatorData{Valid: result.Valid, CurrentValue: result.Value}
				if result.Values != nil {
					data.CurrentValue = result.Values
				}

				if err := c.state.SetHistoricalIndicator(symbol, interval, cfg.Key(), data); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// computeHistoricalQuality scores each loaded historical date per spec §4.7:
// expected = floor((close-open)/interval) using that date's TradingSession
// (honoring early close), observed = bars loaded, per-date score =
// min(100, 100*observed/expected), aggregated as the arithmetic mean across
// dates, then propagated to derived historical intervals.
func (c *Coordinator) computeHistoricalQuality(symbol string, plan plannedIntervals, loc *time.Location) error {
	step, err := plan.base.Duration()
	if err != nil {
		return err
	}

	bars := c.state.GetAllBarsIncludingHistorical(symbol, plan.base, true)
	if len(bars) == 0 {
		return nil
	}

	byDate := make(map[string][]types.Bar)
	for _, b := range bars {
		key := b.Timestamp.In(loc).Format("2006-01-02")
		byDate[key] = append(byDate[key], b)
	}

	var total float64

	var count int

	for _, dayBars := range byDate {
		session, err := c.ts.TradingSession(dayBars[0].Timestamp, c.cfg.ExchangeGroup, c.cfg.AssetClass)
		if err != nil || !session.IsTradingDay {
			continue
		}

		open, okOpen := session.RegularOpen.Take()
		closeT, okClose := session.RegularClose.Take()

		if okOpen != nil || okClose != nil {
			continue
		}

		expected := int(time.Duration(closeT-open) / step)
		if expected <= 0 {
			continue
		}

		score := min(100.0, 100.0*float64(len(dayBars))/float64(expected))
		total += score
		count++
	}

	if count == 0 {
		return nil
	}

	avg := total / float64(count)
	c.state.SetQuality(symbol, plan.base, avg)

	for _, derived := range plan.generated {
		c.state.SetQuality(symbol, derived, avg)
	}

	return nil
}

// synthesizeHistoricalDerivedBars aggregates each historical date's base
// bars into every generated interval, by the same deterministic window
// aggregation live streaming uses (spec §4.7), and stores the result as
// historical data for that derived interval.
func (c *Coordinator) synthesizeHistoricalDerivedBars(symbol string, plan plannedIntervals, loc *time.Location) {
	bars := c.state.GetAllBarsIncludingHistorical(symbol, plan.base, true)
	if len(bars) == 0 {
		return
	}

	byDate := make(map[string][]types.Bar)
	for _, b := range bars {
		key := b.Timestamp.In(loc).Format("2006-01-02")
		byDate[key] = append(byDate[key], b)
	}

	for _, derived := range plan.generated {
		for dateKey, dayBars := range byDate {
			sessionClose := dayBars[len(dayBars)-1].Timestamp.Add(time.Minute)

			windows, err := derive.Windows(dayBars, derived, loc, sessionClose)
			if err != nil || len(windows) == 0 {
				continue
			}

			date, err := time.ParseInLocation("2006-01-02", dateKey, loc)
			if err != nil {
				continue
			}

			_ = c.state.AddHistoricalBars(symbol, derived, date, windows, loc)
		}
	}
}
