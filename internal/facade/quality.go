package facade

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Gap is a run of missing expected bars inside a trading session.
type Gap struct {
	Start time.Time
	End   time.Time
	Bars  int
}

// QualityReport is check_data_quality's result, per spec §4.7/§12: expected
// vs observed bar counts derived from the trading calendar's regular
// session, gap enumeration, and a naive 0-1 completeness score.
type QualityReport struct {
	Symbol        string
	Interval      types.Interval
	ExpectedBars  int
	ObservedBars  int
	DuplicateBars int
	Gaps          []Gap
	LastGapEnd    time.Time
	Score         float64
}

// CheckDataQuality compares observed bars for [start, end] against the
// count expected from the regular trading session on each trading date in
// range, per the exchange's calendar; an expected slot counts only when it
// falls in [start, end), so a slot starting exactly at end is not expected. Weekends/holidays contribute zero
// expected bars. Duplicates are always 0 post-dedup (WriteBars upserts on
// (symbol, interval, timestamp)); the field is retained for report
// symmetry with the pre-dedup counts a caller may keep separately.
func (f *Facade) CheckDataQuality(symbol string, interval types.Interval, start, end time.Time) (QualityReport, error) {
	step, err := interval.Duration()
	if err != nil {
		return QualityReport{}, err
	}

	if step <= 0 {
		return QualityReport{}, apperrors.Newf(apperrors.ErrCodeValidationInvalidBar, "interval %q has non-positive duration", interval)
	}

	bars, err := f.store.ReadBars(interval, symbol, f.exchangeGroup, &start, &end)
	if err != nil {
		return QualityReport{}, err
	}

	observed := make(map[int64]bool, len(bars))
	for _, b := range bars {
		observed[b.Timestamp.Unix()] = true
	}

	tradingDates, err := f.ts.TradingDatesInRange(start, end, f.exchangeGroup, f.assetClass)
	if err != nil {
		return QualityReport{}, err
	}

	report := QualityReport{Symbol: symbol, Interval: interval, ObservedBars: len(bars)}

	var gapStart time.Time

	gapLen := 0

	flushGap := func() {
		if gapLen > 0 {
			report.Gaps = append(report.Gaps, Gap{Start: gapStart, End: gapStart.Add(time.Duration(gapLen-1) * step), Bars: gapLen})
			report.LastGapEnd = gapStart.Add(time.Duration(gapLen-1) * step)
			gapLen = 0
		}
	}

	for _, date := range tradingDates {
		session, err := f.ts.TradingSession(date, f.exchangeGroup, f.assetClass)
		if err != nil {
			return QualityReport{}, err
		}

		open, openErr := session.RegularOpen.Take()
		closeT, closeErr := session.RegularClose.Take()

		if !session.IsTradingDay || openErr != nil || closeErr != nil {
			continue
		}

		loc, err := f.ts.MarketTimezone(f.exchangeGroup, f.assetClass)
		if err != nil {
			return QualityReport{}, err
		}

		sessionOpen := open.On(date, loc)
		sessionClose := closeT.On(date, loc)

		for t := sessionOpen; t.Before(sessionClose); t = t.Add(step) {
			if t.Before(start) || !t.Before(end) {
				continue
			}

			report.ExpectedBars++

			if observed[t.Unix()] {
				flushGap()
				continue
			}

			if gapLen == 0 {
				gapStart = t
			}

			gapLen++
		}
	}

	flushGap()

	if report.ExpectedBars > 0 {
		report.Score = float64(report.ExpectedBars-sumGapBars(report.Gaps)) / float64(report.ExpectedBars)
	} else {
		report.Score = 1
	}

	return report, nil
}

func sumGapBars(gaps []Gap) int {
	total := 0
	for _, g := range gaps {
		total += g.Bars
	}

	return total
}
