package sessionstate

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// AppendBar appends one bar to symbol's current-session container for
// interval, assuming chronological order (the "stream" route). Updates
// session metrics and the latest-bar cache, then wakes pipeline workers.
// This is the primary ingestion call used by SessionCoordinator Phase 5.
func (s *State) AppendBar(symbol string, interval types.Interval, bar types.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	if data.BaseInterval == "" {
		data.BaseInterval = string(interval)
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(interval)] = bucket
	}

	if n := len(bucket.Data); n > 0 && !bar.Timestamp.After(bucket.Data[n-1].Timestamp) {
		return apperrors.Newf(apperrors.ErrCodeInvariantBarOutOfOrder,
			"bar for %s/%s at %s is not strictly after the last stored timestamp %s",
			symbol, interval, bar.Timestamp, bucket.Data[n-1].Timestamp)
	}

	bucket.Data = append(bucket.Data, bar)
	bucket.UpdatedFlag = true

	if interval == types.Interval(data.BaseInterval) {
		data.Metrics.Observe(bar)
		data.SetLatestBar(bar)
	}

	s.notifyArrival()

	return nil
}

// AddBar is the single-interval convenience form of AppendBar: it appends
// to the bar's own Interval field on symbol's base container.
func (s *State) AddBar(symbol string, bar types.Bar) error {
	return s.AppendBar(symbol, bar.Interval, bar)
}

// AddBarsBatch routes every bar in bars according to mode, per spec §4.4.
func (s *State) AddBarsBatch(symbol string, bars []types.Bar, mode AddMode, sessionDate time.Time, loc *time.Location) error {
	for _, bar := range bars {
		if err := s.addOneBar(symbol, bar, mode, sessionDate, loc); err != nil {
			return err
		}
	}

	return nil
}

func (s *State) addOneBar(symbol string, bar types.Bar, mode AddMode, sessionDate time.Time, loc *time.Location) error {
	switch mode {
	case ModeStream:
		return s.AppendBar(symbol, bar.Interval, bar)
	case ModeGapFill:
		return s.gapFillInsert(symbol, bar)
	case ModeHistorical:
		return s.appendHistorical(symbol, bar, dateKey(bar.Timestamp, loc))
	case ModeAuto:
		local := bar.Timestamp
		if loc != nil {
			local = local.In(loc)
		}

		if sameDate(local, sessionDate) {
			return s.AppendBar(symbol, bar.Interval, bar)
		}

		return s.appendHistorical(symbol, bar, dateKey(bar.Timestamp, loc))
	default:
		return apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "unknown add mode %q", mode)
	}
}

// gapFillInsert inserts bar into its current-session bucket at sorted
// position, used for out-of-order backfill of a detected gap.
func (s *State) gapFillInsert(symbol string, bar types.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	if data.BaseInterval == "" {
		data.BaseInterval = string(bar.Interval)
	}

	bucket, ok := data.Bars[string(bar.Interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(bar.Interval)] = bucket
	}

	idx := sort.Search(len(bucket.Data), func(i int) bool {
		return !bucket.Data[i].Timestamp.Before(bar.Timestamp)
	})

	if idx < len(bucket.Data) && bucket.Data[idx].Timestamp.Equal(bar.Timestamp) {
		bucket.Data[idx] = bar // duplicate timestamp: last write wins
	} else {
		bucket.Data = append(bucket.Data, types.Bar{})
		copy(bucket.Data[idx+1:], bucket.Data[idx:])
		bucket.Data[idx] = bar
	}

	bucket.UpdatedFlag = true

	if bar.Interval == types.Interval(data.BaseInterval) {
		data.Metrics.Observe(bar)

		if latest, ok := data.LatestBar(); !ok || bar.Timestamp.After(latest.Timestamp) {
			data.SetLatestBar(bar)
		}
	}

	s.notifyArrival()

	return nil
}

func (s *State) appendHistorical(symbol string, bar types.Bar, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	hist, ok := data.Historical[string(bar.Interval)]
	if !ok {
		hist = &types.HistoricalInterval{Dates: make(map[string][]types.Bar), Quality: make(map[string]float64), Indicators: make(map[string]types.IndicatorData)}
		data.Historical[string(bar.Interval)] = hist
	}

	hist.Dates[date] = append(hist.Dates[date], bar)

	return nil
}

func dateKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}

	return t.Format("2006-01-02")
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
