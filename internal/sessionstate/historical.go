package sessionstate

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// HistoricalLoader fetches bars for one (symbol, interval, date) from
// whatever backs historical context — MarketDataFacade in production,
// a fake in tests.
type HistoricalLoader func(symbol string, interval types.Interval, date time.Time) ([]types.Bar, error)

// LoadHistoricalBars materializes trailingDays of history for symbol across
// intervals into the historical map, grouped by exchange-local date, via
// loader. Per spec §4.6 Phase 2, dates run [start, end] inclusive ending
// the day before the current session date; callers compute that window
// with TimeService and pass the resolved dates here.
func (s *State) LoadHistoricalBars(symbol string, intervals []types.Interval, dates []time.Time, loc *time.Location, loader HistoricalLoader) (int, error) {
	total := 0

	for _, interval := range intervals {
		for _, date := range dates {
			bars, err := loader(symbol, interval, date)
			if err != nil {
				return total, err
			}

			key := dateKey(date, loc)

			s.mu.Lock()
			data := s.getLocked(symbol)

			if data != nil {
				hist, ok := data.Historical[string(interval)]
				if !ok {
					hist = &types.HistoricalInterval{Dates: make(map[string][]types.Bar), Quality: make(map[string]float64), Indicators: make(map[string]types.IndicatorData)}
					data.Historical[string(interval)] = hist
				}

				hist.Dates[key] = bars
				total += len(bars)
			}
			s.mu.Unlock()
		}
	}

	return total, nil
}

// GetHistoricalBars returns the bars on file daysBack trading-sessions
// before the current session date, for interval. daysBack=1 means "the
// most recent historical date loaded".
func (s *State) GetHistoricalBars(symbol string, interval types.Interval, daysBack int, internal bool) []types.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil
	}

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	hist, ok := data.Historical[string(interval)]
	if !ok {
		return nil
	}

	dates := sortedDateKeys(hist.Dates)
	idx := len(dates) - daysBack

	if idx < 0 || idx >= len(dates) {
		return nil
	}

	return hist.Dates[dates[idx]]
}

// GetAllBarsIncludingHistorical concatenates every historical date's bars
// (oldest first) followed by the current session's bars for interval.
func (s *State) GetAllBarsIncludingHistorical(symbol string, interval types.Interval, internal bool) []types.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil
	}

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	var out []types.Bar

	if hist, ok := data.Historical[string(interval)]; ok {
		for _, date := range sortedDateKeys(hist.Dates) {
			out = append(out, hist.Dates[date]...)
		}
	}

	if bucket, ok := data.Bars[string(interval)]; ok {
		out = append(out, bucket.Data...)
	}

	return out
}

func sortedDateKeys(m map[string][]types.Bar) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// RollSession moves every symbol's current-session bars into historical
// under the outgoing date, evicts historical dates older than the trailing
// window, then clears current-session state and resets metrics, per spec
// §3/§4.6 Phase 6.
func (s *State) RollSession(outgoingDate time.Time, newDate time.Time, loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outgoingKey := dateKey(outgoingDate, loc)

	for _, data := range s.symbols {
		for interval, bucket := range data.Bars {
			if len(bucket.Data) == 0 {
				continue
			}

			hist, ok := data.Historical[interval]
			if !ok {
				hist = &types.HistoricalInterval{Dates: make(map[string][]types.Bar), Quality: make(map[string]float64), Indicators: make(map[string]types.IndicatorData)}
				data.Historical[interval] = hist
			}

			hist.Dates[outgoingKey] = append(hist.Dates[outgoingKey], bucket.Data...)
			hist.Quality[outgoingKey] = bucket.Quality
		}

		s.evictOldDates(data, s.trailingWindow)
		data.ResetSessionState()
	}

	s.currentDate = newDate
}

// evictOldDates drops every historical date beyond the trailing window,
// keeping only the most recent `window` dates per interval.
func (s *State) evictOldDates(data *types.SymbolSessionData, window int) {
	for _, hist := range data.Historical {
		dates := sortedDateKeys(hist.Dates)
		if len(dates) <= window {
			continue
		}

		for _, stale := range dates[:len(dates)-window] {
			delete(hist.Dates, stale)
			delete(hist.Quality, stale)
		}
	}
}
