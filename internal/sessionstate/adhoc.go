package sessionstate

import (
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// AddHistoricalBars is the scanner-framework entry point for backfilling
// one interval's historical bucket for a single date.
func (s *State) AddHistoricalBars(symbol string, interval types.Interval, date time.Time, bars []types.Bar, loc *time.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	hist, ok := data.Historical[string(interval)]
	if !ok {
		hist = &types.HistoricalInterval{Dates: make(map[string][]types.Bar), Quality: make(map[string]float64), Indicators: make(map[string]types.IndicatorData)}
		data.Historical[string(interval)] = hist
	}

	hist.Dates[dateKey(date, loc)] = bars

	return nil
}

// AddSessionBars is the scanner-framework entry point for seeding a
// symbol's current-session bucket directly (bypassing the pipeline), used
// when a scanner already has bars in hand.
func (s *State) AddSessionBars(symbol string, interval types.Interval, bars []types.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(interval)] = bucket
	}

	bucket.Data = bars
	bucket.UpdatedFlag = true

	if len(bars) > 0 {
		last := bars[len(bars)-1]
		if data.BaseInterval == "" {
			data.BaseInterval = string(interval)
		}

		if interval == types.Interval(data.BaseInterval) {
			data.SetLatestBar(last)
		}
	}

	s.notifyArrival()

	return nil
}

// AddIndicator publishes an IndicatorData for symbol under key (the
// IndicatorFramework's own publish path reuses this).
func (s *State) AddIndicator(symbol, key string, data types.IndicatorData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd := s.getLocked(symbol)
	if sd == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	sd.Indicators[key] = data

	return nil
}

// SetHistoricalIndicator stores a one-off historical indicator result under
// (interval, key), used by SessionCoordinator Phase 2's historical-
// indicator pass (spec §4.6/§4.8). Unlike AddIndicator, this never touches
// the live per-(symbol,interval,key) indicator published by the streaming
// pipeline.
func (s *State) SetHistoricalIndicator(symbol string, interval types.Interval, key string, data types.IndicatorData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd := s.getLocked(symbol)
	if sd == nil {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	hist, ok := sd.Historical[string(interval)]
	if !ok {
		hist = &types.HistoricalInterval{Dates: make(map[string][]types.Bar), Quality: make(map[string]float64), Indicators: make(map[string]types.IndicatorData)}
		sd.Historical[string(interval)] = hist
	}

	hist.Indicators[key] = data

	return nil
}

// GetIndicator reads one published indicator value for symbol.
func (s *State) GetIndicator(symbol, key string, internal bool) (types.IndicatorData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return types.IndicatorData{}, false
	}

	data := s.getLocked(symbol)
	if data == nil {
		return types.IndicatorData{}, false
	}

	v, ok := data.Indicators[key]

	return v, ok
}
