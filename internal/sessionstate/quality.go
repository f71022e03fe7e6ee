package sessionstate

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// SetQuality records the current-session quality score (0-100) for
// (symbol, interval). Derived intervals receive their base's score via
// propagation (QualityEngine's job, not State's).
func (s *State) SetQuality(symbol string, interval types.Interval, quality float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(interval)] = bucket
	}

	bucket.Quality = quality
}

// GetQualityMetric returns the current-session quality score for (symbol,
// interval).
func (s *State) GetQualityMetric(symbol string, interval types.Interval) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return 0, false
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return 0, false
	}

	return bucket.Quality, true
}

// SetGaps replaces the recorded gap list for (symbol, interval).
func (s *State) SetGaps(symbol string, interval types.Interval, gaps []types.Gap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(interval)] = bucket
	}

	bucket.Gaps = gaps
}

// GetGaps returns the recorded gap list for (symbol, interval).
func (s *State) GetGaps(symbol string, interval types.Interval) []types.Gap {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return nil
	}

	return bucket.Gaps
}

// MarkDerived records that (symbol, interval) is a derived bucket computed
// from base, used by QualityEngine's propagation pass and by the derived
// aggregator to find its own output bucket.
func (s *State) MarkDerived(symbol string, interval, base types.Interval) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		bucket = &types.BarIntervalData{}
		data.Bars[string(interval)] = bucket
	}

	bucket.Derived = true
	bucket.Base = string(base)
}

// DerivedIntervals returns every interval of symbol marked as derived, with
// its base.
func (s *State) DerivedIntervals(symbol string) map[types.Interval]types.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	out := make(map[types.Interval]types.Interval)

	for interval, bucket := range data.Bars {
		if bucket.Derived {
			out[types.Interval(interval)] = types.Interval(bucket.Base)
		}
	}

	return out
}
