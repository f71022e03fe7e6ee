package sessionstate

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// LatestBar returns the most recently appended bar for (symbol, interval),
// gated unless internal.
func (s *State) LatestBar(symbol string, interval types.Interval, internal bool) (types.Bar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return types.Bar{}, false
	}

	data := s.getLocked(symbol)
	if data == nil {
		return types.Bar{}, false
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok || len(bucket.Data) == 0 {
		return types.Bar{}, false
	}

	return bucket.Data[len(bucket.Data)-1], true
}

// LastNBars returns (a copy of) the trailing n bars for (symbol, interval).
func (s *State) LastNBars(symbol string, interval types.Interval, n int, internal bool) []types.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil
	}

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return nil
	}

	start := len(bucket.Data) - n
	if start < 0 {
		start = 0
	}

	out := make([]types.Bar, len(bucket.Data[start:]))
	copy(out, bucket.Data[start:])

	return out
}

// BarsSince returns every bar at or after ts for (symbol, interval).
func (s *State) BarsSince(symbol string, interval types.Interval, ts time.Time, internal bool) []types.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil
	}

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return nil
	}

	idx := sort.Search(len(bucket.Data), func(i int) bool {
		return !bucket.Data[i].Timestamp.Before(ts)
	})

	out := make([]types.Bar, len(bucket.Data[idx:]))
	copy(out, bucket.Data[idx:])

	return out
}

// BarCount reports how many bars are currently held for (symbol, interval).
func (s *State) BarCount(symbol string, interval types.Interval, internal bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return 0
	}

	data := s.getLocked(symbol)
	if data == nil {
		return 0
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return 0
	}

	return len(bucket.Data)
}

// LatestBarsMulti fetches LatestBar for every symbol in symbols at once.
func (s *State) LatestBarsMulti(symbols []string, interval types.Interval, internal bool) map[string]types.Bar {
	out := make(map[string]types.Bar, len(symbols))

	for _, sym := range symbols {
		if b, ok := s.LatestBar(sym, interval, internal); ok {
			out[sym] = b
		}
	}

	return out
}

// WithBarsRef invokes fn with a zero-copy slice reference to (symbol,
// interval)'s bar sequence, held while s's lock is held. fn must not
// mutate the slice and must not call back into State (the lock is not
// reentrant). This is the non-escaping preferred form of the spec §4.4
// `get_bars_ref` escape hatch (see spec §9 design note).
func (s *State) WithBarsRef(symbol string, interval types.Interval, internal bool, fn func([]types.Bar)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return false
	}

	data := s.getLocked(symbol)
	if data == nil {
		return false
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return false
	}

	fn(bucket.Data)

	return true
}

// GetBars returns a defensive copy of (symbol, interval)'s bars, optionally
// restricted to [start, end].
func (s *State) GetBars(symbol string, interval types.Interval, start, end *time.Time, internal bool) []types.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil
	}

	data := s.getLocked(symbol)
	if data == nil {
		return nil
	}

	bucket, ok := data.Bars[string(interval)]
	if !ok {
		return nil
	}

	out := make([]types.Bar, 0, len(bucket.Data))

	for _, b := range bucket.Data {
		if start != nil && b.Timestamp.Before(*start) {
			continue
		}

		if end != nil && b.Timestamp.After(*end) {
			continue
		}

		out = append(out, b)
	}

	return out
}

// SessionMetrics returns a copy of symbol's running session metrics.
func (s *State) SessionMetrics(symbol string, internal bool) (types.SessionMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return types.SessionMetrics{}, false
	}

	data := s.getLocked(symbol)
	if data == nil {
		return types.SessionMetrics{}, false
	}

	return data.Metrics, true
}
