package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddedBy records how a symbol entered the session's working set.
type AddedBy string

const (
	AddedByConfig   AddedBy = "config"
	AddedByStrategy AddedBy = "strategy"
	AddedByScanner  AddedBy = "scanner"
	AddedByAdhoc    AddedBy = "adhoc"
)

// BarIntervalData holds one (symbol, interval) bucket's bar sequence plus
// its quality bookkeeping.
type BarIntervalData struct {
	Derived    bool
	Base       string // interval-label this bucket is derived from, empty if not derived
	Data       []Bar  // ordered, strictly increasing timestamps
	Quality    float64 // [0,100]
	Gaps       []Gap
	UpdatedFlag bool
}

// Gap records a detected missing-bar interval within a BarIntervalData
// sequence.
type Gap struct {
	From  time.Time
	To    time.Time
	Count int
}

// SessionMetrics tracks running per-symbol totals for the current session.
// Volume uses decimal accumulation so repeated incremental sums across a
// full trading day don't drift the way naive float64 addition would.
type SessionMetrics struct {
	SessionVolume decimal.Decimal
	SessionHigh   float64
	SessionLow    float64
	LastUpdate    time.Time
}

// AddVolume accumulates volume using decimal arithmetic.
func (m *SessionMetrics) AddVolume(v float64) {
	m.SessionVolume = m.SessionVolume.Add(decimal.NewFromFloat(v))
}

// Observe folds a new bar into the running high/low/last-update metrics.
func (m *SessionMetrics) Observe(b Bar) {
	if m.SessionHigh == 0 || b.High > m.SessionHigh {
		m.SessionHigh = b.High
	}

	if m.SessionLow == 0 || b.Low < m.SessionLow {
		m.SessionLow = b.Low
	}

	m.AddVolume(b.Volume)
	m.LastUpdate = b.Timestamp
}

// HistoricalInterval is one interval's trailing-day historical store: a
// date-keyed map of ordered bar sequences plus the interval's rolling
// quality and historical indicator data.
type HistoricalInterval struct {
	Dates      map[string][]Bar // date (YYYY-MM-DD, exchange-local) -> bars
	Quality    map[string]float64
	Indicators map[string]IndicatorData
}

// SymbolSessionData is the per-symbol in-memory working set owned
// exclusively by SessionState.
type SymbolSessionData struct {
	Symbol       string
	BaseInterval string // "1s" or "1m", fixed once the first bar arrives

	Bars map[string]*BarIntervalData // interval-label -> data

	Quotes []Quote
	Ticks  []Tick

	Metrics SessionMetrics

	Indicators map[string]IndicatorData // indicator-key -> data

	Historical map[string]*HistoricalInterval // interval-label -> historical data

	latestBar *Bar // cache for O(1) latest-bar access

	MeetsSessionConfigRequirements bool
	AddedBy                        AddedBy
	AutoProvisioned                bool
	AddedAt                        time.Time
}

// NewSymbolSessionData constructs an empty working set for a symbol.
func NewSymbolSessionData(symbol string, addedBy AddedBy, addedAt time.Time) *SymbolSessionData {
	return &SymbolSessionData{
		Symbol:     symbol,
		Bars:       make(map[string]*BarIntervalData),
		Indicators: make(map[string]IndicatorData),
		Historical: make(map[string]*HistoricalInterval),
		AddedBy:    addedBy,
		AddedAt:    addedAt,
	}
}

// LatestBar returns the most recent bar of the symbol's base interval,
// cached for O(1) access.
func (s *SymbolSessionData) LatestBar() (Bar, bool) {
	if s.latestBar == nil {
		return Bar{}, false
	}

	return *s.latestBar, true
}

// SetLatestBar updates the O(1) latest-bar cache.
func (s *SymbolSessionData) SetLatestBar(b Bar) {
	barCopy := b
	s.latestBar = &barCopy
}

// ResetSessionState clears the per-session bar/quote/tick sequences and
// metrics on a session roll, leaving the historical trailing-day map
// untouched (that is aged separately).
func (s *SymbolSessionData) ResetSessionState() {
	s.Bars = make(map[string]*BarIntervalData)
	s.Quotes = nil
	s.Ticks = nil
	s.Metrics = SessionMetrics{}
	s.latestBar = nil
}
