// Package sessionstate implements SessionState (spec §4.4): the per-symbol
// thread-safe working set that is the hot read path for everything
// downstream of the replay pipeline. It owns every mutable per-symbol
// structure; every other core component — DerivedAggregator, QualityEngine,
// IndicatorFramework, the analysis engine — only ever holds a reference
// guarded by State's own lock.
package sessionstate

import (
	"sync"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"go.uber.org/zap"
)

// AddMode selects how AddBarsBatch routes each bar, per spec §4.4.
type AddMode string

const (
	// ModeAuto routes each bar to the current session's base container if
	// its date equals the current session date, else to historical.
	ModeAuto AddMode = "auto"
	// ModeStream assumes chronological order and appends to the tail.
	ModeStream AddMode = "stream"
	// ModeGapFill inserts into sorted position.
	ModeGapFill AddMode = "gap_fill"
	// ModeHistorical forces historical storage regardless of date.
	ModeHistorical AddMode = "historical"
)

// TrailingWindowDefault is the default number of historical trading days
// kept in memory when a caller doesn't specify one.
const TrailingWindowDefault = 20

// State is the default SessionState implementation. One State serves one
// exchange-group/asset-class universe; symbols from multiple universes are
// not mixed in a single State instance.
type State struct {
	mu sync.Mutex
	// dataArrival is broadcast whenever a current-session append occurs;
	// pipeline workers (derivation, quality, indicators) wait on it instead
	// of polling. Spec §5 "data-arrival event, set under the state lock".
	dataArrival *sync.Cond

	symbols map[string]*types.SymbolSessionData
	locked  map[string]string // symbol -> lock reason

	sessionActive   bool
	currentDate     time.Time
	trailingWindow  int
	sessionStarted  time.Time
	lastExportedIdx map[string]map[string]int // symbol -> interval -> bar count already exported
	lastExportTime  time.Time

	log *logger.Logger
}

// New constructs an empty State. trailingWindow <= 0 uses
// TrailingWindowDefault.
func New(trailingWindow int, log *logger.Logger) *State {
	if trailingWindow <= 0 {
		trailingWindow = TrailingWindowDefault
	}

	s := &State{
		symbols:         make(map[string]*types.SymbolSessionData),
		locked:          make(map[string]string),
		trailingWindow:  trailingWindow,
		lastExportedIdx: make(map[string]map[string]int),
		log:             log,
	}
	s.dataArrival = sync.NewCond(&s.mu)

	return s
}

// RegisterSymbol idempotently installs an empty working set for symbol,
// added via addedBy. Returns the (possibly pre-existing) data and whether
// it was newly created.
func (s *State) RegisterSymbol(symbol string, addedBy types.AddedBy, now time.Time) (*types.SymbolSessionData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.symbols[symbol]; ok {
		return existing, false
	}

	data := types.NewSymbolSessionData(symbol, addedBy, now)
	data.MeetsSessionConfigRequirements = addedBy == types.AddedByConfig
	data.AutoProvisioned = addedBy != types.AddedByConfig
	s.symbols[symbol] = data

	return data, true
}

// RegisterSymbolData installs a prebuilt SymbolSessionData, overwriting any
// existing entry for the same symbol.
func (s *State) RegisterSymbolData(data *types.SymbolSessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols[data.Symbol] = data
}

// ActivateSession flips the session-active gate on and records the start
// timestamp used for session-duration metrics.
func (s *State) ActivateSession(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionActive = true
	s.sessionStarted = now
}

// DeactivateSession flips the gate off. External reads return empty
// containers until reactivated; internal (pipeline) reads are unaffected.
func (s *State) DeactivateSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionActive = false
}

// IsSessionActive reports the current gate state.
func (s *State) IsSessionActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionActive
}

// gateOK reports whether a read with the given internal flag should
// proceed. Internal pipeline reads always bypass the gate (spec §5).
func (s *State) gateOK(internal bool) bool {
	return internal || s.sessionActive
}

// CurrentDate reports the trading date the session is currently on.
func (s *State) CurrentDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

// SetCurrentDate records the session date; called by SessionCoordinator
// Phase 1.
func (s *State) SetCurrentDate(d time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentDate = d
}

// symbolLocked reports (without re-locking) whether symbol is locked.
func (s *State) symbolLocked(symbol string) bool {
	_, ok := s.locked[symbol]

	return ok
}

// LockSymbol prevents RemoveSymbolAdhoc from evicting symbol until
// unlocked, recording reason for diagnostics.
func (s *State) LockSymbol(symbol, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locked[symbol] = reason
}

// UnlockSymbol releases a previously set lock.
func (s *State) UnlockSymbol(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locked, symbol)
}

// IsSymbolLocked reports whether symbol currently carries a lock.
func (s *State) IsSymbolLocked(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.symbolLocked(symbol)
}

// RemoveSymbolAdhoc evicts a symbol's working set entirely. Refuses locked
// symbols and symbols registered via config (only adhoc/scanner-added
// symbols may be removed at runtime).
func (s *State) RemoveSymbolAdhoc(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.symbols[symbol]
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeDataUnavailableSymbol, "symbol %s not registered", symbol)
	}

	if s.symbolLocked(symbol) {
		return apperrors.Newf(apperrors.ErrCodeInvariantSymbolLocked, "symbol %s is locked: %s", symbol, s.locked[symbol])
	}

	if data.AddedBy == types.AddedByConfig {
		return apperrors.Newf(apperrors.ErrCodeInvariantSymbolLocked, "symbol %s was added by config, cannot be removed adhoc", symbol)
	}

	delete(s.symbols, symbol)
	delete(s.lastExportedIdx, symbol)

	return nil
}

// AddSymbol is the scanner-framework entry point: registers an adhoc
// symbol if not already present.
func (s *State) AddSymbol(symbol string, now time.Time) *types.SymbolSessionData {
	data, _ := s.RegisterSymbol(symbol, types.AddedByAdhoc, now)

	return data
}

// getLocked returns the SymbolSessionData for symbol, or nil if unknown.
// Caller must hold s.mu.
func (s *State) getLocked(symbol string) *types.SymbolSessionData {
	return s.symbols[symbol]
}

// GetSymbolData returns the working set for symbol, gated unless internal.
func (s *State) GetSymbolData(symbol string, internal bool) (*types.SymbolSessionData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gateOK(internal) {
		return nil, false
	}

	data, ok := s.symbols[symbol]

	return data, ok
}

// Symbols lists every registered symbol, regardless of gate state (used by
// coordinator bookkeeping, never by external analysis consumers).
func (s *State) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}

	return out
}

// notifyArrival wakes every pipeline worker blocked on DataArrival. Caller
// must hold s.mu.
func (s *State) notifyArrival() {
	s.dataArrival.Broadcast()
}

// WaitForArrival blocks the calling pipeline worker until the next
// current-session bar append, or until the supplied stop channel closes.
// Spec §5: "pipeline workers suspend on SessionState's data-arrival event".
func (s *State) WaitForArrival(stop <-chan struct{}) {
	done := make(chan struct{})

	go func() {
		select {
		case <-stop:
			s.mu.Lock()
			s.notifyArrival()
			s.mu.Unlock()
		case <-done:
		}
	}()

	s.mu.Lock()
	s.dataArrival.Wait()
	s.mu.Unlock()
	close(done)
}

func (s *State) debugf(msg string, fields ...zap.Field) {
	if s.log != nil {
		s.log.Debug(msg, fields...)
	}
}
