package sessioncoordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/derive"
	"github.com/rxtech-lab/argo-trading/internal/facade"
	"github.com/rxtech-lab/argo-trading/internal/indicator"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/quality"
	"github.com/rxtech-lab/argo-trading/internal/replayqueue"
	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// pendingAddition is one mid-session symbol-addition request (spec §4.6).
type pendingAddition struct {
	symbol SymbolConfig
	done   chan error
}

// Coordinator is the default SessionCoordinator implementation.
type Coordinator struct {
	cfg Config
	ts  timeservice.TimeService
	mkt *facade.Facade

	state   *sessionstate.State
	replay  *replayqueue.Coordinator
	agg     *derive.Aggregator
	quality *quality.Engine
	fw      *indicator.Framework

	log *logger.Logger

	plans map[string]plannedIntervals

	mu          sync.Mutex
	pauseCh     chan struct{} // closed while paused; nil while running
	stopped     bool
	pendingAdds []pendingAddition

	sessionDate time.Time
	tradingDays int
}

// New builds a Coordinator and its owned SessionState/Aggregator/Engine/
// Framework instances, bound to the given Facade and TimeService.
func New(cfg Config, ts timeservice.TimeService, mkt *facade.Facade, registry indicator.Registry, log *logger.Logger) (*Coordinator, error) {
	loc, err := ts.MarketTimezone(cfg.ExchangeGroup, cfg.AssetClass)
	if err != nil {
		return nil, err
	}

	window := cfg.TrailingWindow
	if window <= 0 {
		window = sessionstate.TrailingWindowDefault
	}

	state := sessionstate.New(window, log)
	fw := indicator.NewFramework(registry, state, log)

	c := &Coordinator{
		cfg:     cfg,
		ts:      ts,
		mkt:     mkt,
		state:   state,
		replay:  replayqueue.New(),
		agg:     derive.NewAggregator(state, loc),
		quality: quality.New(state, ts, cfg.ExchangeGroup, cfg.AssetClass),
		fw:      fw,
		log:     log,
		plans:   make(map[string]plannedIntervals),
	}

	return c, nil
}

// State exposes the owned SessionState for external read-only consumers
// (analysis engines, serializers), per spec §4.6's data-flow note that
// consumers read via SessionState without spawning core threads.
func (c *Coordinator) State() *sessionstate.State {
	return c.state
}

func (c *Coordinator) locFor() (*time.Location, error) {
	return c.ts.MarketTimezone(c.cfg.ExchangeGroup, c.cfg.AssetClass)
}

// Run drives the coordinator across trading days starting at startDate
// until BacktestEndDate is exceeded or Stop is called, per spec §4.6's
// "own thread per trading day" model collapsed into one sequential loop
// (idiomatic Go: one goroutine, explicit phase functions, no cooperative
// scheduler needed since Phase 5 itself blocks on ctx/pause/replay wait).
func (c *Coordinator) Run(ctx context.Context, startDate time.Time) error {
	c.sessionDate = startDate

	first := true

	for {
		if c.isStopped() {
			return nil
		}

		if err := c.runOneSession(ctx, first); err != nil {
			return err
		}

		first = false

		next, err := c.advanceToNextSession()
		if err != nil {
			return err
		}

		if !next {
			return nil
		}
	}
}

func (c *Coordinator) runOneSession(ctx context.Context, firstSession bool) error {
	if err := c.phase1Initialization(firstSession); err != nil {
		return err
	}

	if err := c.phase2HistoricalManagement(); err != nil {
		return err
	}

	if err := c.phase3QueueLoading(ctx); err != nil {
		return err
	}

	c.phase4Activation()

	if err := c.phase5Streaming(ctx); err != nil {
		return err
	}

	return c.phase6EndOfSession()
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopped
}

// Stop sets the stop flag; the current Phase 5 iteration completes, Phase 6
// runs, and Run returns, per spec §5 Cancellation.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.replay.Stop()
}

// advanceToNextSession asks TimeService for the next trading date and
// reports whether it is within the backtest window.
func (c *Coordinator) advanceToNextSession() (bool, error) {
	next, err := c.ts.NextTradingDate(c.sessionDate, 1, c.cfg.ExchangeGroup, c.cfg.AssetClass)
	if err != nil {
		return false, err
	}

	if !c.cfg.BacktestEndDate.IsZero() && next.After(c.cfg.BacktestEndDate) {
		return false, nil
	}

	c.sessionDate = next

	return true, nil
}

// fatalf wraps an invariant-violation error, per spec §4.6 Phase 3/5's
// "fatal" language for conditions that must abort the session.
func fatalf(code apperrors.ErrorCode, format string, args ...interface{}) error {
	return apperrors.Newf(code, format, args...)
}
