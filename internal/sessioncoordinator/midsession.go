package sessioncoordinator

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/replayqueue"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// AddSymbol implements spec §4.6's mid-session symbol addition. In
// backtest mode the request is queued and the streaming loop processes it
// between iterations, pausing the session, loading history, and catching
// up the new symbol's queue with the clock held fixed. In live mode the
// symbol is only configured (plan, SessionState registration, aggregator
// and indicator setup) before the call returns; no historical load runs and
// no provider stream is started here.
func (c *Coordinator) AddSymbol(ctx context.Context, sym SymbolConfig) error {
	if c.ts.Mode() == timeservice.ModeLive {
		return c.addSymbolLive(sym)
	}

	done := make(chan error, 1)

	c.mu.Lock()
	c.pendingAdds = append(c.pendingAdds, pendingAddition{symbol: sym, done: done})
	c.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) configureSymbol(sym SymbolConfig, now time.Time) (types.Interval, error) {
	base, ok := chooseBase(sym.ConfiguredBases)
	if !ok {
		return "", apperrors.Newf(apperrors.ErrCodeConfigurationMalformed, "symbol %s has no candidate base interval configured", sym.Symbol)
	}

	c.plans[sym.Symbol] = plannedIntervals{base: base, generated: sym.OtherIntervals}
	c.state.RegisterSymbol(sym.Symbol, types.AddedByStrategy, now)
	c.agg.Configure(sym.Symbol, base, sym.OtherIntervals)

	for interval, indicators := range sym.IndicatorConfigs {
		c.fw.Configure(sym.Symbol, interval, indicators)
	}

	for _, derived := range sym.OtherIntervals {
		c.state.MarkDerived(sym.Symbol, derived, base)
	}

	return base, nil
}

func (c *Coordinator) addSymbolLive(sym SymbolConfig) error {
	loc, err := c.locFor()
	if err != nil {
		return err
	}

	now, err := c.ts.CurrentTime(loc)
	if err != nil {
		return err
	}

	_, err = c.configureSymbol(sym, now)

	return err
}

// processPendingAdditions drains the pending-additions queue between
// streaming iterations, per spec §4.6. Each addition pauses the session,
// loads historical data, populates the symbol's queue, and catches up
// every queue entry strictly before the current clock with the clock held
// fixed, then resumes.
func (c *Coordinator) processPendingAdditions(ctx context.Context, clock, marketOpen, marketClose time.Time, loc *time.Location) {
	for {
		c.mu.Lock()

		if len(c.pendingAdds) == 0 {
			c.mu.Unlock()

			return
		}

		add := c.pendingAdds[0]
		c.pendingAdds = c.pendingAdds[1:]
		c.mu.Unlock()

		add.done <- c.applyPendingAddition(ctx, add.symbol, clock, marketOpen, marketClose, loc)
	}
}

// applyPendingAddition implements the backtest mid-session addition
// protocol: pause, configure, load history, populate the queue for the
// current day, catch up every bar strictly before clock (dropping
// out-of-hours bars, clock held fixed throughout), queue the remainder for
// ordinary Phase 5 draining, then resume.
func (c *Coordinator) applyPendingAddition(ctx context.Context, sym SymbolConfig, clock, marketOpen, marketClose time.Time, loc *time.Location) error {
	c.pause()
	defer c.resume(clock)

	base, err := c.configureSymbol(sym, clock)
	if err != nil {
		return err
	}

	if err := c.loadHistoricalForSymbol(sym, loc); err != nil {
		return err
	}

	bars, err := c.mkt.GetBars(sym.Symbol, base, marketOpen, marketClose)
	if err != nil {
		return err
	}

	if err := c.replay.RegisterStream(sym.Symbol, base, replayqueue.KindBar); err != nil {
		return err
	}

	var toStream []types.Bar

	for _, b := range bars {
		if b.Timestamp.Before(clock) {
			if !b.Timestamp.Before(marketOpen) && !b.Timestamp.After(marketClose) {
				if err := c.state.AppendBar(sym.Symbol, base, b); err != nil {
					return err
				}
			}

			continue
		}

		toStream = append(toStream, b)
	}

	go c.replay.FeedBars(sym.Symbol, base, toStream)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return nil
}

func (c *Coordinator) loadHistoricalForSymbol(sym SymbolConfig, loc *time.Location) error {
	end, err := c.ts.PreviousTradingDate(c.sessionDate, 1, c.cfg.ExchangeGroup, c.cfg.AssetClass)
	if err != nil {
		return err
	}

	loader := func(symbol string, interval types.Interval, date time.Time) ([]types.Bar, error) {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.Add(24 * time.Hour)

		return c.mkt.GetBars(symbol, interval, dayStart, dayEnd)
	}

	for _, hc := range c.cfg.Historical {
		if !containsSymbol(hc.Symbols, sym.Symbol) {
			continue
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

		if _, err := c.state.LoadHistoricalBars(sym.Symbol, hc.Intervals, dates, loc, loader); err != nil {
			return err
		}
	}

	return nil
}

func containsSymbol(symbols []string, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}

	return false
}

func (c *Coordinator) pause() {
	c.mu.Lock()
	if c.pauseCh == nil {
		c.pauseCh = make(chan struct{})
	}
	c.mu.Unlock()

	c.state.DeactivateSession()
}

func (c *Coordinator) resume(now time.Time) {
	c.mu.Lock()
	ch := c.pauseCh
	c.pauseCh = nil
	c.mu.Unlock()

	if ch != nil {
		close(ch)
	}

	c.state.ActivateSession(now)
}
