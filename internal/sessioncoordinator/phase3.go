package sessioncoordinator

import (
	"context"

	"github.com/rxtech-lab/argo-trading/internal/replayqueue"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"go.uber.org/zap"
)

// phase3QueueLoading implements spec §4.6 Phase 3. In backtest mode, every
// STREAMED interval of every symbol is read from the store for the current
// trading day (regular hours only) and copied into its replay queue; a
// missing STREAMED bar set is fatal, a missing quote set only warns. In
// live mode the provider's streaming path is started instead (handled by
// the caller's facade.StreamBars/StreamQuotes, not the replay queue).
func (c *Coordinator) phase3QueueLoading(ctx context.Context) error {
	if c.ts.Mode() == timeservice.ModeLive {
		return nil
	}

	loc, err := c.locFor()
	if err != nil {
		return err
	}

	session, err := c.ts.TradingSession(c.sessionDate, c.cfg.ExchangeGroup, c.cfg.AssetClass)
	if err != nil {
		return err
	}

	if !session.IsTradingDay {
		return nil
	}

	open, _ := session.RegularOpen.Take()
	closeT, _ := session.RegularClose.Take()
	dayOpen := open.On(c.sessionDate.In(loc), loc)
	dayClose := closeT.On(c.sessionDate.In(loc), loc)

	c.replay.Reset()

	for symbol, plan := range c.plans {
		if err := c.replay.RegisterStream(symbol, plan.base, replayqueue.KindBar); err != nil {
			return err
		}

		bars, err := c.mkt.GetBars(symbol, plan.base, dayOpen, dayClose)
		if err != nil || len(bars) == 0 {
			return apperrors.Newf(apperrors.ErrCodeDataUnavailableStreamRequired, "no streamed %s bars available for %s on %s", plan.base, symbol, c.sessionDate.Format("2006-01-02"))
		}

		go c.replay.FeedBars(symbol, plan.base, bars)

		symCfg := c.symbolConfig(symbol)
		if symCfg != nil && symCfg.StreamQuotes {
			if err := c.replay.RegisterStream(symbol, "", replayqueue.KindQuote); err != nil {
				return err
			}

			quotes, err := c.mkt.GetQuotes(symbol, dayOpen, dayClose)
			if err != nil {
				if c.log != nil {
					c.log.Warn("quotes unavailable, continuing without them",
						zap.String("symbol", symbol),
						zap.String("date", c.sessionDate.Format("2006-01-02")),
						zap.Error(err))
				}

				quotes = nil
			}

			go c.replay.FeedQuotes(symbol, quotes)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return nil
}

func (c *Coordinator) symbolConfig(symbol string) *SymbolConfig {
	for i := range c.cfg.Symbols {
		if c.cfg.Symbols[i].Symbol == symbol {
			return &c.cfg.Symbols[i]
		}
	}

	return nil
}

// phase4Activation implements spec §4.6 Phase 4: flip session_active and
// record the start timestamp for metrics.
func (c *Coordinator) phase4Activation() {
	loc, err := c.locFor()

	now := c.sessionDate
	if err == nil {
		if t, err2 := c.ts.CurrentTime(loc); err2 == nil {
			now = t
		}
	}

	c.state.ActivateSession(now)
}
