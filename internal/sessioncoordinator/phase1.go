package sessioncoordinator

import (
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// phase1Initialization implements spec §4.6 Phase 1. On the first session
// only, it decides each symbol's streamed base interval and generated
// intervals, registers the symbol in SessionState, and informs the
// Aggregator and IndicatorFramework of the plan; the registration timestamp
// is current_time(). Every session (first or not) records the coordinator's
// session date in SessionState. Session-local state is reset by Phase 6,
// not here.
func (c *Coordinator) phase1Initialization(firstSession bool) error {
	loc, err := c.locFor()
	if err != nil {
		return err
	}

	now, err := c.ts.CurrentTime(loc)
	if err != nil {
		return err
	}

	if firstSession {
		for _, sym := range c.cfg.Symbols {
			base, ok := chooseBase(sym.ConfiguredBases)
			if !ok {
				return fatalf(apperrors.ErrCodeConfigurationMalformed, "symbol %s has no candidate base interval configured", sym.Symbol)
			}

			c.plans[sym.Symbol] = plannedIntervals{base: base, generated: sym.OtherIntervals}

			c.state.RegisterSymbol(sym.Symbol, types.AddedByConfig, now)

			c.agg.Configure(sym.Symbol, base, sym.OtherIntervals)

			for interval, indicators := range sym.IndicatorConfigs {
				c.fw.Configure(sym.Symbol, interval, indicators)
			}

			for _, derived := range sym.OtherIntervals {
				c.state.MarkDerived(sym.Symbol, derived, base)
			}
		}
	}

	c.state.SetCurrentDate(c.sessionDate)

	return nil
}
