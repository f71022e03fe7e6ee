package sessioncoordinator

// phase6EndOfSession implements spec §4.6 Phase 6: deactivate, record the
// trading-days counter, and roll current-session bars into historical
// (trailing-window eviction happens inside RollSession). Advancing the
// TimeService to the next trading day is Run's job (advanceToNextSession),
// since that also decides whether the backtest window is exhausted.
func (c *Coordinator) phase6EndOfSession() error {
	c.state.DeactivateSession()
	c.tradingDays++

	loc, err := c.locFor()
	if err != nil {
		return err
	}

	outgoing := c.sessionDate

	next, err := c.ts.NextTradingDate(c.sessionDate, 1, c.cfg.ExchangeGroup, c.cfg.AssetClass)
	if err != nil {
		c.state.RollSession(outgoing, outgoing, loc)

		return nil
	}

	c.state.RollSession(outgoing, next, loc)

	return nil
}

// TradingDaysElapsed reports how many sessions Run has completed, for
// external monitoring.
func (c *Coordinator) TradingDaysElapsed() int {
	return c.tradingDays
}
