package timeservice

import (
	"time"

	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// NextTradingDate scans forward day-at-a-time for the nth trading date
// strictly after from, bounded by maxTradingDayScan per spec §4.1.
func (s *Service) NextTradingDate(from time.Time, n int, exchangeGroup, assetClass string) (time.Time, error) {
	if n < 1 {
		return time.Time{}, apperrors.Newf(apperrors.ErrCodeValidationNegativeN, "NextTradingDate: n must be >= 1, got %d", n)
	}

	cursor := from
	found := 0

	for i := 0; i < maxTradingDayScan*n; i++ {
		cursor = cursor.AddDate(0, 0, 1)

		session, err := s.TradingSession(cursor, exchangeGroup, assetClass)
		if err != nil {
			return time.Time{}, err
		}

		if session.IsTradingDay {
			found++
			if found == n {
				return cursor, nil
			}
		}
	}

	return time.Time{}, apperrors.Newf(apperrors.ErrCodeDataUnavailableNoBars, "no %dth trading date found within scan bound after %s", n, from.Format("2006-01-02"))
}

// PreviousTradingDate is the mirror of NextTradingDate, scanning backward.
func (s *Service) PreviousTradingDate(from time.Time, n int, exchangeGroup, assetClass string) (time.Time, error) {
	if n < 1 {
		return time.Time{}, apperrors.Newf(apperrors.ErrCodeValidationNegativeN, "PreviousTradingDate: n must be >= 1, got %d", n)
	}

	cursor := from
	found := 0

	for i := 0; i < maxTradingDayScan*n; i++ {
		cursor = cursor.AddDate(0, 0, -1)

		session, err := s.TradingSession(cursor, exchangeGroup, assetClass)
		if err != nil {
			return time.Time{}, err
		}

		if session.IsTradingDay {
			found++
			if found == n {
				return cursor, nil
			}
		}
	}

	return time.Time{}, apperrors.Newf(apperrors.ErrCodeDataUnavailableNoBars, "no %dth trading date found within scan bound before %s", n, from.Format("2006-01-02"))
}

// CountTradingDays counts trading days in [a, b] inclusive.
func (s *Service) CountTradingDays(a, b time.Time, exchangeGroup, assetClass string) (int, error) {
	dates, err := s.TradingDatesInRange(a, b, exchangeGroup, assetClass)
	if err != nil {
		return 0, err
	}

	return len(dates), nil
}

// FirstTradingDateInclusive returns `from` itself if it's a trading day,
// else the next trading date.
func (s *Service) FirstTradingDateInclusive(from time.Time, exchangeGroup, assetClass string) (time.Time, error) {
	session, err := s.TradingSession(from, exchangeGroup, assetClass)
	if err != nil {
		return time.Time{}, err
	}

	if session.IsTradingDay {
		return from, nil
	}

	return s.NextTradingDate(from, 1, exchangeGroup, assetClass)
}

// TradingDatesInRange enumerates all trading dates in [a, b] inclusive,
// bounded by maxTradingDayScan.
func (s *Service) TradingDatesInRange(a, b time.Time, exchangeGroup, assetClass string) ([]time.Time, error) {
	var dates []time.Time

	cursor := a

	for i := 0; i < maxTradingDayScan && !cursor.After(b); i++ {
		session, err := s.TradingSession(cursor, exchangeGroup, assetClass)
		if err != nil {
			return nil, err
		}

		if session.IsTradingDay {
			dates = append(dates, cursor)
		}

		cursor = cursor.AddDate(0, 0, 1)
	}

	return dates, nil
}

// AdvanceToMarketOpen moves the simulated backtest clock to the next
// trading day's open (or pre-open, if includeExtended) in exchange
// timezone, skipping weekends and holidays. Only valid in backtest mode.
func (s *Service) AdvanceToMarketOpen(exchangeGroup, assetClass string, includeExtended bool) (time.Time, error) {
	if s.mode != ModeBacktest {
		return time.Time{}, apperrors.New(apperrors.ErrCodeModeMismatchBacktestOnly, "AdvanceToMarketOpen requires backtest mode")
	}

	loc, err := s.MarketTimezone(exchangeGroup, assetClass)
	if err != nil {
		return time.Time{}, err
	}

	current, err := s.CurrentTime(loc)
	if err != nil {
		return time.Time{}, err
	}

	nextDate, err := s.NextTradingDate(current, 1, exchangeGroup, assetClass)
	if err != nil {
		return time.Time{}, err
	}

	session, err := s.TradingSession(nextDate, exchangeGroup, assetClass)
	if err != nil {
		return time.Time{}, err
	}

	var openAt time.Time

	if includeExtended {
		if pre, err := session.PreOpen.Take(); err == nil {
			openAt = pre.On(nextDate, loc)
		}
	}

	if openAt.IsZero() {
		open, err := session.RegularOpen.Take()
		if err != nil {
			return time.Time{}, apperrors.Newf(apperrors.ErrCodeInvariantClockExceededClose, "trading day %s has no regular open", nextDate.Format("2006-01-02"))
		}

		openAt = open.On(nextDate, loc)
	}

	if err := s.SetBacktestTime(openAt); err != nil {
		return time.Time{}, err
	}

	return openAt, nil
}

// InvalidateCache clears the single-entry session cache and its counters.
func (s *Service) InvalidateCache() {
	s.cache.invalidate()
}

// CacheStats returns the current hit/miss/ratio snapshot.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}
