// Package timeservice is the single source of truth for time: live wall
// clock or simulated backtest clock, exchange trading-calendar resolution,
// and session-window classification.
package timeservice

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects how CurrentTime resolves.
type Mode int

const (
	ModeLive Mode = iota
	ModeBacktest
)

// SessionType classifies a timestamp relative to the trading session.
type SessionType string

const (
	SessionPre     SessionType = "pre"
	SessionRegular SessionType = "regular"
	SessionPost    SessionType = "post"
	SessionClosed  SessionType = "closed"
)

const maxTradingDayScan = 365

// TimeService is the public contract described in spec §4.1.
type TimeService interface {
	Mode() Mode
	CurrentTime(tz *time.Location) (time.Time, error)
	SetBacktestTime(t time.Time) error
	TradingSession(date time.Time, exchangeGroup, assetClass string) (types.TradingSession, error)
	IsMarketOpen(ts time.Time, exchangeGroup, assetClass string, includeExtended bool) (bool, error)
	SessionTypeAt(ts time.Time, exchangeGroup, assetClass string) (SessionType, error)
	NextTradingDate(from time.Time, n int, exchangeGroup, assetClass string) (time.Time, error)
	PreviousTradingDate(from time.Time, n int, exchangeGroup, assetClass string) (time.Time, error)
	CountTradingDays(a, b time.Time, exchangeGroup, assetClass string) (int, error)
	FirstTradingDateInclusive(from time.Time, exchangeGroup, assetClass string) (time.Time, error)
	TradingDatesInRange(a, b time.Time, exchangeGroup, assetClass string) ([]time.Time, error)
	AdvanceToMarketOpen(exchangeGroup, assetClass string, includeExtended bool) (time.Time, error)
	ConvertTimezone(t time.Time, to *time.Location) time.Time
	ToUTC(t time.Time) time.Time
	MarketTimezone(exchangeGroup, assetClass string) (*time.Location, error)
	InvalidateCache()
	CacheStats() CacheStats
}

// Service is the default TimeService implementation.
type Service struct {
	mu   sync.RWMutex
	mode Mode
	log  *logger.Logger

	hours    map[string]types.MarketHoursConfig // key: exchange_group|asset_class
	holidays map[string][]types.Holiday         // key: exchange_group

	backtestTimeUTC     time.Time
	backtestInitialized bool
	backtestStartDate   time.Time
	defaultExchange     string
	defaultAssetClass   string

	cache sessionCache
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithBacktestStart sets the date used to auto-initialize the backtest
// clock on first access, per spec §4.1 ("start date at regular market
// open, in exchange timezone").
func WithBacktestStart(date time.Time) Option {
	return func(s *Service) { s.backtestStartDate = date }
}

// New constructs a Service in the given mode, eagerly loading market-hours
// configs and holiday calendars. A malformed calendar is a fatal
// ConfigurationError, never a partial/degraded start.
func New(mode Mode, hours []types.MarketHoursConfig, holidays []types.Holiday, defaultExchange, defaultAssetClass string, log *logger.Logger, opts ...Option) (*Service, error) {
	if len(hours) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeConfigurationMissingHours, "no market hours configs provided")
	}

	s := &Service{
		mode:              mode,
		log:               log,
		hours:             make(map[string]types.MarketHoursConfig, len(hours)),
		holidays:          make(map[string][]types.Holiday),
		defaultExchange:   defaultExchange,
		defaultAssetClass: defaultAssetClass,
	}

	for _, h := range hours {
		s.hours[h.Key()] = h
	}

	for _, h := range holidays {
		s.holidays[h.ExchangeGroup] = append(s.holidays[h.ExchangeGroup], h)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Mode reports whether the service is resolving time live or simulated.
func (s *Service) Mode() Mode {
	return s.mode
}

func (s *Service) resolveNames(exchangeGroup, assetClass string) (string, string) {
	if exchangeGroup == "" {
		exchangeGroup = s.defaultExchange
	}

	if assetClass == "" {
		assetClass = s.defaultAssetClass
	}

	return exchangeGroup, assetClass
}

func (s *Service) marketHours(exchangeGroup, assetClass string) (types.MarketHoursConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mh, ok := s.hours[exchangeGroup+"|"+assetClass]

	return mh, ok
}

// MarketTimezone returns the configured IANA timezone for the given
// (exchange_group, asset_class) pair.
func (s *Service) MarketTimezone(exchangeGroup, assetClass string) (*time.Location, error) {
	exchangeGroup, assetClass = s.resolveNames(exchangeGroup, assetClass)

	mh, ok := s.marketHours(exchangeGroup, assetClass)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigurationUnknownExchange, "unknown exchange/asset class %s/%s", exchangeGroup, assetClass)
	}

	loc, err := time.LoadLocation(mh.Timezone)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "invalid timezone %q for %s/%s", mh.Timezone, exchangeGroup, assetClass)
	}

	return loc, nil
}

// CurrentTime returns the current time in tz (defaulting to UTC if nil).
// In live mode this is the wall clock; in backtest mode it's the simulated
// clock, auto-initialized from the configured start date on first access.
func (s *Service) CurrentTime(tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = time.UTC
	}

	if s.mode == ModeLive {
		return time.Now().In(tz), nil
	}

	loc, locErr := s.MarketTimezone(s.defaultExchange, s.defaultAssetClass)
	mh, _ := s.marketHours(s.defaultExchange, s.defaultAssetClass)

	s.mu.Lock()
	if !s.backtestInitialized {
		if locErr != nil {
			s.mu.Unlock()

			return time.Time{}, locErr
		}

		start := s.backtestStartDate

		if start.IsZero() {
			start = time.Now()
		}

		openTime := mh.RegularOpen.On(start, loc)
		s.backtestTimeUTC = openTime.UTC()
		s.backtestInitialized = true
	}

	current := s.backtestTimeUTC
	s.mu.Unlock()

	return current.In(tz), nil
}

// SetBacktestTime sets the simulated clock. Only valid in backtest mode.
// A naive timestamp (Location == UTC with no explicit tz) is interpreted
// as exchange-local to the default exchange.
func (s *Service) SetBacktestTime(t time.Time) error {
	if s.mode != ModeBacktest {
		return apperrors.New(apperrors.ErrCodeModeMismatchBacktestOnly, "SetBacktestTime requires backtest mode")
	}

	if t.Location() == time.UTC {
		if loc, err := s.MarketTimezone(s.defaultExchange, s.defaultAssetClass); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.backtestTimeUTC = t.UTC()
	s.backtestInitialized = true

	return nil
}

// ConvertTimezone re-renders t in the target location without changing the
// instant it denotes.
func (s *Service) ConvertTimezone(t time.Time, to *time.Location) time.Time {
	return t.In(to)
}

// ToUTC normalizes t to UTC.
func (s *Service) ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// holidayFor returns the holiday entry for date/exchangeGroup, if any.
func (s *Service) holidayFor(date time.Time, exchangeGroup string) (types.Holiday, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.holidays[exchangeGroup] {
		if h.Date.Year() == date.Year() && h.Date.YearDay() == date.YearDay() {
			return h, true
		}
	}

	return types.Holiday{}, false
}

// TradingSession resolves the full schedule for one calendar date, per
// spec §4.1/§3. Unknown exchange/asset class returns a non-trading
// TradingSession rather than an error (spec §4.1 failure model).
func (s *Service) TradingSession(date time.Time, exchangeGroup, assetClass string) (types.TradingSession, error) {
	exchangeGroup, assetClass = s.resolveNames(exchangeGroup, assetClass)

	cacheKey := sessionCacheKey(date, exchangeGroup, assetClass)
	if cached, ok := s.cache.get(cacheKey); ok {
		return cached, nil
	}

	mh, ok := s.marketHours(exchangeGroup, assetClass)
	if !ok {
		session := types.TradingSession{
			Date: date, ExchangeGroup: exchangeGroup, AssetClass: assetClass,
			IsTradingDay: false,
		}
		s.cache.put(cacheKey, session)

		if s.log != nil {
			s.log.Warn("unknown exchange/asset class, treating as non-trading day", zap.String("exchange_group", exchangeGroup), zap.String("asset_class", assetClass))
		}

		return session, nil
	}

	loc, err := time.LoadLocation(mh.Timezone)
	if err != nil {
		return types.TradingSession{}, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "invalid timezone for %s/%s", exchangeGroup, assetClass)
	}

	session := types.TradingSession{
		Date: date, ExchangeGroup: exchangeGroup, AssetClass: assetClass, Timezone: mh.Timezone,
	}

	if holiday, found := s.holidayFor(date, exchangeGroup); found {
		if holiday.IsClosed {
			session.IsTradingDay = false
			session.IsHoliday = true
			session.HolidayName = holiday.HolidayName
			s.cache.put(cacheKey, session)

			return session, nil
		}

		if !mh.TradingDays.Includes(date.Weekday()) {
			session.IsTradingDay = false
			session.IsHoliday = true
			session.HolidayName = holiday.HolidayName
			s.cache.put(cacheKey, session)

			return session, nil
		}

		session.IsTradingDay = true
		session.IsEarlyClose = true
		session.HolidayName = holiday.HolidayName

		early, _ := holiday.EarlyCloseTime.Take()
		session.RegularOpen = optionalTOD(mh.RegularOpen)
		session.RegularClose = optionalTOD(early)
		session.PreOpen = optionalTOD(mh.PreOpen)
		session.PreClose = optionalTOD(mh.PreClose)
		// Early close collapses the post-market window.
		s.cache.put(cacheKey, session)

		return session, nil
	}

	if !mh.TradingDays.Includes(date.Weekday()) {
		session.IsTradingDay = false
		s.cache.put(cacheKey, session)

		return session, nil
	}

	session.IsTradingDay = true
	session.RegularOpen = optionalTOD(mh.RegularOpen)
	session.RegularClose = optionalTOD(mh.RegularClose)
	session.PreOpen = optionalTOD(mh.PreOpen)
	session.PreClose = optionalTOD(mh.PreClose)
	session.PostOpen = optionalTOD(mh.PostOpen)
	session.PostClose = optionalTOD(mh.PostClose)

	_ = loc

	s.cache.put(cacheKey, session)

	return session, nil
}

// IsMarketOpen reports whether ts falls within the trading session's
// regular window (or the pre/post windows too, if includeExtended).
func (s *Service) IsMarketOpen(ts time.Time, exchangeGroup, assetClass string, includeExtended bool) (bool, error) {
	st, err := s.SessionTypeAt(ts, exchangeGroup, assetClass)
	if err != nil {
		return false, err
	}

	if st == SessionRegular {
		return true, nil
	}

	return includeExtended && (st == SessionPre || st == SessionPost), nil
}

// SessionTypeAt classifies ts relative to its trading session's windows.
func (s *Service) SessionTypeAt(ts time.Time, exchangeGroup, assetClass string) (SessionType, error) {
	exchangeGroup, assetClass = s.resolveNames(exchangeGroup, assetClass)

	loc, err := s.MarketTimezone(exchangeGroup, assetClass)
	if err != nil {
		return SessionClosed, err
	}

	local := ts.In(loc)

	session, err := s.TradingSession(local, exchangeGroup, assetClass)
	if err != nil {
		return SessionClosed, err
	}

	if !session.IsTradingDay {
		return SessionClosed, nil
	}

	if open, err1 := session.RegularOpen.Take(); err1 == nil {
		if close, err2 := session.RegularClose.Take(); err2 == nil {
			openAt, closeAt := open.On(local, loc), close.On(local, loc)
			if !local.Before(openAt) && local.Before(closeAt) {
				return SessionRegular, nil
			}

			if preOpen, e := session.PreOpen.Take(); e == nil {
				preOpenAt := preOpen.On(local, loc)
				if !local.Before(preOpenAt) && local.Before(openAt) {
					return SessionPre, nil
				}
			}

			if postClose, e := session.PostClose.Take(); e == nil {
				postOpenAt := closeAt

				if po, e2 := session.PostOpen.Take(); e2 == nil {
					postOpenAt = po.On(local, loc)
				}

				postCloseAt := postClose.On(local, loc)
				if !local.Before(postOpenAt) && local.Before(postCloseAt) {
					return SessionPost, nil
				}
			}
		}
	}

	return SessionClosed, nil
}

// optionalTOD treats the zero TimeOfDay (midnight) as "not configured" for
// the optional pre/post-market boundaries; regular_open/regular_close are
// required fields and always carry a real value.
func optionalTOD(t types.TimeOfDay) optional.Option[types.TimeOfDay] {
	if t == 0 {
		return optional.None[types.TimeOfDay]()
	}

	return optional.Some(t)
}
