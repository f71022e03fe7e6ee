package timeservice

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TimeServiceTestSuite struct {
	suite.Suite
}

func TestTimeServiceSuite(t *testing.T) {
	suite.Run(t, new(TimeServiceTestSuite))
}

func nasdaqHours() types.MarketHoursConfig {
	return types.MarketHoursConfig{
		ExchangeGroup: "NASDAQ", AssetClass: "equity", Timezone: "America/New_York",
		TradingDays:  types.WeekdayMaskMonFri,
		RegularOpen:  types.NewTimeOfDay(9, 30),
		RegularClose: types.NewTimeOfDay(16, 0),
		PreOpen:      types.NewTimeOfDay(4, 0),
		PostClose:    types.NewTimeOfDay(20, 0),
	}
}

func (suite *TimeServiceTestSuite) newService(mode Mode, holidays []types.Holiday) *Service {
	svc, err := New(mode, []types.MarketHoursConfig{nasdaqHours()}, holidays, "NASDAQ", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)

	return svc
}

func (suite *TimeServiceTestSuite) TestTradingSessionWeekday() {
	svc := suite.newService(ModeBacktest, nil)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	session, err := svc.TradingSession(monday, "NASDAQ", "equity")
	suite.NoError(err)
	suite.True(session.IsTradingDay)
}

func (suite *TimeServiceTestSuite) TestTradingSessionWeekend() {
	svc := suite.newService(ModeBacktest, nil)
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	session, err := svc.TradingSession(saturday, "NASDAQ", "equity")
	suite.NoError(err)
	suite.False(session.IsTradingDay)
}

func (suite *TimeServiceTestSuite) TestTradingSessionUnknownExchangeIsNonTrading() {
	svc := suite.newService(ModeBacktest, nil)
	session, err := svc.TradingSession(time.Now(), "UNKNOWN", "equity")
	suite.NoError(err)
	suite.False(session.IsTradingDay)
}

func (suite *TimeServiceTestSuite) TestTradingSessionHolidayClosed() {
	holiday := types.Holiday{
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ExchangeGroup: "NASDAQ",
		HolidayName: "Test Holiday", IsClosed: true,
	}
	svc := suite.newService(ModeBacktest, []types.Holiday{holiday})
	session, err := svc.TradingSession(holiday.Date, "NASDAQ", "equity")
	suite.NoError(err)
	suite.False(session.IsTradingDay)
	suite.True(session.IsHoliday)
}

func (suite *TimeServiceTestSuite) TestCacheHitsAndMisses() {
	svc := suite.newService(ModeBacktest, nil)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.TradingSession(date, "NASDAQ", "equity")
	suite.NoError(err)
	_, err = svc.TradingSession(date, "NASDAQ", "equity")
	suite.NoError(err)

	stats := svc.CacheStats()
	suite.Equal(int64(1), stats.Hits)
	suite.Equal(int64(1), stats.Misses)
	suite.InDelta(0.5, stats.HitRate, 1e-9)

	svc.InvalidateCache()
	stats = svc.CacheStats()
	suite.Equal(int64(0), stats.Hits)
	suite.Equal(int64(0), stats.Misses)
}

func (suite *TimeServiceTestSuite) TestSetBacktestTimeRejectedInLiveMode() {
	svc := suite.newService(ModeLive, nil)
	err := svc.SetBacktestTime(time.Now())
	suite.Error(err)
}

func (suite *TimeServiceTestSuite) TestMode() {
	suite.Equal(ModeLive, suite.newService(ModeLive, nil).Mode())
	suite.Equal(ModeBacktest, suite.newService(ModeBacktest, nil).Mode())
}

func (suite *TimeServiceTestSuite) TestSessionTypeRegularAndClosed() {
	svc := suite.newService(ModeBacktest, nil)
	loc, err := svc.MarketTimezone("NASDAQ", "equity")
	suite.Require().NoError(err)

	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	st, err := svc.SessionTypeAt(monday, "NASDAQ", "equity")
	suite.NoError(err)
	suite.Equal(SessionRegular, st)

	midnight := time.Date(2026, 3, 2, 1, 0, 0, 0, loc)
	st, err = svc.SessionTypeAt(midnight, "NASDAQ", "equity")
	suite.NoError(err)
	suite.Equal(SessionClosed, st)
}

func (suite *TimeServiceTestSuite) TestNextAndPreviousTradingDate() {
	svc := suite.newService(ModeBacktest, nil)
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	next, err := svc.NextTradingDate(friday, 1, "NASDAQ", "equity")
	suite.NoError(err)
	suite.Equal(time.Monday, next.Weekday())

	prev, err := svc.PreviousTradingDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 1, "NASDAQ", "equity")
	suite.NoError(err)
	suite.Equal(time.Friday, prev.Weekday())
}

func (suite *TimeServiceTestSuite) TestNextAndPreviousTradingDateRejectNonPositiveN() {
	svc := suite.newService(ModeBacktest, nil)
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	_, err := svc.NextTradingDate(friday, 0, "NASDAQ", "equity")
	suite.Require().Error(err)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeValidationNegativeN))

	_, err = svc.NextTradingDate(friday, -1, "NASDAQ", "equity")
	suite.Require().Error(err)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeValidationNegativeN))

	_, err = svc.PreviousTradingDate(friday, -3, "NASDAQ", "equity")
	suite.Require().Error(err)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeValidationNegativeN))
}

func (suite *TimeServiceTestSuite) TestTradingDatesInRangeExcludesWeekend() {
	svc := suite.newService(ModeBacktest, nil)
	a := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC) // Friday
	b := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // Monday

	dates, err := svc.TradingDatesInRange(a, b, "NASDAQ", "equity")
	suite.NoError(err)
	suite.Len(dates, 2)
}

func (suite *TimeServiceTestSuite) TestAdvanceToMarketOpen() {
	svc := suite.newService(ModeBacktest, nil)
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	suite.Require().NoError(svc.SetBacktestTime(friday))

	opened, err := svc.AdvanceToMarketOpen("NASDAQ", "equity", false)
	suite.NoError(err)
	suite.Equal(time.Monday, opened.Weekday())
	suite.Equal(9, opened.Hour())
	suite.Equal(30, opened.Minute())
}
