package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (suite *SessionTestSuite) TestTimeOfDayString() {
	suite.Equal("09:30", NewTimeOfDay(9, 30).String())
	suite.Equal("16:00", NewTimeOfDay(16, 0).String())
}

func (suite *SessionTestSuite) TestTimeOfDayOn() {
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	at := NewTimeOfDay(9, 30).On(date, time.UTC)
	suite.Equal(2026, at.Year())
	suite.Equal(time.March, at.Month())
	suite.Equal(5, at.Day())
	suite.Equal(9, at.Hour())
	suite.Equal(30, at.Minute())
}

func (suite *SessionTestSuite) TestWeekdayMask() {
	mask := WeekdayMaskMonFri
	suite.True(mask.Includes(time.Monday))
	suite.True(mask.Includes(time.Friday))
	suite.False(mask.Includes(time.Saturday))
	suite.False(mask.Includes(time.Sunday))
}

func (suite *SessionTestSuite) TestTradingSessionValidateOK() {
	s := TradingSession{
		Date:         time.Now(),
		IsTradingDay: true,
		RegularOpen:  optional.Some(NewTimeOfDay(9, 30)),
		RegularClose: optional.Some(NewTimeOfDay(16, 0)),
	}
	suite.NoError(s.Validate())
}

func (suite *SessionTestSuite) TestTradingSessionValidateRejectsOpenAfterClose() {
	s := TradingSession{
		Date:         time.Now(),
		IsTradingDay: true,
		RegularOpen:  optional.Some(NewTimeOfDay(16, 0)),
		RegularClose: optional.Some(NewTimeOfDay(9, 30)),
	}
	suite.Error(s.Validate())
}

func (suite *SessionTestSuite) TestTradingSessionValidateRejectsMissingBounds() {
	s := TradingSession{
		Date:         time.Now(),
		IsTradingDay: true,
	}
	suite.Error(s.Validate())
}

func (suite *SessionTestSuite) TestTradingSessionValidateNonTradingDaySkipsBoundsCheck() {
	s := TradingSession{Date: time.Now(), IsTradingDay: false, IsHoliday: true, HolidayName: "Thanksgiving"}
	suite.NoError(s.Validate())
}

func (suite *SessionTestSuite) TestTradingSessionValidateEarlyCloseNotHoliday() {
	s := TradingSession{
		Date: time.Now(), IsTradingDay: true, IsEarlyClose: true, IsHoliday: true,
		RegularOpen:  optional.Some(NewTimeOfDay(9, 30)),
		RegularClose: optional.Some(NewTimeOfDay(13, 0)),
	}
	suite.Error(s.Validate())
}
