package facade

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type QualityTestSuite struct {
	suite.Suite
	store *columnarstore.Store
	loc   *time.Location
	ts    *timeservice.Service
}

func TestQualitySuite(t *testing.T) {
	suite.Run(t, new(QualityTestSuite))
}

func (suite *QualityTestSuite) SetupTest() {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store

	loc, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)
	suite.loc = loc

	ts, err := timeservice.New(timeservice.ModeLive, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ts = ts
}

func (suite *QualityTestSuite) facade() *Facade {
	return New(suite.store, suite.ts, "NYSE", "equity", nil, "", logger.NewNopLogger())
}

func (suite *QualityTestSuite) TestCheckDataQualityPerfectCoverage() {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, suite.loc)
	open := time.Date(2026, 3, 2, 9, 30, 0, 0, suite.loc)

	var bars []types.Bar
	for t := open; t.Before(time.Date(2026, 3, 2, 9, 35, 0, 0, suite.loc)); t = t.Add(time.Minute) {
		bars = append(bars, types.Bar{Symbol: "AAPL", Timestamp: t, Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})
	}

	_, _, err := suite.store.WriteBars(bars, "1m", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	f := suite.facade()
	report, err := f.CheckDataQuality("AAPL", "1m", monday, time.Date(2026, 3, 2, 9, 35, 0, 0, suite.loc))
	suite.NoError(err)
	suite.Equal(5, report.ExpectedBars)
	suite.Equal(5, report.ObservedBars)
	suite.Empty(report.Gaps)
	suite.InDelta(1.0, report.Score, 1e-9)
}

func (suite *QualityTestSuite) TestCheckDataQualityDetectsGap() {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, suite.loc)
	open := time.Date(2026, 3, 2, 9, 30, 0, 0, suite.loc)
	end := time.Date(2026, 3, 2, 9, 35, 0, 0, suite.loc)

	// Skip the bar at 9:32 to create a one-bar gap.
	var bars []types.Bar
	for t := open; t.Before(end); t = t.Add(time.Minute) {
		if t.Equal(open.Add(2 * time.Minute)) {
			continue
		}

		bars = append(bars, types.Bar{Symbol: "AAPL", Timestamp: t, Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})
	}

	_, _, err := suite.store.WriteBars(bars, "1m", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	f := suite.facade()
	report, err := f.CheckDataQuality("AAPL", "1m", monday, end)
	suite.NoError(err)
	suite.Equal(5, report.ExpectedBars)
	suite.Equal(4, report.ObservedBars)
	suite.Require().Len(report.Gaps, 1)
	suite.Equal(1, report.Gaps[0].Bars)
	suite.InDelta(0.8, report.Score, 1e-9)
}

func (suite *QualityTestSuite) TestCheckDataQualityWeekendContributesNoExpectedBars() {
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, suite.loc)
	sunday := time.Date(2026, 3, 8, 23, 59, 0, 0, suite.loc)

	f := suite.facade()
	report, err := f.CheckDataQuality("AAPL", "1m", saturday, sunday)
	suite.NoError(err)
	suite.Equal(0, report.ExpectedBars)
	suite.InDelta(1.0, report.Score, 1e-9)
}
