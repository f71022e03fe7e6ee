package facade

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type ExportTestSuite struct {
	suite.Suite
	store *columnarstore.Store
	loc   *time.Location
	ts    *timeservice.Service
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportTestSuite))
}

func (suite *ExportTestSuite) SetupTest() {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store

	loc, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)
	suite.loc = loc

	ts, err := timeservice.New(timeservice.ModeBacktest, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ts = ts
}

func (suite *ExportTestSuite) facade() *Facade {
	return New(suite.store, suite.ts, "NYSE", "equity", nil, "", logger.NewNopLogger())
}

func (suite *ExportTestSuite) writeMinuteBars(day time.Time, n int) []types.Bar {
	open := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, suite.loc)

	bars := make([]types.Bar, n)
	for i := 0; i < n; i++ {
		ts := open.Add(time.Duration(i) * time.Minute)
		bars[i] = types.Bar{
			Symbol: "AAPL", Timestamp: ts, Interval: "1m",
			Open: 100 + float64(i), High: 101 + float64(i),
			Low: 99 + float64(i), Close: 100.5 + float64(i), Volume: 1000,
		}
	}

	_, _, err := suite.store.WriteBars(bars, "1m", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	return bars
}

func (suite *ExportTestSuite) TestExportCSVWritesHeaderAndRows() {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, suite.loc)
	suite.writeMinuteBars(day, 3)

	path := filepath.Join(suite.T().TempDir(), "aapl.csv")
	start := day.Add(9*time.Hour + 30*time.Minute)
	end := start.Add(time.Hour)

	n, err := suite.facade().ExportCSV(path, "AAPL", "1m", start, end)
	suite.Require().NoError(err)
	suite.Equal(3, n)

	f, err := os.Open(path)
	suite.Require().NoError(err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	suite.Require().True(scanner.Scan())
	suite.Equal("timestamp,open,high,low,close,volume", scanner.Text())

	lines := 0
	for scanner.Scan() {
		lines++
	}
	suite.Equal(3, lines)
}

func (suite *ExportTestSuite) TestExportCSVEmptyRangeWritesHeaderOnly() {
	path := filepath.Join(suite.T().TempDir(), "empty.csv")

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, suite.loc)
	end := start.Add(24 * time.Hour)

	n, err := suite.facade().ExportCSV(path, "AAPL", "1m", start, end)
	suite.Require().NoError(err)
	suite.Equal(0, n)

	contents, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("timestamp,open,high,low,close,volume\n", string(contents))
}

func (suite *ExportTestSuite) TestAggregateWritesDerivedBars() {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, suite.loc)
	suite.writeMinuteBars(day, 11)

	start := day
	end := day.Add(24 * time.Hour)

	written, err := suite.facade().Aggregate("AAPL", "1m", "5m", start, end)
	suite.Require().NoError(err)
	suite.Equal(2, written)

	fiveMin, err := suite.store.ReadBars("5m", "AAPL", "NYSE", &start, &end)
	suite.Require().NoError(err)
	suite.Len(fiveMin, 2)
}

func (suite *ExportTestSuite) TestAggregateRejectsNonDivisibleInterval() {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, suite.loc)
	end := start.Add(24 * time.Hour)

	_, err := suite.facade().Aggregate("AAPL", "5m", "7m", start, end)
	suite.Require().Error(err)
}

func (suite *ExportTestSuite) TestAggregateEmptyRangeWritesNothing() {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, suite.loc)
	end := start.Add(time.Hour)

	written, err := suite.facade().Aggregate("AAPL", "1m", "5m", start, end)
	suite.Require().NoError(err)
	suite.Equal(0, written)
}
