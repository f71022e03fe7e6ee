package facade

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type StreamsTestSuite struct {
	suite.Suite
	store *columnarstore.Store
	loc   *time.Location
}

func TestStreamsSuite(t *testing.T) {
	suite.Run(t, new(StreamsTestSuite))
}

func (suite *StreamsTestSuite) SetupTest() {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store

	loc, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)
	suite.loc = loc
}

func (suite *StreamsTestSuite) backtestFacade(now time.Time) *Facade {
	ts, err := timeservice.New(timeservice.ModeBacktest, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(ts.SetBacktestTime(now))

	return New(suite.store, ts, "NYSE", "equity", nil, "", logger.NewNopLogger())
}

func (suite *StreamsTestSuite) TestStartBarStreamsPopulatesQueues() {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, suite.loc)

	a := types.Bar{Symbol: "AAPL", Timestamp: now.Add(-2 * time.Minute), Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	b := types.Bar{Symbol: "AAPL", Timestamp: now.Add(-time.Minute), Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1.1, Volume: 1}
	_, _, err := suite.store.WriteBars([]types.Bar{a, b}, "1m", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	f := suite.backtestFacade(now)
	queues, err := f.StartBarStreams([]string{"AAPL"}, "1m")
	suite.Require().NoError(err)
	suite.Equal(2, queues["AAPL"].Len())
}

func (suite *StreamsTestSuite) TestStreamBarsMergesAcrossSymbolsChronologically() {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, suite.loc)

	earlier := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	later := time.Date(2026, 3, 2, 10, 1, 0, 0, suite.loc)

	// AAPL's queue holds the later bar, MSFT's the earlier one, so a
	// correct merge must interleave them in timestamp order rather than
	// draining one queue before the other.
	aapl := types.NewReplayQueue("AAPL", "1m")
	aapl.Push(types.Bar{Symbol: "AAPL", Timestamp: later, Interval: "1m", Open: 2, High: 2, Low: 2, Close: 2, Volume: 1})

	msft := types.NewReplayQueue("MSFT", "1m")
	msft.Push(types.Bar{Symbol: "MSFT", Timestamp: earlier, Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})

	f := suite.backtestFacade(now)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, stop := f.StreamBars(ctx, []string{"AAPL", "MSFT"}, "1m", map[string]*types.ReplayQueue{"AAPL": aapl, "MSFT": msft})
	defer stop()

	var received []types.Bar
	for ev := range events {
		suite.NoError(ev.Err)
		received = append(received, ev.Bar)
	}

	suite.Require().Len(received, 2)
	suite.Equal("MSFT", received[0].Symbol)
	suite.Equal("AAPL", received[1].Symbol)
}
