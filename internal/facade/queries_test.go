package facade

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type QueriesTestSuite struct {
	suite.Suite
	store *columnarstore.Store
	loc   *time.Location
}

func TestQueriesSuite(t *testing.T) {
	suite.Run(t, new(QueriesTestSuite))
}

func (suite *QueriesTestSuite) SetupTest() {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store

	loc, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)
	suite.loc = loc
}

func (suite *QueriesTestSuite) facade(mode timeservice.Mode, providers map[provider.Type]provider.Provider, selected provider.Type) *Facade {
	ts, err := timeservice.New(mode, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)

	return New(suite.store, ts, "NYSE", "equity", providers, selected, logger.NewNopLogger())
}

func (suite *QueriesTestSuite) seedBar(ts time.Time) {
	b := types.Bar{Symbol: "AAPL", Timestamp: ts, Interval: "1m", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}
	_, _, err := suite.store.WriteBars([]types.Bar{b}, "1m", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)
}

func (suite *QueriesTestSuite) TestGetBarsReturnsSeeded() {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	suite.seedBar(ts)

	f := suite.facade(timeservice.ModeLive, nil, "")
	bars, err := f.GetBars("AAPL", "1m", ts.Add(-time.Hour), ts.Add(time.Hour))
	suite.NoError(err)
	suite.Len(bars, 1)
}

func (suite *QueriesTestSuite) TestGetBarsClampsEndInBacktestMode() {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	suite.seedBar(ts)

	f := suite.facade(timeservice.ModeBacktest, nil, "")
	suite.Require().NoError(f.ts.SetBacktestTime(ts))

	bars, err := f.GetBars("AAPL", "1m", ts.Add(-time.Hour), ts.Add(24*time.Hour))
	suite.NoError(err)
	suite.Len(bars, 1)
}

func (suite *QueriesTestSuite) TestGetLatestBarFallsBackToStoreInLiveMode() {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	suite.seedBar(ts)

	f := suite.facade(timeservice.ModeLive, nil, "")
	bar, ok, err := f.GetLatestBar(context.Background(), "AAPL", "1m")
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(ts.Unix(), bar.Timestamp.Unix())
}

func (suite *QueriesTestSuite) TestGetLatestBarPrefersProviderInLiveMode() {
	want := types.Bar{Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m", Open: 9, High: 9, Low: 9, Close: 9, Volume: 1}
	stub := &stubProvider{bars: []types.Bar{want}}

	f := suite.facade(timeservice.ModeLive, map[provider.Type]provider.Provider{provider.Polygon: stub}, provider.Polygon)

	bar, ok, err := f.GetLatestBar(context.Background(), "AAPL", "1m")
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(9.0, bar.Close)
}

func (suite *QueriesTestSuite) TestGetTicksSynthesizesFrom1sBars() {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	b := types.Bar{Symbol: "AAPL", Timestamp: ts, Interval: "1s", Open: 1, High: 1, Low: 1, Close: 1.2, Volume: 50}
	_, _, err := suite.store.WriteBars([]types.Bar{b}, "1s", "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	f := suite.facade(timeservice.ModeLive, nil, "")
	ticks, err := f.GetTicks("AAPL", ts.Add(-time.Minute), ts.Add(time.Minute))
	suite.NoError(err)
	suite.Require().Len(ticks, 1)
	suite.Equal(1.2, ticks[0].Price)
	suite.Equal(50.0, ticks[0].Size)
}

func (suite *QueriesTestSuite) TestGetQuotesRoundtrip() {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, suite.loc)
	q := types.Quote{Symbol: "AAPL", Timestamp: ts, BidPrice: 1, AskPrice: 1.1, BidSize: 1, AskSize: 1}
	_, _, err := suite.store.WriteQuotes([]types.Quote{q}, "AAPL", "NYSE", suite.loc, "", true)
	suite.Require().NoError(err)

	f := suite.facade(timeservice.ModeLive, nil, "")
	quotes, err := f.GetQuotes("AAPL", ts.Add(-time.Hour), ts.Add(time.Hour))
	suite.NoError(err)
	suite.Len(quotes, 1)

	latest, ok, err := f.GetLatestQuote("AAPL")
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(1.1, latest.AskPrice)
}
