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

type FacadeTestSuite struct {
	suite.Suite
}

func TestFacadeSuite(t *testing.T) {
	suite.Run(t, new(FacadeTestSuite))
}

func nyseHours() types.MarketHoursConfig {
	return types.MarketHoursConfig{
		ExchangeGroup: "NYSE", AssetClass: "equity", Timezone: "America/New_York",
		TradingDays:  types.WeekdayMaskMonFri,
		RegularOpen:  types.NewTimeOfDay(9, 30),
		RegularClose: types.NewTimeOfDay(16, 0),
	}
}

func (suite *FacadeTestSuite) newFacade(mode timeservice.Mode, providers map[provider.Type]provider.Provider, selected provider.Type) *Facade {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)

	ts, err := timeservice.New(mode, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)

	return New(store, ts, "NYSE", "equity", providers, selected, logger.NewNopLogger())
}

func (suite *FacadeTestSuite) TestNormalizeIntervalInteger() {
	iv, err := NormalizeInterval("5")
	suite.NoError(err)
	suite.Equal(types.Interval("5m"), iv)
}

func (suite *FacadeTestSuite) TestNormalizeIntervalTick() {
	iv, err := NormalizeInterval("tick")
	suite.NoError(err)
	suite.Equal(types.Interval("1s"), iv)
}

func (suite *FacadeTestSuite) TestNormalizeIntervalLabel() {
	iv, err := NormalizeInterval("1d")
	suite.NoError(err)
	suite.Equal(types.Interval("1d"), iv)
}

func (suite *FacadeTestSuite) TestNormalizeIntervalInvalid() {
	_, err := NormalizeInterval("bogus")
	suite.Error(err)
}

func (suite *FacadeTestSuite) TestProviderUnconfiguredReportsUnknownExchange() {
	f := suite.newFacade(timeservice.ModeBacktest, nil, provider.Polygon)
	_, err := f.provider()
	suite.Error(err)
}

type stubProvider struct {
	bars []types.Bar
}

func (s *stubProvider) Name() provider.Type { return provider.Polygon }

func (s *stubProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Bar, error) {
	return s.bars, nil
}

func (s *stubProvider) FetchTicks(ctx context.Context, symbol string, start, end time.Time) ([]types.Tick, error) {
	return nil, nil
}

func (s *stubProvider) FetchQuotes(ctx context.Context, symbol string, start, end time.Time) ([]types.Quote, error) {
	return nil, nil
}

func (suite *FacadeTestSuite) TestProviderConfigured() {
	stub := &stubProvider{}
	f := suite.newFacade(timeservice.ModeBacktest, map[provider.Type]provider.Provider{provider.Polygon: stub}, provider.Polygon)

	p, err := f.provider()
	suite.NoError(err)
	suite.Equal(provider.Polygon, p.Name())
}
