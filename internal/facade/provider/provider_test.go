package provider

import (
	"context"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"
)

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewUnsupportedProvider() {
	_, err := New("unknown", "")
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestNewPolygonRequiresAPIKey() {
	_, err := NewPolygonProvider("")
	suite.Error(err)
}

// fakeAggsClient implements aggsClient for PolygonProvider tests.
type fakeAggsClient struct {
	aggs []models.Agg
}

type fakeAggsIterator struct {
	aggs []models.Agg
	idx  int
}

func (f *fakeAggsIterator) Next() bool {
	f.idx++
	return f.idx <= len(f.aggs)
}

func (f *fakeAggsIterator) Item() models.Agg { return f.aggs[f.idx-1] }
func (f *fakeAggsIterator) Err() error       { return nil }

func (f *fakeAggsClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) aggsIterator {
	return &fakeAggsIterator{aggs: f.aggs}
}

func (suite *ProviderTestSuite) TestPolygonFetchBars() {
	p := &PolygonProvider{
		client: &fakeAggsClient{aggs: []models.Agg{
			{Timestamp: models.Millis(time.Unix(0, 0)), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		}},
		limiter: unlimitedLimiter(),
	}

	bars, err := p.FetchBars(context.Background(), "AAPL", time.Now(), time.Now(), "1m")
	suite.NoError(err)
	suite.Len(bars, 1)
	suite.Equal("AAPL", bars[0].Symbol)
}

func (suite *ProviderTestSuite) TestPolygonFetchTicksUnsupported() {
	p := &PolygonProvider{client: &fakeAggsClient{}, limiter: unlimitedLimiter()}
	_, err := p.FetchTicks(context.Background(), "AAPL", time.Now(), time.Now())
	suite.Error(err)
}

// fakeKlinesService implements klinesService for BinanceProvider tests.
type fakeKlinesService struct {
	klines []*binance.Kline
	called bool
}

func (f *fakeKlinesService) Symbol(string) klinesService   { return f }
func (f *fakeKlinesService) Interval(string) klinesService { return f }
func (f *fakeKlinesService) StartTime(int64) klinesService { return f }
func (f *fakeKlinesService) EndTime(int64) klinesService   { return f }
func (f *fakeKlinesService) Limit(int) klinesService       { return f }

func (f *fakeKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	if f.called {
		return nil, nil
	}

	f.called = true

	return f.klines, nil
}

func (suite *ProviderTestSuite) TestBinanceFetchBars() {
	b := &BinanceProvider{
		newKlines: &fakeKlinesService{klines: []*binance.Kline{
			{OpenTime: 0, CloseTime: 59999, Open: "100", High: "101", Low: "99", Close: "100.5", Volume: "10"},
		}},
		limiter: unlimitedLimiter(),
	}

	bars, err := b.FetchBars(context.Background(), "BTCUSDT", time.Unix(0, 0), time.Unix(0, 0).Add(time.Hour), "1m")
	suite.NoError(err)
	suite.Len(bars, 1)
	suite.Equal(100.5, bars[0].Close)
}

func (suite *ProviderTestSuite) TestBinanceIntervalRejectsUnsupportedUnit() {
	_, err := binanceInterval("4h")
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestBinanceFetchQuotesUnsupported() {
	b := &BinanceProvider{newKlines: &fakeKlinesService{}, limiter: unlimitedLimiter()}
	_, err := b.FetchQuotes(context.Background(), "BTCUSDT", time.Now(), time.Now())
	suite.Error(err)
}

func unlimitedLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}
