package facade

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type ImportsTestSuite struct {
	suite.Suite
	store *columnarstore.Store
}

func TestImportsSuite(t *testing.T) {
	suite.Run(t, new(ImportsTestSuite))
}

func (suite *ImportsTestSuite) SetupTest() {
	store, err := columnarstore.New(suite.T().TempDir(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store
}

func (suite *ImportsTestSuite) facade(providers map[provider.Type]provider.Provider, selected provider.Type) *Facade {
	ts, err := timeservice.New(timeservice.ModeLive, []types.MarketHoursConfig{nyseHours()}, nil, "NYSE", "equity", logger.NewNopLogger())
	suite.Require().NoError(err)

	return New(suite.store, ts, "NYSE", "equity", providers, selected, logger.NewNopLogger())
}

func (suite *ImportsTestSuite) writeCSV(contents string) string {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func (suite *ImportsTestSuite) TestImportCSVAutoDetectsHeader() {
	csv := "timestamp,open,high,low,close,volume\n" +
		"2026-03-02T10:00:00Z,1,2,0.5,1.5,100\n" +
		"2026-03-02T10:01:00Z,1.5,2.5,1,2,120\n"

	path := suite.writeCSV(csv)

	f := suite.facade(nil, "")
	rows, err := f.ImportCSV(path, "AAPL", "1m", CSVImportOptions{})
	suite.NoError(err)
	suite.Equal(2, rows)

	bars, err := f.GetBars("AAPL", "1m", time.Time{}, time.Now().Add(time.Hour))
	suite.NoError(err)
	suite.Len(bars, 2)
}

func (suite *ImportsTestSuite) TestImportCSVFiltersByDateRange() {
	csv := "time,open,high,low,close,vol\n" +
		"2026-03-02T10:00:00Z,1,2,0.5,1.5,100\n" +
		"2026-03-03T10:00:00Z,1.5,2.5,1,2,120\n"

	path := suite.writeCSV(csv)

	start := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	f := suite.facade(nil, "")
	rows, err := f.ImportCSV(path, "AAPL", "1m", CSVImportOptions{Start: &start})
	suite.NoError(err)
	suite.Equal(1, rows)
}

func (suite *ImportsTestSuite) TestImportCSVMissingColumnErrors() {
	csv := "timestamp,open,high,low,close\n2026-03-02T10:00:00Z,1,2,0.5,1.5\n"
	path := suite.writeCSV(csv)

	f := suite.facade(nil, "")
	_, err := f.ImportCSV(path, "AAPL", "1m", CSVImportOptions{})
	suite.Error(err)
}

func (suite *ImportsTestSuite) TestImportFromAPIWritesBars() {
	want := types.Bar{Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	stub := &stubProvider{bars: []types.Bar{want}}

	f := suite.facade(map[provider.Type]provider.Provider{provider.Polygon: stub}, provider.Polygon)

	rows, err := f.ImportFromAPI(context.Background(), provider.DataTypeBars, "AAPL", "1m", time.Now().Add(-time.Hour), time.Now(), "")
	suite.NoError(err)
	suite.Equal(1, rows)
}

func (suite *ImportsTestSuite) TestImportFromAPIUnconfiguredProvider() {
	f := suite.facade(nil, provider.Polygon)
	_, err := f.ImportFromAPI(context.Background(), provider.DataTypeBars, "AAPL", "1m", time.Now().Add(-time.Hour), time.Now(), "")
	suite.Error(err)
}
