package sessioncoordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/indicator"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/require"
)

func testHours() types.MarketHoursConfig {
	return types.MarketHoursConfig{
		ExchangeGroup: "NASDAQ", AssetClass: "equity", Timezone: "UTC",
		TradingDays:  types.WeekdayMaskMonFri,
		RegularOpen:  types.NewTimeOfDay(9, 30),
		RegularClose: types.NewTimeOfDay(9, 33), // tiny 3-minute session keeps the test fast
	}
}

// aWednesday is a fixed trading day with no holiday entries involved.
var aWednesday = time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)

func buildCoordinator(t *testing.T) (*Coordinator, *columnarstore.Store) {
	t.Helper()

	store, err := columnarstore.New(t.TempDir(), logger.NewNopLogger())
	require.NoError(t, err)

	ts, err := timeservice.New(timeservice.ModeBacktest, []types.MarketHoursConfig{testHours()}, nil, "NASDAQ", "equity", logger.NewNopLogger())
	require.NoError(t, err)

	// Pre-populate the store with the one trading day's 1m bars the
	// STREAMED queue will read back in Phase 3.
	bars := []types.Bar{
		{Symbol: "AAPL", Timestamp: aWednesday.Add(9*time.Hour + 30*time.Minute), Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 100},
		{Symbol: "AAPL", Timestamp: aWednesday.Add(9*time.Hour + 31*time.Minute), Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 100},
		{Symbol: "AAPL", Timestamp: aWednesday.Add(9*time.Hour + 32*time.Minute), Interval: "1m", Open: 1, High: 1, Low: 1, Close: 1, Volume: 100},
	}

	loc, err := ts.MarketTimezone("NASDAQ", "equity")
	require.NoError(t, err)

	_, _, err = store.WriteBars(bars, "1m", "AAPL", "NASDAQ", loc, "", false)
	require.NoError(t, err)

	mkt := facade.New(store, ts, "NASDAQ", "equity", map[provider.Type]provider.Provider{}, provider.Polygon, logger.NewNopLogger())

	cfg := Config{
		ExchangeGroup:   "NASDAQ",
		AssetClass:      "equity",
		SpeedMultiplier: 0, // data-driven, no sleeping
		BacktestEndDate: aWednesday,
		Symbols: []SymbolConfig{
			{Symbol: "AAPL", ConfiguredBases: []types.Interval{"1m"}},
		},
	}

	coord, err := New(cfg, ts, mkt, indicator.NewRegistry(), logger.NewNopLogger())
	require.NoError(t, err)

	return coord, store
}

func TestRunSingleSessionStreamsAllBars(t *testing.T) {
	coord, store := buildCoordinator(t)
	defer store.Close()

	err := coord.Run(context.Background(), aWednesday)
	require.NoError(t, err)

	assert := require.New(t)
	assert.Equal(1, coord.TradingDaysElapsed())

	// After Phase 6, current-session bars have rolled into historical and
	// the session is deactivated; read them back with internal=true.
	bars := coord.State().GetHistoricalBars("AAPL", "1m", 1, true)
	assert.Len(bars, 3)
	assert.False(coord.State().IsSessionActive())
}

func TestRunFatalWhenStreamedBarsMissing(t *testing.T) {
	store, err := columnarstore.New(t.TempDir(), logger.NewNopLogger())
	require.NoError(t, err)
	defer store.Close()

	ts, err := timeservice.New(timeservice.ModeBacktest, []types.MarketHoursConfig{testHours()}, nil, "NASDAQ", "equity", logger.NewNopLogger())
	require.NoError(t, err)

	mkt := facade.New(store, ts, "NASDAQ", "equity", map[provider.Type]provider.Provider{}, provider.Polygon, logger.NewNopLogger())

	cfg := Config{
		ExchangeGroup:   "NASDAQ",
		AssetClass:      "equity",
		BacktestEndDate: aWednesday,
		Symbols: []SymbolConfig{
			{Symbol: "MSFT", ConfiguredBases: []types.Interval{"1m"}},
		},
	}

	coord, err := New(cfg, ts, mkt, indicator.NewRegistry(), logger.NewNopLogger())
	require.NoError(t, err)

	err = coord.Run(context.Background(), aWednesday)
	require.Error(t, err, "missing STREAMED bar data must be fatal per spec Phase 3")
}

func TestChooseBasePrefersSecondOverMinuteOverDaily(t *testing.T) {
	base, ok := chooseBase([]types.Interval{"1d", "1m", "1s"})
	require.True(t, ok)
	require.Equal(t, types.Interval("1s"), base)
}
