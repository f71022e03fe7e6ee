package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameworkWarmupGating(t *testing.T) {
	st := sessionstate.New(5, nil)
	now := time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)
	st.RegisterSymbol("AAPL", types.AddedByConfig, now)
	st.ActivateSession(now)

	fw := NewFramework(NewDefaultRegistry(), st, nil)
	cfg := types.IndicatorConfig{Name: types.IndicatorTypeSMA, Kind: types.IndicatorKindTrend, Period: 3, Interval: "1m"}
	fw.Configure("AAPL", "1m", []types.IndicatorConfig{cfg})

	push := func(i int, price float64) {
		b := types.Bar{Symbol: "AAPL", Timestamp: now.Add(time.Duration(i) * time.Minute), Interval: "1m", Open: price, High: price, Low: price, Close: price, Volume: 1}
		require.NoError(t, st.AppendBar("AAPL", "1m", b))
		require.NoError(t, fw.OnBar("AAPL", "1m"))
	}

	push(0, 10)
	data, ok := st.GetIndicator("AAPL", cfg.Key(), true)
	require.True(t, ok)
	assert.False(t, data.Valid, "one bar is below SMA(3)'s warmup")

	push(1, 20)
	push(2, 30)

	data, ok = st.GetIndicator("AAPL", cfg.Key(), true)
	require.True(t, ok)
	assert.True(t, data.Valid)
	assert.InDelta(t, 20.0, data.CurrentValue.(float64), 1e-9)
}

func TestFrameworkKeyFormat(t *testing.T) {
	cfg := types.IndicatorConfig{Name: types.IndicatorTypeVWAP, Interval: "1m"}
	assert.Equal(t, "vwap_1m", cfg.Key())

	cfg2 := types.IndicatorConfig{Name: types.IndicatorTypeSMA, Period: 20, Interval: "5m"}
	assert.Equal(t, "sma_20_5m", cfg2.Key())
}
