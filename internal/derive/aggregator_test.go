package derive

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/sessionstate"
	"github.com/rxtech-lab/argo-trading/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorEmitsOnBaseBarArrival(t *testing.T) {
	st := sessionstate.New(5, nil)
	now := time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)
	st.RegisterSymbol("AAPL", types.AddedByConfig, now)
	st.ActivateSession(now)

	agg := NewAggregator(st, time.UTC)
	agg.Configure("AAPL", "1m", []types.Interval{"5m"})

	for i := 0; i < 6; i++ {
		b := minuteBar(i, 10+float64(i), 11+float64(i), 9+float64(i), 10+float64(i), 100)
		require.NoError(t, st.AppendBar("AAPL", "1m", b))
		require.NoError(t, agg.OnBaseBar("AAPL", "1m", time.Time{}))
	}

	derivedBars := st.GetBars("AAPL", "5m", nil, nil, true)
	require.Len(t, derivedBars, 1)
	assert.Equal(t, time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC), derivedBars[0].Timestamp)

	intervals := st.DerivedIntervals("AAPL")
	assert.Equal(t, types.Interval("1m"), intervals["5m"])
}
