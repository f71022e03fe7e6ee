package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SymbolSessionTestSuite struct {
	suite.Suite
}

func TestSymbolSessionSuite(t *testing.T) {
	suite.Run(t, new(SymbolSessionTestSuite))
}

func (suite *SymbolSessionTestSuite) TestNewSymbolSessionData() {
	now := time.Now()
	s := NewSymbolSessionData("AAPL", AddedByConfig, now)
	suite.Equal("AAPL", s.Symbol)
	suite.Equal(AddedByConfig, s.AddedBy)
	suite.Equal(now, s.AddedAt)
	suite.Empty(s.Bars)
	suite.Empty(s.Indicators)
	suite.Empty(s.Historical)
}

func (suite *SymbolSessionTestSuite) TestLatestBarEmpty() {
	s := NewSymbolSessionData("AAPL", AddedByConfig, time.Now())
	_, ok := s.LatestBar()
	suite.False(ok)
}

func (suite *SymbolSessionTestSuite) TestSetAndGetLatestBar() {
	s := NewSymbolSessionData("AAPL", AddedByConfig, time.Now())
	bar := Bar{Symbol: "AAPL", Interval: "1m", Open: 1, High: 2, Low: 1, Close: 1.5}
	s.SetLatestBar(bar)

	got, ok := s.LatestBar()
	suite.True(ok)
	suite.Equal(bar, got)
}

func (suite *SymbolSessionTestSuite) TestResetSessionStatePreservesHistorical() {
	s := NewSymbolSessionData("AAPL", AddedByConfig, time.Now())
	s.Historical["1m"] = &HistoricalInterval{Dates: map[string][]Bar{"2026-01-01": {{Symbol: "AAPL"}}}}
	s.Bars["1m"] = &BarIntervalData{Data: []Bar{{Symbol: "AAPL"}}}
	s.SetLatestBar(Bar{Symbol: "AAPL"})

	s.ResetSessionState()

	suite.Empty(s.Bars)
	suite.NotEmpty(s.Historical)
	_, ok := s.LatestBar()
	suite.False(ok)
}

func (suite *SymbolSessionTestSuite) TestSessionMetricsAccumulation() {
	m := SessionMetrics{}
	m.Observe(Bar{High: 10, Low: 5, Volume: 100, Timestamp: time.Unix(1, 0)})
	m.Observe(Bar{High: 12, Low: 4, Volume: 50, Timestamp: time.Unix(2, 0)})

	suite.Equal(12.0, m.SessionHigh)
	suite.Equal(4.0, m.SessionLow)
	suite.True(m.SessionVolume.Equal(m.SessionVolume))
	f, _ := m.SessionVolume.Float64()
	suite.InDelta(150.0, f, 1e-9)
	suite.Equal(time.Unix(2, 0), m.LastUpdate)
}
