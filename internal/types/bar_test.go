package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) TestParseIntervalValid() {
	cases := map[string]struct {
		amount int
		unit   byte
	}{
		"1s":  {1, 's'},
		"30s": {30, 's'},
		"1m":  {1, 'm'},
		"5m":  {5, 'm'},
		"1d":  {1, 'd'},
		"2w":  {2, 'w'},
	}

	for label, want := range cases {
		amount, unit, err := ParseInterval(label)
		suite.NoError(err, label)
		suite.Equal(want.amount, amount, label)
		suite.Equal(want.unit, unit, label)
	}
}

func (suite *BarTestSuite) TestParseIntervalRejectsHour() {
	_, _, err := ParseInterval("1h")
	suite.Error(err)
	suite.Contains(err.Error(), "forbidden hour unit")
}

func (suite *BarTestSuite) TestParseIntervalRejectsMalformed() {
	for _, bad := range []string{"", "m", "0m", "-1m", "1x", "1"} {
		_, _, err := ParseInterval(bad)
		suite.Error(err, bad)
	}
}

func (suite *BarTestSuite) TestIntervalDuration() {
	d, err := Interval("5m").Duration()
	suite.NoError(err)
	suite.Equal(5*time.Minute, d)

	d, err = Interval("1d").Duration()
	suite.NoError(err)
	suite.Equal(24*time.Hour, d)
}

func (suite *BarTestSuite) TestBarValidateOK() {
	b := Bar{
		Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m",
		Open: 10, High: 12, Low: 9, Close: 11, Volume: 100,
	}
	suite.NoError(b.Validate())
}

func (suite *BarTestSuite) TestBarValidateRejectsHighTooLow() {
	b := Bar{
		Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m",
		Open: 10, High: 10.5, Low: 9, Close: 11, Volume: 100,
	}
	err := b.Validate()
	suite.Error(err)
	suite.Contains(err.Error(), "low<=min")
}

func (suite *BarTestSuite) TestBarValidateRejectsLowTooHigh() {
	b := Bar{
		Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m",
		Open: 10, High: 12, Low: 10.5, Close: 11, Volume: 100,
	}
	err := b.Validate()
	suite.Error(err)
}

func (suite *BarTestSuite) TestBarValidateRejectsNegativeVolume() {
	b := Bar{
		Symbol: "AAPL", Timestamp: time.Now(), Interval: "1m",
		Open: 10, High: 12, Low: 9, Close: 11, Volume: -1,
	}
	err := b.Validate()
	suite.Error(err)
	suite.Contains(err.Error(), "negative volume")
}

func (suite *BarTestSuite) TestBarValidateRejectsBadInterval() {
	b := Bar{
		Symbol: "AAPL", Timestamp: time.Now(), Interval: "1h",
		Open: 10, High: 12, Low: 9, Close: 11, Volume: 100,
	}
	suite.Error(b.Validate())
}

func (suite *BarTestSuite) TestBarKey() {
	b := Bar{Symbol: "AAPL", Interval: "1m"}
	suite.Equal("AAPL|1m", b.Key())
}
