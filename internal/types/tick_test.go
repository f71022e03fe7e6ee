package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TickTestSuite struct {
	suite.Suite
}

func TestTickSuite(t *testing.T) {
	suite.Run(t, new(TickTestSuite))
}

func (suite *TickTestSuite) TestValidateOK() {
	tick := Tick{Symbol: "AAPL", Timestamp: time.Now(), Price: 100.5, Size: 10}
	suite.NoError(tick.Validate())
}

func (suite *TickTestSuite) TestValidateRejectsZeroPrice() {
	tick := Tick{Symbol: "AAPL", Timestamp: time.Now(), Price: 0, Size: 10}
	suite.Error(tick.Validate())
}

func (suite *TickTestSuite) TestValidateRejectsNegativePrice() {
	tick := Tick{Symbol: "AAPL", Timestamp: time.Now(), Price: -1, Size: 10}
	suite.Error(tick.Validate())
}

func (suite *TickTestSuite) TestValidateRejectsNegativeSize() {
	tick := Tick{Symbol: "AAPL", Timestamp: time.Now(), Price: 100, Size: -1}
	suite.Error(tick.Validate())
}

func (suite *TickTestSuite) TestValidateAllowsZeroSize() {
	tick := Tick{Symbol: "AAPL", Timestamp: time.Now(), Price: 100, Size: 0}
	suite.NoError(tick.Validate())
}
