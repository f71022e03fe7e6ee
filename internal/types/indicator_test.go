package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type IndicatorConfigTestSuite struct {
	suite.Suite
}

func TestIndicatorConfigSuite(t *testing.T) {
	suite.Run(t, new(IndicatorConfigTestSuite))
}

func (suite *IndicatorConfigTestSuite) TestKeyWithPeriod() {
	c := IndicatorConfig{Name: IndicatorTypeEMA, Kind: IndicatorKindTrend, Period: 20, Interval: "1m"}
	suite.Equal("ema_20_1m", c.Key())
}

func (suite *IndicatorConfigTestSuite) TestKeyWithoutPeriod() {
	c := IndicatorConfig{Name: IndicatorTypeRangeFilter, Kind: IndicatorKindTrend, Period: 0, Interval: "5m"}
	suite.Equal("range_filter_5m", c.Key())
}

func (suite *IndicatorConfigTestSuite) TestWarmupBarsDefault() {
	c := IndicatorConfig{Name: IndicatorTypeSMA, Period: 20, Interval: "1m"}
	suite.Equal(20, c.WarmupBars())
}

func (suite *IndicatorConfigTestSuite) TestWarmupBarsOverrides() {
	suite.Equal(26, IndicatorConfig{Name: IndicatorTypeMACD, Period: 12, Interval: "1m"}.WarmupBars())
	suite.Equal(60, IndicatorConfig{Name: IndicatorTypeTEMA, Period: 20, Interval: "1m"}.WarmupBars())
	suite.Equal(40, IndicatorConfig{Name: IndicatorTypeDEMA, Period: 20, Interval: "1m"}.WarmupBars())
	suite.Equal(15, IndicatorConfig{Name: IndicatorTypeRSI, Period: 14, Interval: "1m"}.WarmupBars())
	suite.Equal(28, IndicatorConfig{Name: IndicatorTypeUltimateOscillator, Period: 7, Interval: "1m"}.WarmupBars())
	suite.Equal(41, IndicatorConfig{Name: IndicatorTypeSwingDetection, Period: 20, Interval: "1m"}.WarmupBars())
}

func (suite *IndicatorConfigTestSuite) TestWarmupBarsStochasticIncludesSmooth() {
	c := IndicatorConfig{Name: IndicatorTypeStochastic, Period: 14, Interval: "1m", Params: map[string]any{"smooth": 5}}
	suite.Equal(19, c.WarmupBars())
}
