package timeservice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const validYAML = `
market_hours:
  - exchange_group: NASDAQ
    asset_class: equity
    timezone: America/New_York
    trading_days: [mon, tue, wed, thu, fri]
    regular_open: "09:30"
    regular_close: "16:00"
    pre_open: "04:00"
    post_close: "20:00"
holidays:
  - date: "2026-01-01"
    exchange_group: NASDAQ
    holiday_name: New Year's Day
    is_closed: true
`

func (suite *ConfigTestSuite) writeTemp(contents string) string {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "calendar.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func (suite *ConfigTestSuite) TestLoadConfigValid() {
	path := suite.writeTemp(validYAML)

	hours, holidays, err := LoadConfig(path)
	suite.NoError(err)
	suite.Len(hours, 1)
	suite.Len(holidays, 1)
	suite.Equal("NASDAQ", hours[0].ExchangeGroup)
	suite.True(hours[0].TradingDays.Includes(1)) // Monday
}

func (suite *ConfigTestSuite) TestLoadConfigMissingFile() {
	_, _, err := LoadConfig("/nonexistent/path.yaml")
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedYAML() {
	path := suite.writeTemp("not: [valid yaml")
	_, _, err := LoadConfig(path)
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestLoadConfigMissingRequiredField() {
	path := suite.writeTemp(`
market_hours:
  - exchange_group: NASDAQ
    asset_class: equity
`)
	_, _, err := LoadConfig(path)
	suite.Error(err)
}
