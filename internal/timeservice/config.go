package timeservice

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"gopkg.in/yaml.v2"
)

// rawMarketHours mirrors types.MarketHoursConfig's wire form: YAML can't
// express time.Duration-backed TimeOfDay or a bitmask directly, so it loads
// as HH:MM strings and a weekday-name list, then gets converted.
type rawMarketHours struct {
	ExchangeGroup string   `yaml:"exchange_group" validate:"required"`
	AssetClass    string   `yaml:"asset_class" validate:"required"`
	Timezone      string   `yaml:"timezone" validate:"required"`
	TradingDays   []string `yaml:"trading_days" validate:"required,min=1,dive,oneof=mon tue wed thu fri sat sun"`
	RegularOpen   string   `yaml:"regular_open" validate:"required"`
	RegularClose  string   `yaml:"regular_close" validate:"required"`
	PreOpen       string   `yaml:"pre_open"`
	PreClose      string   `yaml:"pre_close"`
	PostOpen      string   `yaml:"post_open"`
	PostClose     string   `yaml:"post_close"`
}

type rawHoliday struct {
	Date           string `yaml:"date" validate:"required"`
	ExchangeGroup  string `yaml:"exchange_group" validate:"required"`
	HolidayName    string `yaml:"holiday_name" validate:"required"`
	IsClosed       bool   `yaml:"is_closed"`
	EarlyCloseTime string `yaml:"early_close_time"`
}

type rawConfig struct {
	MarketHours []rawMarketHours `yaml:"market_hours" validate:"required,min=1,dive"`
	Holidays    []rawHoliday     `yaml:"holidays" validate:"dive"`
}

var weekdayByName = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseTimeOfDay(s string) (types.TimeOfDay, error) {
	if s == "" {
		return 0, apperrors.Newf(apperrors.ErrCodeConfigurationMalformed, "empty time-of-day value")
	}

	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "invalid time-of-day %q, want HH:MM", s)
	}

	return types.NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// LoadConfig reads and validates market-hours and holiday calendar YAML
// from path. A malformed file or failed validation is a fatal
// ConfigurationError per spec §7 — TimeService construction must not
// proceed with partial calendar data.
func LoadConfig(path string) ([]types.MarketHoursConfig, []types.Holiday, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "reading calendar config %s", path)
	}

	var cfg rawConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "parsing calendar config %s", path)
	}

	v := validator.New()
	if err := v.Struct(&cfg); err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationMalformed, err, "validating calendar config %s", path)
	}

	hours := make([]types.MarketHoursConfig, 0, len(cfg.MarketHours))

	for _, rh := range cfg.MarketHours {
		var mask types.WeekdayMask
		for _, d := range rh.TradingDays {
			mask |= 1 << uint(weekdayByName[d])
		}

		regOpen, err := parseTimeOfDay(rh.RegularOpen)
		if err != nil {
			return nil, nil, err
		}

		regClose, err := parseTimeOfDay(rh.RegularClose)
		if err != nil {
			return nil, nil, err
		}

		mh := types.MarketHoursConfig{
			ExchangeGroup: rh.ExchangeGroup,
			AssetClass:    rh.AssetClass,
			Timezone:      rh.Timezone,
			TradingDays:   mask,
			RegularOpen:   regOpen,
			RegularClose:  regClose,
		}

		if rh.PreOpen != "" {
			if mh.PreOpen, err = parseTimeOfDay(rh.PreOpen); err != nil {
				return nil, nil, err
			}
		}

		if rh.PreClose != "" {
			if mh.PreClose, err = parseTimeOfDay(rh.PreClose); err != nil {
				return nil, nil, err
			}
		}

		if rh.PostOpen != "" {
			if mh.PostOpen, err = parseTimeOfDay(rh.PostOpen); err != nil {
				return nil, nil, err
			}
		}

		if rh.PostClose != "" {
			if mh.PostClose, err = parseTimeOfDay(rh.PostClose); err != nil {
				return nil, nil, err
			}
		}

		hours = append(hours, mh)
	}

	holidays := make([]types.Holiday, 0, len(cfg.Holidays))

	for _, rh := range cfg.Holidays {
		date, err := time.Parse("2006-01-02", rh.Date)
		if err != nil {
			return nil, nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationInvalidHoliday, err, "invalid holiday date %q", rh.Date)
		}

		h := types.Holiday{
			Date:          date,
			ExchangeGroup: rh.ExchangeGroup,
			HolidayName:   rh.HolidayName,
			IsClosed:      rh.IsClosed,
		}

		if !rh.IsClosed {
			ect, err := parseTimeOfDay(rh.EarlyCloseTime)
			if err != nil {
				return nil, nil, apperrors.Wrapf(apperrors.ErrCodeConfigurationInvalidHoliday, err, "holiday %s/%s is not closed but has no valid early_close_time", rh.ExchangeGroup, rh.HolidayName)
			}

			h.EarlyCloseTime = optional.Some(ect)
		}

		holidays = append(holidays, h)
	}

	return hours, holidays, nil
}
