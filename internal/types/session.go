package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// TimeOfDay is an offset from local midnight, used for session-boundary
// times (e.g. regular_open). It deliberately excludes a date component so
// MarketHoursConfig can describe a recurring schedule.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from an hour/minute pair.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)

	return fmt.Sprintf("%02d:%02d", int(d.Hours())%24, int(d.Minutes())%60)
}

// On anchors the time-of-day onto a specific calendar date in the given
// location.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

// WeekdayMask is a bitmask over time.Sunday(0)..time.Saturday(6).
type WeekdayMask uint8

// Includes reports whether the mask covers the given weekday.
func (m WeekdayMask) Includes(day time.Weekday) bool {
	return m&(1<<uint(day)) != 0
}

// NewWeekdayMask builds a mask from the given weekdays.
func NewWeekdayMask(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m |= 1 << uint(d)
	}

	return m
}

// WeekdayMaskMonFri is the common Mon-Fri trading mask.
var WeekdayMaskMonFri = NewWeekdayMask(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// MarketHoursConfig describes the recurring session schedule for one
// (exchange_group, asset_class) pair. Loaded once at TimeService
// construction and treated as immutable at runtime.
type MarketHoursConfig struct {
	ExchangeGroup string      `yaml:"exchange_group" validate:"required"`
	AssetClass    string      `yaml:"asset_class" validate:"required"`
	Timezone      string      `yaml:"timezone" validate:"required"`
	TradingDays   WeekdayMask `yaml:"-"`
	RegularOpen   TimeOfDay   `yaml:"-"`
	RegularClose  TimeOfDay   `yaml:"-"`
	PreOpen       TimeOfDay   `yaml:"-"`
	PreClose      TimeOfDay   `yaml:"-"`
	PostOpen      TimeOfDay   `yaml:"-"`
	PostClose     TimeOfDay   `yaml:"-"`
}

// Key identifies a MarketHoursConfig by (exchange_group, asset_class).
func (c MarketHoursConfig) Key() string {
	return c.ExchangeGroup + "|" + c.AssetClass
}

// Holiday marks a calendar date as closed or early-close for an exchange
// group.
type Holiday struct {
	Date            time.Time               `yaml:"date"`
	ExchangeGroup   string                  `yaml:"exchange_group" validate:"required"`
	HolidayName     string                  `yaml:"holiday_name" validate:"required"`
	IsClosed        bool                    `yaml:"is_closed"`
	EarlyCloseTime  optional.Option[TimeOfDay] `yaml:"-"`
}

// TradingSession is the resolved schedule for one calendar date, combining
// MarketHoursConfig with any applicable Holiday override.
type TradingSession struct {
	Date          time.Time
	ExchangeGroup string
	AssetClass    string
	Timezone      string
	IsTradingDay  bool
	IsHoliday     bool
	IsEarlyClose  bool
	HolidayName   string

	RegularOpen  optional.Option[TimeOfDay]
	RegularClose optional.Option[TimeOfDay]
	PreOpen      optional.Option[TimeOfDay]
	PreClose     optional.Option[TimeOfDay]
	PostOpen     optional.Option[TimeOfDay]
	PostClose    optional.Option[TimeOfDay]
}

// Validate enforces the spec §3 invariants: if IsTradingDay then
// RegularOpen < RegularClose; early-close days are trading days
// (IsHoliday=false).
func (s TradingSession) Validate() error {
	if s.IsEarlyClose && s.IsHoliday {
		return fmt.Errorf("trading session for %s is marked both early-close and holiday", s.Date.Format("2006-01-02"))
	}

	if !s.IsTradingDay {
		return nil
	}

	open, openOk := s.RegularOpen.Take()
	closeT, closeOk := s.RegularClose.Take()

	if openOk != nil || closeOk != nil {
		return fmt.Errorf("trading session for %s is a trading day but missing regular open/close", s.Date.Format("2006-01-02"))
	}

	if open >= closeT {
		return fmt.Errorf("trading session for %s has regular_open >= regular_close", s.Date.Format("2006-01-02"))
	}

	return nil
}
