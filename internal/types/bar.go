package types

import (
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Interval is a bar interval label of the form Ns, Nm, Nd, Nw with N a
// positive integer. Nh is rejected; callers express hours as minutes.
type Interval string

const (
	intervalUnitSecond = 's'
	intervalUnitMinute = 'm'
	intervalUnitDay    = 'd'
	intervalUnitWeek   = 'w'
)

// ParseInterval validates an interval label and returns its numeric amount
// and unit rune. It returns a ValidationError if the label is malformed or
// uses the forbidden "h" (hour) unit.
func ParseInterval(label string) (amount int, unit byte, err error) {
	if len(label) < 2 {
		return 0, 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval %q too short", label)
	}

	unit = label[len(label)-1]

	switch unit {
	case intervalUnitSecond, intervalUnitMinute, intervalUnitDay, intervalUnitWeek:
	case 'h':
		return 0, 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval %q uses forbidden hour unit, express as minutes", label)
	default:
		return 0, 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval %q has unknown unit %q", label, string(unit))
	}

	amount, convErr := strconv.Atoi(label[:len(label)-1])
	if convErr != nil || amount <= 0 {
		return 0, 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval %q must have a positive integer amount", label)
	}

	return amount, unit, nil
}

// Duration approximates the wall-clock span of an interval. Day and week
// units use 24h/7*24h and are intended for bucket-boundary arithmetic, not
// exchange-calendar-aware scheduling (that lives in TimeService).
func (i Interval) Duration() (time.Duration, error) {
	amount, unit, err := ParseInterval(string(i))
	if err != nil {
		return 0, err
	}

	switch unit {
	case intervalUnitSecond:
		return time.Duration(amount) * time.Second, nil
	case intervalUnitMinute:
		return time.Duration(amount) * time.Minute, nil
	case intervalUnitDay:
		return time.Duration(amount) * 24 * time.Hour, nil
	case intervalUnitWeek:
		return time.Duration(amount) * 7 * 24 * time.Hour, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "unreachable unit %q", string(unit))
	}
}

// Bar is a single OHLCV bar. Timestamp denotes the bar's start.
type Bar struct {
	Symbol    string    `csv:"symbol" json:"symbol"`
	Timestamp time.Time `csv:"timestamp" json:"timestamp"`
	Interval  Interval  `csv:"interval" json:"interval"`
	Open      float64   `csv:"open" json:"open"`
	High      float64   `csv:"high" json:"high"`
	Low       float64   `csv:"low" json:"low"`
	Close     float64   `csv:"close" json:"close"`
	Volume    float64   `csv:"volume" json:"volume"`
}

// Validate checks the OHLCV and interval invariants of spec §3:
// low ≤ min(open,close) ≤ max(open,close) ≤ high; volume ≥ 0.
func (b Bar) Validate() error {
	if _, _, err := ParseInterval(string(b.Interval)); err != nil {
		return err
	}

	minOC := min(b.Open, b.Close)
	maxOC := max(b.Open, b.Close)

	if b.Low > minOC || minOC > maxOC || maxOC > b.High {
		return apperrors.Newf(apperrors.ErrCodeValidationInvalidBar,
			"bar for %s at %s violates low<=min(open,close)<=max(open,close)<=high: low=%v open=%v close=%v high=%v",
			b.Symbol, b.Timestamp, b.Low, b.Open, b.Close, b.High)
	}

	if b.Volume < 0 {
		return apperrors.Newf(apperrors.ErrCodeValidationInvalidBar, "bar for %s at %s has negative volume %v", b.Symbol, b.Timestamp, b.Volume)
	}

	return nil
}

// Key identifies the (symbol, interval) bucket a bar belongs to.
func (b Bar) Key() string {
	return fmt.Sprintf("%s|%s", b.Symbol, b.Interval)
}
