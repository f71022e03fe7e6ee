package facade

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/derive"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// ExportCSV writes bars for symbol/interval/[start,end] to path, one file
// per call, symmetric with ImportCSV's header and timestamp conventions
// (RFC3339 timestamps, open/high/low/close/volume columns).
func (f *Facade) ExportCSV(path, symbol string, interval types.Interval, start, end time.Time) (int, error) {
	bars, err := f.store.ReadBars(interval, symbol, f.exchangeGroup, &start, &end)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "creating csv %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "writing csv header to %s", path)
	}

	for _, b := range bars {
		row := []string{
			b.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}

		if err := writer.Write(row); err != nil {
			return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "writing csv row to %s", path)
		}
	}

	return len(bars), nil
}

// Aggregate implements spec §12's explicit aggregate entry point: it reads
// fromInterval base bars for symbol in [start, end], groups them per
// exchange-local trading day, and writes toInterval bars back through to
// ColumnarStore using the same window function the live DerivedAggregator
// uses (internal/derive.Windows), so backfilled history and live-derived
// bars are bit-identical.
func (f *Facade) Aggregate(symbol string, fromInterval, toInterval types.Interval, start, end time.Time) (int, error) {
	if _, err := derive.Ratio(fromInterval, toInterval); err != nil {
		return 0, err
	}

	bars, err := f.store.ReadBars(fromInterval, symbol, f.exchangeGroup, &start, &end)
	if err != nil {
		return 0, err
	}

	if len(bars) == 0 {
		return 0, nil
	}

	loc, err := f.ts.MarketTimezone(f.exchangeGroup, f.assetClass)
	if err != nil {
		return 0, err
	}

	byDate := make(map[string][]types.Bar)

	for _, b := range bars {
		key := b.Timestamp.In(loc).Format("2006-01-02")
		byDate[key] = append(byDate[key], b)
	}

	var written int

	for dateKey, dayBars := range byDate {
		date, err := time.ParseInLocation("2006-01-02", dateKey, loc)
		if err != nil {
			return written, err
		}

		session, err := f.ts.TradingSession(date, f.exchangeGroup, f.assetClass)
		if err != nil {
			return written, err
		}

		sessionClose := dayBars[len(dayBars)-1].Timestamp.Add(time.Minute)

		if closeT, err := session.RegularClose.Take(); err == nil {
			sessionClose = closeT.On(date, loc)
		}

		windows, err := derive.Windows(dayBars, toInterval, loc, sessionClose)
		if err != nil {
			return written, err
		}

		if len(windows) == 0 {
			continue
		}

		rows, _, err := f.store.WriteBars(windows, toInterval, symbol, f.exchangeGroup, loc, "", true)
		if err != nil {
			return written, err
		}

		written += rows
	}

	return written, nil
}
