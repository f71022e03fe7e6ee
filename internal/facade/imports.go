package facade

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// CSVImportOptions controls import_csv's header handling and date filter.
type CSVImportOptions struct {
	// Columns maps the CSV's actual header names to the canonical fields
	// this importer understands. Leave nil to use auto-detected defaults
	// (timestamp/time, open, high, low, close, volume, case-insensitive).
	Columns      map[string]string
	Start        *time.Time
	End          *time.Time
	ShowProgress bool
	// Compression selects the Parquet codec written through to
	// ColumnarStore; the zero value defaults to ZSTD (spec §6).
	Compression columnarstore.Compression
}

var defaultColumnAliases = map[string]string{
	"timestamp": "timestamp", "time": "timestamp", "date": "timestamp",
	"open": "open", "high": "high", "low": "low", "close": "close",
	"volume": "volume", "vol": "volume",
}

// ImportCSV reads bars for symbol from a CSV file, auto-detecting the
// header's column order, optionally filtering to [Start, End], and writing
// through to ColumnarStore with append=true.
func (f *Facade) ImportCSV(path, symbol string, interval types.Interval, opts CSVImportOptions) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileRead, err, "opening csv %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileRead, err, "reading csv header from %s", path)
	}

	fieldIndex, err := resolveColumns(header, opts.Columns)
	if err != nil {
		return 0, err
	}

	loc, err := f.ts.MarketTimezone(f.exchangeGroup, f.assetClass)
	if err != nil {
		return 0, err
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(-1, fmt.Sprintf("importing %s", symbol))
	}

	var bars []types.Bar

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return 0, apperrors.Wrapf(apperrors.ErrCodeIOFileRead, err, "reading csv row from %s", path)
		}

		b, err := parseCSVBar(record, fieldIndex, symbol, interval)
		if err != nil {
			return 0, err
		}

		if opts.Start != nil && b.Timestamp.Before(*opts.Start) {
			continue
		}

		if opts.End != nil && b.Timestamp.After(*opts.End) {
			continue
		}

		bars = append(bars, b)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if len(bars) == 0 {
		return 0, nil
	}

	rows, _, err := f.store.WriteBars(bars, interval, symbol, f.exchangeGroup, loc, opts.Compression, true)

	return rows, err
}

func resolveColumns(header []string, overrides map[string]string) (map[string]int, error) {
	idx := make(map[string]int, len(header))

	for i, name := range header {
		canonical := strings.ToLower(strings.TrimSpace(name))

		if overrides != nil {
			if mapped, ok := overrides[name]; ok {
				canonical = mapped
			}
		} else if alias, ok := defaultColumnAliases[canonical]; ok {
			canonical = alias
		}

		idx[canonical] = i
	}

	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := idx[required]; !ok {
			return nil, apperrors.Newf(apperrors.ErrCodeValidationMissingParameter, "csv header missing required column %q", required)
		}
	}

	return idx, nil
}

func parseCSVBar(record []string, idx map[string]int, symbol string, interval types.Interval) (types.Bar, error) {
	ts, err := parseCSVTime(record[idx["timestamp"]])
	if err != nil {
		return types.Bar{}, apperrors.Wrapf(apperrors.ErrCodeValidationBadDate, err, "parsing csv timestamp %q", record[idx["timestamp"]])
	}

	floats := make([]float64, 5)
	fields := []string{"open", "high", "low", "close", "volume"}

	for i, name := range fields {
		v, err := strconv.ParseFloat(record[idx[name]], 64)
		if err != nil {
			return types.Bar{}, apperrors.Wrapf(apperrors.ErrCodeValidationInvalidBar, err, "parsing csv column %q", name)
		}

		floats[i] = v
	}

	b := types.Bar{
		Symbol: symbol, Timestamp: ts, Interval: interval,
		Open: floats[0], High: floats[1], Low: floats[2], Close: floats[3], Volume: floats[4],
	}

	return b, b.Validate()
}

func parseCSVTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	if unixSeconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unixSeconds, 0), nil
	}

	return time.Time{}, apperrors.Newf(apperrors.ErrCodeValidationBadDate, "unrecognized timestamp format %q", raw)
}

// ImportFromAPI fetches data from the selected provider and writes it
// through to ColumnarStore. Ticks are aggregated to 1s bars and quotes to
// per-second quotes before writing, per spec §4.3; bars write directly.
// compression selects the Parquet codec (the zero value defaults to ZSTD).
func (f *Facade) ImportFromAPI(ctx context.Context, dataType provider.DataType, symbol string, interval types.Interval, start, end time.Time, compression columnarstore.Compression) (int, error) {
	p, err := f.provider()
	if err != nil {
		return 0, err
	}

	loc, err := f.ts.MarketTimezone(f.exchangeGroup, f.assetClass)
	if err != nil {
		return 0, err
	}

	switch dataType {
	case provider.DataTypeBars:
		bars, err := p.FetchBars(ctx, symbol, start, end, interval)
		if err != nil {
			return 0, err
		}

		rows, _, err := f.store.WriteBars(bars, interval, symbol, f.exchangeGroup, loc, compression, true)

		return rows, err

	case provider.DataTypeTicks:
		ticks, err := p.FetchTicks(ctx, symbol, start, end)
		if err != nil {
			return 0, err
		}

		bars := columnarstore.AggregateTicksTo1s(ticks)

		rows, _, err := f.store.WriteBars(bars, "1s", symbol, f.exchangeGroup, loc, compression, true)

		return rows, err

	case provider.DataTypeQuotes:
		quotes, err := p.FetchQuotes(ctx, symbol, start, end)
		if err != nil {
			return 0, err
		}

		aggregated := columnarstore.AggregateQuotesBySecond(quotes)

		rows, _, err := f.store.WriteQuotes(aggregated, symbol, f.exchangeGroup, loc, compression, true)

		return rows, err

	default:
		return 0, apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "unknown data type %q", dataType)
	}
}
