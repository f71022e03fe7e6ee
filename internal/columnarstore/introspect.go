package columnarstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// AvailableSymbols lists every symbol with at least one partition file for
// the given interval, derived from directory structure (no DuckDB query
// needed).
func (s *Store) AvailableSymbols(exchangeGroup string, interval types.Interval) ([]string, error) {
	dir := barIntervalDir(s.root, exchangeGroup, interval)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() && anyParquetUnder(filepath.Join(dir, e.Name())) {
			symbols = append(symbols, e.Name())
		}
	}

	sort.Strings(symbols)

	return symbols, nil
}

// AvailableIntervals lists every interval with at least one partition file
// for the given symbol.
func (s *Store) AvailableIntervals(exchangeGroup, symbol string) ([]types.Interval, error) {
	barsDir := filepath.Join(s.root, exchangeGroup, "bars")

	entries, err := os.ReadDir(barsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var intervals []types.Interval

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		if anyParquetUnder(barSymbolDir(s.root, exchangeGroup, types.Interval(e.Name()), symbol)) {
			intervals = append(intervals, types.Interval(e.Name()))
		}
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i] < intervals[j] })

	return intervals, nil
}

// DateRange returns the earliest and latest exchange-local partition dates
// on disk for (interval, symbol). ok is false if there are no partitions.
func (s *Store) DateRange(exchangeGroup string, interval types.Interval, symbol string) (earliest, latest time.Time, ok bool) {
	dir := barSymbolDir(s.root, exchangeGroup, interval, symbol)

	var dates []time.Time

	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".parquet") {
			return nil //nolint:nilerr
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}

		if parsed, parseErr := parsePartitionDate(rel); parseErr == nil {
			dates = append(dates, parsed)
		}

		return nil
	})

	if len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates[0], dates[len(dates)-1], true
}

// parsePartitionDate recovers a date from a relative partition path, which
// is either "YYYY/MM/DD.parquet" (sub-daily) or "YYYY.parquet" (daily+).
func parsePartitionDate(rel string) (time.Time, error) {
	rel = strings.TrimSuffix(rel, ".parquet")
	parts := strings.Split(filepath.ToSlash(rel), "/")

	switch len(parts) {
	case 3:
		return time.Parse("2006/01/02", strings.Join(parts, "/"))
	case 1:
		return time.Parse("2006", parts[0])
	default:
		return time.Time{}, os.ErrInvalid
	}
}
