package columnarstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// WriteBars groups bars by their exchange-local partition (day for
// sub-daily intervals, year for daily+), and for each group either
// overwrites the file (append=false) or merges with the existing file via
// dedup-on-append (append=true): read, union on (symbol, timestamp), keep
// latest, sort, rewrite. Returns total rows written and the touched files.
// loc is the exchange's timezone (from TimeService.MarketTimezone), used
// only to decide which partition a bar's timestamp falls into. compression
// selects the Parquet codec (the zero value defaults to ZSTD, spec §6).
func (s *Store) WriteBars(bars []types.Bar, interval types.Interval, symbol, exchangeGroup string, loc *time.Location, compression Compression, append bool) (int, []string, error) {
	if len(bars) == 0 {
		return 0, nil, nil
	}

	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return 0, nil, err
		}
	}

	subDaily, err := isSubDaily(interval)
	if err != nil {
		return 0, nil, err
	}

	groups := make(map[string][]types.Bar)

	for _, b := range bars {
		local := b.Timestamp.In(loc)

		var key string
		if subDaily {
			key = local.Format("2006-01-02")
		} else {
			key = local.Format("2006")
		}

		groups[key] = append(groups[key], b)
	}

	var (
		totalRows int
		files     []string
	)

	for _, groupBars := range groups {
		sample := groupBars[0].Timestamp.In(loc)

		path, err := barPath(s.root, exchangeGroup, interval, symbol, sample)
		if err != nil {
			return totalRows, files, err
		}

		final := groupBars
		if append {
			final, err = s.mergeWithExisting(path, groupBars)
			if err != nil {
				return totalRows, files, err
			}
		} else {
			sort.Slice(final, func(i, j int) bool { return final[i].Timestamp.Before(final[j].Timestamp) })
		}

		if err := s.writeBarsFile(path, final, compression); err != nil {
			return totalRows, files, err
		}

		totalRows += len(final)
		files = append(files, path)
	}

	return totalRows, files, nil
}

// readBarsFileRaw reads every row of one existing Parquet partition file;
// it returns nil when the file does not exist.
func (s *Store) readBarsFileRaw(path string) ([]types.Bar, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	viewName := "merge_src_" + uuidSlug()

	if _, err := s.db.Exec(fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s')`, viewName, path)); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "reading existing partition %s", path)
	}
	defer s.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, viewName)) //nolint:errcheck

	rows, err := s.db.Query(fmt.Sprintf(`SELECT symbol, timestamp, interval, open, high, low, close, volume FROM %s`, viewName))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "scanning existing partition %s", path)
	}
	defer rows.Close()

	var out []types.Bar

	for rows.Next() {
		var b types.Bar

		var interval string
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &interval, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "decoding row from %s", path)
		}

		b.Interval = types.Interval(interval)
		out = append(out, b)
	}

	return out, rows.Err()
}

// mergeWithExisting reads an existing Parquet file (if any), unions its
// rows with incoming ones keyed on (symbol, timestamp) keeping the latest
// value for duplicates, and returns the sorted merged set.
func (s *Store) mergeWithExisting(path string, incoming []types.Bar) ([]types.Bar, error) {
	existing, err := s.readBarsFileRaw(path)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]types.Bar, len(existing)+len(incoming))

	for _, b := range existing {
		byKey[barDedupKey(b)] = b
	}

	for _, b := range incoming {
		byKey[barDedupKey(b)] = b // incoming wins: "keeps latest" on append
	}

	merged := make([]types.Bar, 0, len(byKey))
	for _, b := range byKey {
		merged = append(merged, b)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	return merged, nil
}

func barDedupKey(b types.Bar) string {
	return b.Symbol + "|" + b.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00")
}

func (s *Store) writeBarsFile(path string, bars []types.Bar, compression Compression) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "creating partition directory for %s", path)
	}

	codec, err := compression.copyOption()
	if err != nil {
		return err
	}

	tableName := "bars_stage_" + uuidSlug()

	if _, err := s.db.Exec(fmt.Sprintf(`CREATE TEMP TABLE %s (symbol TEXT, timestamp TIMESTAMPTZ, interval TEXT, open DOUBLE, high DOUBLE, low DOUBLE, close DOUBLE, volume DOUBLE)`, tableName)); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "creating staging table")
	}
	defer s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableName)) //nolint:errcheck

	stmt, err := s.db.Prepare(fmt.Sprintf(`INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, tableName))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "preparing insert statement")
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(b.Symbol, b.Timestamp, string(b.Interval), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "inserting bar row")
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET, COMPRESSION %s)`, tableName, path, codec)); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "writing parquet file %s", path)
	}

	return nil
}

func uuidSlug() string {
	return "t" + uuid.New().String()[:8]
}
