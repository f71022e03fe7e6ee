package columnarstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// WriteQuotes applies the same day-granular grouping and dedup-on-append
// policy as WriteBars, keyed on (symbol, timestamp). compression selects
// the Parquet codec (the zero value defaults to ZSTD, spec §6).
func (s *Store) WriteQuotes(quotes []types.Quote, symbol, exchangeGroup string, loc *time.Location, compression Compression, append bool) (int, []string, error) {
	if len(quotes) == 0 {
		return 0, nil, nil
	}

	groups := make(map[string][]types.Quote)

	for _, q := range quotes {
		local := q.Timestamp.In(loc)
		key := local.Format("2006-01-02")
		groups[key] = append(groups[key], q)
	}

	var (
		totalRows int
		files     []string
	)

	for _, groupQuotes := range groups {
		sample := groupQuotes[0].Timestamp.In(loc)
		path := quotePath(s.root, exchangeGroup, symbol, sample)

		final := groupQuotes

		var err error
		if append {
			final, err = s.mergeQuotesWithExisting(path, groupQuotes)
			if err != nil {
				return totalRows, files, err
			}
		} else {
			sort.Slice(final, func(i, j int) bool { return final[i].Timestamp.Before(final[j].Timestamp) })
		}

		if err := s.writeQuotesFile(path, final, compression); err != nil {
			return totalRows, files, err
		}

		totalRows += len(final)
		files = append(files, path)
	}

	return totalRows, files, nil
}

func (s *Store) readQuotesFileRaw(path string) ([]types.Quote, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	viewName := "merge_quote_src_" + uuidSlug()

	if _, err := s.db.Exec(fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s')`, viewName, path)); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "reading existing quote partition %s", path)
	}
	defer s.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, viewName)) //nolint:errcheck

	rows, err := s.db.Query(fmt.Sprintf(`SELECT symbol, timestamp, bid_price, ask_price, bid_size, ask_size, exchange, spread FROM %s`, viewName))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "scanning existing quote partition %s", path)
	}
	defer rows.Close()

	var out []types.Quote

	for rows.Next() {
		var (
			q      types.Quote
			spread float64
		)

		if err := rows.Scan(&q.Symbol, &q.Timestamp, &q.BidPrice, &q.AskPrice, &q.BidSize, &q.AskSize, &q.Exchange, &spread); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "decoding quote row from %s", path)
		}

		out = append(out, q)
	}

	return out, rows.Err()
}

func (s *Store) mergeQuotesWithExisting(path string, incoming []types.Quote) ([]types.Quote, error) {
	existing, err := s.readQuotesFileRaw(path)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]types.Quote, len(existing)+len(incoming))

	for _, q := range existing {
		byKey[quoteDedupKey(q)] = q
	}

	for _, q := range incoming {
		byKey[quoteDedupKey(q)] = q
	}

	merged := make([]types.Quote, 0, len(byKey))
	for _, q := range byKey {
		merged = append(merged, q)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	return merged, nil
}

func quoteDedupKey(q types.Quote) string {
	return q.Symbol + "|" + q.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00")
}

func (s *Store) writeQuotesFile(path string, quotes []types.Quote, compression Compression) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "creating quote partition directory for %s", path)
	}

	codec, err := compression.copyOption()
	if err != nil {
		return err
	}

	tableName := "quotes_stage_" + uuidSlug()

	if _, err := s.db.Exec(fmt.Sprintf(`CREATE TEMP TABLE %s (symbol TEXT, timestamp TIMESTAMPTZ, bid_price DOUBLE, ask_price DOUBLE, bid_size DOUBLE, ask_size DOUBLE, exchange TEXT, spread DOUBLE)`, tableName)); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "creating quote staging table")
	}
	defer s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableName)) //nolint:errcheck

	stmt, err := s.db.Prepare(fmt.Sprintf(`INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, tableName))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "preparing quote insert statement")
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.Exec(q.Symbol, q.Timestamp, q.BidPrice, q.AskPrice, q.BidSize, q.AskSize, q.Exchange, q.Spread()); err != nil {
			return apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "inserting quote row")
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET, COMPRESSION %s)`, tableName, path, codec)); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "writing quote parquet file %s", path)
	}

	return nil
}
