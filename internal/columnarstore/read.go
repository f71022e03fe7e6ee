package columnarstore

import (
	"fmt"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// ReadBars enumerates every partition file for (interval, symbol),
// concatenates, sorts by timestamp, and optionally restricts to [start,
// end]. Missing files return an empty slice, never an error (spec §4.2).
func (s *Store) ReadBars(interval types.Interval, symbol, exchangeGroup string, start, end *time.Time) ([]types.Bar, error) {
	dir := barSymbolDir(s.root, exchangeGroup, interval, symbol)
	glob := barGlob(s.root, exchangeGroup, interval, symbol)

	viewName := "read_bars_" + uuidSlug()

	ok, err := s.createReadView(viewName, glob, dir)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}
	defer s.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, viewName)) //nolint:errcheck

	query := fmt.Sprintf(`SELECT symbol, timestamp, interval, open, high, low, close, volume FROM %s WHERE symbol = ?`, viewName)
	args := []any{symbol}

	if start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *start)
	}

	if end != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *end)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "reading bars for %s/%s", symbol, interval)
	}
	defer rows.Close()

	var out []types.Bar

	for rows.Next() {
		var b types.Bar

		var iv string
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &iv, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "decoding bar row")
		}

		b.Interval = types.Interval(iv)
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, rows.Err()
}

// ReadQuotes is the quote analog of ReadBars.
func (s *Store) ReadQuotes(symbol, exchangeGroup string, start, end *time.Time) ([]types.Quote, error) {
	dir := quoteSymbolDir(s.root, exchangeGroup, symbol)
	glob := quoteGlob(s.root, exchangeGroup, symbol)

	viewName := "read_quotes_" + uuidSlug()

	ok, err := s.createReadView(viewName, glob, dir)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}
	defer s.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, viewName)) //nolint:errcheck

	query := fmt.Sprintf(`SELECT symbol, timestamp, bid_price, ask_price, bid_size, ask_size, exchange, spread FROM %s WHERE symbol = ?`, viewName)
	args := []any{symbol}

	if start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *start)
	}

	if end != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *end)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "reading quotes for %s", symbol)
	}
	defer rows.Close()

	var out []types.Quote

	for rows.Next() {
		var (
			q      types.Quote
			spread float64
		)

		if err := rows.Scan(&q.Symbol, &q.Timestamp, &q.BidPrice, &q.AskPrice, &q.BidSize, &q.AskSize, &q.Exchange, &spread); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "decoding quote row")
		}

		out = append(out, q)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, rows.Err()
}

// RegularHoursFilter restricts a bar sequence to ts within [open, close)
// for that bar's exchange-local date, given already-resolved session
// boundaries. Kept separate from ReadBars so the facade can supply
// TimeService-derived sessions without this package depending on
// TimeService directly (spec §9: dependency injection over cyclic refs).
func RegularHoursFilter(bars []types.Bar, openAt func(d time.Time) (time.Time, time.Time, bool)) []types.Bar {
	out := make([]types.Bar, 0, len(bars))

	for _, b := range bars {
		open, closeTime, ok := openAt(b.Timestamp)
		if !ok {
			continue
		}

		if !b.Timestamp.Before(open) && b.Timestamp.Before(closeTime) {
			out = append(out, b)
		}
	}

	return out
}
