// Package columnarstore implements a Parquet-backed, exchange-timezone-day
// partitioned store for bars and quotes, with DuckDB as the read/write
// engine. Files hold timezone-aware timestamps in the exchange's own
// timezone; there is no UTC conversion on read or write (spec §4.2).
package columnarstore

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
	"go.uber.org/zap"
)

// Store is a partitioned Parquet columnar store rooted at a directory.
type Store struct {
	root string
	db   *sql.DB
	sq   squirrel.StatementBuilderType
	log  *logger.Logger
}

// New opens an in-process DuckDB connection used to read and write Parquet
// files under root. DuckDB itself holds no persistent state across
// restarts; every query reads directly from the Parquet files on disk.
func New(root string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "creating store root %s", root)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "opening duckdb connection")
	}

	return &Store{
		root: root,
		db:   db,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log:  log,
	}, nil
}

// Close releases the DuckDB connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) debugf(msg string, fields ...zap.Field) {
	if s.log != nil {
		s.log.Debug(msg, fields...)
	}
}

// anyParquetUnder reports whether dir contains at least one .parquet file,
// searched recursively. filepath.Glob doesn't support "**", so existence is
// checked with a walk while the actual read still uses DuckDB's own
// recursive glob support.
func anyParquetUnder(dir string) bool {
	found := false

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // missing partitions are not an error, see createReadView
		}

		if !d.IsDir() && strings.HasSuffix(path, ".parquet") {
			found = true
		}

		return nil
	})

	return found
}

// glob-read a set of parquet files into a view. Returns false if no file
// under dir exists (spec §4.2: missing files => empty result).
func (s *Store) createReadView(viewName, glob, dir string) (bool, error) {
	if !anyParquetUnder(dir) {
		return false, nil
	}

	if _, err := s.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, viewName)); err != nil {
		return false, apperrors.Wrapf(apperrors.ErrCodeIOQueryFailed, err, "dropping view %s", viewName)
	}

	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s', union_by_name=true)`, viewName, glob)
	if _, err := s.db.Exec(query); err != nil {
		s.debugf("malformed partition set, skipping", zap.String("glob", glob), zap.Error(err))

		return false, nil
	}

	return true, nil
}
