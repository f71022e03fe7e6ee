package columnarstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// confirmToken is the exact string callers must pass to DeleteSymbol and
// DeleteAll, guarding against an accidental call deleting real history.
const confirmToken = "CONFIRM_DELETE"

// DeleteSymbol removes a symbol's bar partitions, optionally restricted to
// one interval and/or a date range. Both interval and dateRange are
// optional; omitting both deletes every interval's full history for the
// symbol.
func (s *Store) DeleteSymbol(exchangeGroup, symbol string, interval *types.Interval, start, end *time.Time, confirm string) error {
	if confirm != confirmToken {
		return apperrors.New(apperrors.ErrCodeValidationMissingParameter, "DeleteSymbol requires the confirmation token")
	}

	intervals := []types.Interval{}

	if interval != nil {
		intervals = append(intervals, *interval)
	} else {
		found, err := s.AvailableIntervals(exchangeGroup, symbol)
		if err != nil {
			return err
		}

		intervals = found
	}

	for _, iv := range intervals {
		dir := barSymbolDir(s.root, exchangeGroup, iv, symbol)

		if start == nil && end == nil {
			if err := os.RemoveAll(dir); err != nil {
				return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "deleting %s", dir)
			}

			continue
		}

		if err := deletePartitionsInRange(dir, start, end); err != nil {
			return err
		}
	}

	return nil
}

// DeleteAll wipes an entire exchange group's bar and quote history.
func (s *Store) DeleteAll(exchangeGroup, confirm string) error {
	if confirm != confirmToken {
		return apperrors.New(apperrors.ErrCodeValidationMissingParameter, "DeleteAll requires the confirmation token")
	}

	dir := filepath.Join(s.root, exchangeGroup)
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Wrapf(apperrors.ErrCodeIOFileWrite, err, "deleting exchange group %s", dir)
	}

	return nil
}

func deletePartitionsInRange(dir string, start, end *time.Time) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}

		date, parseErr := parsePartitionDate(rel)
		if parseErr != nil {
			return nil
		}

		if start != nil && date.Before(*start) {
			return nil
		}

		if end != nil && date.After(*end) {
			return nil
		}

		return os.Remove(path)
	})
}
