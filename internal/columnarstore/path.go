package columnarstore

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// isSubDaily reports whether an interval's granularity strategy is
// day-file (Ns, Nm) rather than year-file (1d, Nd, 1w, Nw), per spec §4.2.
func isSubDaily(interval types.Interval) (bool, error) {
	_, unit, err := types.ParseInterval(string(interval))
	if err != nil {
		return false, err
	}

	return unit == 's' || unit == 'm', nil
}

// barPath returns the on-disk path for one partition of one interval/symbol,
// given an exchange-local date. For sub-daily intervals the file is
// day-granular; for daily+ intervals it is year-granular.
func barPath(root, exchangeGroup string, interval types.Interval, symbol string, localDate time.Time) (string, error) {
	subDaily, err := isSubDaily(interval)
	if err != nil {
		return "", err
	}

	base := filepath.Join(root, exchangeGroup, "bars", string(interval), symbol)

	if subDaily {
		return filepath.Join(base, fmt.Sprintf("%04d", localDate.Year()), fmt.Sprintf("%02d", localDate.Month()), fmt.Sprintf("%02d.parquet", localDate.Day())), nil
	}

	return filepath.Join(base, fmt.Sprintf("%04d.parquet", localDate.Year())), nil
}

// barGlob returns a glob matching every partition file for (interval, symbol).
func barGlob(root, exchangeGroup string, interval types.Interval, symbol string) string {
	return filepath.Join(root, exchangeGroup, "bars", string(interval), symbol, "**", "*.parquet")
}

// barSymbolDir returns the directory holding every partition for (interval, symbol).
func barSymbolDir(root, exchangeGroup string, interval types.Interval, symbol string) string {
	return filepath.Join(root, exchangeGroup, "bars", string(interval), symbol)
}

// barIntervalDir returns the directory holding every symbol for one interval.
func barIntervalDir(root, exchangeGroup string, interval types.Interval) string {
	return filepath.Join(root, exchangeGroup, "bars", string(interval))
}

// quotePath is always daily-granular.
func quotePath(root, exchangeGroup, symbol string, localDate time.Time) string {
	return filepath.Join(root, exchangeGroup, "quotes", symbol,
		fmt.Sprintf("%04d", localDate.Year()), fmt.Sprintf("%02d", localDate.Month()), fmt.Sprintf("%02d.parquet", localDate.Day()))
}

func quoteGlob(root, exchangeGroup, symbol string) string {
	return filepath.Join(root, exchangeGroup, "quotes", symbol, "**", "*.parquet")
}

func quoteSymbolDir(root, exchangeGroup, symbol string) string {
	return filepath.Join(root, exchangeGroup, "quotes", symbol)
}
