// Package facade implements MarketDataFacade (spec §4.3): a uniform,
// mode-aware API over ColumnarStore and the provider adapters, so
// downstream consumers never need to know whether a query is served from
// disk or from a live vendor.
package facade

import (
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Facade is the default MarketDataFacade implementation.
type Facade struct {
	store         *columnarstore.Store
	ts            timeservice.TimeService
	exchangeGroup string
	assetClass    string
	providers     map[provider.Type]provider.Provider
	selected      provider.Type
	log           *logger.Logger
}

// New builds a Facade bound to one exchange group/asset class pair (the
// pair ColumnarStore partitions by and TimeService resolves sessions for).
// providers may be empty; import_from_api then reports
// ErrCodeConfigurationUnknownExchange for the missing vendor, and live-mode
// GetLatestBar falls back to the store (GetLatestTick and GetLatestQuote
// always read the store).
func New(store *columnarstore.Store, ts timeservice.TimeService, exchangeGroup, assetClass string, providers map[provider.Type]provider.Provider, selected provider.Type, log *logger.Logger) *Facade {
	return &Facade{
		store:         store,
		ts:            ts,
		exchangeGroup: exchangeGroup,
		assetClass:    assetClass,
		providers:     providers,
		selected:      selected,
		log:           log,
	}
}

func (f *Facade) provider() (provider.Provider, error) {
	p, ok := f.providers[f.selected]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigurationUnknownExchange, "no provider configured for %q", f.selected)
	}

	return p, nil
}

// NormalizeInterval applies spec §4.3's integer-vs-label normalization: a
// bare integer N means "Nm" (N-minute bars), and "tick" is rewritten to the
// 1-second bars tick data gets aggregated into.
func NormalizeInterval(raw string) (types.Interval, error) {
	raw = strings.TrimSpace(raw)

	if raw == "tick" {
		return "1s", nil
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return types.Interval(strconv.Itoa(n) + "m"), nil
	}

	if _, _, err := types.ParseInterval(raw); err != nil {
		return "", err
	}

	return types.Interval(raw), nil
}
