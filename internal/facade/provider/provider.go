// Package provider adapts third-party market data vendors to a single
// fetch-based contract the facade's import_from_api operation can call
// without knowing which vendor is behind it.
package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Type names a supported market data vendor.
type Type string

const (
	Polygon Type = "polygon"
	Binance Type = "binance"
)

// DataType is the kind of series import_from_api can request.
type DataType string

const (
	DataTypeBars   DataType = "bars"
	DataTypeTicks  DataType = "ticks"
	DataTypeQuotes DataType = "quotes"
)

// Provider fetches historical market data for a bounded range. Providers are
// not required to support every DataType; unsupported combinations return an
// ErrCodeValidationInvalidType error so the facade can surface a clear cause
// instead of a generic failure.
type Provider interface {
	Name() Type
	FetchBars(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Bar, error)
	FetchTicks(ctx context.Context, symbol string, start, end time.Time) ([]types.Tick, error)
	FetchQuotes(ctx context.Context, symbol string, start, end time.Time) ([]types.Quote, error)
}

// New constructs the provider registered under providerType. apiKey is
// required for Polygon and ignored for Binance, whose public market data
// endpoints need no authentication.
func New(providerType Type, apiKey string) (Provider, error) {
	switch providerType {
	case Polygon:
		return NewPolygonProvider(apiKey)
	case Binance:
		return NewBinanceProvider(), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeConfigurationUnknownExchange, "unsupported market data provider %q", providerType)
	}
}

// unsupportedDataType is the shared error for a provider/data-type
// combination neither vendor's API can serve (e.g. Polygon tick trades
// require a different, unimplemented endpoint than aggregates).
func unsupportedDataType(name Type, dt DataType) error {
	return apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "provider %q does not support fetching %q", name, dt)
}
