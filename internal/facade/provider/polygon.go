package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygoniter "github.com/polygon-io/client-go/rest/iter"
	"github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// pageLimit mirrors the teacher's Polygon aggregates page size.
const pageLimit = 50000

// aggsIterator is the subset of polygon-io/client-go's iterator the
// PolygonProvider depends on, narrowed for substitution in tests.
type aggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// aggsClient is the subset of the Polygon REST client PolygonProvider calls,
// narrowed so tests can inject a fake without hitting the network. Grounded
// on the teacher's PolygonAPIClient wrapper-interface pattern.
type aggsClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) aggsIterator
}

type realAggsClient struct {
	client *polygon.Client
}

func (r *realAggsClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) aggsIterator {
	return r.client.ListAggs(ctx, params, options...)
}

var _ aggsIterator = (*polygoniter.Iter[models.Agg])(nil)

// PolygonProvider fetches aggregate bars from Polygon.io. Ticks and quotes
// require Polygon's separate trades/quotes endpoints, which this adapter
// does not implement; FetchTicks/FetchQuotes report ErrCodeValidationInvalidType.
type PolygonProvider struct {
	client  aggsClient
	limiter *rate.Limiter
}

// NewPolygonProvider builds a provider rate-limited to Polygon's free-tier
// cadence (5 requests/minute); paid keys simply burn through the limiter
// more slowly than their entitlement allows, which is a safe default.
func NewPolygonProvider(apiKey string) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, apperrors.New(apperrors.ErrCodeConfigurationMalformed, "polygon provider requires an API key")
	}

	return &PolygonProvider{
		client:  &realAggsClient{client: polygon.New(apiKey)},
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
	}, nil
}

func (p *PolygonProvider) Name() Type { return Polygon }

func (p *PolygonProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Bar, error) {
	amount, unit, err := types.ParseInterval(string(interval))
	if err != nil {
		return nil, err
	}

	timespan, err := polygonTimespan(unit)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIOProvider, err, "rate limiter wait")
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: amount,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(pageLimit)

	it := p.client.ListAggs(ctx, params)

	var bars []types.Bar

	for it.Next() {
		select {
		case <-ctx.Done():
			return bars, ctx.Err()
		default:
		}

		agg := it.Item()
		bars = append(bars, types.Bar{
			Symbol:    symbol,
			Timestamp: time.Time(agg.Timestamp),
			Interval:  interval,
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
		})
	}

	if it.Err() != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeIOProvider, it.Err(), "fetching polygon aggregates for %s", symbol)
	}

	return bars, nil
}

func (p *PolygonProvider) FetchTicks(ctx context.Context, symbol string, start, end time.Time) ([]types.Tick, error) {
	return nil, unsupportedDataType(Polygon, DataTypeTicks)
}

func (p *PolygonProvider) FetchQuotes(ctx context.Context, symbol string, start, end time.Time) ([]types.Quote, error) {
	return nil, unsupportedDataType(Polygon, DataTypeQuotes)
}

func polygonTimespan(unit byte) (models.Timespan, error) {
	switch unit {
	case 's':
		return models.Second, nil
	case 'm':
		return models.Minute, nil
	case 'd':
		return models.Day, nil
	case 'w':
		return models.Week, nil
	default:
		return "", apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval unit %q has no Polygon timespan", unit)
	}
}
