package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

const binancePageSize = 1000

// klinesService is the subset of binance.KlinesService BinanceProvider
// depends on, narrowed so tests can substitute a fake. Grounded on the
// teacher's BinanceKlinesService wrapper-interface pattern.
type klinesService interface {
	Symbol(symbol string) klinesService
	Interval(interval string) klinesService
	StartTime(t int64) klinesService
	EndTime(t int64) klinesService
	Limit(n int) klinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

type realKlinesService struct {
	svc *binance.KlinesService
}

func (r *realKlinesService) Symbol(symbol string) klinesService {
	r.svc = r.svc.Symbol(symbol)
	return r
}

func (r *realKlinesService) Interval(interval string) klinesService {
	r.svc = r.svc.Interval(interval)
	return r
}

func (r *realKlinesService) StartTime(t int64) klinesService {
	r.svc = r.svc.StartTime(t)
	return r
}

func (r *realKlinesService) EndTime(t int64) klinesService {
	r.svc = r.svc.EndTime(t)
	return r
}

func (r *realKlinesService) Limit(n int) klinesService {
	r.svc = r.svc.Limit(n)
	return r
}

func (r *realKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return r.svc.Do(ctx)
}

// BinanceProvider fetches historical klines from Binance's public market
// data API (no authentication required). Ticks and quotes are not exposed
// by the klines endpoint; FetchTicks/FetchQuotes report
// ErrCodeValidationInvalidType.
type BinanceProvider struct {
	newKlines klinesService
	limiter   *rate.Limiter
}

// NewBinanceProvider builds a provider rate-limited to stay well under
// Binance's public weight budget for the klines endpoint.
func NewBinanceProvider() *BinanceProvider {
	client := binance.NewClient("", "")

	return &BinanceProvider{
		newKlines: &realKlinesService{svc: client.NewKlinesService()},
		limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
	}
}

func (b *BinanceProvider) Name() Type { return Binance }

func (b *BinanceProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Bar, error) {
	binInterval, err := binanceInterval(interval)
	if err != nil {
		return nil, err
	}

	var (
		bars      []types.Bar
		cursor    = start.UnixMilli()
		endMillis = end.UnixMilli()
	)

	for cursor < endMillis {
		if err := b.limiter.Wait(ctx); err != nil {
			return bars, apperrors.Wrap(apperrors.ErrCodeIOProvider, err, "rate limiter wait")
		}

		klines, err := b.newKlines.
			Symbol(symbol).
			Interval(binInterval).
			StartTime(cursor).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return bars, apperrors.Wrapf(apperrors.ErrCodeIOProvider, err, "fetching binance klines for %s", symbol)
		}

		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bars = append(bars, klineToBar(symbol, interval, k))
		}

		last := klines[len(klines)-1]
		cursor = last.CloseTime + 1

		if len(klines) < binancePageSize {
			break
		}
	}

	return bars, nil
}

func (b *BinanceProvider) FetchTicks(ctx context.Context, symbol string, start, end time.Time) ([]types.Tick, error) {
	return nil, unsupportedDataType(Binance, DataTypeTicks)
}

func (b *BinanceProvider) FetchQuotes(ctx context.Context, symbol string, start, end time.Time) ([]types.Quote, error) {
	return nil, unsupportedDataType(Binance, DataTypeQuotes)
}

func klineToBar(symbol string, interval types.Interval, k *binance.Kline) types.Bar {
	open, _ := strconv.ParseFloat(k.Open, 64)
	high, _ := strconv.ParseFloat(k.High, 64)
	low, _ := strconv.ParseFloat(k.Low, 64)
	closePrice, _ := strconv.ParseFloat(k.Close, 64)
	volume, _ := strconv.ParseFloat(k.Volume, 64)

	return types.Bar{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(k.OpenTime),
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}
}

// binanceInterval maps a types.Interval to Binance's kline interval string.
// Binance has no native "tick" or sub-minute interval below 1s.
func binanceInterval(interval types.Interval) (string, error) {
	amount, unit, err := types.ParseInterval(string(interval))
	if err != nil {
		return "", err
	}

	switch unit {
	case 's':
		if amount != 1 {
			return "", apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "binance only supports 1s, not %s", interval)
		}

		return "1s", nil
	case 'm', 'd', 'w':
		return string(interval), nil
	default:
		return "", apperrors.Newf(apperrors.ErrCodeValidationBadInterval, "interval unit %q not supported by binance", unit)
	}
}
