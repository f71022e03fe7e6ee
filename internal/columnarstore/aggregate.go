package columnarstore

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// AggregateTicksTo1s groups ticks by floor(timestamp, 1s) and emits one bar
// per bucket: open=first price, high=max, low=min, close=last, volume=Σsize.
func AggregateTicksTo1s(ticks []types.Tick) []types.Bar {
	if len(ticks) == 0 {
		return nil
	}

	sorted := make([]types.Tick, len(ticks))
	copy(sorted, ticks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	type bucket struct {
		symbol                          string
		bucketStart                     int64
		loc                             *time.Location
		open, high, low, close, volume float64
		set                             bool
	}

	buckets := make(map[int64]*bucket)
	var order []int64

	for _, t := range sorted {
		floor := t.Timestamp.Unix()

		b, ok := buckets[floor]
		if !ok {
			b = &bucket{symbol: t.Symbol, bucketStart: floor, loc: t.Timestamp.Location()}
			buckets[floor] = b
			order = append(order, floor)
		}

		if !b.set {
			b.open = t.Price
			b.high = t.Price
			b.low = t.Price
			b.set = true
		} else {
			b.high = math.Max(b.high, t.Price)
			b.low = math.Min(b.low, t.Price)
		}

		b.close = t.Price
		b.volume += t.Size
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]types.Bar, 0, len(order))

	for _, key := range order {
		b := buckets[key]
		out = append(out, types.Bar{
			Symbol:    b.symbol,
			Timestamp: time.Unix(b.bucketStart, 0).In(b.loc),
			Interval:  "1s",
			Open:      b.open,
			High:      b.high,
			Low:       b.low,
			Close:     b.close,
			Volume:    b.volume,
		})
	}

	return out
}

// AggregateQuotesBySecond keeps, for each whole-second bucket, the quote
// with the smallest non-negative spread, re-timestamped to the bucket
// start. On a tied spread within a bucket, the earliest-timestamped quote
// wins (spec §8), which requires quotes to be timestamp-sorted before
// bucketing since the first one seen for a tied spread is kept.
func AggregateQuotesBySecond(quotes []types.Quote) []types.Quote {
	if len(quotes) == 0 {
		return nil
	}

	sorted := make([]types.Quote, len(quotes))
	copy(sorted, quotes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	type slot struct {
		quote   types.Quote
		spread  float64
		loc     *time.Location
		present bool
	}

	buckets := make(map[int64]*slot)
	var order []int64

	for _, q := range sorted {
		spread := q.Spread()
		if spread < 0 {
			continue
		}

		floor := q.Timestamp.Unix()

		b, ok := buckets[floor]
		if !ok {
			b = &slot{loc: q.Timestamp.Location()}
			buckets[floor] = b
			order = append(order, floor)
		}

		if !b.present || spread < b.spread {
			b.quote = q
			b.spread = spread
			b.present = true
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]types.Quote, 0, len(order))

	for _, key := range order {
		b := buckets[key]
		if !b.present {
			continue
		}

		q := b.quote
		q.Timestamp = time.Unix(key, 0).In(b.loc)
		out = append(out, q)
	}

	return out
}
