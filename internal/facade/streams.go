package facade

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// BarEvent is one item of a bar stream: either a bar or a terminal error.
type BarEvent struct {
	Bar types.Bar
	Err error
}

// QuoteEvent is one item of a quote stream.
type QuoteEvent struct {
	Quote types.Quote
	Err   error
}

const livePollInterval = 2 * time.Second

// StartBarStreams pre-populates one ReplayQueue per symbol from the store,
// covering the current trading day up to current_time(), per spec §4.3.
func (f *Facade) StartBarStreams(symbols []string, interval types.Interval) (map[string]*types.ReplayQueue, error) {
	now, err := f.ts.CurrentTime(nil)
	if err != nil {
		return nil, err
	}

	loc, err := f.ts.MarketTimezone(f.exchangeGroup, f.assetClass)
	if err != nil {
		return nil, err
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	queues := make(map[string]*types.ReplayQueue, len(symbols))

	for _, symbol := range symbols {
		bars, err := f.store.ReadBars(interval, symbol, f.exchangeGroup, &dayStart, &now)
		if err != nil {
			return nil, err
		}

		q := types.NewReplayQueue(symbol, interval)
		for _, b := range bars {
			q.Push(b)
		}

		queues[symbol] = q
	}

	return queues, nil
}

// StreamBars yields bars from queues in strict chronological order
// (alphabetical symbol as the deterministic tie-break) in backtest mode, or
// polls the provider at a fixed cadence in live mode. The returned
// cancellation function stops the stream and closes the channel.
func (f *Facade) StreamBars(ctx context.Context, symbols []string, interval types.Interval, queues map[string]*types.ReplayQueue) (<-chan BarEvent, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan BarEvent)

	if f.ts.Mode() == timeservice.ModeLive {
		go f.pollBarsLive(ctx, symbols, interval, out)
	} else {
		go f.replayBars(ctx, queues, out)
	}

	return out, cancel
}

func (f *Facade) replayBars(ctx context.Context, queues map[string]*types.ReplayQueue, out chan<- BarEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		symbol, ok := nextQueueSymbol(queues)
		if !ok {
			return
		}

		bar, _ := queues[symbol].Pop()

		select {
		case out <- BarEvent{Bar: bar}:
		case <-ctx.Done():
			return
		}
	}
}

func nextQueueSymbol(queues map[string]*types.ReplayQueue) (string, bool) {
	symbols := make([]string, 0, len(queues))
	for s := range queues {
		symbols = append(symbols, s)
	}

	sort.Strings(symbols)

	best := ""
	found := false

	var bestTime time.Time

	for _, s := range symbols {
		b, ok := queues[s].Front()
		if !ok {
			continue
		}

		if !found || b.Timestamp.Before(bestTime) {
			best, bestTime, found = s, b.Timestamp, true
		}
	}

	return best, found
}

func (f *Facade) pollBarsLive(ctx context.Context, symbols []string, interval types.Interval, out chan<- BarEvent) {
	defer close(out)

	ticker := time.NewTicker(livePollInterval)
	defer ticker.Stop()

	last := make(map[string]time.Time, len(symbols))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, symbol := range symbols {
				bar, ok, err := f.GetLatestBar(ctx, symbol, interval)
				if err != nil {
					select {
					case out <- BarEvent{Err: err}:
					case <-ctx.Done():
						return
					}

					continue
				}

				if !ok || !bar.Timestamp.After(last[symbol]) {
					continue
				}

				last[symbol] = bar.Timestamp

				select {
				case out <- BarEvent{Bar: bar}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// StreamTicks streams the 1s-aggregated tick bars rendered as ticks; ticks
// are always stored as 1s bars per spec §4.2/§4.3, so this reuses StreamBars
// at "1s" and converts each emitted bar.
func (f *Facade) StreamTicks(ctx context.Context, symbols []string, queues map[string]*types.ReplayQueue) (<-chan types.Tick, context.CancelFunc) {
	bars, cancel := f.StreamBars(ctx, symbols, "1s", queues)
	out := make(chan types.Tick)

	go func() {
		defer close(out)

		for ev := range bars {
			if ev.Err != nil {
				continue
			}

			select {
			case out <- types.Tick{Symbol: ev.Bar.Symbol, Timestamp: ev.Bar.Timestamp, Price: ev.Bar.Close, Size: ev.Bar.Volume}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel
}

// StreamQuotes polls the store for new quotes at a fixed cadence in both
// modes (quotes have no provider-fetch path today; see provider.DataTypeQuotes).
func (f *Facade) StreamQuotes(ctx context.Context, symbol string) (<-chan QuoteEvent, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan QuoteEvent)

	go func() {
		defer close(out)

		ticker := time.NewTicker(livePollInterval)
		defer ticker.Stop()

		var lastSeen time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now, err := f.ts.CurrentTime(nil)
				if err != nil {
					select {
					case out <- QuoteEvent{Err: err}:
					case <-ctx.Done():
					}

					continue
				}

				quotes, err := f.store.ReadQuotes(symbol, f.exchangeGroup, &lastSeen, &now)
				if err != nil {
					select {
					case out <- QuoteEvent{Err: err}:
					case <-ctx.Done():
					}

					continue
				}

				for _, q := range quotes {
					if !q.Timestamp.After(lastSeen) {
						continue
					}

					lastSeen = q.Timestamp

					select {
					case out <- QuoteEvent{Quote: q}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, cancel
}
