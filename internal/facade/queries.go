package facade

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// GetBars reads a bar range. In backtest mode the end bound is clamped to
// current_time() so a strategy can never see into its own future; in live
// mode the requested range is read from the store as-is.
func (f *Facade) GetBars(symbol string, interval types.Interval, start, end time.Time) ([]types.Bar, error) {
	end, err := f.clampToCurrentTime(end)
	if err != nil {
		return nil, err
	}

	return f.store.ReadBars(interval, symbol, f.exchangeGroup, &start, &end)
}

// GetLatestBar returns the most recent bar for (symbol, interval). In live
// mode it tries the provider first for current-day data and falls back to
// the store if the provider has nothing yet; in backtest mode it always
// reads the store, clamped to current_time().
func (f *Facade) GetLatestBar(ctx context.Context, symbol string, interval types.Interval) (types.Bar, bool, error) {
	if f.ts.Mode() == timeservice.ModeLive {
		if bar, ok, err := f.latestBarFromProvider(ctx, symbol, interval); err == nil && ok {
			return bar, true, nil
		}
	}

	now, err := f.ts.CurrentTime(nil)
	if err != nil {
		return types.Bar{}, false, err
	}

	bars, err := f.store.ReadBars(interval, symbol, f.exchangeGroup, nil, &now)
	if err != nil || len(bars) == 0 {
		return types.Bar{}, false, err
	}

	return bars[len(bars)-1], true, nil
}

func (f *Facade) latestBarFromProvider(ctx context.Context, symbol string, interval types.Interval) (types.Bar, bool, error) {
	p, err := f.provider()
	if err != nil {
		return types.Bar{}, false, err
	}

	end := time.Now()
	start := end.Add(-24 * time.Hour)

	bars, err := p.FetchBars(ctx, symbol, start, end, interval)
	if err != nil || len(bars) == 0 {
		return types.Bar{}, false, err
	}

	return bars[len(bars)-1], true, nil
}

// GetTicks reads a tick range from the store.
func (f *Facade) GetTicks(symbol string, start, end time.Time) ([]types.Tick, error) {
	bars, err := f.GetBars(symbol, "1s", start, end)
	if err != nil {
		return nil, err
	}

	return ticksFromBars(bars), nil
}

// GetLatestTick returns the most recent 1s-aggregated tick bar rendered
// back as a synthetic tick (close price, cumulative volume as size).
func (f *Facade) GetLatestTick(symbol string) (types.Tick, bool, error) {
	now, err := f.ts.CurrentTime(nil)
	if err != nil {
		return types.Tick{}, false, err
	}

	bars, err := f.store.ReadBars("1s", symbol, f.exchangeGroup, nil, &now)
	if err != nil || len(bars) == 0 {
		return types.Tick{}, false, err
	}

	last := bars[len(bars)-1]

	return types.Tick{Symbol: last.Symbol, Timestamp: last.Timestamp, Price: last.Close, Size: last.Volume}, true, nil
}

// GetQuotes reads a quote range from the store.
func (f *Facade) GetQuotes(symbol string, start, end time.Time) ([]types.Quote, error) {
	end, err := f.clampToCurrentTime(end)
	if err != nil {
		return nil, err
	}

	return f.store.ReadQuotes(symbol, f.exchangeGroup, &start, &end)
}

// GetLatestQuote returns the most recent stored quote for symbol.
func (f *Facade) GetLatestQuote(symbol string) (types.Quote, bool, error) {
	now, err := f.ts.CurrentTime(nil)
	if err != nil {
		return types.Quote{}, false, err
	}

	quotes, err := f.store.ReadQuotes(symbol, f.exchangeGroup, nil, &now)
	if err != nil || len(quotes) == 0 {
		return types.Quote{}, false, err
	}

	return quotes[len(quotes)-1], true, nil
}

func (f *Facade) clampToCurrentTime(end time.Time) (time.Time, error) {
	if f.ts.Mode() != timeservice.ModeBacktest {
		return end, nil
	}

	now, err := f.ts.CurrentTime(nil)
	if err != nil {
		return end, err
	}

	if end.After(now) {
		return now, nil
	}

	return end, nil
}

func ticksFromBars(bars []types.Bar) []types.Tick {
	ticks := make([]types.Tick, 0, len(bars))

	for _, b := range bars {
		ticks = append(ticks, types.Tick{Symbol: b.Symbol, Timestamp: b.Timestamp, Price: b.Close, Size: b.Volume})
	}

	if len(ticks) == 0 {
		return nil
	}

	return ticks
}
