// Package replayqueue implements ReplayQueueCoordinator (spec §4.5): one
// FIFO per (symbol, interval) fed by background producers, merged into a
// single chronologically-ordered pull stream for backtest replay. A
// single condition variable multiplexes every producer and the one
// consumer goroutine that drains the merged stream.
package replayqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Kind orders items of equal timestamp within the deterministic tie-break:
// bar < tick < quote, per spec §4.5.
type Kind int

const (
	KindBar Kind = iota
	KindTick
	KindQuote
)

// Item is one element of the merged replay stream.
type Item struct {
	Symbol    string
	Interval  types.Interval
	Kind      Kind
	Timestamp time.Time
	Bar       types.Bar
	Tick      types.Tick
	Quote     types.Quote
}

type queueKey struct {
	symbol   string
	interval types.Interval
	kind     Kind
}

// QueueStats describes one queue's current occupancy for monitoring.
type QueueStats struct {
	Size     int
	OldestTS time.Time
	NewestTS time.Time
}

// Coordinator owns every registered (symbol, interval) queue and exposes
// the merged chronological stream consumed by a single backtest replay
// worker.
type Coordinator struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queues    map[queueKey]*queue
	exhausted map[queueKey]bool
	stopped   bool
}

type queue struct {
	items []Item
}

// New builds an empty Coordinator.
func New() *Coordinator {
	c := &Coordinator{
		queues:    make(map[queueKey]*queue),
		exhausted: make(map[queueKey]bool),
	}
	c.cond = sync.NewCond(&c.mu)

	return c
}

// RegisterStream creates an empty queue for (symbol, interval, kind).
// Refuses a duplicate registration with an InvariantViolation, per spec
// §4.5/§7.
func (c *Coordinator) RegisterStream(symbol string, interval types.Interval, kind Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := queueKey{symbol, interval, kind}
	if _, exists := c.queues[key]; exists {
		return apperrors.Newf(apperrors.ErrCodeInvariantDuplicateStream, "stream already registered for %s/%s", symbol, interval)
	}

	c.queues[key] = &queue{}

	return nil
}

// FeedBars background-populates a registered bar queue from bars (already
// sorted ascending) until exhausted. Call from a producer goroutine; it
// marks the queue exhausted and wakes the consumer on completion.
func (c *Coordinator) FeedBars(symbol string, interval types.Interval, bars []types.Bar) {
	c.mu.Lock()
	key := queueKey{symbol, interval, KindBar}

	q, ok := c.queues[key]
	if !ok {
		c.mu.Unlock()

		return
	}

	for _, b := range bars {
		q.items = append(q.items, Item{Symbol: symbol, Interval: interval, Kind: KindBar, Timestamp: b.Timestamp, Bar: b})
	}

	c.exhausted[key] = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// FeedQuotes background-populates a registered quote queue.
func (c *Coordinator) FeedQuotes(symbol string, quotes []types.Quote) {
	c.mu.Lock()
	key := queueKey{symbol, "", KindQuote}

	q, ok := c.queues[key]
	if !ok {
		c.mu.Unlock()

		return
	}

	for _, qt := range quotes {
		q.items = append(q.items, Item{Symbol: symbol, Kind: KindQuote, Timestamp: qt.Timestamp, Quote: qt})
	}

	c.exhausted[key] = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// allExhausted reports whether every registered queue has been marked
// exhausted (caller holds c.mu).
func (c *Coordinator) allExhausted() bool {
	for key := range c.queues {
		if !c.exhausted[key] {
			return false
		}
	}

	return true
}

// next pops the earliest Item across every non-empty queue, breaking ties
// by (symbol ascending, kind ascending: bar < tick < quote). Caller holds
// c.mu. Returns ok=false if every queue is currently empty.
func (c *Coordinator) next() (Item, bool) {
	keys := make([]queueKey, 0, len(c.queues))
	for k := range c.queues {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}

		return keys[i].kind < keys[j].kind
	})

	bestKey := queueKey{}
	found := false

	var best Item

	for _, k := range keys {
		q := c.queues[k]
		if len(q.items) == 0 {
			continue
		}

		front := q.items[0]
		if !found || front.Timestamp.Before(best.Timestamp) ||
			(front.Timestamp.Equal(best.Timestamp) && lessTie(k, bestKey)) {
			best, bestKey, found = front, k, true
		}
	}

	if !found {
		return Item{}, false
	}

	q := c.queues[bestKey]
	q.items = q.items[1:]

	return best, true
}

func lessTie(a, b queueKey) bool {
	if a.symbol != b.symbol {
		return a.symbol < b.symbol
	}

	return a.kind < b.kind
}

// GetMergedStream returns a pull iterator: each call to Next blocks until
// an item is available, every queue is exhausted and empty, or Stop is
// called.
func (c *Coordinator) GetMergedStream() *MergedStream {
	return &MergedStream{c: c}
}

// MergedStream is the pull-iterator handle spec §4.5 describes.
type MergedStream struct {
	c *Coordinator
}

// Next blocks until the next chronologically-earliest item is ready, or
// returns ok=false once every queue is exhausted and drained, or the
// coordinator is stopped.
func (m *MergedStream) Next() (Item, bool) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()

	for {
		if item, ok := m.c.next(); ok {
			return item, true
		}

		if m.c.stopped || m.c.allExhausted() {
			return Item{}, false
		}

		m.c.cond.Wait()
	}
}

// Stop wakes every blocked Next call and causes them to return ok=false,
// used by SessionCoordinator.Stop/stop_all_streams.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Reset clears every queue and exhaustion flag, used between backtest
// sessions.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queues = make(map[queueKey]*queue)
	c.exhausted = make(map[queueKey]bool)
	c.stopped = false
}

// QueueStats reports {symbol: {interval: stats}} for bar queues, per spec
// §4.5's monitoring view.
func (c *Coordinator) QueueStats() map[string]map[string]QueueStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]map[string]QueueStats)

	for key, q := range c.queues {
		if key.kind != KindBar {
			continue
		}

		bySymbol, ok := out[key.symbol]
		if !ok {
			bySymbol = make(map[string]QueueStats)
			out[key.symbol] = bySymbol
		}

		stats := QueueStats{Size: len(q.items)}
		if len(q.items) > 0 {
			stats.OldestTS = q.items[0].Timestamp
			stats.NewestTS = q.items[len(q.items)-1].Timestamp
		}

		bySymbol[string(key.interval)] = stats
	}

	return out
}

// PendingItems returns the front item of every non-empty queue, for
// monitoring and chronological-ordering validation (spec §4.5).
func (c *Coordinator) PendingItems() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, 0, len(c.queues))

	for _, q := range c.queues {
		if len(q.items) > 0 {
			out = append(out, q.items[0])
		}
	}

	return out
}
