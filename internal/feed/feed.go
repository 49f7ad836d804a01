// Package feed drives the market-data engine: it polls sources for every
// watched instrument on a schedule, owns the watchlist, distributes each
// accepted observation, and evicts expired history.
package feed

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market/history"
	"github.com/caelum0x/immortal-bnb-sub004/internal/pubsub"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source"
)

// OrderMonitor is the order-monitoring collaborator's price-update hook.
// Fire-and-forget from the feed's perspective.
type OrderMonitor interface {
	OnPriceUpdate(instrument string, price decimal.Decimal)
}

// Broadcaster is the client-facing broadcast channel. At-most-once,
// best-effort; a failed publish is dropped, never retried.
type Broadcaster interface {
	Publish(obs market.Observation) error
}

type Config struct {
	FetchInterval   time.Duration
	JanitorInterval time.Duration
	Retention       time.Duration
	MonitorTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.FetchInterval <= 0 {
		c.FetchInterval = 10 * time.Second
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = time.Hour
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.MonitorTimeout <= 0 {
		c.MonitorTimeout = 2 * time.Second
	}
	return c
}

// Feed is the engine instance. Construct one per process at the
// composition root and inject it; there is no package-level singleton.
type Feed struct {
	cfg      Config
	store    *history.Store
	registry *source.Registry
	monitor  OrderMonitor
	caster   Broadcaster
	bus      *pubsub.Bus

	watchMu   sync.RWMutex
	watchlist map[string]struct{}

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	distMu    sync.Mutex
	distLocks map[string]*sync.Mutex

	runMu  sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup

	cycles       atomic.Uint64
	observations atomic.Uint64
	skips        atomic.Uint64
	evicted      atomic.Uint64

	nowFn func() time.Time
}

func New(cfg Config, store *history.Store, registry *source.Registry, monitor OrderMonitor, caster Broadcaster, bus *pubsub.Bus) *Feed {
	if bus == nil {
		bus = pubsub.New()
	}
	return &Feed{
		cfg:       cfg.withDefaults(),
		store:     store,
		registry:  registry,
		monitor:   monitor,
		caster:    caster,
		bus:       bus,
		watchlist: make(map[string]struct{}),
		inflight:  make(map[string]struct{}),
		distLocks: make(map[string]*sync.Mutex),
		nowFn:     time.Now,
	}
}

// Events exposes the in-process price-updated bus.
func (f *Feed) Events() *pubsub.Bus { return f.bus }

// Watch adds the instrument to future fetch cycles. Idempotent.
func (f *Feed) Watch(instrument string) {
	f.watchMu.Lock()
	_, exists := f.watchlist[instrument]
	f.watchlist[instrument] = struct{}{}
	f.watchMu.Unlock()
	if !exists {
		logger.Infof("feed: watching %s", instrument)
	}
}

// Unwatch stops polling the instrument. Existing history stays readable.
func (f *Feed) Unwatch(instrument string) {
	f.watchMu.Lock()
	_, exists := f.watchlist[instrument]
	delete(f.watchlist, instrument)
	f.watchMu.Unlock()
	if exists {
		logger.Infof("feed: unwatched %s", instrument)
	}
}

// Watched reports watchlist membership.
func (f *Feed) Watched(instrument string) bool {
	f.watchMu.RLock()
	defer f.watchMu.RUnlock()
	_, ok := f.watchlist[instrument]
	return ok
}

// Watchlist returns the current membership, sorted for stable output.
func (f *Feed) Watchlist() []string {
	f.watchMu.RLock()
	out := make([]string, 0, len(f.watchlist))
	for id := range f.watchlist {
		out = append(out, id)
	}
	f.watchMu.RUnlock()
	sort.Strings(out)
	return out
}

// CurrentPrice is the fast-path read of the latest observation.
func (f *Feed) CurrentPrice(instrument string) (market.Observation, bool) {
	return f.store.CurrentPrice(instrument)
}

// History returns the most recent limit entries (all when limit <= 0).
func (f *Feed) History(instrument string, limit int) []market.HistoryEntry {
	return f.store.Recent(instrument, limit)
}

// Candles derives trailing OHLCV candles from the instrument's history.
// An unknown interval is a caller error; count <= 0 yields an empty slice.
func (f *Feed) Candles(instrument, interval string, count int) ([]market.Candle, error) {
	iv, err := market.ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	hist := f.store.Recent(instrument, 0)
	return market.BuildCandles(instrument, hist, iv, count, f.nowFn())
}

// Stats is the read-only observability snapshot. Figures are taken from
// atomic counters and per-shard reads, not a global lock.
type Stats struct {
	WatchlistSize       int       `json:"watchlist_size"`
	TrackedInstruments  int       `json:"tracked_instruments"`
	TotalHistoryEntries int64     `json:"total_history_entries"`
	OldestTimestamp     time.Time `json:"oldest_timestamp"`
	NewestTimestamp     time.Time `json:"newest_timestamp"`
	Cycles              uint64    `json:"cycles"`
	Observations        uint64    `json:"observations"`
	Skips               uint64    `json:"skips"`
	Evicted             uint64    `json:"evicted"`
}

func (f *Feed) Stats() Stats {
	f.watchMu.RLock()
	watching := len(f.watchlist)
	f.watchMu.RUnlock()
	hs := f.store.Stats()
	return Stats{
		WatchlistSize:       watching,
		TrackedInstruments:  hs.TrackedInstruments,
		TotalHistoryEntries: hs.TotalEntries,
		OldestTimestamp:     hs.OldestTimestamp,
		NewestTimestamp:     hs.NewestTimestamp,
		Cycles:              f.cycles.Load(),
		Observations:        f.observations.Load(),
		Skips:               f.skips.Load(),
		Evicted:             f.evicted.Load(),
	}
}
