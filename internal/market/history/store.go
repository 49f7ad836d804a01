// Package history owns the bounded per-instrument price history and the
// current-price fast path. No other component mutates this state.
package history

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

const DefaultMaxEntries = 1000

// Store keeps one bounded, chronologically ordered entry sequence per
// instrument plus the most recent full observation. Locking is
// per-instrument so unrelated instruments never contend.
type Store struct {
	maxEntries int

	mu     sync.RWMutex
	shards map[string]*shard

	total atomic.Int64
}

type shard struct {
	mu         sync.RWMutex
	entries    []market.HistoryEntry
	current    market.Observation
	hasCurrent bool
}

func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		maxEntries: maxEntries,
		shards:     make(map[string]*shard),
	}
}

func (s *Store) shardFor(instrument string, create bool) *shard {
	s.mu.RLock()
	sh := s.shards[instrument]
	s.mu.RUnlock()
	if sh != nil || !create {
		return sh
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh = s.shards[instrument]; sh == nil {
		sh = &shard{}
		s.shards[instrument] = sh
	}
	return sh
}

// Append records an accepted observation: the history tail and the current
// price are updated under one shard lock, so a reader can never see a
// current price that is missing from the history tail. When the sequence
// grows past the max bound the oldest entries are dropped head-first.
func (s *Store) Append(obs market.Observation) {
	sh := s.shardFor(obs.Instrument, true)
	sh.mu.Lock()
	sh.entries = append(sh.entries, obs.Entry())
	sh.current = obs
	sh.hasCurrent = true
	added := int64(1)
	if over := len(sh.entries) - s.maxEntries; over > 0 {
		sh.entries = sh.entries[over:]
		added -= int64(over)
	}
	sh.mu.Unlock()
	s.total.Add(added)
}

// Recent returns the most recent limit entries in chronological order.
// limit <= 0 means the full history. The returned slice is a copy.
func (s *Store) Recent(instrument string, limit int) []market.HistoryEntry {
	sh := s.shardFor(instrument, false)
	if sh == nil {
		return nil
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n := len(sh.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]market.HistoryEntry, n)
	copy(out, sh.entries[len(sh.entries)-n:])
	return out
}

// CurrentPrice returns the latest accepted observation for the instrument.
func (s *Store) CurrentPrice(instrument string) (market.Observation, bool) {
	sh := s.shardFor(instrument, false)
	if sh == nil {
		return market.Observation{}, false
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.current, sh.hasCurrent
}

// EvictOlderThan removes every entry observed before cutoff and reports how
// many were dropped. Eviction is strictly head-first, so a concurrent
// append can never lose the freshest entry.
func (s *Store) EvictOlderThan(instrument string, cutoff time.Time) int {
	sh := s.shardFor(instrument, false)
	if sh == nil {
		return 0
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	i := 0
	for i < len(sh.entries) && sh.entries[i].ObservedAt.Before(cutoff) {
		i++
	}
	if i == 0 {
		return 0
	}
	sh.entries = append(sh.entries[:0:0], sh.entries[i:]...)
	s.total.Add(int64(-i))
	return i
}

// Instruments lists every instrument with a shard, including ones whose
// history has been fully evicted.
func (s *Store) Instruments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.shards))
	for id := range s.shards {
		out = append(out, id)
	}
	return out
}

// Stats is an observability snapshot. Counts come from an atomic counter
// and timestamps from per-shard read locks, so the figures are eventually
// consistent with concurrent appends rather than a global freeze-frame.
type Stats struct {
	TrackedInstruments int       `json:"tracked_instruments"`
	TotalEntries       int64     `json:"total_entries"`
	OldestTimestamp    time.Time `json:"oldest_timestamp"`
	NewestTimestamp    time.Time `json:"newest_timestamp"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	shards := make([]*shard, 0, len(s.shards))
	for _, sh := range s.shards {
		shards = append(shards, sh)
	}
	s.mu.RUnlock()

	st := Stats{
		TrackedInstruments: len(shards),
		TotalEntries:       s.total.Load(),
	}
	for _, sh := range shards {
		sh.mu.RLock()
		if n := len(sh.entries); n > 0 {
			oldest := sh.entries[0].ObservedAt
			newest := sh.entries[n-1].ObservedAt
			if st.OldestTimestamp.IsZero() || oldest.Before(st.OldestTimestamp) {
				st.OldestTimestamp = oldest
			}
			if newest.After(st.NewestTimestamp) {
				st.NewestTimestamp = newest
			}
		}
		sh.mu.RUnlock()
	}
	return st
}
