package history

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

func obs(instrument string, price float64, at time.Time) market.Observation {
	return market.Observation{
		Instrument: instrument,
		Price:      decimal.NewFromFloat(price),
		Volume24h:  decimal.NewFromFloat(price * 100),
		ObservedAt: at,
		Source:     market.SourceDexScreener,
	}
}

func TestAppendKeepsChronologicalOrder(t *testing.T) {
	s := NewStore(100)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Append(obs("TKN", 1.0+float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	entries := s.Recent("TKN", 0)
	require.Len(t, entries, 10)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].ObservedAt.Before(entries[i-1].ObservedAt))
	}
}

func TestAppendEvictsOldestBeyondMax(t *testing.T) {
	s := NewStore(3)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.Append(obs("TKN", float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	entries := s.Recent("TKN", 0)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Price.Equal(decimal.NewFromFloat(1)), "oldest entry must be discarded")
	assert.True(t, entries[2].Price.Equal(decimal.NewFromFloat(3)))
	assert.Equal(t, int64(3), s.Stats().TotalEntries)
}

func TestCurrentPriceReadAfterWrite(t *testing.T) {
	s := NewStore(10)
	now := time.Now()
	s.Append(obs("TKN", 1.23, now))

	cur, ok := s.CurrentPrice("TKN")
	require.True(t, ok)
	assert.True(t, cur.Price.Equal(decimal.NewFromFloat(1.23)))

	tail := s.Recent("TKN", 1)
	require.Len(t, tail, 1)
	assert.True(t, tail[0].Price.Equal(cur.Price), "current price must match the history tail")
}

func TestCurrentPriceUnknownInstrument(t *testing.T) {
	s := NewStore(10)
	_, ok := s.CurrentPrice("NOPE")
	assert.False(t, ok)
	assert.Nil(t, s.Recent("NOPE", 5))
}

func TestRecentLimit(t *testing.T) {
	s := NewStore(100)
	base := time.Now()
	for i := 0; i < 8; i++ {
		s.Append(obs("TKN", float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	last3 := s.Recent("TKN", 3)
	require.Len(t, last3, 3)
	assert.True(t, last3[0].Price.Equal(decimal.NewFromFloat(5)))
	assert.True(t, last3[2].Price.Equal(decimal.NewFromFloat(7)))

	all := s.Recent("TKN", 0)
	assert.Len(t, all, 8)
}

func TestEvictOlderThanExactCutoff(t *testing.T) {
	s := NewStore(100)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		s.Append(obs("TKN", float64(i), base.Add(time.Duration(i)*time.Minute)))
	}

	cutoff := base.Add(3 * time.Minute)
	removed := s.EvictOlderThan("TKN", cutoff)
	assert.Equal(t, 3, removed)

	entries := s.Recent("TKN", 0)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.ObservedAt.Before(cutoff), "live entry evicted: %v", e.ObservedAt)
	}
	assert.Equal(t, int64(3), s.Stats().TotalEntries)
}

func TestEvictOlderThanEmptyHistory(t *testing.T) {
	s := NewStore(100)
	assert.Equal(t, 0, s.EvictOlderThan("TKN", time.Now()))
}

func TestEvictNeverLosesFreshEntriesUnderConcurrentAppend(t *testing.T) {
	s := NewStore(10000)
	cutoff := time.Now()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Append(obs("TKN", float64(i), cutoff.Add(time.Duration(i+1)*time.Millisecond)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.EvictOlderThan("TKN", cutoff)
		}
	}()
	wg.Wait()

	entries := s.Recent("TKN", 0)
	assert.Len(t, entries, 500, "entries at or after the cutoff must survive the janitor")
}

func TestStatsSnapshot(t *testing.T) {
	s := NewStore(100)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s.Append(obs("AAA", 1, base))
	s.Append(obs("BBB", 2, base.Add(time.Minute)))
	s.Append(obs("BBB", 3, base.Add(2*time.Minute)))

	st := s.Stats()
	assert.Equal(t, 2, st.TrackedInstruments)
	assert.Equal(t, int64(3), st.TotalEntries)
	assert.Equal(t, base, st.OldestTimestamp)
	assert.Equal(t, base.Add(2*time.Minute), st.NewestTimestamp)
}

func TestInstrumentsIncludesEvicted(t *testing.T) {
	s := NewStore(100)
	s.Append(obs("TKN", 1, time.Now().Add(-time.Hour)))
	s.EvictOlderThan("TKN", time.Now())
	assert.Empty(t, s.Recent("TKN", 0))
	assert.Contains(t, s.Instruments(), "TKN")
}
