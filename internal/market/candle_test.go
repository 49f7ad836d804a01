package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(price float64, volume float64, at time.Time) HistoryEntry {
	return HistoryEntry{
		Price:      decimal.NewFromFloat(price),
		Volume:     decimal.NewFromFloat(volume),
		ObservedAt: at,
	}
}

func TestBuildCandlesSingleBucketOHLC(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	t0 := now.Add(-50 * time.Minute)
	hist := []HistoryEntry{
		entry(1.0, 100, t0),
		entry(1.5, 200, t0.Add(10*time.Minute)),
		entry(1.2, 300, t0.Add(20*time.Minute)),
	}

	candles, err := BuildCandles("TKN", hist, Interval1h, 1, now)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	c := candles[0]
	assert.True(t, c.Open.Equal(decimal.NewFromFloat(1.0)), "open %s", c.Open)
	assert.True(t, c.High.Equal(decimal.NewFromFloat(1.5)), "high %s", c.High)
	assert.True(t, c.Low.Equal(decimal.NewFromFloat(1.0)), "low %s", c.Low)
	assert.True(t, c.Close.Equal(decimal.NewFromFloat(1.2)), "close %s", c.Close)
	assert.True(t, c.Volume.Equal(decimal.NewFromFloat(600)), "volume %s", c.Volume)
	assert.Equal(t, Interval1h, c.Interval)
	assert.Equal(t, "TKN", c.Instrument)
}

func TestBuildCandlesSparseBucketsOmitted(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	windowStart := now.Add(-5 * time.Minute)
	// observations only in the first and last of five 1m buckets
	hist := []HistoryEntry{
		entry(2.0, 10, windowStart.Add(30*time.Second)),
		entry(2.1, 10, windowStart.Add(4*time.Minute+30*time.Second)),
	}

	candles, err := BuildCandles("TKN", hist, Interval1m, 5, now)
	require.NoError(t, err)
	require.Len(t, candles, 2, "empty buckets must not produce candles")
	assert.Equal(t, windowStart, candles[0].BucketStart)
	assert.Equal(t, windowStart.Add(4*time.Minute), candles[1].BucketStart)
}

func TestBuildCandlesDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	hist := make([]HistoryEntry, 0, 30)
	for i := 0; i < 30; i++ {
		hist = append(hist, entry(1.0+float64(i%7)*0.01, float64(i), now.Add(-time.Duration(30-i)*time.Minute)))
	}

	first, err := BuildCandles("TKN", hist, Interval5m, 6, now)
	require.NoError(t, err)
	second, err := BuildCandles("TKN", hist, Interval5m, 6, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildCandlesInvariant(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	hist := make([]HistoryEntry, 0, 60)
	prices := []float64{3.2, 3.5, 3.1, 3.4, 3.9, 2.8, 3.0, 3.3}
	for i := 0; i < 60; i++ {
		hist = append(hist, entry(prices[i%len(prices)], 5, now.Add(-time.Duration(60-i)*time.Minute)))
	}

	candles, err := BuildCandles("TKN", hist, Interval15m, 4, now)
	require.NoError(t, err)
	require.NotEmpty(t, candles)
	for _, c := range candles {
		assert.True(t, c.Low.LessThanOrEqual(c.Open), "low>open in %v", c)
		assert.True(t, c.Low.LessThanOrEqual(c.Close), "low>close in %v", c)
		assert.True(t, c.High.GreaterThanOrEqual(c.Open), "high<open in %v", c)
		assert.True(t, c.High.GreaterThanOrEqual(c.Close), "high<close in %v", c)
		assert.False(t, c.Volume.IsNegative(), "negative volume in %v", c)
	}
}

func TestBuildCandlesEmptyHistory(t *testing.T) {
	candles, err := BuildCandles("TKN", nil, Interval1m, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestBuildCandlesInvalidInterval(t *testing.T) {
	_, err := BuildCandles("TKN", []HistoryEntry{entry(1, 1, time.Now())}, Interval("7m"), 3, time.Now())
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestBuildCandlesEntriesBeforeWindowIgnored(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	hist := []HistoryEntry{
		entry(9.9, 1, now.Add(-3*time.Hour)), // outside the 1x1h window
		entry(1.1, 1, now.Add(-30*time.Minute)),
	}

	candles, err := BuildCandles("TKN", hist, Interval1h, 1, now)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.True(t, candles[0].Open.Equal(decimal.NewFromFloat(1.1)))
}
