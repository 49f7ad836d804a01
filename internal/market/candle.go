package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is an OHLCV summary of the observations inside one time bucket.
// Derived on demand, never stored.
type Candle struct {
	Instrument  string          `json:"instrument"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      decimal.Decimal `json:"volume"`
	BucketStart time.Time       `json:"bucket_start"`
	Interval    Interval        `json:"interval"`
}

type bucketAcc struct {
	open, high, low, close decimal.Decimal
	volume                 decimal.Decimal
	seen                   bool
}

// BuildCandles partitions the trailing portion of history into count
// contiguous buckets of the given interval ending at now, and produces one
// candle per non-empty bucket. Buckets with no observations are omitted
// rather than zero-filled; a flat synthetic candle would misrepresent a
// stale market as a zero-price one.
//
// History must be in chronological order, which the history store
// guarantees. The result is deterministic for a fixed (history, iv, count,
// now) tuple.
func BuildCandles(instrument string, history []HistoryEntry, iv Interval, count int, now time.Time) ([]Candle, error) {
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}
	if count <= 0 || len(history) == 0 {
		return []Candle{}, nil
	}

	width := iv.Duration()
	windowStart := now.Add(-time.Duration(count) * width)
	buckets := make([]bucketAcc, count)

	for _, e := range history {
		offset := e.ObservedAt.Sub(windowStart)
		if offset < 0 {
			continue
		}
		idx := int(offset / width)
		if idx >= count {
			// observed exactly at (or past) the window edge: fold into the
			// newest bucket instead of dropping a live sample
			idx = count - 1
		}
		b := &buckets[idx]
		if !b.seen {
			b.open = e.Price
			b.high = e.Price
			b.low = e.Price
			b.volume = decimal.Zero
			b.seen = true
		} else {
			if e.Price.GreaterThan(b.high) {
				b.high = e.Price
			}
			if e.Price.LessThan(b.low) {
				b.low = e.Price
			}
		}
		b.close = e.Price
		b.volume = b.volume.Add(e.Volume)
	}

	candles := make([]Candle, 0, count)
	for i := range buckets {
		b := &buckets[i]
		if !b.seen {
			continue
		}
		candles = append(candles, Candle{
			Instrument:  instrument,
			Open:        b.open,
			High:        b.high,
			Low:         b.low,
			Close:       b.close,
			Volume:      b.volume,
			BucketStart: windowStart.Add(time.Duration(i) * width),
			Interval:    iv,
		})
	}
	return candles, nil
}
