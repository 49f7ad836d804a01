// Package source defines the price source adapter contract and the
// priority-ordered registry that multiplexes across adapters.
package source

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

// ErrNoData signals that an adapter has nothing for the instrument. It is
// an expected outcome, not a failure; the registry moves on to the next
// adapter.
var ErrNoData = errors.New("no data for instrument")

// IsNoData reports whether err is the expected no-data outcome rather than
// an upstream failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// Adapter fetches one observation for an instrument, or reports ErrNoData.
// Any other error is an operational failure of the upstream; callers treat
// it the same as no data.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, instrument string) (market.Observation, error)
}

// Stats are per-adapter request counters, read without blocking fetches.
type Stats struct {
	Requests  int64
	Failures  int64
	LastError string
}

// StatsTracker is embedded by adapters to share counter bookkeeping.
type StatsTracker struct {
	mu    sync.Mutex
	stats Stats
}

// Record counts one request; ErrNoData is an expected outcome and does not
// count as a failure.
func (t *StatsTracker) Record(err error) {
	t.mu.Lock()
	t.stats.Requests++
	if err != nil && !errors.Is(err, ErrNoData) {
		t.stats.Failures++
		t.stats.LastError = err.Error()
	}
	t.mu.Unlock()
}

func (t *StatsTracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Class buckets instruments by the kind of market they trade on, which
// decides adapter priority order.
type Class int

const (
	// ClassToken covers token contract addresses and exchange symbols.
	ClassToken Class = iota
	// ClassPredictionMarket covers prediction-market condition/market ids.
	ClassPredictionMarket
)

// Classify derives the instrument class from the identifier shape:
// 66-char 0x-prefixed hex is a prediction-market condition id, everything
// else (0x token addresses, exchange symbols) trades as a token.
func Classify(instrument string) Class {
	id := strings.TrimSpace(instrument)
	if len(id) == 66 && strings.HasPrefix(id, "0x") {
		return ClassPredictionMarket
	}
	return ClassToken
}
