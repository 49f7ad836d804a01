package source

import (
	"sync"
	"time"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "CLOSED"
	case stateOpen:
		return "OPEN"
	case stateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// breaker shields a failing upstream: after threshold consecutive
// failures the adapter is skipped until the cooldown elapses, then a
// single probe call decides whether it closes again. ErrNoData counts as
// success since the upstream did respond.
type breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
	name        string
}

func newBreaker(name string, threshold int, cooldown time.Duration) *breaker {
	return &breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     stateClosed,
	}
}

func (cb *breaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(cb.lastFailure) > cb.cooldown {
			cb.transition(stateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *breaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateHalfOpen:
		cb.transition(stateClosed)
		cb.failures = 0
	case stateClosed:
		cb.failures = 0
	}
}

func (cb *breaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case stateClosed:
		if cb.failures >= cb.threshold {
			cb.transition(stateOpen)
		}
	case stateHalfOpen:
		cb.transition(stateOpen)
	}
}

func (cb *breaker) transition(to breakerState) {
	from := cb.state
	cb.state = to
	logger.Warnf("source breaker %s: %s -> %s (failures=%d/%d, cooldown=%s)",
		cb.name, from, to, cb.failures, cb.threshold, cb.cooldown)
}
