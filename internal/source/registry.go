package source

import (
	"context"
	"time"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 2 * time.Minute
)

type slot struct {
	adapter Adapter
	breaker *breaker
}

// Registry holds the fixed adapter priority order per instrument class.
// Order is set once at construction and never mutated, so Fetch needs no
// locking. Each adapter sits behind its own circuit breaker so a dead
// upstream stops eating a timeout on every cycle.
type Registry struct {
	order map[Class][]slot
}

func NewRegistry() *Registry {
	return &Registry{order: make(map[Class][]slot)}
}

// Register appends an adapter at the end of the class's priority order.
func (r *Registry) Register(class Class, a Adapter) {
	if a == nil {
		return
	}
	r.order[class] = append(r.order[class], slot{
		adapter: a,
		breaker: newBreaker(a.Name(), breakerThreshold, breakerCooldown),
	})
}

// Adapters returns the priority order for a class.
func (r *Registry) Adapters(class Class) []Adapter {
	slots := r.order[class]
	out := make([]Adapter, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.adapter)
	}
	return out
}

// Fetch tries the instrument's adapters in priority order and returns the
// first observation produced. Adapter errors are contained here: they are
// logged at debug and treated exactly like no data. ok=false means the
// sample is simply missed this cycle; it is never an error.
func (r *Registry) Fetch(ctx context.Context, instrument string) (market.Observation, bool) {
	for _, s := range r.order[Classify(instrument)] {
		if !s.breaker.Allow() {
			logger.Debugf("source %s: breaker open, skipping %s", s.adapter.Name(), instrument)
			continue
		}
		obs, err := s.adapter.Fetch(ctx, instrument)
		if err != nil {
			if IsNoData(err) {
				s.breaker.RecordSuccess()
			} else {
				s.breaker.RecordFailure()
			}
			logger.Debugf("source %s: %s: %v", s.adapter.Name(), instrument, err)
			continue
		}
		s.breaker.RecordSuccess()
		return obs, true
	}
	return market.Observation{}, false
}
