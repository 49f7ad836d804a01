package feed

import (
	"sync"
	"time"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

// distribute applies one accepted observation: write-through to the store,
// order-monitor hook, broadcast publish, then the in-process event. The
// per-instrument lock serializes the whole sequence, so two observations
// for the same instrument can never interleave; different instruments
// proceed independently.
func (f *Feed) distribute(obs market.Observation) {
	lock := f.instrumentLock(obs.Instrument)
	lock.Lock()
	defer lock.Unlock()

	f.store.Append(obs)
	f.observations.Add(1)

	f.notifyMonitor(obs)
	f.publishBroadcast(obs)
	f.bus.PublishPriceUpdate(obs)
}

func (f *Feed) instrumentLock(instrument string) *sync.Mutex {
	f.distMu.Lock()
	defer f.distMu.Unlock()
	lock := f.distLocks[instrument]
	if lock == nil {
		lock = &sync.Mutex{}
		f.distLocks[instrument] = lock
	}
	return lock
}

// notifyMonitor invokes the order-monitoring hook with a bounded wait. A
// hook that panics or stalls is logged and abandoned; the store write that
// already happened is never rolled back.
func (f *Feed) notifyMonitor(obs market.Observation) {
	if f.monitor == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Warnf("feed: order monitor panicked on %s: %v", obs.Instrument, r)
			}
		}()
		f.monitor.OnPriceUpdate(obs.Instrument, obs.Price)
	}()
	timer := time.NewTimer(f.cfg.MonitorTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logger.Warnf("feed: order monitor exceeded %s for %s, continuing without it", f.cfg.MonitorTimeout, obs.Instrument)
	}
}

// publishBroadcast pushes the observation to live subscribers. Failures
// are logged and dropped; ingestion never blocks on the transport.
func (f *Feed) publishBroadcast(obs market.Observation) {
	if f.caster == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("feed: broadcast panicked on %s: %v", obs.Instrument, r)
		}
	}()
	if err := f.caster.Publish(obs); err != nil {
		logger.Warnf("feed: broadcast publish failed for %s, dropping: %v", obs.Instrument, err)
	}
}
