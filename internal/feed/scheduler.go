package feed

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
)

// Start launches the fetch loop and the retention janitor. The first fetch
// cycle runs immediately so the first query does not wait a full interval.
// Starting a running feed is a no-op with a warning.
func (f *Feed) Start(ctx context.Context) {
	f.runMu.Lock()
	if f.stopCh != nil {
		f.runMu.Unlock()
		logger.Warnf("feed: already started, ignoring Start")
		return
	}
	stop := make(chan struct{})
	f.stopCh = stop
	f.wg.Add(2)
	f.runMu.Unlock()

	go f.fetchLoop(ctx, stop)
	go f.janitorLoop(ctx, stop)
	logger.Infof("feed: started fetch_interval=%s janitor_interval=%s retention=%s",
		f.cfg.FetchInterval, f.cfg.JanitorInterval, f.cfg.Retention)
}

// Stop halts both loops and waits for in-flight cycles to drain. Stopping
// an unstarted feed is a no-op.
func (f *Feed) Stop() {
	f.runMu.Lock()
	stop := f.stopCh
	f.stopCh = nil
	f.runMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	f.wg.Wait()
	logger.Infof("feed: stopped")
}

func (f *Feed) fetchLoop(ctx context.Context, stop <-chan struct{}) {
	defer f.wg.Done()

	f.spawnCycle(ctx)
	ticker := time.NewTicker(f.cfg.FetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			f.spawnCycle(ctx)
		}
	}
}

// spawnCycle runs the cycle off the timer goroutine: a slow instrument may
// overlap the next tick, and the in-flight guard keeps it from being
// fetched twice.
func (f *Feed) spawnCycle(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.runFetchCycle(ctx)
	}()
}

// runFetchCycle fans one fetch attempt per watchlisted instrument out
// concurrently and returns when all of them settled. Partial failure is
// the expected mode: instruments whose sources all miss are skipped and
// counted, nothing is surfaced as an error.
func (f *Feed) runFetchCycle(ctx context.Context) {
	instruments := f.Watchlist()
	if len(instruments) == 0 {
		return
	}
	f.cycles.Add(1)

	var g errgroup.Group
	for _, id := range instruments {
		if !f.beginFetch(id) {
			logger.Debugf("feed: fetch for %s still in flight, skipping this cycle", id)
			continue
		}
		id := id
		g.Go(func() error {
			defer f.endFetch(id)
			obs, ok := f.registry.Fetch(ctx, id)
			if !ok {
				f.skips.Add(1)
				logger.Debugf("feed: all sources missed %s this cycle", id)
				return nil
			}
			f.distribute(obs)
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Feed) beginFetch(instrument string) bool {
	f.inflightMu.Lock()
	defer f.inflightMu.Unlock()
	if _, busy := f.inflight[instrument]; busy {
		return false
	}
	f.inflight[instrument] = struct{}{}
	return true
}

func (f *Feed) endFetch(instrument string) {
	f.inflightMu.Lock()
	delete(f.inflight, instrument)
	f.inflightMu.Unlock()
}

func (f *Feed) janitorLoop(ctx context.Context, stop <-chan struct{}) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			f.runJanitor()
		}
	}
}

// runJanitor sweeps every tracked instrument and evicts entries older than
// the retention window. The cutoff never reaches unexpired entries, so the
// sweep is safe against concurrent appends.
func (f *Feed) runJanitor() {
	cutoff := f.nowFn().Add(-f.cfg.Retention)
	removed := 0
	for _, id := range f.store.Instruments() {
		removed += f.store.EvictOlderThan(id, cutoff)
	}
	if removed > 0 {
		f.evicted.Add(uint64(removed))
		logger.Infof("feed: janitor evicted %d entries older than %s", removed, cutoff.UTC().Format(time.RFC3339))
	} else {
		logger.Debugf("feed: janitor pass, nothing to evict")
	}
}
