// Package broadcast implements the broadcast-channel collaborator as an
// in-process hub with per-subscriber bounded queues. The remote transport
// consumes subscriber channels; its wire protocol is not this package's
// concern.
package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

const DefaultBuffer = 256

// Hub fans each published observation out to every subscriber. Publish
// never blocks: when a subscriber's queue is full the oldest queued
// observation is dropped to make room, so a slow consumer loses old data
// instead of stalling ingestion.
type Hub struct {
	buffer int

	mu     sync.RWMutex
	subs   map[uuid.UUID]chan market.Observation
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[uuid.UUID]chan market.Observation),
	}
}

// Subscribe returns a handle and the subscriber's receive channel.
func (h *Hub) Subscribe() (uuid.UUID, <-chan market.Observation) {
	id := uuid.New()
	ch := make(chan market.Observation, h.buffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the handle and closes its channel. Unknown handles
// are ignored.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish delivers the observation to every subscriber queue, drop-oldest
// on overflow. At-most-once, best-effort; no acknowledgment.
func (h *Hub) Publish(obs market.Observation) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- obs:
			continue
		default:
		}
		select {
		case <-ch:
			logger.Debugf("broadcast: subscriber %s lagging, dropped oldest for %s", id, obs.Instrument)
		default:
		}
		select {
		case ch <- obs:
		default:
			// subscriber drained and refilled between selects; drop the update
		}
	}
	return nil
}

// Close closes every subscriber channel. Publish after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// SubscriberCount reports the current number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
