// Package pubsub carries in-process price-updated events so components can
// react to new observations without polling the history store.
package pubsub

import (
	"fmt"

	"github.com/asaskevich/EventBus"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

const topicAll = "market.price"

func topicFor(instrument string) string {
	return topicAll + "." + instrument
}

// Bus is a thin typed facade over EventBus. Handlers run synchronously in
// publish order, so per-instrument event order matches distribution order.
type Bus struct {
	bus EventBus.Bus
}

func New() *Bus {
	return &Bus{bus: EventBus.New()}
}

// PublishPriceUpdate emits the observation on the global topic and on the
// instrument's own topic.
func (b *Bus) PublishPriceUpdate(obs market.Observation) {
	b.bus.Publish(topicAll, obs)
	b.bus.Publish(topicFor(obs.Instrument), obs)
}

// Subscribe registers a handler for one instrument's updates.
// Unsubscribing requires the same function value.
func (b *Bus) Subscribe(instrument string, fn func(market.Observation)) error {
	return b.bus.Subscribe(topicFor(instrument), fn)
}

// SubscribeAll registers a handler for every instrument's updates.
func (b *Bus) SubscribeAll(fn func(market.Observation)) error {
	return b.bus.Subscribe(topicAll, fn)
}

func (b *Bus) Unsubscribe(instrument string, fn func(market.Observation)) error {
	if err := b.bus.Unsubscribe(topicFor(instrument), fn); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", instrument, err)
	}
	return nil
}

func (b *Bus) UnsubscribeAll(fn func(market.Observation)) error {
	if err := b.bus.Unsubscribe(topicAll, fn); err != nil {
		return fmt.Errorf("unsubscribe all: %w", err)
	}
	return nil
}

// WaitAsync drains pending async handlers; kept for symmetry with the
// underlying bus even though subscriptions here are synchronous.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
