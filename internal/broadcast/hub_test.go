package broadcast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
)

func obsAt(instrument string, price float64) market.Observation {
	return market.Observation{
		Instrument: instrument,
		Price:      decimal.NewFromFloat(price),
		ObservedAt: time.Now(),
		Source:     market.SourceBinance,
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub(4)
	_, a := hub.Subscribe()
	_, b := hub.Subscribe()
	require.Equal(t, 2, hub.SubscriberCount())

	require.NoError(t, hub.Publish(obsAt("TKN", 1.23)))

	for _, ch := range []<-chan market.Observation{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, "TKN", got.Instrument)
		default:
			t.Fatal("subscriber did not receive the observation")
		}
	}
}

func TestSlowSubscriberDropsOldestNotNewest(t *testing.T) {
	hub := NewHub(2)
	_, ch := hub.Subscribe()

	for _, p := range []float64{1, 2, 3} {
		require.NoError(t, hub.Publish(obsAt("TKN", p)))
	}

	// buffer 2: publish of 3 evicted 1, queue holds 2 then 3
	first := <-ch
	second := <-ch
	assert.True(t, first.Price.Equal(decimal.NewFromInt(2)))
	assert.True(t, second.Price.Equal(decimal.NewFromInt(3)))
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	hub := NewHub(1)
	hub.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = hub.Publish(obsAt("TKN", float64(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a lagging subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	id, ch := hub.Subscribe()
	hub.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount())

	// unknown handle is ignored
	hub.Unsubscribe(id)
}

func TestCloseClosesAllAndDisablesSubscribe(t *testing.T) {
	hub := NewHub(1)
	_, a := hub.Subscribe()
	hub.Close()

	_, open := <-a
	assert.False(t, open)

	_, late := hub.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribe after close yields a closed channel")

	require.NoError(t, hub.Publish(obsAt("TKN", 1)))
	hub.Close() // second close is a no-op
}
