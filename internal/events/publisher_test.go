package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
)

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	sub1, cancel1 := bus.Subscribe()
	defer cancel1()
	sub2, cancel2 := bus.Subscribe()
	defer cancel2()

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bus.PublishAuctionCreated(events.NewAuctionCreatedEvent(
		3, "alice", "SOLD", "PAID", 100, 1000, start, 3600*time.Second, 1,
	))

	for _, sub := range []<-chan events.Envelope{sub1, sub2} {
		select {
		case env := <-sub:
			assert.Equal(t, events.TypeAuctionCreated, env.Kind)
			assert.Equal(t, uint64(3), env.AuctionID)

			var decoded events.AuctionCreatedEvent
			require.NoError(t, json.Unmarshal(env.Payload, &decoded))
			assert.Equal(t, "alice", decoded.Seller)
			assert.Equal(t, uint64(3600), decoded.Duration)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	sub, cancel := bus.Subscribe()
	cancel()

	_, ok := <-sub
	assert.False(t, ok, "cancelled subscriber's channel is closed")

	// Cancel is idempotent and publishing afterwards must not panic.
	cancel()
	bus.PublishAuctionCancelled(events.NewAuctionCancelledEvent(1, time.Now()))
}

func TestBusEvictsSlowSubscriber(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	sub, cancel := bus.Subscribe()
	defer cancel()

	// Fill the subscriber's buffer, then publish once more: the bus must
	// drop the subscriber instead of blocking.
	for i := 0; i < 300; i++ {
		bus.PublishAuctionExecuted(events.NewAuctionExecutedEvent(uint64(i), "bob", 10, time.Now()))
	}

	received := 0
	for range sub {
		received++
	}
	assert.Equal(t, 256, received, "buffer drained, channel closed on eviction")
}

func TestBusCloseDropsSubscribers(t *testing.T) {
	bus := events.NewBus()
	sub, _ := bus.Subscribe()

	bus.Close()
	bus.Close() // idempotent

	_, ok := <-sub
	assert.False(t, ok)

	// Publishing and subscribing after Close are inert.
	bus.PublishAuctionCreated(events.NewAuctionCreatedEvent(
		0, "alice", "SOLD", "PAID", 1, 1, time.Now(), time.Second, 1,
	))
	late, _ := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
