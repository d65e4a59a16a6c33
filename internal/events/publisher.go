package events

import (
	"encoding/json"
	"log"
	"sync"
)

// Publisher is the notification sink the auction ledger emits into. It
// decouples the engine from the WebSocket/subscription implementation.
type Publisher interface {
	// PublishAuctionCreated publishes a creation notification.
	PublishAuctionCreated(event *AuctionCreatedEvent)

	// PublishAuctionExecuted publishes an execution notification.
	PublishAuctionExecuted(event *AuctionExecutedEvent)

	// PublishAuctionCancelled publishes a cancellation notification.
	PublishAuctionCancelled(event *AuctionCancelledEvent)
}

// Envelope is a published event in wire form: the kind tag plus the
// JSON-encoded event payload. Subscribers receive envelopes so they can
// forward or persist events without re-marshalling.
type Envelope struct {
	Kind      string
	AuctionID uint64
	Payload   []byte
}

// Bus is a Publisher that fans envelopes out to subscribers over buffered
// channels. A subscriber that cannot keep up is dropped rather than
// allowed to stall the engine's mutating path.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]chan Envelope
	nextID      int
	closed      bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Envelope)}
}

// Subscribe registers a new subscriber and returns its channel together
// with a cancel function. The channel is closed on cancel and on Close.
func (b *Bus) Subscribe() (<-chan Envelope, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Envelope, 256)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close drops all subscribers and closes their channels. Publishing after
// Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// PublishAuctionCreated implements Publisher.
func (b *Bus) PublishAuctionCreated(event *AuctionCreatedEvent) {
	if event == nil {
		return
	}
	b.broadcast(TypeAuctionCreated, event.AuctionID, event)
}

// PublishAuctionExecuted implements Publisher.
func (b *Bus) PublishAuctionExecuted(event *AuctionExecutedEvent) {
	if event == nil {
		return
	}
	b.broadcast(TypeAuctionExecuted, event.AuctionID, event)
}

// PublishAuctionCancelled implements Publisher.
func (b *Bus) PublishAuctionCancelled(event *AuctionCancelledEvent) {
	if event == nil {
		return
	}
	b.broadcast(TypeAuctionCancelled, event.AuctionID, event)
}

func (b *Bus) broadcast(kind string, auctionID uint64, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", kind, err)
		return
	}
	env := Envelope{Kind: kind, AuctionID: auctionID, Payload: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- env:
		default:
			// Evict the slow subscriber to keep publishing non-blocking.
			log.Printf("Dropping slow event subscriber %d", id)
			delete(b.subscribers, id)
			close(ch)
		}
	}
}

// NoOpPublisher is a Publisher that does nothing (for tests or when
// notifications are disabled).
type NoOpPublisher struct{}

// NewNoOpPublisher creates a NoOpPublisher.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) PublishAuctionCreated(event *AuctionCreatedEvent)     {}
func (p *NoOpPublisher) PublishAuctionExecuted(event *AuctionExecutedEvent)   {}
func (p *NoOpPublisher) PublishAuctionCancelled(event *AuctionCancelledEvent) {}

// Ensure implementations satisfy the interface
var _ Publisher = (*Bus)(nil)
var _ Publisher = (*NoOpPublisher)(nil)
