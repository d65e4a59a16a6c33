package relationaldb

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
)

// Indexer consumes published auction notifications and projects them
// into the relational index. It runs alongside the engine and is fed
// from an event bus subscription, so a slow or unavailable database
// never blocks settlement.
type Indexer struct {
	repos RepositoryManager

	mu      sync.Mutex
	nextSeq uint64

	cancel func()
	done   chan struct{}
}

// NewIndexer creates an indexer over the given repositories.
func NewIndexer(repos RepositoryManager) *Indexer {
	return &Indexer{repos: repos}
}

// Start begins consuming envelopes from sub until Stop is called or the
// channel closes. The event sequence resumes after the highest already
// indexed.
func (ix *Indexer) Start(ctx context.Context, sub <-chan events.Envelope) error {
	count, err := ix.repos.Event().GetEventCount(ctx)
	if err != nil {
		return err
	}
	ix.nextSeq = uint64(count)

	runCtx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel
	ix.done = make(chan struct{})

	go ix.run(runCtx, sub)
	return nil
}

// Stop halts consumption and waits for the worker to drain.
func (ix *Indexer) Stop() {
	if ix.cancel != nil {
		ix.cancel()
		<-ix.done
	}
}

func (ix *Indexer) run(ctx context.Context, sub <-chan events.Envelope) {
	defer close(ix.done)

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub:
			if !ok {
				return
			}
			if err := ix.Apply(ctx, env); err != nil {
				log.Printf("Failed to index %s event for auction %d: %v", env.Kind, env.AuctionID, err)
			}
		}
	}
}

// Apply projects a single envelope into the index.
func (ix *Indexer) Apply(ctx context.Context, env events.Envelope) error {
	ix.mu.Lock()
	seq := ix.nextSeq
	ix.nextSeq++
	ix.mu.Unlock()

	record := &EventRecord{
		Seq:        seq,
		AuctionID:  env.AuctionID,
		Kind:       env.Kind,
		RecordedAt: time.Now().UTC(),
		Payload:    env.Payload,
	}
	if err := ix.repos.Event().SaveEvent(ctx, record); err != nil {
		return err
	}

	switch env.Kind {
	case events.TypeAuctionCreated:
		var ev events.AuctionCreatedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return err
		}
		return ix.repos.Auction().SaveAuction(ctx, &AuctionRecord{
			ID:           ev.AuctionID,
			Seller:       ev.Seller,
			SellAsset:    ev.SellAsset,
			BuyAsset:     ev.BuyAsset,
			SellAmount:   ev.SellAmount,
			StartPrice:   ev.StartPrice,
			StartTime:    ev.StartTime,
			DurationSecs: ev.Duration,
			DecreaseRate: ev.DecreaseRate,
			Outcome:      "pending",
		})

	case events.TypeAuctionExecuted:
		var ev events.AuctionExecutedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return err
		}
		return ix.repos.Auction().MarkExecuted(ctx, ev.AuctionID, ev.Buyer, ev.FinalPrice, ev.Time)

	case events.TypeAuctionCancelled:
		var ev events.AuctionCancelledEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return err
		}
		return ix.repos.Auction().MarkCancelled(ctx, ev.AuctionID, ev.Time)
	}

	// Unknown kinds are stored as raw events only.
	return nil
}
