// Package relationaldb defines the queryable index the auction engine
// can project its state into. The engine itself stays in memory; the
// relational index exists so history queries (auction lists, per-auction
// event trails) do not hit the engine's hot path.
package relationaldb

import (
	"context"
	"time"
)

// AuctionRecord is one auction row in the index.
type AuctionRecord struct {
	ID           uint64     `json:"id"`
	Seller       string     `json:"seller"`
	SellAsset    string     `json:"sell_asset"`
	BuyAsset     string     `json:"buy_asset"`
	SellAmount   uint64     `json:"sell_amount"`
	StartPrice   uint64     `json:"start_price"`
	StartTime    time.Time  `json:"start_time"`
	DurationSecs uint64     `json:"duration_secs"`
	DecreaseRate uint64     `json:"decrease_rate"`
	Outcome      string     `json:"outcome"` // pending, executed, cancelled
	Buyer        string     `json:"buyer,omitempty"`
	FinalPrice   uint64     `json:"final_price,omitempty"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
}

// EventRecord is one recorded notification row.
type EventRecord struct {
	Seq        uint64    `json:"seq"`
	AuctionID  uint64    `json:"auction_id"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
	Payload    []byte    `json:"payload"`
}

// AuctionQueryOptions contains criteria for auction listings.
type AuctionQueryOptions struct {
	Seller  string `json:"seller,omitempty"`  // Filter by seller account
	Outcome string `json:"outcome,omitempty"` // Filter by outcome
	Offset  uint32 `json:"offset"`
	Limit   uint32 `json:"limit"`
}

// AuctionRepository handles auction rows.
type AuctionRepository interface {
	SaveAuction(ctx context.Context, record *AuctionRecord) error
	MarkExecuted(ctx context.Context, id uint64, buyer string, finalPrice uint64, at time.Time) error
	MarkCancelled(ctx context.Context, id uint64, at time.Time) error
	GetAuction(ctx context.Context, id uint64) (*AuctionRecord, error)
	ListAuctions(ctx context.Context, options AuctionQueryOptions) ([]AuctionRecord, error)
	CountAuctions(ctx context.Context) (int64, error)
}

// EventRepository handles notification rows.
type EventRepository interface {
	SaveEvent(ctx context.Context, record *EventRecord) error
	GetEventsForAuction(ctx context.Context, auctionID uint64) ([]EventRecord, error)
	GetEventCount(ctx context.Context) (int64, error)
}

// SystemRepository handles connection-level operations.
type SystemRepository interface {
	Ping(ctx context.Context) error
}

// RepositoryManager provides access to all repositories and connection
// management.
type RepositoryManager interface {
	Auction() AuctionRepository
	Event() EventRepository
	System() SystemRepository

	Open(ctx context.Context) error
	Close(ctx context.Context) error
}
