// Package events defines the notifications the auction ledger emits and
// the publisher plumbing that fans them out to external observers: the
// WebSocket stream, the event log, and the relational index.
package events

import "time"

// Event kind discriminators, carried in each event's Type field and used
// as the kind tag in the persistent event log.
const (
	TypeAuctionCreated   = "auctionCreated"
	TypeAuctionExecuted  = "auctionExecuted"
	TypeAuctionCancelled = "auctionCancelled"
)

// AuctionCreatedEvent is emitted once per successful creation, after the
// escrow pull has completed and the record has been stored.
type AuctionCreatedEvent struct {
	Type         string    `json:"type"` // Always "auctionCreated"
	AuctionID    uint64    `json:"auction_id"`
	Seller       string    `json:"seller"`
	SellAsset    string    `json:"sell_asset"`
	BuyAsset     string    `json:"buy_asset"`
	SellAmount   uint64    `json:"sell_amount"`
	StartPrice   uint64    `json:"start_price"`
	StartTime    time.Time `json:"start_time"`
	Duration     uint64    `json:"duration"` // seconds
	DecreaseRate uint64    `json:"decrease_rate"`
}

// NewAuctionCreatedEvent creates a new AuctionCreatedEvent.
func NewAuctionCreatedEvent(
	auctionID uint64,
	seller, sellAsset, buyAsset string,
	sellAmount, startPrice uint64,
	startTime time.Time,
	duration time.Duration,
	decreaseRate uint64,
) *AuctionCreatedEvent {
	return &AuctionCreatedEvent{
		Type:         TypeAuctionCreated,
		AuctionID:    auctionID,
		Seller:       seller,
		SellAsset:    sellAsset,
		BuyAsset:     buyAsset,
		SellAmount:   sellAmount,
		StartPrice:   startPrice,
		StartTime:    startTime,
		Duration:     uint64(duration / time.Second),
		DecreaseRate: decreaseRate,
	}
}

// AuctionExecutedEvent is emitted once per execution. Together with
// AuctionCancelledEvent it is the durable way to tell the two terminal
// outcomes apart.
type AuctionExecutedEvent struct {
	Type       string    `json:"type"` // Always "auctionExecuted"
	AuctionID  uint64    `json:"auction_id"`
	Buyer      string    `json:"buyer"`
	FinalPrice uint64    `json:"final_price"`
	Time       time.Time `json:"time"`
}

// NewAuctionExecutedEvent creates a new AuctionExecutedEvent.
func NewAuctionExecutedEvent(auctionID uint64, buyer string, finalPrice uint64, at time.Time) *AuctionExecutedEvent {
	return &AuctionExecutedEvent{
		Type:       TypeAuctionExecuted,
		AuctionID:  auctionID,
		Buyer:      buyer,
		FinalPrice: finalPrice,
		Time:       at,
	}
}

// AuctionCancelledEvent is emitted once per cancellation.
type AuctionCancelledEvent struct {
	Type      string    `json:"type"` // Always "auctionCancelled"
	AuctionID uint64    `json:"auction_id"`
	Time      time.Time `json:"time"`
}

// NewAuctionCancelledEvent creates a new AuctionCancelledEvent.
func NewAuctionCancelledEvent(auctionID uint64, at time.Time) *AuctionCancelledEvent {
	return &AuctionCancelledEvent{
		Type:      TypeAuctionCancelled,
		AuctionID: auctionID,
		Time:      at,
	}
}
