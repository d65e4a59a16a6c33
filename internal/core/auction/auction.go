// Package auction implements the reverse Dutch auction ledger: a seller
// escrows a quantity of one fungible asset and offers it for a second
// fungible asset at a price that decreases linearly over a fixed window
// until a buyer executes, the seller cancels, or the window expires.
package auction

import (
	"fmt"
	"time"
)

// Outcome records how an auction left the active state.
type Outcome uint8

const (
	// OutcomePending means no terminal transition has fired yet.
	OutcomePending Outcome = iota
	// OutcomeExecuted means a buyer accepted the offer.
	OutcomeExecuted
	// OutcomeCancelled means the seller withdrew the offer.
	OutcomeCancelled
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeExecuted:
		return "executed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Auction is a single auction record. Records are never deleted; terminal
// records remain queryable for historical inspection.
type Auction struct {
	// ID is the ordinal identifier, assigned sequentially from 0 and
	// never reused.
	ID uint64 `json:"id"`

	// Seller is the opaque identifier of the account that created the
	// auction. Fixed for the auction's lifetime.
	Seller string `json:"seller"`

	// SellAsset identifies the asset ledger holding the escrowed quantity.
	SellAsset string `json:"sell_asset"`

	// BuyAsset identifies the asset ledger the price is denominated in.
	BuyAsset string `json:"buy_asset"`

	// SellAmount is the escrowed quantity, unaffected by price decay.
	SellAmount uint64 `json:"sell_amount"`

	// StartPrice is the price at elapsed time zero, in buy-asset units.
	StartPrice uint64 `json:"start_price"`

	// StartTime is captured at creation and immutable.
	StartTime time.Time `json:"start_time"`

	// Duration is the decay window; the price reaches (or would reach)
	// zero at StartTime+Duration.
	Duration time.Duration `json:"duration"`

	// DecreaseRate is the buy-asset quantity subtracted from the price per
	// elapsed second. Supplied by the creator and trusted as-is: the
	// ledger does not recompute it from StartPrice and Duration.
	DecreaseRate uint64 `json:"decrease_rate"`

	// Active is true from creation until exactly one terminal transition.
	Active bool `json:"active"`

	// Outcome distinguishes the two terminal states, which Active alone
	// cannot.
	Outcome Outcome `json:"outcome"`

	// Buyer and FinalPrice are set by execution, zero otherwise.
	Buyer      string `json:"buyer,omitempty"`
	FinalPrice uint64 `json:"final_price,omitempty"`
}

// PriceAt returns the price of the auction at the given instant.
// The price is a pure function of the record's fixed fields and t:
// startPrice - elapsedSeconds*decreaseRate, clamped to zero once the
// window has elapsed or the decay has consumed the start price. A
// caller-supplied rate larger than startPrice/duration zeroes the price
// before nominal expiry; the ledger trusts the rate either way.
func (a *Auction) PriceAt(t time.Time) uint64 {
	elapsed := t.Sub(a.StartTime)
	if elapsed < 0 {
		return a.StartPrice
	}
	if elapsed >= a.Duration {
		return 0
	}
	seconds := uint64(elapsed / time.Second)
	if a.DecreaseRate != 0 && seconds > a.StartPrice/a.DecreaseRate {
		// Multiplication below would overflow or exceed the start price.
		return 0
	}
	decrease := seconds * a.DecreaseRate
	if decrease >= a.StartPrice {
		return 0
	}
	return a.StartPrice - decrease
}

// Expired reports whether the decay window has fully elapsed at t.
func (a *Auction) Expired(t time.Time) bool {
	return t.Sub(a.StartTime) >= a.Duration
}

// CreateParams carries the caller-supplied fields of a new auction.
type CreateParams struct {
	Seller       string
	SellAsset    string
	BuyAsset     string
	SellAmount   uint64
	StartPrice   uint64
	Duration     time.Duration
	DecreaseRate uint64
}

// Validate checks the creation preconditions. The two asset identifiers
// are not required to differ; same-asset auctions are permitted.
func (p CreateParams) Validate() error {
	if p.Seller == "" {
		return fmt.Errorf("%w: seller is required", ErrInvalidParameters)
	}
	if p.SellAsset == "" {
		return fmt.Errorf("%w: sell asset is required", ErrInvalidParameters)
	}
	if p.BuyAsset == "" {
		return fmt.Errorf("%w: buy asset is required", ErrInvalidParameters)
	}
	if p.SellAmount == 0 {
		return fmt.Errorf("%w: sell amount must be positive", ErrInvalidParameters)
	}
	if p.StartPrice == 0 {
		return fmt.Errorf("%w: start price must be positive", ErrInvalidParameters)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidParameters)
	}
	if p.DecreaseRate == 0 {
		return fmt.Errorf("%w: decrease rate must be positive", ErrInvalidParameters)
	}
	return nil
}
