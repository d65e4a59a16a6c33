package auction

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/assets"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
)

// Ledger owns the set of auction records, assigns identifiers, validates
// state transitions, computes the time-dependent price, and performs
// escrow and settlement by delegating asset movement to the transfer
// collaborator.
//
// All mutating entry points are serialized by a single reentrancy guard
// held for the entire call, including the external transfer legs: the
// asset collaborator is untrusted and may call back into the Ledger, and
// any such nested mutating call is rejected with ErrReentrantCall rather
// than queued. Record state is published under a separate RWMutex only
// after every leg of a mutation has succeeded, so read-only queries never
// observe a half-completed transition.
type Ledger struct {
	// entered is the reentrancy guard. Held (true) for the full duration
	// of every mutating call.
	entered atomic.Bool

	// mu guards records and nextID. Mutations take the write lock only
	// for the final commit; queries take the read lock.
	mu      sync.RWMutex
	records map[uint64]*Auction
	nextID  uint64

	assets assets.Registry
	pub    events.Publisher

	// now supplies the ledger's clock. Price decay is computed on demand
	// from this input, never by a background timer.
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock. Used by the demo command and tests
// to drive deterministic price decay.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPublisher sets the notification sink. Defaults to a no-op.
func WithPublisher(pub events.Publisher) Option {
	return func(l *Ledger) { l.pub = pub }
}

// NewLedger creates an empty auction ledger over the given asset registry.
func NewLedger(registry assets.Registry, opts ...Option) *Ledger {
	l := &Ledger{
		records: make(map[uint64]*Auction),
		assets:  registry,
		pub:     events.NewNoOpPublisher(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// acquire takes the reentrancy guard, failing fast if any mutating call
// is already in progress on this instance.
func (l *Ledger) acquire() error {
	if !l.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (l *Ledger) release() {
	l.entered.Store(false)
}

// Create validates params, pulls the sell-side escrow from the seller
// into the ledger's custody, and records the new auction. The id is
// assigned only after the escrow pull succeeds; a failed pull records
// nothing. Returns the new auction's id.
func (l *Ledger) Create(params CreateParams) (uint64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	if err := l.acquire(); err != nil {
		return 0, err
	}
	defer l.release()

	sellAsset, err := l.assets.Asset(params.SellAsset)
	if err != nil {
		return 0, fmt.Errorf("%w: sell asset %q", ErrInvalidParameters, params.SellAsset)
	}
	if _, err := l.assets.Asset(params.BuyAsset); err != nil {
		return 0, fmt.Errorf("%w: buy asset %q", ErrInvalidParameters, params.BuyAsset)
	}

	balance, err := sellAsset.BalanceOf(params.Seller)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if balance < params.SellAmount {
		return 0, fmt.Errorf("%w: seller holds %d of %s, needs %d",
			ErrInsufficientBalance, balance, params.SellAsset, params.SellAmount)
	}

	// Pull the escrow into the ledger's own holding. Nothing is recorded
	// if the pull fails.
	if err := sellAsset.TransferFrom(params.Seller, l.escrowAccount(), params.SellAmount); err != nil {
		return 0, fmt.Errorf("%w: escrow pull: %v", ErrTransferFailed, err)
	}

	startTime := l.now()

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.records[id] = &Auction{
		ID:           id,
		Seller:       params.Seller,
		SellAsset:    params.SellAsset,
		BuyAsset:     params.BuyAsset,
		SellAmount:   params.SellAmount,
		StartPrice:   params.StartPrice,
		StartTime:    startTime,
		Duration:     params.Duration,
		DecreaseRate: params.DecreaseRate,
		Active:       true,
		Outcome:      OutcomePending,
	}
	l.mu.Unlock()

	l.pub.PublishAuctionCreated(events.NewAuctionCreatedEvent(
		id, params.Seller, params.SellAsset, params.BuyAsset,
		params.SellAmount, params.StartPrice, startTime,
		params.Duration, params.DecreaseRate,
	))
	return id, nil
}

// CurrentPrice returns the auction's price at the ledger's current clock
// reading. Terminated auctions are rejected rather than answered with a
// stale price; an active auction whose window has elapsed answers 0.
func (l *Ledger) CurrentPrice(id uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.records[id]
	if !ok {
		return 0, ErrInvalidAuctionID
	}
	if !a.Active {
		return 0, ErrAuctionNotActive
	}
	return a.PriceAt(l.now()), nil
}

// Execute settles the auction for buyer at the current price: the price
// moves from buyer to seller on the buy asset, and the escrowed sell
// amount moves from the ledger to the buyer. Exactly one Execute or
// Cancel ever succeeds per id; on any failure the auction stays active
// and the escrow is untouched, since no record mutation precedes the two
// successful transfer legs.
func (l *Ledger) Execute(buyer string, id uint64) error {
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	l.mu.RLock()
	a, ok := l.records[id]
	l.mu.RUnlock()
	if !ok {
		return ErrInvalidAuctionID
	}
	if !a.Active {
		return ErrAuctionNotActive
	}
	if buyer == a.Seller {
		return ErrSellerCannotBuy
	}

	now := l.now()
	price := a.PriceAt(now)
	if price == 0 {
		// A zero price means the window (or the decay) is exhausted, not
		// a free trade.
		return ErrAuctionEnded
	}

	buyAsset, err := l.assets.Asset(a.BuyAsset)
	if err != nil {
		return fmt.Errorf("%w: buy asset %q: %v", ErrTransferFailed, a.BuyAsset, err)
	}
	sellAsset, err := l.assets.Asset(a.SellAsset)
	if err != nil {
		return fmt.Errorf("%w: sell asset %q: %v", ErrTransferFailed, a.SellAsset, err)
	}

	balance, err := buyAsset.BalanceOf(buyer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if balance < price {
		return fmt.Errorf("%w: buyer holds %d of %s, needs %d",
			ErrInsufficientBalance, balance, a.BuyAsset, price)
	}

	// Payment leg: price moves directly from buyer to seller.
	if err := buyAsset.TransferFrom(buyer, a.Seller, price); err != nil {
		return fmt.Errorf("%w: payment leg: %v", ErrTransferFailed, err)
	}

	// Escrow leg: the ledger pushes its own holding to the buyer.
	if err := sellAsset.Transfer(buyer, a.SellAmount); err != nil {
		return fmt.Errorf("%w: escrow leg: %v", ErrTransferFailed, err)
	}

	l.mu.Lock()
	a.Active = false
	a.Outcome = OutcomeExecuted
	a.Buyer = buyer
	a.FinalPrice = price
	l.mu.Unlock()

	l.pub.PublishAuctionExecuted(events.NewAuctionExecutedEvent(id, buyer, price, now))
	return nil
}

// Cancel returns the escrowed sell amount to the seller and closes the
// auction. Only the seller may cancel; cancellation is allowed whether or
// not the window has expired, as long as the auction is still active.
func (l *Ledger) Cancel(caller string, id uint64) error {
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	l.mu.RLock()
	a, ok := l.records[id]
	l.mu.RUnlock()
	if !ok {
		return ErrInvalidAuctionID
	}
	if caller != a.Seller {
		return ErrOnlySellerCanCancel
	}
	if !a.Active {
		return ErrAuctionNotActive
	}

	sellAsset, err := l.assets.Asset(a.SellAsset)
	if err != nil {
		return fmt.Errorf("%w: sell asset %q: %v", ErrTransferFailed, a.SellAsset, err)
	}
	if err := sellAsset.Transfer(a.Seller, a.SellAmount); err != nil {
		return fmt.Errorf("%w: escrow refund: %v", ErrTransferFailed, err)
	}

	l.mu.Lock()
	a.Active = false
	a.Outcome = OutcomeCancelled
	l.mu.Unlock()

	l.pub.PublishAuctionCancelled(events.NewAuctionCancelledEvent(id, l.now()))
	return nil
}

// Get returns a copy of the full record, terminal or not.
func (l *Ledger) Get(id uint64) (Auction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.records[id]
	if !ok {
		return Auction{}, ErrInvalidAuctionID
	}
	return *a, nil
}

// Count returns the number of auctions ever created. Ids are assigned
// sequentially, so every id below Count is valid for Get.
func (l *Ledger) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID
}

// escrowAccount is the ledger's own account identifier on the asset
// ledgers it escrows into. Transferor handles are bound to this identity
// at wiring time; the string is only informative for balance inspection.
func (l *Ledger) escrowAccount() string {
	return EscrowAccount
}

// EscrowAccount is the account identifier under which the ledger holds
// escrowed sell-side assets.
const EscrowAccount = "auction-engine"
