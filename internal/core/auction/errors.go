package auction

import "errors"

var (
	// ErrInvalidParameters indicates that one or more creation parameters
	// failed validation (empty asset id, zero amount, zero duration, ...).
	ErrInvalidParameters = errors.New("invalid auction parameters")

	// ErrInvalidAuctionID indicates that the referenced id was never assigned.
	ErrInvalidAuctionID = errors.New("invalid auction id")

	// ErrAuctionNotActive indicates that the auction has already been
	// executed or cancelled.
	ErrAuctionNotActive = errors.New("auction is not active")

	// ErrAuctionEnded indicates that the price has decayed to zero.
	ErrAuctionEnded = errors.New("auction has ended")

	// ErrSellerCannotBuy indicates that a seller tried to execute their
	// own auction.
	ErrSellerCannotBuy = errors.New("seller cannot buy their own auction")

	// ErrOnlySellerCanCancel indicates that a non-seller tried to cancel.
	ErrOnlySellerCanCancel = errors.New("only the seller can cancel")

	// ErrInsufficientBalance indicates that the payer does not hold enough
	// of the asset for the requested leg.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferFailed indicates that the asset-transfer collaborator
	// rejected a leg.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrReentrantCall indicates that a mutating entry point was invoked
	// while another mutating call was already in progress on the same
	// ledger instance. Such calls are rejected, never queued.
	ErrReentrantCall = errors.New("reentrant call rejected")
)

// IsTerminalStateError reports whether err is one of the errors a caller
// can observe after losing a race to a terminal transition.
func IsTerminalStateError(err error) bool {
	return errors.Is(err, ErrAuctionNotActive) || errors.Is(err, ErrAuctionEnded)
}
