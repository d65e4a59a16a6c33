// Package assets defines the narrow asset-transfer capability the auction
// ledger consumes, and provides the in-process fungible-asset ledger used
// by the demo wiring and the test harness. The auction ledger never
// assumes a Transferor is well behaved: implementations may fail any call
// and may call back into the engine.
package assets

import "errors"

//go:generate mockgen -source=assets.go -destination=mock/mock_assets.go -package=mock

var (
	// ErrUnknownAsset indicates that no ledger is registered under the
	// requested asset identifier.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrInsufficientBalance indicates that the source account does not
	// hold the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance indicates that the spender has not been
	// authorized to move the requested amount from the source account.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Transferor is the capability handle the auction ledger holds on one
// asset. The handle is bound to the engine's own account: Transfer moves
// funds the engine itself holds, TransferFrom moves third-party funds the
// engine has been authorized to spend.
type Transferor interface {
	// BalanceOf returns the holder's balance on this asset.
	BalanceOf(holder string) (uint64, error)

	// TransferFrom moves amount from `from` to `to`. It requires prior
	// authorization of the bound account by `from`.
	TransferFrom(from, to string, amount uint64) error

	// Transfer moves amount from the bound account to `to`.
	Transfer(to string, amount uint64) error
}

// Registry resolves asset identifiers to Transferor handles.
type Registry interface {
	// Asset returns the Transferor for the given asset identifier, or
	// ErrUnknownAsset.
	Asset(id string) (Transferor, error)
}

// MapRegistry is a Registry backed by a plain map. It is assembled once
// at wiring time and read-only afterwards.
type MapRegistry map[string]Transferor

// Asset implements Registry.
func (m MapRegistry) Asset(id string) (Transferor, error) {
	t, ok := m[id]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return t, nil
}
