package assets

import (
	"fmt"
	"sync"
)

// TokenLedger is an in-memory fungible-asset ledger with balances and
// spender allowances. It stands in for the external asset ledgers the
// auction engine is wired against in production, and is the collaborator
// exercised by the demo command and the test harness.
type TokenLedger struct {
	mu sync.RWMutex

	id       string
	balances map[string]uint64
	// allowances[owner][spender] is the amount spender may move on
	// owner's behalf.
	allowances map[string]map[string]uint64
}

// NewTokenLedger creates an empty ledger identified by id.
func NewTokenLedger(id string) *TokenLedger {
	return &TokenLedger{
		id:         id,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// ID returns the asset identifier of this ledger.
func (l *TokenLedger) ID() string {
	return l.id
}

// Mint credits amount to holder out of thin air.
func (l *TokenLedger) Mint(holder string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[holder] += amount
}

// BalanceOf returns the holder's balance. Unknown holders have balance 0.
func (l *TokenLedger) BalanceOf(holder string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[holder], nil
}

// Approve authorizes spender to move up to amount from owner. A later
// Approve overwrites the previous allowance; approving 0 revokes it.
func (l *TokenLedger) Approve(owner, spender string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[string]uint64)
		l.allowances[owner] = m
	}
	m[spender] = amount
}

// Allowance returns the remaining amount spender may move from owner.
func (l *TokenLedger) Allowance(owner, spender string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[owner][spender]
}

// Transfer moves amount from one account to another. The caller vouches
// for `from`; bindings produced by Binding restrict it to the bound
// account.
func (l *TokenLedger) Transfer(from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount from owner to `to` on behalf of spender,
// consuming the spender's allowance.
func (l *TokenLedger) TransferFrom(spender, owner, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[owner][spender]
	if allowed < amount {
		return fmt.Errorf("%w: %s allowed %d of %s from %s, needs %d",
			ErrInsufficientAllowance, spender, allowed, l.id, owner, amount)
	}
	if err := l.move(owner, to, amount); err != nil {
		return err
	}
	l.allowances[owner][spender] = allowed - amount
	return nil
}

// move performs the balance update. Callers hold l.mu.
func (l *TokenLedger) move(from, to string, amount uint64) error {
	balance := l.balances[from]
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d of %s, needs %d",
			ErrInsufficientBalance, from, balance, l.id, amount)
	}
	l.balances[from] = balance - amount
	l.balances[to] += amount
	return nil
}

// Binding returns a Transferor view of the ledger bound to the given
// account. Transfer spends the bound account's own funds; TransferFrom
// spends third-party funds against the bound account's allowance.
func (l *TokenLedger) Binding(account string) Transferor {
	return &binding{ledger: l, account: account}
}

type binding struct {
	ledger  *TokenLedger
	account string
}

func (b *binding) BalanceOf(holder string) (uint64, error) {
	return b.ledger.BalanceOf(holder)
}

func (b *binding) TransferFrom(from, to string, amount uint64) error {
	return b.ledger.TransferFrom(b.account, from, to, amount)
}

func (b *binding) Transfer(to string, amount uint64) error {
	return b.ledger.Transfer(b.account, to, amount)
}

var _ Transferor = (*binding)(nil)
