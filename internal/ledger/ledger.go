package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Ledger tracks per-player balances for a single game. Asset keys are
// opaque symbols; the staking token is just another asset as far as the
// ledger is concerned. The ledger holds no policy - authorization and
// phase checks belong to the caller.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]map[string]int64 // player -> asset -> amount
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[string]map[string]int64),
	}
}

// Credit adds amount units of asset to the player's balance. Quantities
// are strictly positive; a zero or negative credit is a caller bug, not a
// transfer.
func (l *Ledger) Credit(player, asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit of %d %s", ErrInvalidAmount, amount, asset)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.balances[player]
	if acct == nil {
		acct = make(map[string]int64)
		l.balances[player] = acct
	}
	acct[asset] += amount
	return nil
}

// Debit removes amount units of asset from the player's balance. The
// amount and balance are checked before any mutation, so a failed debit
// leaves the ledger untouched. A negative debit would act as a credit and
// is rejected for the same reason a negative credit is.
func (l *Ledger) Debit(player, asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit of %d %s", ErrInvalidAmount, amount, asset)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.balances[player]
	if acct[asset] < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientBalance, player, acct[asset], asset, amount)
	}
	acct[asset] -= amount
	return nil
}

// BalanceOf returns the player's current balance of asset.
func (l *Ledger) BalanceOf(player, asset string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[player][asset]
}

// Balances returns a copy of all of the player's balances.
func (l *Ledger) Balances(player string) map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.balances[player]))
	for asset, amount := range l.balances[player] {
		out[asset] = amount
	}
	return out
}
