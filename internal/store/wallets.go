package store

import "errors"

var ErrInsufficientFunds = errors.New("insufficient wallet funds")

// Wallet adapts account balances to the game core's staking-token custody
// contract: Deposit takes a player's stake into the pool, Payout returns
// a reward. Both are single-statement balance updates, so a concurrent
// deposit can never overdraw.
type Wallet struct {
	s *Store
}

// Wallet returns the staking-token ledger backed by this store.
func (s *Store) Wallet() *Wallet {
	return &Wallet{s: s}
}

// Deposit debits the player's wallet by amount. Fails without mutation if
// the wallet holds less than amount.
func (w *Wallet) Deposit(player string, amount int64) error {
	res, err := w.s.db.Exec(
		"UPDATE accounts SET balance = balance - ? WHERE user_id = ? AND balance >= ?",
		amount, player, amount,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := w.s.GetAccountByUserID(player); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Payout credits the player's wallet by amount.
func (w *Wallet) Payout(player string, amount int64) error {
	res, err := w.s.db.Exec(
		"UPDATE accounts SET balance = balance + ? WHERE user_id = ?",
		amount, player,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
