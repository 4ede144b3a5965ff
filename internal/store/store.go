package store

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultWalletBalance is the staking-token balance a new account starts
// with, in cents.
const DefaultWalletBalance int64 = 1000000

// Store provides SQLite persistence: caller identities, staking-token
// wallets, and the durable record of every game, trade and claim.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies any pending
// migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection for advanced operations.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// User represents a registered caller identity.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Account holds a user's staking-token wallet.
type Account struct {
	ID        string
	UserID    string
	Balance   int64 // in cents
	CreatedAt time.Time
}
