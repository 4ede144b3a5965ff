package store

import "fmt"

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all migrations. New migrations are
// appended with incrementing version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Identities and staking wallets",
		SQL: `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id),
			balance INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
		`,
	},
	{
		Version:     2,
		Description: "Games, trades, claims and stats",
		SQL: `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			stake_token TEXT NOT NULL,
			stake_amount INTEGER NOT NULL,
			duration_sec INTEGER NOT NULL,
			reward_amount INTEGER NOT NULL,
			asset1 TEXT NOT NULL,
			asset2 TEXT NOT NULL,
			asset1_amount INTEGER NOT NULL DEFAULT 0,
			asset2_amount INTEGER NOT NULL DEFAULT 0,
			tie_splits_reward BOOLEAN NOT NULL DEFAULT FALSE,
			state TEXT NOT NULL,
			player1 TEXT,
			player2 TEXT,
			started_at DATETIME,
			ended_at DATETIME,
			winner TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS game_trades (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id),
			player TEXT NOT NULL,
			asset TEXT NOT NULL,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			cost INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS reward_claims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL REFERENCES games(id),
			player TEXT NOT NULL,
			amount INTEGER NOT NULL,
			is_winner BOOLEAN NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(game_id, player)
		);

		CREATE TABLE IF NOT EXISTS game_stats (
			user_id TEXT PRIMARY KEY REFERENCES users(id),
			games_played INTEGER NOT NULL DEFAULT 0,
			games_won INTEGER NOT NULL DEFAULT 0,
			total_rewards INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_games_state ON games(state);
		CREATE INDEX IF NOT EXISTS idx_game_trades_game ON game_trades(game_id);
		CREATE INDEX IF NOT EXISTS idx_reward_claims_game ON reward_claims(game_id);
		`,
	},
}

// initMigrationsTable creates the migrations tracking table
func (s *Store) initMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// getCurrentVersion returns the highest applied migration version
func (s *Store) getCurrentVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Migrate runs all pending migrations
func (s *Store) Migrate() error {
	if err := s.initMigrationsTable(); err != nil {
		return fmt.Errorf("failed to init migrations table: %w", err)
	}

	currentVersion, err := s.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}
	return nil
}

// applyMigration runs a single migration in a transaction
func (s *Store) applyMigration(m Migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
		m.Version, m.Description,
	); err != nil {
		return err
	}
	return tx.Commit()
}
