package store

import (
	"database/sql"
	"time"
)

// GameRecord is the durable row for one game. Rows are written at
// creation and updated on enrollment, start and settlement; they are
// never deleted.
type GameRecord struct {
	ID              string
	StakeToken      string
	StakeAmount     int64
	DurationSec     int64
	RewardAmount    int64
	Asset1          string
	Asset2          string
	Asset1Amount    int64
	Asset2Amount    int64
	TieSplitsReward bool
	State           string
	Player1         string
	Player2         string
	StartedAt       time.Time
	EndedAt         time.Time
	Winner          string
	CreatedAt       time.Time
}

// TradeRecord is the audit row for one executed trade.
type TradeRecord struct {
	ID        string
	GameID    string
	Player    string
	Asset     string
	Side      string // "buy" or "sell"
	Price     int64
	Amount    int64
	Cost      int64
	CreatedAt time.Time
}

// ClaimRecord is the audit row for one reward claim.
type ClaimRecord struct {
	ID        int64
	GameID    string
	Player    string
	Amount    int64
	IsWinner  bool
	CreatedAt time.Time
}

// InsertGame writes the creation-time record.
func (s *Store) InsertGame(g GameRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO games (id, stake_token, stake_amount, duration_sec, reward_amount,
			asset1, asset2, asset1_amount, asset2_amount, tie_splits_reward, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.StakeToken, g.StakeAmount, g.DurationSec, g.RewardAmount,
		g.Asset1, g.Asset2, g.Asset1Amount, g.Asset2Amount, g.TieSplitsReward, g.State)
	return err
}

// UpdateGamePlayers records the enrolled players and current state.
func (s *Store) UpdateGamePlayers(id, state, player1, player2 string) error {
	_, err := s.db.Exec(
		"UPDATE games SET state = ?, player1 = ?, player2 = NULLIF(?, '') WHERE id = ?",
		state, player1, player2, id,
	)
	return err
}

// UpdateGameStarted records the start of the trading window.
func (s *Store) UpdateGameStarted(id, state string, startedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE games SET state = ?, started_at = ? WHERE id = ?",
		state, startedAt, id,
	)
	return err
}

// UpdateGameState records a bare state change.
func (s *Store) UpdateGameState(id, state string) error {
	_, err := s.db.Exec("UPDATE games SET state = ? WHERE id = ?", state, id)
	return err
}

// UpdateGameSettled records the final outcome once both claims are in.
func (s *Store) UpdateGameSettled(id, state, winner string, endedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE games SET state = ?, winner = NULLIF(?, ''), ended_at = ? WHERE id = ?",
		state, winner, endedAt, id,
	)
	return err
}

// GetGame returns the record for one game.
func (s *Store) GetGame(id string) (*GameRecord, error) {
	var g GameRecord
	var player1, player2, winner sql.NullString
	var startedAt, endedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, stake_token, stake_amount, duration_sec, reward_amount,
			asset1, asset2, asset1_amount, asset2_amount, tie_splits_reward,
			state, player1, player2, started_at, ended_at, winner, created_at
		FROM games WHERE id = ?
	`, id).Scan(
		&g.ID, &g.StakeToken, &g.StakeAmount, &g.DurationSec, &g.RewardAmount,
		&g.Asset1, &g.Asset2, &g.Asset1Amount, &g.Asset2Amount, &g.TieSplitsReward,
		&g.State, &player1, &player2, &startedAt, &endedAt, &winner, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Player1 = player1.String
	g.Player2 = player2.String
	g.Winner = winner.String
	g.StartedAt = startedAt.Time
	g.EndedAt = endedAt.Time
	return &g, nil
}

// RecentGames returns the most recently created games.
func (s *Store) RecentGames(limit int) ([]GameRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, stake_token, stake_amount, duration_sec, reward_amount,
			asset1, asset2, asset1_amount, asset2_amount, tie_splits_reward,
			state, player1, player2, started_at, ended_at, winner, created_at
		FROM games
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		var player1, player2, winner sql.NullString
		var startedAt, endedAt sql.NullTime
		if err := rows.Scan(
			&g.ID, &g.StakeToken, &g.StakeAmount, &g.DurationSec, &g.RewardAmount,
			&g.Asset1, &g.Asset2, &g.Asset1Amount, &g.Asset2Amount, &g.TieSplitsReward,
			&g.State, &player1, &player2, &startedAt, &endedAt, &winner, &g.CreatedAt,
		); err != nil {
			return nil, err
		}
		g.Player1 = player1.String
		g.Player2 = player2.String
		g.Winner = winner.String
		g.StartedAt = startedAt.Time
		g.EndedAt = endedAt.Time
		games = append(games, g)
	}
	return games, rows.Err()
}

// RecordTrade appends a trade to the audit trail.
func (s *Store) RecordTrade(t TradeRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO game_trades (id, game_id, player, asset, side, price, amount, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.GameID, t.Player, t.Asset, t.Side, t.Price, t.Amount, t.Cost)
	return err
}

// GameTrades returns the trade history for a game, oldest first.
func (s *Store) GameTrades(gameID string, limit int) ([]TradeRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, game_id, player, asset, side, price, amount, cost, created_at
		FROM game_trades
		WHERE game_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.ID, &t.GameID, &t.Player, &t.Asset, &t.Side,
			&t.Price, &t.Amount, &t.Cost, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// RecordClaim appends a claim to the audit trail and updates the player's
// aggregate stats in the same transaction. The UNIQUE(game_id, player)
// constraint backs up the core's idempotency guarantee at the storage
// layer.
func (s *Store) RecordClaim(c ClaimRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO reward_claims (game_id, player, amount, is_winner)
		VALUES (?, ?, ?, ?)
	`, c.GameID, c.Player, c.Amount, c.IsWinner); err != nil {
		return err
	}

	won := 0
	if c.IsWinner {
		won = 1
	}
	if _, err := tx.Exec(`
		INSERT INTO game_stats (user_id, games_played, games_won, total_rewards, updated_at)
		VALUES (?, 1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			games_played = games_played + 1,
			games_won = games_won + ?,
			total_rewards = total_rewards + ?,
			updated_at = CURRENT_TIMESTAMP
	`, c.Player, won, c.Amount, won, c.Amount); err != nil {
		return err
	}
	return tx.Commit()
}

// GameClaims returns the claims recorded for a game.
func (s *Store) GameClaims(gameID string) ([]ClaimRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, game_id, player, amount, is_winner, created_at
		FROM reward_claims
		WHERE game_id = ?
		ORDER BY created_at ASC, id ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []ClaimRecord
	for rows.Next() {
		var c ClaimRecord
		if err := rows.Scan(&c.ID, &c.GameID, &c.Player, &c.Amount, &c.IsWinner, &c.CreatedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// LeaderboardEntry summarizes a player's game outcomes.
type LeaderboardEntry struct {
	Username     string `json:"username"`
	GamesPlayed  int    `json:"games_played"`
	GamesWon     int    `json:"games_won"`
	TotalRewards int64  `json:"total_rewards"`
}

// GetLeaderboard returns the top players by wins, then total rewards.
func (s *Store) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(`
		SELECT u.username, g.games_played, g.games_won, g.total_rewards
		FROM game_stats g
		JOIN users u ON g.user_id = u.id
		ORDER BY g.games_won DESC, g.total_rewards DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesPlayed, &e.GamesWon, &e.TotalRewards); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
