package game

import "time"

// Notifier receives fire-and-forget game events. Delivery, fan-out and
// indexing are the collaborator's concern; the game never waits on it.
type Notifier interface {
	Notify(event string, payload interface{})
}

const (
	EventPlayerEnrolled = "player_enrolled"
	EventGameStarted    = "game_started"
	EventAssetTraded    = "asset_traded"
	EventGameWinner     = "game_winner"
	EventRewardClaimed  = "reward_claimed"
)

type PlayerEnrolled struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
}

type GameStarted struct {
	GameID      string    `json:"game_id"`
	StartTime   time.Time `json:"start_time"`
	DurationSec int64     `json:"duration_sec"`
}

type AssetTraded struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
	Asset  string `json:"asset"`
	Price  int64  `json:"price"`
	Amount int64  `json:"amount"`
	IsBuy  bool   `json:"is_buy"`
}

type GameWinner struct {
	GameID string `json:"game_id"`
	Winner string `json:"winner"`
}

type RewardClaimed struct {
	GameID   string `json:"game_id"`
	Player   string `json:"player"`
	Amount   int64  `json:"amount"`
	IsWinner bool   `json:"is_winner"`
}
