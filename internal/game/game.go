package game

import (
	"sync"
	"time"

	"duel/internal/ledger"
	"duel/internal/oracle"
)

// State represents the lifecycle phase of a game.
type State int

const (
	StateCreated   State = iota // no players yet
	StateEnrolling              // one player staked
	StateActive                 // both players staked, trading window armed
	StateEnded                  // trading window elapsed
	StateSettled                // both rewards claimed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateEnrolling:
		return "ENROLLING"
	case StateActive:
		return "ACTIVE"
	case StateEnded:
		return "ENDED"
	case StateSettled:
		return "SETTLED"
	default:
		return "UNKNOWN"
	}
}

// TokenLedger is the custody contract for the staking token. Deposit
// moves a player's stake into the pool, Payout moves a reward back out.
// The implementation lives outside the game core.
type TokenLedger interface {
	Deposit(player string, amount int64) error
	Payout(player string, amount int64) error
}

// Config wires a game to its collaborators.
type Config struct {
	ID         string
	Rules      Rules
	Oracle     oracle.Source
	Freshness  time.Duration // max acceptable oracle quote age
	StakeToken string        // staking token symbol
	Tokens     TokenLedger
	Notifier   Notifier
	Clock      func() time.Time // nil defaults to time.Now
}

// Game is a single two-player staking and trading session. One mutex
// serializes every externally invoked operation, so no partial state is
// ever observable; distinct games are fully independent.
type Game struct {
	mu sync.Mutex

	id         string
	rules      Rules
	oracle     *oracle.Adapter
	stakeToken string
	tokens     TokenLedger
	notifier   Notifier
	now        func() time.Time

	state     State
	players   []string
	ledger    *ledger.Ledger
	claimed   map[string]bool
	startedAt time.Time

	winner        string
	winnerDecided bool
}

// New constructs a game in the Created state. The rules are validated
// here and never change afterwards.
func New(cfg Config) (*Game, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Game{
		id:         cfg.ID,
		rules:      cfg.Rules,
		oracle:     oracle.NewAdapter(cfg.Oracle, cfg.Freshness, clock),
		stakeToken: cfg.StakeToken,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		now:        clock,
		state:      StateCreated,
		ledger:     ledger.New(),
		claimed:    make(map[string]bool),
	}, nil
}

// Enroll admits the caller into an open player slot. The stake deposit is
// taken through the token collaborator before the player is recorded, so
// a failed deposit admits nobody. The second enrollment arms the trading
// window.
func (g *Game) Enroll(caller string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if p == caller {
			return ErrAlreadyEnrolled
		}
	}
	if g.state != StateCreated && g.state != StateEnrolling {
		return ErrGameFull
	}
	if len(g.players) >= 2 {
		return ErrGameFull
	}

	if err := g.tokens.Deposit(caller, g.rules.StakeAmount); err != nil {
		return err
	}

	g.players = append(g.players, caller)
	g.ledger.Credit(caller, g.stakeToken, g.rules.StakeAmount)
	for i, asset := range g.rules.Assets {
		if amount := g.rules.AssetAmounts[i]; amount > 0 {
			g.ledger.Credit(caller, asset, amount)
		}
	}
	g.state = StateEnrolling
	g.notify(EventPlayerEnrolled, PlayerEnrolled{GameID: g.id, Player: caller})

	if len(g.players) == 2 {
		g.start()
	}
	return nil
}

// Start arms the trading window explicitly. The second enrollment does
// this implicitly, so Start only matters as a validity check: it fails
// until both slots are filled and is a no-op afterwards.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) < 2 {
		return ErrNotEnoughPlayers
	}
	return nil
}

// start records the start time and activates trading. If the rules carry
// a future start time the game is armed but trades are rejected until
// that moment. Caller must hold the lock.
func (g *Game) start() {
	start := g.now()
	if g.rules.StartTime.After(start) {
		start = g.rules.StartTime
	}
	g.startedAt = start
	g.state = StateActive
	g.notify(EventGameStarted, GameStarted{
		GameID:      g.id,
		StartTime:   start,
		DurationSec: int64(g.rules.Duration / time.Second),
	})
}

// endTime returns when the trading window closes. Meaningless before the
// game is started.
func (g *Game) endTime() time.Time {
	return g.startedAt.Add(g.rules.Duration)
}

// maybeEnd performs the lazy closure check: there is no background
// scheduler, so any operation that cares about the phase calls this
// first. Caller must hold the lock.
func (g *Game) maybeEnd(now time.Time) {
	if g.state == StateActive && !now.Before(g.endTime()) {
		g.state = StateEnded
	}
}

func (g *Game) isPlayer(caller string) bool {
	for _, p := range g.players {
		if p == caller {
			return true
		}
	}
	return false
}

func (g *Game) notify(event string, payload interface{}) {
	if g.notifier != nil {
		g.notifier.Notify(event, payload)
	}
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// Rules returns a copy of the game's immutable rules.
func (g *Game) Rules() Rules { return g.rules }

// BalanceOf returns the player's current balance of asset (the staking
// token included).
func (g *Game) BalanceOf(player, asset string) int64 {
	return g.ledger.BalanceOf(player, asset)
}

// Status is a point-in-time view of a game for callers and the API.
type Status struct {
	ID           string                      `json:"id"`
	State        string                      `json:"state"`
	Players      []string                    `json:"players"`
	StakeToken   string                      `json:"stake_token"`
	StakeAmount  int64                       `json:"stake_amount"`
	RewardAmount int64                       `json:"reward_amount"`
	Assets       []string                    `json:"assets"`
	StartedAt    time.Time                   `json:"started_at,omitempty"`
	EndsAt       time.Time                   `json:"ends_at,omitempty"`
	Winner       string                      `json:"winner,omitempty"`
	Claimed      map[string]bool             `json:"claimed"`
	Balances     map[string]map[string]int64 `json:"balances"`
}

// Status snapshots the game. The lazy closure check runs here too, so a
// read after the window elapses reports ENDED.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.maybeEnd(g.now())

	st := Status{
		ID:           g.id,
		State:        g.state.String(),
		Players:      append([]string(nil), g.players...),
		StakeToken:   g.stakeToken,
		StakeAmount:  g.rules.StakeAmount,
		RewardAmount: g.rules.RewardAmount,
		Assets:       append([]string(nil), g.rules.Assets...),
		Winner:       g.winner,
		Claimed:      make(map[string]bool, len(g.claimed)),
		Balances:     make(map[string]map[string]int64, len(g.players)),
	}
	if g.state >= StateActive {
		st.StartedAt = g.startedAt
		st.EndsAt = g.endTime()
	}
	for p, c := range g.claimed {
		st.Claimed[p] = c
	}
	for _, p := range g.players {
		st.Balances[p] = g.ledger.Balances(p)
	}
	return st
}
