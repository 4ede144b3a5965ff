package game

import (
	"sync"
	"time"

	"duel/internal/oracle"

	"github.com/google/uuid"
)

// Registry owns all live games, keyed by generated ID. Many games can run
// concurrently; each carries its own lock.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*Game

	oracle     oracle.Source
	freshness  time.Duration
	stakeToken string
	tokens     TokenLedger
	notifier   Notifier
	now        func() time.Time
}

// RegistryConfig wires the collaborators shared by every game.
type RegistryConfig struct {
	Oracle     oracle.Source
	Freshness  time.Duration
	StakeToken string
	Tokens     TokenLedger
	Notifier   Notifier
	Clock      func() time.Time // nil defaults to time.Now
}

func NewRegistry(cfg RegistryConfig) *Registry {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		games:      make(map[string]*Game),
		oracle:     cfg.Oracle,
		freshness:  cfg.Freshness,
		stakeToken: cfg.StakeToken,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		now:        clock,
	}
}

// Create validates the rules and registers a new game, returning it with
// its generated ID.
func (r *Registry) Create(rules Rules) (*Game, error) {
	g, err := New(Config{
		ID:         uuid.NewString(),
		Rules:      rules,
		Oracle:     r.oracle,
		Freshness:  r.freshness,
		StakeToken: r.stakeToken,
		Tokens:     r.tokens,
		Notifier:   r.notifier,
		Clock:      r.now,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.games[g.ID()] = g
	r.mu.Unlock()
	return g, nil
}

// Get returns the game with the given ID.
func (r *Registry) Get(id string) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// List returns all registered games.
func (r *Registry) List() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out
}
