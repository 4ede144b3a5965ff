package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"duel/internal/game"
	"duel/internal/ledger"
	"duel/internal/oracle"
	"duel/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// PriceBoard exposes the current oracle quotes for the read-only prices
// endpoint.
type PriceBoard interface {
	Quotes() map[string]oracle.Quote
}

type Server struct {
	registry    *game.Registry
	store       *store.Store
	sessions    *SessionStore
	hub         *Hub
	rateLimiter *RateLimiter
	prices      PriceBoard
	upgrader    websocket.Upgrader
	corsOrigins []string
}

// NewServer wires the HTTP entry operations. The hub is passed in because
// it doubles as the game registry's notification collaborator and must
// exist before the registry does.
func NewServer(registry *game.Registry, st *store.Store, hub *Hub, prices PriceBoard) *Server {
	s := &Server{
		registry:    registry,
		store:       st,
		sessions:    NewSessionStore(st),
		hub:         hub,
		rateLimiter: NewRateLimiter(300, 1*time.Minute),
		prices:      prices,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.checkCORSOrigin(r.Header.Get("Origin"))
		},
	}
	return s
}

// SetCORSOrigins sets the allowed CORS origins. An empty slice allows all
// origins (development default).
func (s *Server) SetCORSOrigins(origins []string) {
	s.corsOrigins = origins
}

func (s *Server) checkCORSOrigin(origin string) bool {
	if len(s.corsOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimiter.Middleware)

	allowedOrigins := s.corsOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/account", s.handleGetAccount)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/prices", s.handlePrices)

		r.Post("/games", s.handleCreateGame)
		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Post("/games/{id}/enroll", s.handleEnroll)
		r.Post("/games/{id}/trades", s.handleTrade)
		r.Get("/games/{id}/trades", s.handleGameTrades)
		r.Post("/games/{id}/claim", s.handleClaim)
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

// statusForError maps core failures onto HTTP statuses. Every error kind
// is terminal for the call; retrying is the client's decision.
func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidRules),
		errors.Is(err, oracle.ErrUnknownAsset),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotAPlayer):
		return http.StatusForbidden
	case errors.Is(err, game.ErrAlreadyEnrolled),
		errors.Is(err, game.ErrGameFull),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrGameEnded),
		errors.Is(err, game.ErrGameNotEnded),
		errors.Is(err, game.ErrAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, oracle.ErrStalePrice):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type CreateGameRequest struct {
	StakeAmount     int64      `json:"stake_amount"`
	DurationSec     int64      `json:"duration_sec"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	RewardAmount    int64      `json:"reward_amount"`
	Assets          []string   `json:"assets"`
	AssetAmounts    []int64    `json:"asset_amounts"`
	TieSplitsReward bool       `json:"tie_splits_reward"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rules := game.Rules{
		StakeAmount:     req.StakeAmount,
		Duration:        time.Duration(req.DurationSec) * time.Second,
		RewardAmount:    req.RewardAmount,
		Assets:          req.Assets,
		AssetAmounts:    req.AssetAmounts,
		TieSplitsReward: req.TieSplitsReward,
	}
	if req.StartTime != nil {
		rules.StartTime = *req.StartTime
	}

	g, err := s.registry.Create(rules)
	if err != nil {
		writeError(w, err)
		return
	}

	rec := store.GameRecord{
		ID:              g.ID(),
		StakeToken:      g.Status().StakeToken,
		StakeAmount:     rules.StakeAmount,
		DurationSec:     req.DurationSec,
		RewardAmount:    rules.RewardAmount,
		Asset1:          rules.Assets[0],
		Asset2:          rules.Assets[1],
		Asset1Amount:    rules.AssetAmounts[0],
		Asset2Amount:    rules.AssetAmounts[1],
		TieSplitsReward: rules.TieSplitsReward,
		State:           game.StateCreated.String(),
	}
	if err := s.store.InsertGame(rec); err != nil {
		log.Printf("[api] failed to persist game %s: %v", g.ID(), err)
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, g.Status())
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.registry.List()
	statuses := make([]game.Status, 0, len(games))
	for _, g := range games {
		statuses = append(statuses, g.Status())
	}
	writeJSON(w, statuses)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, g.Status())
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := g.Enroll(session.UserID); err != nil {
		writeError(w, err)
		return
	}

	st := g.Status()
	player2 := ""
	if len(st.Players) > 1 {
		player2 = st.Players[1]
	}
	if err := s.store.UpdateGamePlayers(st.ID, st.State, st.Players[0], player2); err != nil {
		log.Printf("[api] failed to persist enrollment for game %s: %v", st.ID, err)
	}
	if !st.StartedAt.IsZero() {
		if err := s.store.UpdateGameStarted(st.ID, st.State, st.StartedAt); err != nil {
			log.Printf("[api] failed to persist start for game %s: %v", st.ID, err)
		}
	}

	writeJSON(w, st)
}

type TradeRequest struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
	IsBuy  bool   `json:"is_buy"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := g.Trade(session.UserID, req.Asset, req.Amount, req.IsBuy)
	if err != nil {
		writeError(w, err)
		return
	}

	side := "sell"
	if receipt.IsBuy {
		side = "buy"
	}
	if err := s.store.RecordTrade(store.TradeRecord{
		ID:     uuid.NewString(),
		GameID: receipt.GameID,
		Player: receipt.Player,
		Asset:  receipt.Asset,
		Side:   side,
		Price:  receipt.Price,
		Amount: receipt.Amount,
		Cost:   receipt.Cost,
	}); err != nil {
		log.Printf("[api] failed to persist trade in game %s: %v", receipt.GameID, err)
	}

	writeJSON(w, receipt)
}

func (s *Server) handleGameTrades(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	trades, err := s.store.GameTrades(gameID, limit)
	if err != nil {
		http.Error(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, trades)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := g.ClaimReward(session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.RecordClaim(store.ClaimRecord{
		GameID:   result.GameID,
		Player:   result.Player,
		Amount:   result.Amount,
		IsWinner: result.IsWinner,
	}); err != nil {
		log.Printf("[api] failed to persist claim in game %s: %v", result.GameID, err)
	}
	if result.Settled {
		if err := s.store.UpdateGameSettled(result.GameID, game.StateSettled.String(), result.Winner, time.Now()); err != nil {
			log.Printf("[api] failed to persist settlement for game %s: %v", result.GameID, err)
		}
	}

	writeJSON(w, result)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.GetLeaderboard(10)
	if err != nil {
		http.Error(w, "failed to get leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeJSON(w, map[string]oracle.Quote{})
		return
	}
	writeJSON(w, s.prices.Quotes())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		lastPong: time.Now(),
	}
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// Shutdown stops internal goroutines (session cleanup, rate limiter, hub).
func (s *Server) Shutdown() {
	s.sessions.Stop()
	s.rateLimiter.Stop()
	s.hub.Stop()
}
