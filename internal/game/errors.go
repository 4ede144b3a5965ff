package game

import "errors"

var (
	ErrInvalidRules     = errors.New("invalid game rules")
	ErrAlreadyEnrolled  = errors.New("player already enrolled")
	ErrGameFull         = errors.New("game already has two players")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotAPlayer       = errors.New("caller is not an enrolled player")
	ErrGameNotActive    = errors.New("game is not active")
	ErrGameEnded        = errors.New("game has ended")
	ErrGameNotEnded     = errors.New("game has not ended")
	ErrAlreadyClaimed   = errors.New("reward already claimed")
	ErrGameNotFound     = errors.New("game not found")
)
