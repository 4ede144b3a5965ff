package game

import (
	"fmt"
	"time"
)

// Rules fixes the parameters of a game at creation time. A copy is stored
// in the game and no operation mutates it afterwards; immutability is
// enforced by the absence of any update entry point.
type Rules struct {
	StakeAmount  int64         // staking-token deposit required per player, in cents
	Duration     time.Duration // length of the trading window
	StartTime    time.Time     // optional; zero means trading starts on the second enrollment
	RewardAmount int64         // paid to the winner from the staking pool, in cents
	Assets       []string      // exactly two tradeable asset symbols
	AssetAmounts []int64       // initial per-player holdings, aligned with Assets

	// TieSplitsReward splits the reward evenly when final valuations tie.
	// Default is false: a tie pays neither player.
	TieSplitsReward bool
}

// Validate checks the construction-time invariants.
func (r Rules) Validate() error {
	if r.StakeAmount <= 0 {
		return fmt.Errorf("%w: stake amount must be positive", ErrInvalidRules)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidRules)
	}
	if r.RewardAmount < 0 {
		return fmt.Errorf("%w: reward amount cannot be negative", ErrInvalidRules)
	}
	if len(r.Assets) != 2 {
		return fmt.Errorf("%w: exactly two tradeable assets required, got %d", ErrInvalidRules, len(r.Assets))
	}
	if len(r.AssetAmounts) != len(r.Assets) {
		return fmt.Errorf("%w: %d assets but %d initial amounts", ErrInvalidRules, len(r.Assets), len(r.AssetAmounts))
	}
	if r.Assets[0] == r.Assets[1] {
		return fmt.Errorf("%w: tradeable assets must be distinct", ErrInvalidRules)
	}
	for i, amount := range r.AssetAmounts {
		if amount < 0 {
			return fmt.Errorf("%w: initial amount for %s cannot be negative", ErrInvalidRules, r.Assets[i])
		}
	}
	return nil
}
