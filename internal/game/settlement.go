package game

// ClaimResult reports the outcome of a reward claim.
type ClaimResult struct {
	GameID   string `json:"game_id"`
	Player   string `json:"player"`
	Amount   int64  `json:"amount"`
	IsWinner bool   `json:"is_winner"`
	Winner   string `json:"winner,omitempty"` // empty on a tie
	Settled  bool   `json:"settled"`          // true once both players have claimed
}

// ClaimReward settles the caller's side of the game. The winner is the
// player with the strictly higher asset valuation at fresh oracle prices;
// the determination happens once, on the first successful claim, so both
// claims settle against the same prices. The claim flag is set on win and
// loss alike, which makes the call idempotent in the only way that
// matters: a second claim fails AlreadyClaimed and changes nothing.
func (g *Game) ClaimReward(caller string) (ClaimResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isPlayer(caller) {
		return ClaimResult{}, ErrNotAPlayer
	}

	g.maybeEnd(g.now())
	if g.state != StateEnded && g.state != StateSettled {
		return ClaimResult{}, ErrGameNotEnded
	}
	if g.claimed[caller] {
		return ClaimResult{}, ErrAlreadyClaimed
	}

	// A stale price aborts here with no flag set and no payout made; the
	// caller retries once the feed recovers.
	if !g.winnerDecided {
		winner, err := g.decideWinner()
		if err != nil {
			return ClaimResult{}, err
		}
		g.winner = winner
		g.winnerDecided = true
		if winner != "" {
			g.notify(EventGameWinner, GameWinner{GameID: g.id, Winner: winner})
		}
	}

	isWinner := g.winner == caller
	var amount int64
	switch {
	case isWinner:
		amount = g.rules.RewardAmount
	case g.winner == "" && g.rules.TieSplitsReward:
		amount = g.rules.RewardAmount / 2
	}
	if amount > 0 {
		if err := g.tokens.Payout(caller, amount); err != nil {
			return ClaimResult{}, err
		}
	}

	g.claimed[caller] = true
	if len(g.claimed) == len(g.players) {
		g.state = StateSettled
	}

	result := ClaimResult{
		GameID:   g.id,
		Player:   caller,
		Amount:   amount,
		IsWinner: isWinner,
		Winner:   g.winner,
		Settled:  g.state == StateSettled,
	}
	g.notify(EventRewardClaimed, RewardClaimed{
		GameID:   g.id,
		Player:   caller,
		Amount:   amount,
		IsWinner: isWinner,
	})
	return result, nil
}

// decideWinner values both players' asset holdings at fresh oracle prices
// and returns the strictly higher one, or "" on a tie. Caller must hold
// the lock.
func (g *Game) decideWinner() (string, error) {
	prices := make(map[string]int64, len(g.rules.Assets))
	for _, asset := range g.rules.Assets {
		price, err := g.oracle.FreshPrice(asset)
		if err != nil {
			return "", err
		}
		prices[asset] = price
	}

	v0 := g.valuation(g.players[0], prices)
	v1 := g.valuation(g.players[1], prices)
	switch {
	case v0 > v1:
		return g.players[0], nil
	case v1 > v0:
		return g.players[1], nil
	default:
		return "", nil
	}
}

// valuation sums the player's asset holdings at the given prices. The
// staking balance is deliberately excluded: the contest is over asset
// positions, not unspent stake.
func (g *Game) valuation(player string, prices map[string]int64) int64 {
	var total int64
	for _, asset := range g.rules.Assets {
		total += g.ledger.BalanceOf(player, asset) * prices[asset]
	}
	return total
}
