package game

import (
	"fmt"
	"math"

	"duel/internal/oracle"
)

// TradeReceipt reports the executed terms of a trade.
type TradeReceipt struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
	Price  int64  `json:"price"` // oracle price at execution, cents per unit
	Cost   int64  `json:"cost"`  // staking tokens moved, price * amount
	IsBuy  bool   `json:"is_buy"`
}

// Trade executes a buy or sell of amount units of asset at the current
// oracle price. A buy debits the player's staking balance and credits the
// asset; a sell is the inverse. Every check runs before the first ledger
// mutation, and the debit side of the pair is applied first, so a failed
// trade leaves all balances untouched.
func (g *Game) Trade(caller, asset string, amount int64, isBuy bool) (TradeReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.maybeEnd(now)

	switch {
	case g.state == StateEnded || g.state == StateSettled:
		return TradeReceipt{}, ErrGameEnded
	case g.state != StateActive || now.Before(g.startedAt):
		return TradeReceipt{}, ErrGameNotActive
	}
	if !g.isPlayer(caller) {
		return TradeReceipt{}, ErrNotAPlayer
	}
	if amount <= 0 {
		return TradeReceipt{}, fmt.Errorf("%w: trade amount must be positive", ErrInvalidRules)
	}
	if asset != g.rules.Assets[0] && asset != g.rules.Assets[1] {
		return TradeReceipt{}, fmt.Errorf("%w: %s is not tradeable in this game", oracle.ErrUnknownAsset, asset)
	}

	price, err := g.oracle.FreshPrice(asset)
	if err != nil {
		return TradeReceipt{}, err
	}
	// The cost must stay a positive int64: a wrapped product would slip a
	// negative debit past the ledger and mint staking balance.
	if price <= 0 || amount > math.MaxInt64/price {
		return TradeReceipt{}, fmt.Errorf("%w: %d %s at price %d overflows the staking cost", ErrInvalidRules, amount, asset, price)
	}
	cost := price * amount

	if isBuy {
		if err := g.ledger.Debit(caller, g.stakeToken, cost); err != nil {
			return TradeReceipt{}, err
		}
		g.ledger.Credit(caller, asset, amount)
	} else {
		if err := g.ledger.Debit(caller, asset, amount); err != nil {
			return TradeReceipt{}, err
		}
		g.ledger.Credit(caller, g.stakeToken, cost)
	}

	receipt := TradeReceipt{
		GameID: g.id,
		Player: caller,
		Asset:  asset,
		Amount: amount,
		Price:  price,
		Cost:   cost,
		IsBuy:  isBuy,
	}
	g.notify(EventAssetTraded, AssetTraded{
		GameID: g.id,
		Player: caller,
		Asset:  asset,
		Price:  price,
		Amount: amount,
		IsBuy:  isBuy,
	})
	return receipt, nil
}
