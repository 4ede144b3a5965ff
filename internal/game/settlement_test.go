package game

import (
	"errors"
	"testing"
	"time"

	"duel/internal/oracle"
)

// endedFixture runs out the trading window and refreshes quotes so claims
// can settle.
func endedFixture(t *testing.T, rules Rules) *fixture {
	t.Helper()
	f := newActiveFixture(t, rules)
	f.clock.Advance(rules.Duration)
	f.setPrices(500, 300)
	return f
}

func TestClaimBeforeEnd(t *testing.T) {
	f := newActiveFixture(t, testRules())

	_, err := f.game.ClaimReward("p1")
	if !errors.Is(err, ErrGameNotEnded) {
		t.Fatalf("expected ErrGameNotEnded, got %v", err)
	}
}

func TestClaimByNonPlayer(t *testing.T) {
	f := endedFixture(t, testRules())

	_, err := f.game.ClaimReward("intruder")
	if !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
}

func TestClaimWinnerAndLoser(t *testing.T) {
	f := newActiveFixture(t, testRules())

	// p1 takes a position, p2 stays in cash.
	if _, err := f.game.Trade("p1", "ALPHA", 10, true); err != nil {
		t.Fatalf("trade failed: %v", err)
	}
	f.clock.Advance(time.Hour)
	f.setPrices(500, 300)

	res, err := f.game.ClaimReward("p1")
	if err != nil {
		t.Fatalf("winner claim failed: %v", err)
	}
	if !res.IsWinner || res.Winner != "p1" || res.Amount != 5000 {
		t.Errorf("unexpected winner result: %+v", res)
	}
	if res.Settled {
		t.Error("game must not settle until both players claim")
	}
	if f.bank.paidTo("p1") != 5000 {
		t.Errorf("expected payout 5000, got %d", f.bank.paidTo("p1"))
	}

	res, err = f.game.ClaimReward("p2")
	if err != nil {
		t.Fatalf("loser claim failed: %v", err)
	}
	if res.IsWinner || res.Amount != 0 {
		t.Errorf("unexpected loser result: %+v", res)
	}
	if !res.Settled {
		t.Error("expected Settled after both claims")
	}
	if f.bank.paidTo("p2") != 0 {
		t.Errorf("loser received payout: %d", f.bank.paidTo("p2"))
	}

	st := f.game.Status()
	if st.State != "SETTLED" || st.Winner != "p1" {
		t.Errorf("unexpected final status: state=%s winner=%s", st.State, st.Winner)
	}
	if f.notifier.count(EventGameWinner) != 1 {
		t.Errorf("expected exactly 1 %s event, got %d", EventGameWinner, f.notifier.count(EventGameWinner))
	}
	if f.notifier.count(EventRewardClaimed) != 2 {
		t.Errorf("expected 2 %s events, got %d", EventRewardClaimed, f.notifier.count(EventRewardClaimed))
	}
}

func TestClaimTwice(t *testing.T) {
	f := newActiveFixture(t, testRules())
	f.game.Trade("p1", "ALPHA", 10, true)
	f.clock.Advance(time.Hour)
	f.setPrices(500, 300)

	if _, err := f.game.ClaimReward("p1"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	_, err := f.game.ClaimReward("p1")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if f.bank.paidTo("p1") != 5000 {
		t.Errorf("second claim changed payouts: %d", f.bank.paidTo("p1"))
	}
}

func TestClaimTiePaysNeither(t *testing.T) {
	// Neither player trades, both valuations are zero.
	f := endedFixture(t, testRules())

	for _, p := range []string{"p1", "p2"} {
		res, err := f.game.ClaimReward(p)
		if err != nil {
			t.Fatalf("claim %s failed: %v", p, err)
		}
		if res.IsWinner || res.Amount != 0 || res.Winner != "" {
			t.Errorf("tie claim for %s: %+v", p, res)
		}
		if f.bank.paidTo(p) != 0 {
			t.Errorf("tie paid %s: %d", p, f.bank.paidTo(p))
		}
	}
	if f.notifier.count(EventGameWinner) != 0 {
		t.Errorf("tie must not emit %s", EventGameWinner)
	}
	if st := f.game.Status(); st.State != "SETTLED" {
		t.Errorf("expected SETTLED, got %s", st.State)
	}
}

func TestClaimTieSplitsReward(t *testing.T) {
	rules := testRules()
	rules.TieSplitsReward = true
	f := endedFixture(t, rules)

	for _, p := range []string{"p1", "p2"} {
		res, err := f.game.ClaimReward(p)
		if err != nil {
			t.Fatalf("claim %s failed: %v", p, err)
		}
		if res.Amount != 2500 {
			t.Errorf("expected half reward 2500 for %s, got %d", p, res.Amount)
		}
		if f.bank.paidTo(p) != 2500 {
			t.Errorf("expected payout 2500 for %s, got %d", p, f.bank.paidTo(p))
		}
	}
}

func TestClaimStalePriceRetries(t *testing.T) {
	f := newActiveFixture(t, testRules())
	f.game.Trade("p1", "ALPHA", 10, true)
	f.clock.Advance(time.Hour) // window over, quotes now stale

	_, err := f.game.ClaimReward("p1")
	if !errors.Is(err, oracle.ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
	if f.bank.paidTo("p1") != 0 {
		t.Errorf("stale claim paid out: %d", f.bank.paidTo("p1"))
	}

	// Feed recovers; the same claim now succeeds.
	f.setPrices(500, 300)
	res, err := f.game.ClaimReward("p1")
	if err != nil {
		t.Fatalf("retry claim failed: %v", err)
	}
	if !res.IsWinner || res.Amount != 5000 {
		t.Errorf("unexpected retry result: %+v", res)
	}
}

func TestClaimPayoutFailureLeavesClaimOpen(t *testing.T) {
	f := newActiveFixture(t, testRules())
	f.game.Trade("p1", "ALPHA", 10, true)
	f.clock.Advance(time.Hour)
	f.setPrices(500, 300)

	f.bank.failPayout = true
	if _, err := f.game.ClaimReward("p1"); !errors.Is(err, errBankRefused) {
		t.Fatalf("expected bank error, got %v", err)
	}

	f.bank.failPayout = false
	res, err := f.game.ClaimReward("p1")
	if err != nil {
		t.Fatalf("claim after bank recovery failed: %v", err)
	}
	if res.Amount != 5000 {
		t.Errorf("expected 5000, got %d", res.Amount)
	}
}

func TestWinnerDecidedOnceAcrossClaims(t *testing.T) {
	f := newActiveFixture(t, testRules())
	f.game.Trade("p1", "ALPHA", 10, true)
	f.game.Trade("p2", "BETA", 10, true)
	f.clock.Advance(time.Hour)

	// p1 holds 10 ALPHA at 500 = 5000, p2 holds 10 BETA at 300 = 3000.
	f.setPrices(500, 300)
	res1, err := f.game.ClaimReward("p2")
	if err != nil {
		t.Fatalf("claim p2 failed: %v", err)
	}
	if res1.Winner != "p1" {
		t.Fatalf("expected winner p1, got %q", res1.Winner)
	}

	// Prices flip before the second claim; the memoized winner stands.
	f.setPrices(100, 900)
	res2, err := f.game.ClaimReward("p1")
	if err != nil {
		t.Fatalf("claim p1 failed: %v", err)
	}
	if res2.Winner != "p1" || !res2.IsWinner || res2.Amount != 5000 {
		t.Errorf("winner changed between claims: %+v", res2)
	}
}

// Full lifecycle: stake 100, one hour, reward 50. P1 buys 10 A at price 5,
// the price drifts to 6, P1 wins and claims 50, P2 claims 0.
func TestFullGameLifecycle(t *testing.T) {
	f := newFixture(t, Rules{
		StakeAmount:  100,
		Duration:     3600 * time.Second,
		RewardAmount: 50,
		Assets:       []string{"A", "B"},
		AssetAmounts: []int64{0, 0},
	})
	now := f.clock.Now()
	f.feed.SetPrice("A", 5, now)
	f.feed.SetPrice("B", 7, now)

	if err := f.game.Enroll("p1"); err != nil {
		t.Fatalf("enroll p1: %v", err)
	}
	if err := f.game.Enroll("p2"); err != nil {
		t.Fatalf("enroll p2: %v", err)
	}

	receipt, err := f.game.Trade("p1", "A", 10, true)
	if err != nil {
		t.Fatalf("trade: %v", err)
	}
	if receipt.Cost != 50 {
		t.Fatalf("expected cost 50, got %d", receipt.Cost)
	}
	if got := f.game.BalanceOf("p1", "GOLD"); got != 50 {
		t.Fatalf("expected staking balance 50, got %d", got)
	}
	if got := f.game.BalanceOf("p1", "A"); got != 10 {
		t.Fatalf("expected 10 A, got %d", got)
	}

	f.clock.Advance(3601 * time.Second)
	now = f.clock.Now()
	f.feed.SetPrice("A", 6, now)
	f.feed.SetPrice("B", 7, now)

	res, err := f.game.ClaimReward("p1")
	if err != nil {
		t.Fatalf("p1 claim: %v", err)
	}
	if !res.IsWinner || res.Amount != 50 {
		t.Errorf("p1 result: %+v", res)
	}

	res, err = f.game.ClaimReward("p2")
	if err != nil {
		t.Fatalf("p2 claim: %v", err)
	}
	if res.IsWinner || res.Amount != 0 || !res.Settled {
		t.Errorf("p2 result: %+v", res)
	}

	st := f.game.Status()
	if st.State != "SETTLED" {
		t.Errorf("expected SETTLED, got %s", st.State)
	}
	if !st.Claimed["p1"] || !st.Claimed["p2"] {
		t.Errorf("expected both claim flags set: %v", st.Claimed)
	}

	for _, p := range []string{"p1", "p2"} {
		if _, err := f.game.ClaimReward(p); !errors.Is(err, ErrAlreadyClaimed) {
			t.Errorf("re-claim by %s: expected ErrAlreadyClaimed, got %v", p, err)
		}
	}
}
