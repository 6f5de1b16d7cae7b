package staking

import "testing"

// Scenario E (spec §8): stake 1000 FIN at t=0; request_unstake(all) at
// t=20 days incurs 500bps penalty = 50 FIN; complete_unstake after
// cooldown returns 950 FIN.
func TestScenarioEUnstakeEarlyPenalty(t *testing.T) {
	pool := NewPool()
	acct := NewAccount()

	const fin = 1_000_000 // 1 FIN in micro-units
	minted, err := Stake(pool, acct, 1_000*fin, 0)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if minted != 1_000*fin {
		t.Fatalf("minted = %d, want %d (exchange rate starts at 1.0)", minted, 1_000*fin)
	}

	const day = 86_400
	req, err := RequestUnstake(acct, acct.EquivalentBalance, 20*day)
	if err != nil {
		t.Fatalf("request_unstake: %v", err)
	}
	if req.PenaltyBps != 500 {
		t.Fatalf("penalty bps = %d, want 500", req.PenaltyBps)
	}

	out, err := CompleteUnstake(pool, acct, req.ID, req.AvailableAt)
	if err != nil {
		t.Fatalf("complete_unstake: %v", err)
	}
	want := uint64(950 * fin)
	if out != want {
		t.Fatalf("fin_out = %d, want %d", out, want)
	}
}

func TestCompleteUnstakeRejectsBeforeCooldown(t *testing.T) {
	pool := NewPool()
	acct := NewAccount()
	if _, err := Stake(pool, acct, MinStakeAmount, 0); err != nil {
		t.Fatal(err)
	}
	req, err := RequestUnstake(acct, acct.EquivalentBalance, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CompleteUnstake(pool, acct, req.ID, req.AvailableAt-1); err == nil {
		t.Fatal("expected cooldown rejection")
	}
}

func TestStakeRejectsBelowMinimum(t *testing.T) {
	pool := NewPool()
	acct := NewAccount()
	if _, err := Stake(pool, acct, MinStakeAmount-1, 0); err == nil {
		t.Fatal("expected rejection below min stake")
	}
}

func TestTierForStakeBoundaries(t *testing.T) {
	cases := map[uint64]StakeTier{
		0:                      Bronze,
		100 * fixedpointMicro(): Bronze,
		499 * fixedpointMicro(): Bronze,
		500 * fixedpointMicro(): Silver,
		999 * fixedpointMicro(): Silver,
		1_000 * fixedpointMicro(): Gold,
		10_000 * fixedpointMicro(): Diamond,
	}
	for staked, want := range cases {
		if got := TierForStake(staked); got != want {
			t.Errorf("TierForStake(%d) = %v, want %v", staked, got, want)
		}
	}
}

func fixedpointMicro() uint64 { return 1_000_000 }

func TestUnstakeQueueBounded(t *testing.T) {
	pool := NewPool()
	acct := NewAccount()
	if _, err := Stake(pool, acct, MinStakeAmount*10, 0); err != nil {
		t.Fatal(err)
	}
	perReq := acct.EquivalentBalance / (MaxUnstakeRequests + 1)
	for i := 0; i < MaxUnstakeRequests; i++ {
		if _, err := RequestUnstake(acct, perReq, 0); err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
	}
	if _, err := RequestUnstake(acct, perReq, 0); err == nil {
		t.Fatal("expected bounds error past queue capacity")
	}
}

func TestExchangeRateMonotonicNonDecreasing(t *testing.T) {
	pool := NewPool()
	acct := NewAccount()
	if _, err := Stake(pool, acct, MinStakeAmount*100, 0); err != nil {
		t.Fatal(err)
	}
	before := pool.ExchangeRatePpm
	if err := pool.AccruePoolRewards(86_400, benefitsFor(acct.Tier).APYBps, 0); err != nil {
		t.Fatal(err)
	}
	if pool.ExchangeRatePpm < before {
		t.Fatalf("exchange rate regressed: %d -> %d", before, pool.ExchangeRatePpm)
	}
}

func TestLoyaltyBonusBpsCap(t *testing.T) {
	if got := LoyaltyBonusBps(100); got != 5_000 {
		t.Fatalf("loyalty bonus = %d, want 5000", got)
	}
	if got := LoyaltyBonusBps(10); got != 1_000 {
		t.Fatalf("loyalty bonus = %d, want 1000", got)
	}
}
