package mining

import "testing"

// Scenario B (spec §8): phase=1, Silver XP tier, Connector RP tier, staked
// 500 FIN, no cards, KYC verified, quality_score neutral, streak=14 days,
// holdings=0. Expected 1-hour reward ~= 486000 micro-units (±2).
//
// XPLevel is held at 0 here to isolate the master formula's chained
// multiplication from the level-progression regression factor, which
// spec §8's own worked example likewise omits from its arithmetic.
func TestComputeTickScenarioB(t *testing.T) {
	pool := NewPool() // phase 1: base 100000, finizen 20000bps

	s := NewState()
	s.LastMiningAt = SecondsPerDay // last mined on day 1 (0 would mean never mined)
	s.ConsecutiveDays = 13         // one more tick at +1 day -> 14-day streak

	in := Inputs{
		ReferralMultBps: 12_000, // Connector tier: 1 + 0.20 mining bonus, no active refs
		SecurityMultBps: 12_000, // KYC verified
		StakingMultBps:  13_500, // 500 FIN staked tier + loyalty
		XPLevel:         0,
	}

	now := int64(2 * SecondsPerDay) // exactly one day after LastMiningAt
	result, err := ComputeTick(s, pool, in, now, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ConsecutiveDays != 14 {
		t.Fatalf("consecutive days = %d, want 14", s.ConsecutiveDays)
	}

	const want = 486_000
	diff := int64(result.RewardDeltaMicro) - want
	if diff < -2 || diff > 2 {
		t.Fatalf("reward delta = %d, want %d (+-2)", result.RewardDeltaMicro, want)
	}
}

func TestComputeTickRateCap(t *testing.T) {
	pool := NewPool()
	s := NewState()

	in := Inputs{
		ReferralMultBps: 40_000, // extreme inputs to try to blow past the cap
		SecurityMultBps: 20_000,
		StakingMultBps:  30_000,
	}

	result, err := ComputeTick(s, pool, in, 3600, 3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	maxRate := pool.BaseRateMicro * 5
	if result.EffectiveRate > maxRate {
		t.Fatalf("effective rate %d exceeds 5x base rate %d", result.EffectiveRate, maxRate)
	}
}

func TestComputeTickDailyCapObeyed(t *testing.T) {
	pool := NewPool()
	s := NewState()
	in := Inputs{ReferralMultBps: 10_000, SecurityMultBps: 10_000, StakingMultBps: 10_000}

	// 100 hours in one tick should blow past the phase-1 daily cap of
	// 4,800,000 micro-units for a single UTC day.
	result, err := ComputeTick(s, pool, in, 0, 100*3600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DailyProgress.MinedToday > pool.DailyCapMicro {
		t.Fatalf("mined_today %d exceeds cap %d", s.DailyProgress.MinedToday, pool.DailyCapMicro)
	}
	if !result.DailyCapReached {
		t.Fatal("expected daily cap to be marked reached")
	}
}

func TestCardSynergyAllThreeCategories(t *testing.T) {
	cards := []CardEffect{
		{Kind: CardMining, UsesLeft: 1, EndsAt: 100},
		{Kind: CardXP, UsesLeft: 1, EndsAt: 100},
		{Kind: CardReferral, UsesLeft: 1, EndsAt: 100},
	}
	got := cardSynergyBps(cards)
	// base 1.0 + 3*0.10 + 0.30 (all-three bonus) = 1.60 (no same-category dup)
	want := uint64(16_000)
	if got != want {
		t.Fatalf("card synergy = %d, want %d", got, want)
	}
}

func TestCardSynergyDuplicateCategory(t *testing.T) {
	cards := []CardEffect{
		{Kind: CardMining, UsesLeft: 1, EndsAt: 100},
		{Kind: CardMining, UsesLeft: 1, EndsAt: 100},
	}
	got := cardSynergyBps(cards)
	// base 1.0 + 2*0.10 + 0.15 (dup-category bonus) = 1.35
	want := uint64(13_500)
	if got != want {
		t.Fatalf("card synergy = %d, want %d", got, want)
	}
}

func TestStreakBonusTable(t *testing.T) {
	cases := map[int]uint64{
		0: 0, 6: 0, 7: 1_000, 13: 1_000, 14: 2_500, 29: 2_500,
		30: 5_000, 59: 5_000, 60: 7_500, 89: 7_500, 90: 10_000,
		179: 10_000, 180: 12_500, 364: 12_500, 365: 15_000, 1000: 15_000,
	}
	for days, want := range cases {
		if got := streakBonusBps(days); got != want {
			t.Errorf("streakBonusBps(%d) = %d, want %d", days, got, want)
		}
	}
}

func TestActiveCardsBoundedAt16(t *testing.T) {
	s := NewState()
	for i := 0; i < MaxActiveCards; i++ {
		if err := s.AddCardEffect(CardEffect{Kind: CardMining}); err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
	}
	if err := s.AddCardEffect(CardEffect{Kind: CardMining}); err == nil {
		t.Fatal("expected bounds error past capacity")
	}
}
