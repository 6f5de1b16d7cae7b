package xp

import "testing"

func TestLevelForTotalXPMatchesExponentialCurve(t *testing.T) {
	// Level 1 requires 100 XP (1^2*100); just under that stays at level 1.
	if got := LevelForTotalXP(99); got != 1 {
		t.Fatalf("level = %d, want 1", got)
	}
	if got := LevelForTotalXP(100); got != 2 {
		t.Fatalf("level = %d, want 2", got)
	}
}

func TestTierForLevelBoundaries(t *testing.T) {
	cases := map[uint64]BadgeTier{
		0: Bronze, 4: Bronze, 5: Silver, 9: Silver, 10: Gold, 24: Gold, 25: Platinum,
		49: Platinum, 50: Diamond, 74: Diamond, 75: Mythic,
		99: Mythic, 100: Legendary,
	}
	for level, want := range cases {
		if got := TierForLevel(level); got != want {
			t.Errorf("TierForLevel(%d) = %v, want %v", level, got, want)
		}
	}
}

func TestMultiplierBpsCapped(t *testing.T) {
	got := MultiplierBps(1000)
	want := fixedpointBPS() + 50_000
	if got != want {
		t.Fatalf("multiplier = %d, want capped %d", got, want)
	}
}

func fixedpointBPS() uint64 { return 10_000 }

func TestGovernanceMultiplierCapsAtTwoX(t *testing.T) {
	if got := GovernanceMultiplierBps(500); got != 20_000 {
		t.Fatalf("governance multiplier = %d, want 20000 (2.0x cap)", got)
	}
	if got := GovernanceMultiplierBps(0); got != 10_000 {
		t.Fatalf("governance multiplier at level 0 = %d, want 10000", got)
	}
}
