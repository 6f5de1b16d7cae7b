package mining

import "testing"

// Scenario A (spec §8): after the 100,000th registration the pool must be
// at phase 2 with base_rate 50000, finizen 15000bps (the phase-2 fixed
// value; at 100k users the linear decay curve is still at 1.9x, so the
// phase's own starting value is the binding ceiling — see DESIGN.md), and
// daily cap 1,800,000.
func TestPhaseAdvancesAt100k(t *testing.T) {
	p := NewPool()
	for users := uint64(1); users < 100_000; users++ {
		if _, err := p.OnRegistration(users, 0); err != nil {
			t.Fatalf("unexpected error at users=%d: %v", users, err)
		}
	}
	if p.CurrentPhase != Phase1 {
		t.Fatalf("phase should still be 1 just before threshold, got %d", p.CurrentPhase)
	}

	transition, err := p.OnRegistration(100_000, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transition == nil {
		t.Fatal("expected a phase transition at the 100,000th user")
	}
	if p.CurrentPhase != Phase2 {
		t.Fatalf("phase = %d, want 2", p.CurrentPhase)
	}
	if p.BaseRateMicro != 50_000 {
		t.Fatalf("base rate = %d, want 50000", p.BaseRateMicro)
	}
	if p.DailyCapMicro != 1_800_000 {
		t.Fatalf("daily cap = %d, want 1800000", p.DailyCapMicro)
	}
	if p.FinizenBonusBps != 15_000 {
		t.Fatalf("finizen bonus = %d, want 15000", p.FinizenBonusBps)
	}
}

func TestPhaseNeverRegresses(t *testing.T) {
	p := NewPool()
	if _, err := p.OnRegistration(150_000, 0); err != nil {
		t.Fatal(err)
	}
	if p.CurrentPhase != Phase2 {
		t.Fatalf("expected phase 2, got %d", p.CurrentPhase)
	}
	// A later call with a (hypothetically) smaller count must not regress.
	if _, err := p.OnRegistration(50_000, 1); err != nil {
		t.Fatal(err)
	}
	if p.CurrentPhase != Phase2 {
		t.Fatalf("phase regressed to %d", p.CurrentPhase)
	}
}

func TestPhaseHistoryBounded(t *testing.T) {
	p := NewPool()
	// Force many transitions isn't possible (only 3 exist), so directly
	// stress pushHistory's bound instead.
	for i := 0; i < PhaseHistoryCap+5; i++ {
		p.pushHistory(PhaseTransition{OldPhase: Phase1, NewPhase: Phase2, Users: uint64(i)})
	}
	if len(p.History) != PhaseHistoryCap {
		t.Fatalf("history len = %d, want %d", len(p.History), PhaseHistoryCap)
	}
}

func TestPhaseTerminatesAtPhase4(t *testing.T) {
	p := NewPool()
	if _, err := p.OnRegistration(10_000_000, 0); err != nil {
		t.Fatal(err)
	}
	if p.CurrentPhase != Phase4 {
		t.Fatalf("phase = %d, want 4", p.CurrentPhase)
	}
	if _, err := p.OnRegistration(50_000_000, 1); err != nil {
		t.Fatal(err)
	}
	if p.CurrentPhase != Phase4 {
		t.Fatalf("phase moved past terminal phase: %d", p.CurrentPhase)
	}
}
