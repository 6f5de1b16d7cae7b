package rewardpool

import "testing"

func TestDistributeCreditsPendingAndDecrementsSubPools(t *testing.T) {
	seed := [5]uint64{1_000_000, 500_000, 500_000, 100_000, 0}
	pool := NewPool(1_000_000, seed)
	acct := NewAccount()

	err := Distribute(pool, acct, 0, [5]uint64{100_000, 50_000, 0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Balances[Mining] != 900_000 {
		t.Fatalf("mining sub-pool = %d, want 900000", pool.Balances[Mining])
	}
	if acct.Pending[Mining] != 100_000 || acct.Pending[XP] != 50_000 {
		t.Fatalf("pending buckets not credited: %+v", acct.Pending)
	}
}

func TestDistributeRejectsPastDailyCap(t *testing.T) {
	seed := [5]uint64{10_000_000, 0, 0, 0, 0}
	pool := NewPool(100_000, seed)
	acct := NewAccount()

	if err := Distribute(pool, acct, 0, [5]uint64{90_000, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := Distribute(pool, acct, 0, [5]uint64{20_000, 0, 0, 0, 0}); err == nil {
		t.Fatal("expected daily cap rejection")
	}
}

func TestDailyCapResetsOnNewDay(t *testing.T) {
	seed := [5]uint64{10_000_000, 0, 0, 0, 0}
	pool := NewPool(100_000, seed)
	acct := NewAccount()

	if err := Distribute(pool, acct, 0, [5]uint64{100_000, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := Distribute(pool, acct, 86_400, [5]uint64{50_000, 0, 0, 0, 0}); err != nil {
		t.Fatalf("expected new-day distribution to succeed: %v", err)
	}
}

func TestClaimMovesPendingToTotalAndZeroesPending(t *testing.T) {
	pool := NewPool(1_000_000, [5]uint64{1_000_000, 0, 0, 0, 0})
	acct := NewAccount()
	if err := Distribute(pool, acct, 0, [5]uint64{100_000, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}

	result, err := Claim(acct, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 100_000 {
		t.Fatalf("claimed total = %d, want 100000", result.Total)
	}
	if acct.Pending[Mining] != 0 {
		t.Fatal("pending bucket should be zeroed after claim")
	}
	if acct.TotalEarned[Mining] != 100_000 {
		t.Fatal("total_earned should be credited after claim")
	}
}

func TestClaimTooSoonRejected(t *testing.T) {
	pool := NewPool(1_000_000, [5]uint64{1_000_000, 0, 0, 0, 0})
	acct := NewAccount()
	// Timestamps start above zero: LastClaimAt == 0 marks an account that
	// has never claimed.
	if err := Distribute(pool, acct, 10, [5]uint64{100_000, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := Claim(acct, 10); err != nil {
		t.Fatal(err)
	}
	if err := Distribute(pool, acct, 11, [5]uint64{1_000, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := Claim(acct, 11); err == nil {
		t.Fatal("expected ClaimTooSoon rejection")
	}
}

func TestDailyRewardRingBounded(t *testing.T) {
	pool := NewPool(1_000_000_000, [5]uint64{1_000_000_000, 0, 0, 0, 0})
	acct := NewAccount()
	for day := int64(0); day < DailyRewardRingLen+5; day++ {
		if err := Distribute(pool, acct, day*86_400, [5]uint64{1, 0, 0, 0, 0}); err != nil {
			t.Fatalf("unexpected error at day %d: %v", day, err)
		}
	}
	if len(acct.DailyRewardRing) != DailyRewardRingLen {
		t.Fatalf("ring len = %d, want %d", len(acct.DailyRewardRing), DailyRewardRingLen)
	}
}
