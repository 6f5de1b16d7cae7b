package amm

import "testing"

// Scenario D (spec §8): reserve_a=1e6, reserve_b=1e6, fee=30bps.
// swap(a->b, 10000) trades an after-fee input of 9970 and returns 9872;
// with min_out=9900 the same swap aborts cleanly with pool state
// unchanged (TestSwapAbortsOnSlippageLeavesStateUnchanged).
func TestScenarioDSwapApprox(t *testing.T) {
	p := NewConstantProductPool(30, 0, 0)
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000

	result, err := Swap(p, SideA, 10_000, 8_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AmountOut < 9_800 || result.AmountOut > 9_950 {
		t.Fatalf("amount out = %d, want approximately 9872", result.AmountOut)
	}
}

func TestSwapAbortsOnSlippageLeavesStateUnchanged(t *testing.T) {
	p := NewConstantProductPool(30, 0, 0)
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000
	beforeA, beforeB := p.ReserveA, p.ReserveB

	if _, err := Swap(p, SideA, 10_000, 9_900, 0); err == nil {
		t.Fatal("expected slippage abort")
	}
	if p.ReserveA != beforeA || p.ReserveB != beforeB {
		t.Fatal("pool state changed on an aborted swap")
	}
}

func TestSwapRejectsZeroAmount(t *testing.T) {
	p := NewConstantProductPool(30, 0, 0)
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000
	if _, err := Swap(p, SideA, 0, 0, 0); err == nil {
		t.Fatal("expected InvalidAmount rejection")
	}
}

func TestConstantProductKNeverDecreases(t *testing.T) {
	p := NewConstantProductPool(30, 0, 0)
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000
	kBefore := p.ReserveA * p.ReserveB

	if _, err := Swap(p, SideA, 50_000, 0, 0); err != nil {
		t.Fatal(err)
	}
	kAfter := p.ReserveA * p.ReserveB
	if kAfter < kBefore {
		t.Fatalf("k decreased: %d -> %d", kBefore, kAfter)
	}
}

func TestStableSwapAmpZeroRejected(t *testing.T) {
	if _, err := NewStableSwapPool(0, 4, 0, 0); err == nil {
		t.Fatal("expected amp=0 to be rejected")
	}
}

func TestStableSwapBalancedTradePreservesD(t *testing.T) {
	p, err := NewStableSwapPool(100, 4, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000

	dBefore, err := computeD(p.ReserveA, p.ReserveB, p.Amp)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Swap(p, SideA, 1_000, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AmountOut == 0 {
		t.Fatal("expected nonzero amount out")
	}

	dAfter, err := computeD(p.ReserveA, p.ReserveB, p.Amp)
	if err != nil {
		t.Fatal(err)
	}
	if dAfter.Cmp(dBefore) < 0 {
		t.Fatal("D decreased after stable-swap trade")
	}
}

func TestAddThenRemoveLiquidityRoundTrips(t *testing.T) {
	p := NewConstantProductPool(0, 0, 0)
	minted, err := AddLiquidity(p, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("add_liquidity: %v", err)
	}
	if minted == 0 {
		t.Fatal("expected nonzero LP mint")
	}

	a, b, err := RemoveLiquidity(p, minted, 0, 0)
	if err != nil {
		t.Fatalf("remove_liquidity: %v", err)
	}
	// The first mint leaves MinLiquidityLocked LP units in the pool, so
	// burning everything minted returns the deposit less that share.
	want := uint64(1_000_000 - MinLiquidityLocked)
	tolerance := uint64(5)
	if diff(a, want) > tolerance || diff(b, want) > tolerance {
		t.Fatalf("round-trip amounts (%d, %d) exceed rounding tolerance", a, b)
	}
}

func diff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestAddLiquidityLocksMinimumOnFirstMint(t *testing.T) {
	p := NewConstantProductPool(0, 0, 0)
	if _, err := AddLiquidity(p, 10, 10); err == nil {
		t.Fatal("expected initial liquidity below the locked minimum to be rejected")
	}
}

func TestRemoveLiquidityRejectsExcessBurn(t *testing.T) {
	p := NewConstantProductPool(0, 0, 0)
	minted, err := AddLiquidity(p, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := RemoveLiquidity(p, minted+1, 0, 0); err == nil {
		t.Fatal("expected rejection of burn exceeding the redeemable (unlocked) supply")
	}
}

func TestPriceImpactExceededAborts(t *testing.T) {
	p := NewConstantProductPool(30, 100, 0) // max 1% impact
	p.ReserveA, p.ReserveB = 1_000_000, 1_000_000
	if _, err := Swap(p, SideA, 500_000, 0, 0); err == nil {
		t.Fatal("expected price-impact abort on a large swap")
	}
}
