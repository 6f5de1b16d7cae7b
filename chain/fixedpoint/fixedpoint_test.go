package fixedpoint

import (
	"math"
	"math/big"
	"testing"
)

func TestSaturatingAdd(t *testing.T) {
	if got := SaturatingAdd(5, 10); got != 15 {
		t.Fatalf("got %d, want 15", got)
	}
	if got := SaturatingAdd(math.MaxUint64, 1); got != math.MaxUint64 {
		t.Fatalf("expected saturation, got %d", got)
	}
}

func TestSaturatingSub(t *testing.T) {
	if got := SaturatingSub(5, 10); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
	if got := SaturatingSub(10, 4); got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
}

func TestApplyBps(t *testing.T) {
	cases := []struct {
		x, bps, want uint64
	}{
		{100_000, 20_000, 200_000}, // 2.0x
		{100_000, 10_000, 100_000}, // 1.0x
		{100_000, 0, 0},            // zeroed
		{486, 12_000, 583},         // rounds down
	}
	for _, c := range cases {
		got, err := ApplyBps(c.x, c.bps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("ApplyBps(%d, %d) = %d, want %d", c.x, c.bps, got, c.want)
		}
	}
}

func TestApplyBpsOverflow(t *testing.T) {
	_, err := ApplyBps(math.MaxUint64, BPS+1)
	if err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestApplySignedBps(t *testing.T) {
	got, err := ApplySignedBps(100_000, 500) // +5%
	if err != nil || got != 105_000 {
		t.Fatalf("got %d, err %v, want 105000", got, err)
	}
	got, err = ApplySignedBps(100_000, -500) // -5%
	if err != nil || got != 95_000 {
		t.Fatalf("got %d, err %v, want 95000", got, err)
	}
	got, err = ApplySignedBps(100_000, -20_000) // clamp to 0
	if err != nil || got != 0 {
		t.Fatalf("got %d, err %v, want 0", got, err)
	}
}

func TestChainBps(t *testing.T) {
	got, err := ChainBps(100_000, 20_000, 12_000, 10_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100000 * 2.0 * 1.2 * 1.0 = 240000
	if got != 240_000 {
		t.Fatalf("got %d, want 240000", got)
	}
}

func TestChainBpsTooLong(t *testing.T) {
	factors := make([]uint64, MaxBPSFactorChainLen+1)
	for i := range factors {
		factors[i] = BPS
	}
	if _, err := ChainBps(100, factors...); err == nil {
		t.Fatal("expected bounds error for oversized factor chain")
	}
}

func TestIntSqrt(t *testing.T) {
	got := IntSqrt(big.NewInt(10000))
	if got.Int64() != 100 {
		t.Fatalf("got %s, want 100", got.String())
	}
}

func TestExpNegBpsZero(t *testing.T) {
	got, err := ExpNegBps(big.NewInt(0))
	if err != nil || got != BPS {
		t.Fatalf("exp(-0) should be 1.0x (%d bps), got %d, err %v", BPS, got, err)
	}
}

func TestExpNegBpsLargeFloorsAtOne(t *testing.T) {
	huge := new(big.Int).Mul(big.NewInt(1_000_000), new(big.Int).SetUint64(Micro))
	got, err := ExpNegBps(huge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected floor at 1 bp, got %d", got)
	}
}

func TestExpNegBpsMonotonicDecreasing(t *testing.T) {
	prev := uint64(BPS)
	for _, x := range []int64{0, 1, 10, 100, 1000} {
		scaled := new(big.Int).Mul(big.NewInt(x), new(big.Int).SetUint64(Micro))
		got, err := ExpNegBps(scaled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got > prev {
			t.Fatalf("exp(-x) not monotonic decreasing at x=%d: got %d > prev %d", x, got, prev)
		}
		prev = got
	}
}
