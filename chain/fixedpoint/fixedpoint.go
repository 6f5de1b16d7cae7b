// Package fixedpoint is the saturating/checked integer arithmetic kernel
// every other component composes on. Spec §5 forbids floating point
// anywhere it affects persisted state, so every ratio in this module is a
// basis-point (bps) integer: 10 000 bps == 1.0x. Intermediate products are
// widened through math/big.Int (the teacher widens through big.Float in
// chain/economics/tokenomics.go; this module keeps the same "widen, then
// narrow" shape but on integers, per spec §9's float-removal note) and
// checked against math.MaxUint64 before narrowing back — overflow is
// never silently wrapped, it surfaces as corefail.Arithmetic.
package fixedpoint

import (
	"math"
	"math/big"

	"github.com/finova-net/finova-core/chain/corefail"
)

const (
	// Micro is the smallest indivisible token fraction scale: 1 token ==
	// 1_000_000 micro-units.
	Micro uint64 = 1_000_000

	// BPS is the basis-point scale: 10_000 bps == 1.0x.
	BPS uint64 = 10_000

	// MaxBPSFactorChainLen bounds how many multiplicative bps factors a
	// single ChainBps call will compose, as a defensive backstop against
	// accidental unbounded factor vectors (spec §5's bounded-collection
	// discipline applied to the formula evaluator's input vector).
	MaxBPSFactorChainLen = 32
)

var maxU64Big = new(big.Int).SetUint64(math.MaxUint64)

func fits(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(maxU64Big) <= 0
}

// SaturatingAdd adds two u64 amounts, clamping at math.MaxUint64 instead of
// wrapping. Used for counters that must never regress to zero via overflow.
func SaturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// SaturatingSub subtracts b from a, clamping at zero instead of
// underflowing.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// CheckedMul multiplies two u64 values, widening through big.Int, and
// returns corefail.ErrOverflow if the product does not fit in u64.
func CheckedMul(a, b uint64) (uint64, error) {
	prod := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	if !fits(prod) {
		return 0, corefail.ErrOverflow
	}
	return prod.Uint64(), nil
}

// ApplyBps computes x * bps / BPS with a big.Int intermediate, the core
// chained-multiplication step of the master reward formula (spec §4.1:
// "x ← x * f / 10_000 with u128 intermediates"). bps may exceed BPS (a
// boost factor) or be zero (a total zeroing); it may not be negative —
// signed adjustments go through ApplySignedBps.
func ApplyBps(x uint64, bps uint64) (uint64, error) {
	prod := new(big.Int).Mul(new(big.Int).SetUint64(x), new(big.Int).SetUint64(bps))
	q := new(big.Int).Quo(prod, new(big.Int).SetUint64(BPS))
	if !fits(q) {
		return 0, corefail.ErrOverflow
	}
	return q.Uint64(), nil
}

// ApplySignedBps applies a signed bps delta per spec §4.1's quality-score
// rule: x ← x*(10000+q)/10000 when q >= 0, else x ← x*(10000-|q|)/10000.
// q is clamped so the multiplier never goes negative.
func ApplySignedBps(x uint64, q int64) (uint64, error) {
	var factor uint64
	if q >= 0 {
		factor = BPS + uint64(q)
	} else {
		abs := uint64(-q)
		if abs >= BPS {
			factor = 0
		} else {
			factor = BPS - abs
		}
	}
	return ApplyBps(x, factor)
}

// ChainBps folds ApplyBps over a sequence of bps factors left to right,
// matching the master formula's chained multiplication. It rejects
// factor vectors longer than MaxBPSFactorChainLen as a bounds violation
// rather than silently accepting an unbounded multiplier vector.
func ChainBps(x uint64, factorsBps ...uint64) (uint64, error) {
	if len(factorsBps) > MaxBPSFactorChainLen {
		return 0, corefail.New(corefail.Bounds, "bps factor chain too long")
	}
	acc := x
	var err error
	for _, f := range factorsBps {
		acc, err = ApplyBps(acc, f)
		if err != nil {
			return 0, err
		}
	}
	return acc, nil
}

// ClampUint64 clamps v into [lo, hi].
func ClampUint64(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IntSqrt computes the integer square root of n via Newton's method on
// big.Int, used by the AMM's initial-liquidity minting (spec §4.7:
// "lp_minted = sqrt(a*b) - MIN_LIQUIDITY_LOCKED").
func IntSqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sqrt(n)
}

// ExpNegBps approximates exp(-x) in bps (10000 == 1.0x) via the rational
// Taylor form specified in spec §4.1: 1 / (1 + x + x^2/2 + x^3/6), where
// xScaledMicro is x scaled by Micro (1_000_000). The result is floored at
// 1 bp (0.0001x) so the whale/level regression factor never zeroes a
// user's reward outright.
func ExpNegBps(xScaledMicro *big.Int) (uint64, error) {
	if xScaledMicro.Sign() < 0 {
		return 0, corefail.New(corefail.Bounds, "exponent must be non-negative")
	}

	precision := new(big.Int).SetUint64(Micro)
	precision2 := new(big.Int).Mul(precision, precision)
	precision3 := new(big.Int).Mul(precision2, precision)

	// term0 = precision^3
	term0 := precision3

	// term1 = x * precision^2
	term1 := new(big.Int).Mul(xScaledMicro, precision2)

	// term2 = x^2 * precision / 2
	x2 := new(big.Int).Mul(xScaledMicro, xScaledMicro)
	term2 := new(big.Int).Mul(x2, precision)
	term2.Quo(term2, big.NewInt(2))

	// term3 = x^3 / 6
	x3 := new(big.Int).Mul(x2, xScaledMicro)
	term3 := new(big.Int).Quo(x3, big.NewInt(6))

	denom := new(big.Int).Add(term0, term1)
	denom.Add(denom, term2)
	denom.Add(denom, term3)

	if denom.Sign() <= 0 {
		return 0, corefail.ErrOverflow
	}

	numerator := new(big.Int).Mul(big.NewInt(int64(BPS)), term0)
	result := new(big.Int).Quo(numerator, denom)

	if !fits(result) {
		return 0, corefail.ErrOverflow
	}
	r := result.Uint64()
	if r < 1 {
		r = 1
	}
	return r, nil
}
