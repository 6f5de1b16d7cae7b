// Package amm implements the curve math of spec §4.7: constant-product
// and stable-swap (n=2) invariant solvers, liquidity proportioning, and
// slippage/price-impact bounds.
package amm

import (
	"math/big"

	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// CurveType selects the invariant a LiquidityPool enforces (spec §3).
type CurveType uint8

const (
	ConstantProduct CurveType = iota
	StableSwap
)

// Side selects which reserve is the input side of a swap.
type Side uint8

const (
	SideA Side = iota
	SideB
)

// MinLiquidityLocked is burnt to a dead address on a pool's first mint
// to prevent a rug via total-supply-zero division (spec §4.7).
const MinLiquidityLocked = 1_000

const maxDIterations = 255

// Pool is the LiquidityPool of spec §3.
type Pool struct {
	CurveType        CurveType
	Amp              uint64 // stable-swap amplification coefficient; 0 is forbidden
	ReserveA         uint64
	ReserveB         uint64
	TotalSupply      uint64
	FeeBps           uint64
	MaxPriceImpactBps uint64
	MaxSlippageBps   uint64

	// FeeGrowthA/FeeGrowthB are per-side fee-growth checkpoint fields. No
	// operation in this package updates or reads them: swap fees stay in
	// the reserves, and RemoveLiquidity pays no separate fee accrual.
	FeeGrowthA uint64
	FeeGrowthB uint64
}

// NewConstantProductPool constructs an empty constant-product pool.
func NewConstantProductPool(feeBps, maxImpactBps, maxSlippageBps uint64) *Pool {
	return &Pool{
		CurveType:         ConstantProduct,
		FeeBps:            feeBps,
		MaxPriceImpactBps: maxImpactBps,
		MaxSlippageBps:    maxSlippageBps,
	}
}

// NewStableSwapPool constructs an empty stable-swap pool. amp must be
// nonzero: the D-iteration denominator uses (amp-1) and a zero
// amplification underflows (DESIGN.md, spec §9 forbids amp=0).
func NewStableSwapPool(amp, feeBps, maxImpactBps, maxSlippageBps uint64) (*Pool, error) {
	if amp == 0 {
		return nil, corefail.New(corefail.Bounds, "stable-swap amplification must be nonzero")
	}
	return &Pool{
		CurveType:         StableSwap,
		Amp:               amp,
		FeeBps:            feeBps,
		MaxPriceImpactBps: maxImpactBps,
		MaxSlippageBps:    maxSlippageBps,
	}, nil
}

// SwapResult reports the outcome of a successful swap.
type SwapResult struct {
	AmountOut uint64
	Fee       uint64
	ImpactBps uint64
}

// Swap executes spec §4.7's swap operation against whichever curve the
// pool was constructed with. On any abort (slippage, price impact,
// invalid amount, insufficient liquidity) pool state is left unchanged.
func Swap(p *Pool, side Side, amountIn, minOut, maxSlipBps uint64) (*SwapResult, error) {
	if amountIn == 0 {
		return nil, corefail.ErrInvalidAmount
	}
	if p.ReserveA == 0 || p.ReserveB == 0 {
		return nil, corefail.ErrInsufficientLiquidity
	}

	var result *SwapResult
	var err error
	switch p.CurveType {
	case ConstantProduct:
		result, err = swapConstantProduct(p, side, amountIn)
	case StableSwap:
		result, err = swapStableSwap(p, side, amountIn)
	default:
		return nil, corefail.New(corefail.Invariant, "unknown curve type")
	}
	if err != nil {
		return nil, err
	}

	if result.AmountOut < minOut {
		return nil, corefail.ErrSlippageExceeded
	}
	slip := maxSlipBps
	if slip == 0 {
		slip = p.MaxSlippageBps
	}
	if slip > 0 {
		spot := quoteSpot(p, side, amountIn)
		if spot > result.AmountOut {
			actualSlipBps := (spot - result.AmountOut) * fixedpoint.BPS / spot
			if actualSlipBps > slip {
				return nil, corefail.ErrSlippageExceeded
			}
		}
	}
	if p.MaxPriceImpactBps > 0 && result.ImpactBps > p.MaxPriceImpactBps {
		return nil, corefail.ErrPriceImpactExceeded
	}

	applySwapReserves(p, side, amountIn, result.AmountOut)
	return result, nil
}

func quoteSpot(p *Pool, side Side, amountIn uint64) uint64 {
	reserveIn, reserveOut := reservesFor(p, side)
	if reserveIn == 0 {
		return 0
	}
	spot := new(big.Int).Mul(new(big.Int).SetUint64(amountIn), new(big.Int).SetUint64(reserveOut))
	spot.Div(spot, new(big.Int).SetUint64(reserveIn))
	if spot.IsUint64() {
		return spot.Uint64()
	}
	return 0
}

func reservesFor(p *Pool, side Side) (reserveIn, reserveOut uint64) {
	if side == SideA {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

func applySwapReserves(p *Pool, side Side, amountIn, amountOut uint64) {
	if side == SideA {
		p.ReserveA = fixedpoint.SaturatingAdd(p.ReserveA, amountIn)
		p.ReserveB = fixedpoint.SaturatingSub(p.ReserveB, amountOut)
	} else {
		p.ReserveB = fixedpoint.SaturatingAdd(p.ReserveB, amountIn)
		p.ReserveA = fixedpoint.SaturatingSub(p.ReserveA, amountOut)
	}
}

// swapConstantProduct implements spec §4.7's constant-product formula:
// fee taken from the input side before pricing, full gross amount_in
// deposited into the reserve so the fee's residual value compounds k
// (Testable Property 5: reserve_a*reserve_b >= k_prior after any swap).
func swapConstantProduct(p *Pool, side Side, amountIn uint64) (*SwapResult, error) {
	reserveIn, reserveOut := reservesFor(p, side)
	kPrior := new(big.Int).Mul(new(big.Int).SetUint64(p.ReserveA), new(big.Int).SetUint64(p.ReserveB))

	amtInAfterFee, err := fixedpoint.ApplyBps(amountIn, fixedpoint.BPS-p.FeeBps)
	if err != nil {
		return nil, err
	}

	denom := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(amtInAfterFee))
	if denom.Sign() == 0 {
		return nil, corefail.ErrInsufficientLiquidity
	}
	numer := new(big.Int).Mul(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(reserveOut))
	newReserveOut := new(big.Int).Div(numer, denom)
	if !newReserveOut.IsUint64() || newReserveOut.Uint64() > reserveOut {
		return nil, corefail.New(corefail.Invariant, "stable reserve computation out of range")
	}
	amountOut := reserveOut - newReserveOut.Uint64()
	if amountOut >= reserveOut {
		return nil, corefail.ErrInsufficientLiquidity
	}

	spot := quoteSpot(p, side, amountIn)
	impactBps := uint64(0)
	if spot > amountOut && spot > 0 {
		impactBps = (spot - amountOut) * fixedpoint.BPS / spot
	}

	newA, newB := reserveIn+amountIn, newReserveOut.Uint64()
	if side == SideB {
		newA, newB = newReserveOut.Uint64(), reserveIn+amountIn
	}
	kNew := new(big.Int).Mul(new(big.Int).SetUint64(newA), new(big.Int).SetUint64(newB))
	if kNew.Cmp(kPrior) < 0 {
		return nil, corefail.New(corefail.Invariant, "k decreased after swap")
	}

	fee := amountIn - amtInAfterFee
	return &SwapResult{AmountOut: amountOut, Fee: fee, ImpactBps: impactBps}, nil
}

// computeD implements spec §4.7's Newton-iteration D-solve for n=2:
// D_{k+1} = (Ann*S + n*D_P)*D_k / ((Ann-1)*D_k + (n+1)*D_P).
func computeD(x, y, amp uint64) (*big.Int, error) {
	const n = 2
	bx, by := new(big.Int).SetUint64(x), new(big.Int).SetUint64(y)
	s := new(big.Int).Add(bx, by)
	if s.Sign() == 0 {
		return big.NewInt(0), nil
	}
	ann := new(big.Int).Mul(new(big.Int).SetUint64(amp), big.NewInt(n))

	d := new(big.Int).Set(s)
	for i := 0; i < maxDIterations; i++ {
		dP := new(big.Int).Set(d)
		dP.Mul(dP, d)
		dP.Div(dP, new(big.Int).Mul(big.NewInt(n), bx))
		dP.Mul(dP, d)
		dP.Div(dP, new(big.Int).Mul(big.NewInt(n), by))

		numer := new(big.Int).Mul(ann, s)
		numer.Add(numer, new(big.Int).Mul(big.NewInt(n), dP))
		numer.Mul(numer, d)

		annMinus1 := new(big.Int).Sub(ann, big.NewInt(1))
		denom := new(big.Int).Mul(annMinus1, d)
		denom.Add(denom, new(big.Int).Mul(big.NewInt(n+1), dP))
		if denom.Sign() == 0 {
			return nil, corefail.New(corefail.Arithmetic, "stable-swap D iteration hit a zero denominator")
		}

		dNext := new(big.Int).Div(numer, denom)
		diff := new(big.Int).Sub(dNext, d)
		diff.Abs(diff)
		d = dNext
		if diff.Cmp(big.NewInt(1)) <= 0 {
			return d, nil
		}
	}
	return d, nil
}

// computeY solves for the new value of the non-input reserve given D
// and the new input reserve (spec §4.7: "after applying input, solve
// for new y analogously").
func computeY(newX uint64, d *big.Int, amp uint64) (*big.Int, error) {
	const n = 2
	ann := new(big.Int).Mul(new(big.Int).SetUint64(amp), big.NewInt(n))
	bx := new(big.Int).SetUint64(newX)

	c := new(big.Int).Set(d)
	c.Mul(c, d)
	c.Div(c, new(big.Int).Mul(big.NewInt(n), bx))
	c.Mul(c, d)
	c.Div(c, new(big.Int).Mul(ann, big.NewInt(n)))

	b := new(big.Int).Add(bx, new(big.Int).Div(d, ann))

	y := new(big.Int).Set(d)
	for i := 0; i < maxDIterations; i++ {
		yPrev := y
		num := new(big.Int).Mul(y, y)
		num.Add(num, c)
		den := new(big.Int).Mul(big.NewInt(2), y)
		den.Add(den, b)
		den.Sub(den, d)
		if den.Sign() == 0 {
			return nil, corefail.New(corefail.Arithmetic, "stable-swap Y iteration hit a zero denominator")
		}
		y = new(big.Int).Div(num, den)
		diff := new(big.Int).Sub(y, yPrev)
		diff.Abs(diff)
		if diff.Cmp(big.NewInt(1)) <= 0 {
			return y, nil
		}
	}
	return y, nil
}

func swapStableSwap(p *Pool, side Side, amountIn uint64) (*SwapResult, error) {
	amtInAfterFee, err := fixedpoint.ApplyBps(amountIn, fixedpoint.BPS-p.FeeBps)
	if err != nil {
		return nil, err
	}

	dPrior, err := computeD(p.ReserveA, p.ReserveB, p.Amp)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut := reservesFor(p, side)
	newReserveIn := reserveIn + amtInAfterFee

	yOut, err := computeY(newReserveIn, dPrior, p.Amp)
	if err != nil {
		return nil, err
	}
	if !yOut.IsUint64() || yOut.Uint64() > reserveOut {
		return nil, corefail.New(corefail.Invariant, "stable-swap Y solve out of range")
	}
	newY := yOut.Uint64()
	amountOut := reserveOut - newY
	if amountOut >= reserveOut {
		return nil, corefail.ErrInsufficientLiquidity
	}

	var finalA, finalB uint64
	if side == SideA {
		finalA, finalB = reserveIn+amountIn, newY
	} else {
		finalA, finalB = newY, reserveIn+amountIn
	}
	dAfter, err := computeD(finalA, finalB, p.Amp)
	if err != nil {
		return nil, err
	}
	if dAfter.Cmp(dPrior) < 0 {
		return nil, corefail.New(corefail.Invariant, "D decreased after stable-swap")
	}

	spot := quoteSpot(p, side, amountIn)
	impactBps := uint64(0)
	if spot > amountOut && spot > 0 {
		impactBps = (spot - amountOut) * fixedpoint.BPS / spot
	}

	fee := amountIn - amtInAfterFee
	return &SwapResult{AmountOut: amountOut, Fee: fee, ImpactBps: impactBps}, nil
}

// AddLiquidity implements spec §4.7's add_liquidity: proportional minting
// against the current ratio, or sqrt(a*b) minus the locked fraction on
// first mint.
func AddLiquidity(p *Pool, amountA, amountB uint64) (uint64, error) {
	if amountA == 0 || amountB == 0 {
		return 0, corefail.ErrInvalidAmount
	}

	if p.TotalSupply == 0 {
		product := new(big.Int).Mul(new(big.Int).SetUint64(amountA), new(big.Int).SetUint64(amountB))
		minted := fixedpoint.IntSqrt(product)
		if !minted.IsUint64() || minted.Uint64() <= MinLiquidityLocked {
			return 0, corefail.New(corefail.Bounds, "initial liquidity too small to clear the locked minimum")
		}
		lpMinted := minted.Uint64() - MinLiquidityLocked
		p.ReserveA = fixedpoint.SaturatingAdd(p.ReserveA, amountA)
		p.ReserveB = fixedpoint.SaturatingAdd(p.ReserveB, amountB)
		p.TotalSupply = fixedpoint.SaturatingAdd(lpMinted, MinLiquidityLocked)
		return lpMinted, nil
	}

	mintFromA := new(big.Int).Mul(new(big.Int).SetUint64(amountA), new(big.Int).SetUint64(p.TotalSupply))
	mintFromA.Div(mintFromA, new(big.Int).SetUint64(p.ReserveA))
	mintFromB := new(big.Int).Mul(new(big.Int).SetUint64(amountB), new(big.Int).SetUint64(p.TotalSupply))
	mintFromB.Div(mintFromB, new(big.Int).SetUint64(p.ReserveB))

	minted := mintFromA
	if mintFromB.Cmp(mintFromA) < 0 {
		minted = mintFromB
	}
	if !minted.IsUint64() || minted.Sign() == 0 {
		return 0, corefail.ErrInvalidAmount
	}

	p.ReserveA = fixedpoint.SaturatingAdd(p.ReserveA, amountA)
	p.ReserveB = fixedpoint.SaturatingAdd(p.ReserveB, amountB)
	p.TotalSupply = fixedpoint.SaturatingAdd(p.TotalSupply, minted.Uint64())
	return minted.Uint64(), nil
}

// RemoveLiquidity implements spec §4.7's remove_liquidity: amounts
// proportional to lp_burn/total_supply, aborting cleanly on slippage.
// The MinLiquidityLocked units counted in TotalSupply on first mint are
// never redeemable. Fees reach LPs only through the reserves.
func RemoveLiquidity(p *Pool, lpBurn, minA, minB uint64) (amountA, amountB uint64, err error) {
	if lpBurn == 0 || lpBurn > fixedpoint.SaturatingSub(p.TotalSupply, MinLiquidityLocked) {
		return 0, 0, corefail.ErrInvalidAmount
	}

	outA := new(big.Int).Mul(new(big.Int).SetUint64(p.ReserveA), new(big.Int).SetUint64(lpBurn))
	outA.Div(outA, new(big.Int).SetUint64(p.TotalSupply))
	outB := new(big.Int).Mul(new(big.Int).SetUint64(p.ReserveB), new(big.Int).SetUint64(lpBurn))
	outB.Div(outB, new(big.Int).SetUint64(p.TotalSupply))

	if !outA.IsUint64() || !outB.IsUint64() {
		return 0, 0, corefail.ErrOverflow
	}
	amountA, amountB = outA.Uint64(), outB.Uint64()
	if amountA < minA || amountB < minB {
		return 0, 0, corefail.ErrSlippageExceeded
	}

	p.ReserveA = fixedpoint.SaturatingSub(p.ReserveA, amountA)
	p.ReserveB = fixedpoint.SaturatingSub(p.ReserveB, amountB)
	p.TotalSupply = fixedpoint.SaturatingSub(p.TotalSupply, lpBurn)
	return amountA, amountB, nil
}
