package core

import (
	"github.com/finova-net/finova-core/chain/amm"
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/types"
)

func sideFromString(s string) (amm.Side, error) {
	switch s {
	case "a":
		return amm.SideA, nil
	case "b":
		return amm.SideB, nil
	default:
		return 0, corefail.New(corefail.Bounds, "swap side must be \"a\" or \"b\"")
	}
}

func (e *Engine) poolOrFault(poolID string) (*amm.Pool, error) {
	p, ok := e.pools[poolID]
	if !ok {
		return nil, corefail.New(corefail.State, "unknown liquidity pool")
	}
	return p, nil
}

// swap implements spec.md §6's swap(pool_id, side, amount_in, min_out,
// max_slip_bps) → (amount_out, fee, impact_bps). It does not require a
// registered user: spec.md's AMM is pool-scoped, not account-scoped
// (the caller's token custody is the host's concern, per §5).
func (e *Engine) swap(poolID, sideStr string, amountIn, minOut, maxSlipBps uint64) (*amm.SwapResult, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	pool, err := e.poolOrFault(poolID)
	if err != nil {
		return nil, err
	}
	side, err := sideFromString(sideStr)
	if err != nil {
		return nil, err
	}

	result, err := amm.Swap(pool, side, amountIn, minOut, maxSlipBps)
	if err != nil {
		return nil, err
	}

	e.swapVolume[poolID] = e.swapVolume[poolID] + amountIn
	if e.metrics != nil {
		e.metrics.RecordSwap(poolID, amountIn, result.ImpactBps)
	}
	e.broadcast(map[string]interface{}{
		"event": "SwapExecuted", "pool_id": poolID, "amount_in": amountIn, "amount_out": result.AmountOut, "impact_bps": result.ImpactBps,
	})
	return result, nil
}

// addLiquidity implements spec.md §6's add_liquidity(pool_id, user, a,
// b) → lp_minted.
func (e *Engine) addLiquidity(poolID string, userID types.Address, amountA, amountB uint64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	if _, err := e.userOrFault(userID); err != nil {
		return 0, err
	}
	pool, err := e.poolOrFault(poolID)
	if err != nil {
		return 0, err
	}
	return amm.AddLiquidity(pool, amountA, amountB)
}

// removeLiquidity implements spec.md §6's remove_liquidity(pool_id,
// user, lp_burn, min_a, min_b) → (a_out, b_out).
func (e *Engine) removeLiquidity(poolID string, userID types.Address, lpBurn, minA, minB uint64) (uint64, uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, 0, err
	}
	if _, err := e.userOrFault(userID); err != nil {
		return 0, 0, err
	}
	pool, err := e.poolOrFault(poolID)
	if err != nil {
		return 0, 0, err
	}
	return amm.RemoveLiquidity(pool, lpBurn, minA, minB)
}
