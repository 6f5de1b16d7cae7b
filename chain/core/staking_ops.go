package core

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/rewardpool"
	"github.com/finova-net/finova-core/chain/staking"
	"github.com/finova-net/finova-core/chain/types"
	"github.com/google/uuid"
)

// stake implements spec.md §6's stake(user_id, amount, now).
func (e *Engine) stake(userID types.Address, amountMicro uint64, now int64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return 0, err
	}
	if u.HoldingsMicro < amountMicro {
		return 0, corefail.ErrInsufficientBalance
	}

	minted, err := staking.Stake(e.stakePool, u.Staking, amountMicro, now)
	if err != nil {
		return 0, err
	}
	u.HoldingsMicro -= amountMicro
	return minted, nil
}

// requestUnstake implements spec.md §6's request_unstake(user_id,
// equivalent_amount, now) → request_id.
func (e *Engine) requestUnstake(userID types.Address, equivalentAmount uint64, now int64) (*staking.UnstakeRequest, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return nil, err
	}
	return staking.RequestUnstake(u.Staking, equivalentAmount, now)
}

// completeUnstake implements spec.md §6's complete_unstake(user_id,
// request_id, now) → fin_out.
func (e *Engine) completeUnstake(userID types.Address, requestID string, now int64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return 0, err
	}
	id, err := uuid.Parse(requestID)
	if err != nil {
		return 0, corefail.New(corefail.Bounds, "malformed request id")
	}

	finOut, err := staking.CompleteUnstake(e.stakePool, u.Staking, id, now)
	if err != nil {
		return 0, err
	}
	u.HoldingsMicro += finOut
	return finOut, nil
}

// claimRewards implements spec.md §6's claim_rewards(user_id, now) →
// (m,x,r,s,stk). The five sub-pools named in spec §4.8 map to the
// response's mining/xp/rp/special/reserve fields in that order.
func (e *Engine) claimRewards(userID types.Address, now int64) (*rewardpool.ClaimResult, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return nil, err
	}

	result, err := rewardpool.Claim(u.Rewards, now)
	if err != nil {
		return nil, err
	}
	u.HoldingsMicro += result.Total
	return result, nil
}
