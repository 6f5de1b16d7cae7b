// Package staking implements the staking engine of spec §4.4: tier
// assignment, exchange-rate-ppm accrual, dynamic APY, the unstake
// cooldown/penalty queue, and the loyalty accumulator.
package staking

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// SecondsPerYear and related constants anchor the APY-to-per-hour
// conversion (spec §4.4: "rewards per hour = total_staked *
// current_apy_bps / (365*24*10000)").
const (
	SecondsPerYear    = 365 * 24 * 3600
	hoursPerYear      = 365 * 24
	ExchangeRatePpmOne = 1_000_000
	MaxUnstakeRequests = 5

	UnstakeCooldownSecs = 2 * 24 * 3600
)

// StakeTier is a step in the staking progression (spec §3).
type StakeTier uint8

const (
	Bronze StakeTier = iota
	Silver
	Gold
	Platinum
	Diamond
)

// TierBenefits is one immutable row of the staking tier table (spec
// §4.4: "{min_stake, apy_bps, mining_boost_bps, xp_mult_bps,
// rp_bonus_bps, special_flags}").
type TierBenefits struct {
	MinStakeMicro  uint64
	APYBps         uint64
	MiningBoostBps uint64
	XPMultBps      uint64
	RPBonusBps     uint64
}

type tierRow struct {
	tier     StakeTier
	benefits TierBenefits
}

var tierTable = []tierRow{
	{Bronze, TierBenefits{MinStakeMicro: 100 * fixedpoint.Micro, APYBps: 800, MiningBoostBps: 2_000, XPMultBps: 10_000, RPBonusBps: 500}},
	{Silver, TierBenefits{MinStakeMicro: 500 * fixedpoint.Micro, APYBps: 1_000, MiningBoostBps: 3_500, XPMultBps: 11_000, RPBonusBps: 1_000}},
	{Gold, TierBenefits{MinStakeMicro: 1_000 * fixedpoint.Micro, APYBps: 1_200, MiningBoostBps: 5_000, XPMultBps: 12_000, RPBonusBps: 2_000}},
	{Platinum, TierBenefits{MinStakeMicro: 5_000 * fixedpoint.Micro, APYBps: 1_400, MiningBoostBps: 7_500, XPMultBps: 13_000, RPBonusBps: 3_000}},
	{Diamond, TierBenefits{MinStakeMicro: 10_000 * fixedpoint.Micro, APYBps: 1_600, MiningBoostBps: 10_000, XPMultBps: 15_000, RPBonusBps: 5_000}},
}

// MinStakeAmount is the network-wide minimum stake (spec §8: "stake <
// min_stake rejects even on first-time staker").
var MinStakeAmount = tierTable[0].benefits.MinStakeMicro

// TierForStake resolves the highest tier whose floor the staked amount
// clears.
func TierForStake(stakedMicro uint64) StakeTier {
	tier := Bronze
	for _, row := range tierTable {
		if stakedMicro >= row.benefits.MinStakeMicro {
			tier = row.tier
		}
	}
	return tier
}

func benefitsFor(t StakeTier) TierBenefits {
	return tierTable[t].benefits
}

// Pool is the singleton StakingPool of spec §3.
type Pool struct {
	TotalStaked        uint64
	LPSupplyEquivalent uint64
	ExchangeRatePpm    uint64
	RewardReserves     uint64
	LastAccrualAt      int64
}

// NewPool constructs a StakingPool at genesis: exchange_rate_ppm starts
// at 1,000,000 (spec §3).
func NewPool() *Pool {
	return &Pool{ExchangeRatePpm: ExchangeRatePpmOne}
}

// DynamicAPY implements spec §4.4: "base_apy + utilization_adjustment
// where utilization = total_staked / (total_staked + reward_reserves);
// above 80% add up to +1%, below 20% subtract up to 0.4%."
func (p *Pool) DynamicAPY(baseAPYBps uint64) uint64 {
	denom := p.TotalStaked + p.RewardReserves
	if denom == 0 {
		return baseAPYBps
	}
	utilBps := p.TotalStaked * fixedpoint.BPS / denom
	switch {
	case utilBps > 8_000:
		excess := utilBps - 8_000
		adj := excess / 10 // linear ramp to +100bps (1%) at 100% utilization
		if adj > 100 {
			adj = 100
		}
		return baseAPYBps + adj
	case utilBps < 2_000:
		shortfall := 2_000 - utilBps
		adj := shortfall * 40 / 2_000 // linear ramp to -40bps (0.4%) at 0% utilization
		if adj > 40 {
			adj = 40
		}
		return fixedpoint.SaturatingSub(baseAPYBps, adj)
	default:
		return baseAPYBps
	}
}

// AccruePoolRewards advances exchange_rate_ppm up to now (spec §4.4's
// "Pool accrual"). Monotonic non-decreasing (Testable Property 4).
func (p *Pool) AccruePoolRewards(now int64, baseAPYBps uint64, dailyCapMicro uint64) error {
	if p.LastAccrualAt == 0 {
		p.LastAccrualAt = now
	}
	elapsed := now - p.LastAccrualAt
	if elapsed <= 0 {
		p.LastAccrualAt = now
		return nil
	}
	if p.LPSupplyEquivalent == 0 {
		p.LastAccrualAt = now
		return nil
	}

	apyBps := p.DynamicAPY(baseAPYBps)
	rewardsPerHour := new(big.Int).Mul(new(big.Int).SetUint64(p.TotalStaked), new(big.Int).SetUint64(apyBps))
	rewardsPerHour.Div(rewardsPerHour, big.NewInt(int64(hoursPerYear)*int64(fixedpoint.BPS)))

	accumulated := new(big.Int).Mul(rewardsPerHour, big.NewInt(elapsed))
	accumulated.Div(accumulated, big.NewInt(3600))

	if dailyCapMicro > 0 {
		cap := new(big.Int).SetUint64(dailyCapMicro)
		if accumulated.Cmp(cap) > 0 {
			accumulated = cap
		}
	}
	if !accumulated.IsUint64() {
		return corefail.ErrOverflow
	}
	p.RewardReserves = fixedpoint.SaturatingAdd(p.RewardReserves, accumulated.Uint64())

	numerator := new(big.Int).Add(new(big.Int).SetUint64(p.TotalStaked), new(big.Int).SetUint64(p.RewardReserves))
	numerator.Mul(numerator, big.NewInt(ExchangeRatePpmOne))
	newRate := new(big.Int).Div(numerator, new(big.Int).SetUint64(p.LPSupplyEquivalent))
	if !newRate.IsUint64() {
		return corefail.ErrOverflow
	}
	if newRate.Uint64() > p.ExchangeRatePpm {
		p.ExchangeRatePpm = newRate.Uint64()
	}
	p.LastAccrualAt = now
	return nil
}

// UnstakeRequest is one entry of a staker's bounded pending-unstake queue.
type UnstakeRequest struct {
	ID          uuid.UUID
	EquivalentAmount uint64
	RequestedAt int64
	AvailableAt int64
	PenaltyBps  uint64
}

// Account is the per-staker UserStakeAccount of spec §3.
type Account struct {
	Staked            uint64
	EquivalentBalance uint64
	StartedAt         int64
	LastRewardClaim   int64
	Tier              StakeTier
	LoyaltyMonths     uint64
	PendingUnstakes   []UnstakeRequest
}

// NewAccount returns a fresh UserStakeAccount.
func NewAccount() *Account {
	return &Account{Tier: Bronze}
}

// Benefits returns the account's current tier benefits.
func (a *Account) Benefits() TierBenefits {
	return benefitsFor(a.Tier)
}

// LoyaltyBonusBps implements spec §4.4: "loyalty accumulator
// (min(5000, months*100) bps)".
func LoyaltyBonusBps(months uint64) uint64 {
	v := months * 100
	if v > 5_000 {
		return 5_000
	}
	return v
}

// MiningMultiplierBps is the staking_mult(stake_tier, loyalty) factor
// consumed directly by chain/mining's master formula (spec §4.1).
func (a *Account) MiningMultiplierBps() uint64 {
	return fixedpoint.BPS + a.Benefits().MiningBoostBps + LoyaltyBonusBps(a.LoyaltyMonths)
}

// Stake implements spec §4.4's stake operation.
func Stake(pool *Pool, acct *Account, amountMicro uint64, now int64) (uint64, error) {
	if amountMicro < MinStakeAmount {
		return 0, corefail.New(corefail.Bounds, "stake amount below minimum")
	}
	if err := pool.AccruePoolRewards(now, benefitsFor(acct.Tier).APYBps, 0); err != nil {
		return 0, err
	}

	equivMinted := new(big.Int).Mul(new(big.Int).SetUint64(amountMicro), big.NewInt(ExchangeRatePpmOne))
	equivMinted.Div(equivMinted, new(big.Int).SetUint64(pool.ExchangeRatePpm))
	if !equivMinted.IsUint64() {
		return 0, corefail.ErrOverflow
	}
	minted := equivMinted.Uint64()

	pool.TotalStaked = fixedpoint.SaturatingAdd(pool.TotalStaked, amountMicro)
	pool.LPSupplyEquivalent = fixedpoint.SaturatingAdd(pool.LPSupplyEquivalent, minted)

	if acct.StartedAt == 0 {
		acct.StartedAt = now
	}
	acct.Staked = fixedpoint.SaturatingAdd(acct.Staked, amountMicro)
	acct.EquivalentBalance = fixedpoint.SaturatingAdd(acct.EquivalentBalance, minted)
	acct.Tier = TierForStake(acct.Staked)

	return minted, nil
}

// penaltyBpsForElapsed implements spec §4.4's penalty curve: "< 30d ->
// 500bps, < 90d -> 300, < 180d -> 100, else 0".
func penaltyBpsForElapsed(elapsedSecs int64) uint64 {
	const day = 86_400
	switch {
	case elapsedSecs < 30*day:
		return 500
	case elapsedSecs < 90*day:
		return 300
	case elapsedSecs < 180*day:
		return 100
	default:
		return 0
	}
}

// RequestUnstake implements spec §4.4's request_unstake operation.
func RequestUnstake(acct *Account, equivalentAmount uint64, now int64) (*UnstakeRequest, error) {
	if len(acct.PendingUnstakes) >= MaxUnstakeRequests {
		return nil, corefail.New(corefail.Bounds, "pending unstake queue is full")
	}
	if equivalentAmount == 0 || equivalentAmount > acct.EquivalentBalance {
		return nil, corefail.ErrInvalidAmount
	}

	elapsed := now - acct.StartedAt
	penaltyBps := penaltyBpsForElapsed(elapsed)
	availableAt := now
	if penaltyBps > 0 {
		availableAt = now + UnstakeCooldownSecs
	}

	req := UnstakeRequest{
		ID:               uuid.New(),
		EquivalentAmount: equivalentAmount,
		RequestedAt:      now,
		AvailableAt:      availableAt,
		PenaltyBps:       penaltyBps,
	}
	acct.PendingUnstakes = append(acct.PendingUnstakes, req)
	acct.EquivalentBalance = fixedpoint.SaturatingSub(acct.EquivalentBalance, equivalentAmount)
	return &req, nil
}

// CompleteUnstake implements spec §4.4's complete_unstake operation.
func CompleteUnstake(pool *Pool, acct *Account, requestID uuid.UUID, now int64) (uint64, error) {
	idx := -1
	for i, r := range acct.PendingUnstakes {
		if r.ID == requestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, corefail.New(corefail.State, "unstake request not found")
	}
	req := acct.PendingUnstakes[idx]
	if now < req.AvailableAt {
		return 0, corefail.New(corefail.Timing, "unstake request still in cooldown")
	}

	finOut := new(big.Int).Mul(new(big.Int).SetUint64(req.EquivalentAmount), new(big.Int).SetUint64(pool.ExchangeRatePpm))
	finOut.Div(finOut, big.NewInt(ExchangeRatePpmOne))
	if !finOut.IsUint64() {
		return 0, corefail.ErrOverflow
	}
	gross := finOut.Uint64()
	penalty, err := fixedpoint.ApplyBps(gross, req.PenaltyBps)
	if err != nil {
		return 0, err
	}
	net := fixedpoint.SaturatingSub(gross, penalty)

	pool.TotalStaked = fixedpoint.SaturatingSub(pool.TotalStaked, net)
	pool.LPSupplyEquivalent = fixedpoint.SaturatingSub(pool.LPSupplyEquivalent, req.EquivalentAmount)
	acct.Staked = fixedpoint.SaturatingSub(acct.Staked, net)
	acct.Tier = TierForStake(acct.Staked)

	acct.PendingUnstakes = append(acct.PendingUnstakes[:idx], acct.PendingUnstakes[idx+1:]...)

	return net, nil
}
