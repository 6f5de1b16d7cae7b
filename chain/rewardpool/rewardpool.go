// Package rewardpool implements the reward-pool ledger and per-user
// accrual bookkeeping of spec §4.8: sub-pool balances, daily
// distribution cap, pending-bucket accrual, and claim gating.
package rewardpool

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// SubPoolKind names one of the reward pool's five sub-pools (spec §4.8).
type SubPoolKind int

const (
	Mining SubPoolKind = iota
	XP
	RP
	SpecialEvents
	EmergencyReserve

	numSubPools
)

// DailyRewardRingLen bounds the per-user daily-reward history (spec
// §4.8: "30-day history").
const DailyRewardRingLen = 30

// MinClaimIntervalSecs gates claims to guard against spam (spec §4.8:
// "a minimum claim interval gates claims").
const MinClaimIntervalSecs = 3600

// Pool is the singleton reward-pool ledger: balances for the five
// sub-pools plus the network-wide daily distribution cap.
type Pool struct {
	Balances      [numSubPools]uint64
	DailyCapMicro uint64
	DistributedToday uint64
	DayEpoch      int64
}

// NewPool constructs an empty reward pool seeded with initial sub-pool
// allocations.
func NewPool(dailyCapMicro uint64, seed [5]uint64) *Pool {
	p := &Pool{DailyCapMicro: dailyCapMicro}
	for i := 0; i < int(numSubPools); i++ {
		p.Balances[i] = seed[i]
	}
	return p
}

func dayEpoch(now int64) int64 { return now / 86_400 }

func (p *Pool) rollDay(now int64) {
	epoch := dayEpoch(now)
	if epoch != p.DayEpoch {
		p.DayEpoch = epoch
		p.DistributedToday = 0
	}
}

// Account is the per-user accrual state (pending/total buckets plus the
// bounded daily-reward ring) of spec §3's UserAccount reward fields.
type Account struct {
	Pending           [numSubPools]uint64
	TotalEarned       [numSubPools]uint64
	LastClaimAt       int64
	DailyRewardRing    []DailyRewardEntry
}

// DailyRewardEntry is one bounded ring entry recording a day's total
// accrual across all sub-pools.
type DailyRewardEntry struct {
	DayEpoch int64
	Total    uint64
}

// NewAccount returns a fresh per-user accrual account.
func NewAccount() *Account {
	return &Account{}
}

func (a *Account) pushDailyRing(now int64, amount uint64) {
	epoch := dayEpoch(now)
	if n := len(a.DailyRewardRing); n > 0 && a.DailyRewardRing[n-1].DayEpoch == epoch {
		a.DailyRewardRing[n-1].Total = fixedpoint.SaturatingAdd(a.DailyRewardRing[n-1].Total, amount)
		return
	}
	a.DailyRewardRing = append(a.DailyRewardRing, DailyRewardEntry{DayEpoch: epoch, Total: amount})
	if len(a.DailyRewardRing) > DailyRewardRingLen {
		a.DailyRewardRing = a.DailyRewardRing[len(a.DailyRewardRing)-DailyRewardRingLen:]
	}
}

// Distribute implements spec §4.8's distribute operation: decrements
// the named sub-pools, credits the user's matching pending_* buckets,
// and updates the bounded daily-reward ring, all gated by the
// network-wide daily distribution cap.
func Distribute(pool *Pool, acct *Account, now int64, amounts [5]uint64) error {
	pool.rollDay(now)

	total := uint64(0)
	for _, a := range amounts {
		total = fixedpoint.SaturatingAdd(total, a)
	}
	if total == 0 {
		return nil
	}

	remaining := fixedpoint.SaturatingSub(pool.DailyCapMicro, pool.DistributedToday)
	if total > remaining {
		return corefail.New(corefail.Economic, "daily distribution cap exceeded")
	}

	for kind, amount := range amounts {
		if amount == 0 {
			continue
		}
		if pool.Balances[kind] < amount {
			return corefail.New(corefail.Economic, "sub-pool balance insufficient")
		}
	}

	for kind, amount := range amounts {
		if amount == 0 {
			continue
		}
		pool.Balances[kind] -= amount
		acct.Pending[kind] = fixedpoint.SaturatingAdd(acct.Pending[kind], amount)
	}

	pool.DistributedToday = fixedpoint.SaturatingAdd(pool.DistributedToday, total)
	acct.pushDailyRing(now, total)
	return nil
}

// ClaimResult reports the totals moved from pending to total_* on a
// successful claim.
type ClaimResult struct {
	Claimed [5]uint64
	Total   uint64
}

// Claim implements spec §4.8's claim operation: zeroes the pending_*
// fields, moves the values into total_*_rewards, and advances
// last_claim_timestamp. Gated by MinClaimIntervalSecs; a zero
// LastClaimAt marks an account that has never claimed, so its first
// claim is not gated.
func Claim(acct *Account, now int64) (*ClaimResult, error) {
	if acct.LastClaimAt != 0 && now-acct.LastClaimAt < MinClaimIntervalSecs {
		return nil, corefail.ErrClaimTooSoon
	}

	var result ClaimResult
	for kind := 0; kind < int(numSubPools); kind++ {
		amount := acct.Pending[kind]
		if amount == 0 {
			continue
		}
		acct.TotalEarned[kind] = fixedpoint.SaturatingAdd(acct.TotalEarned[kind], amount)
		result.Claimed[kind] = amount
		result.Total = fixedpoint.SaturatingAdd(result.Total, amount)
		acct.Pending[kind] = 0
	}
	acct.LastClaimAt = now
	return &result, nil
}
