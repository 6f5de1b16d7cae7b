package storage

import (
	"github.com/finova-net/finova-core/chain/mining"
	"github.com/finova-net/finova-core/chain/referral"
	"github.com/finova-net/finova-core/chain/rewardpool"
	"github.com/finova-net/finova-core/chain/staking"
	"github.com/finova-net/finova-core/chain/types"
)

// --- mining.State ---

func encodeMiningState(s *mining.State) []byte {
	e := &encoder{}
	e.u64(s.CurrentRateMicroPerHour)
	e.u64(s.TotalMined)
	e.i64(s.LastMiningAt)

	e.i64(s.DailyProgress.DayEpoch)
	e.u64(s.DailyProgress.MinedToday)
	e.u64(s.DailyProgress.Cap)
	if s.DailyProgress.LimitReached {
		e.u8(1)
	} else {
		e.u8(0)
	}

	e.u32(uint32(s.ConsecutiveDays))
	e.u32(uint32(s.LongestStreak))

	e.u64(s.BonusSnapshot.Finizen)
	e.u64(s.BonusSnapshot.Referral)
	e.u64(s.BonusSnapshot.Security)
	e.u64(s.BonusSnapshot.Staking)
	e.u64(s.BonusSnapshot.Card)
	e.i64(s.BonusSnapshot.QualitySigned)

	e.u32(uint32(len(s.ActiveCardEffects)))
	for _, c := range s.ActiveCardEffects {
		e.u8(uint8(c.Kind))
		e.u64(c.MultiplierBps)
		e.i64(c.StartsAt)
		e.i64(c.EndsAt)
		e.u32(c.UsesLeft)
	}

	e.u32(uint32(len(s.Penalties)))
	for _, p := range s.Penalties {
		e.u64(p.SeverityBps)
		e.i64(p.AppliedAt)
		e.i64(p.DurationSecs)
		e.str(p.Reason)
	}
	return e.bytes()
}

func decodeMiningState(data []byte) (*mining.State, error) {
	d := newDecoder(data)
	s := &mining.State{
		CurrentRateMicroPerHour: d.u64(),
		TotalMined:              d.u64(),
		LastMiningAt:            d.i64(),
	}
	s.DailyProgress.DayEpoch = d.i64()
	s.DailyProgress.MinedToday = d.u64()
	s.DailyProgress.Cap = d.u64()
	s.DailyProgress.LimitReached = d.u8() == 1

	s.ConsecutiveDays = int(d.u32())
	s.LongestStreak = int(d.u32())

	s.BonusSnapshot.Finizen = d.u64()
	s.BonusSnapshot.Referral = d.u64()
	s.BonusSnapshot.Security = d.u64()
	s.BonusSnapshot.Staking = d.u64()
	s.BonusSnapshot.Card = d.u64()
	s.BonusSnapshot.QualitySigned = d.i64()

	nCards := d.u32()
	s.ActiveCardEffects = make([]mining.CardEffect, 0, nCards)
	for i := uint32(0); i < nCards; i++ {
		s.ActiveCardEffects = append(s.ActiveCardEffects, mining.CardEffect{
			Kind:          mining.CardKind(d.u8()),
			MultiplierBps: d.u64(),
			StartsAt:      d.i64(),
			EndsAt:        d.i64(),
			UsesLeft:      d.u32(),
		})
	}

	nPenalties := d.u32()
	s.Penalties = make([]mining.Penalty, 0, nPenalties)
	for i := uint32(0); i < nPenalties; i++ {
		s.Penalties = append(s.Penalties, mining.Penalty{
			SeverityBps:  d.u64(),
			AppliedAt:    d.i64(),
			DurationSecs: d.i64(),
			Reason:       d.str(),
		})
	}
	return s, d.done()
}

// SaveMiningState persists a user's mining state.
func (s *Store) SaveMiningState(addr types.Address, state *mining.State) error {
	return s.put(keyFor(prefixMining, addr), encodeMiningState(state))
}

// LoadMiningState loads a user's mining state.
func (s *Store) LoadMiningState(addr types.Address) (*mining.State, error) {
	data, err := s.get(keyFor(prefixMining, addr))
	if err != nil {
		return nil, err
	}
	return decodeMiningState(data)
}

// --- referral.Account ---

func encodeReferralAccount(a *referral.Account) []byte {
	e := &encoder{}
	if a.Referrer != nil {
		e.u8(1)
		e.bytesField(a.Referrer[:])
	} else {
		e.u8(0)
	}
	e.u64(a.DirectCount)
	e.u64(a.IndirectCount)
	e.u64(a.ActiveCount)
	e.u64(a.RPTotal)
	e.u64(a.RPAvailable)
	e.u8(uint8(a.Tier))
	e.u64(a.NetworkQualityBps)
	e.u64(a.SuspiciousBps)
	e.u64(a.CircularCount)
	e.u64(a.BotProbBps)
	e.i64(a.PenaltyEnd)
	return e.bytes()
}

func decodeReferralAccount(data []byte) (*referral.Account, error) {
	d := newDecoder(data)
	a := &referral.Account{}
	if d.u8() == 1 {
		var addr types.Address
		copy(addr[:], d.bytesField())
		a.Referrer = &addr
	}
	a.DirectCount = d.u64()
	a.IndirectCount = d.u64()
	a.ActiveCount = d.u64()
	a.RPTotal = d.u64()
	a.RPAvailable = d.u64()
	a.Tier = referral.Tier(d.u8())
	a.NetworkQualityBps = d.u64()
	a.SuspiciousBps = d.u64()
	a.CircularCount = d.u64()
	a.BotProbBps = d.u64()
	a.PenaltyEnd = d.i64()
	return a, d.done()
}

// SaveReferralAccount persists a user's referral account.
func (s *Store) SaveReferralAccount(addr types.Address, acct *referral.Account) error {
	return s.put(keyFor(prefixReferral, addr), encodeReferralAccount(acct))
}

// LoadReferralAccount loads a user's referral account.
func (s *Store) LoadReferralAccount(addr types.Address) (*referral.Account, error) {
	data, err := s.get(keyFor(prefixReferral, addr))
	if err != nil {
		return nil, err
	}
	return decodeReferralAccount(data)
}

// --- staking.Account ---

func encodeStakingAccount(a *staking.Account) []byte {
	e := &encoder{}
	e.u64(a.Staked)
	e.u64(a.EquivalentBalance)
	e.i64(a.StartedAt)
	e.i64(a.LastRewardClaim)
	e.u8(uint8(a.Tier))
	e.u64(a.LoyaltyMonths)

	e.u32(uint32(len(a.PendingUnstakes)))
	for _, r := range a.PendingUnstakes {
		idBytes, _ := r.ID.MarshalBinary()
		e.bytesField(idBytes)
		e.u64(r.EquivalentAmount)
		e.i64(r.RequestedAt)
		e.i64(r.AvailableAt)
		e.u64(r.PenaltyBps)
	}
	return e.bytes()
}

func decodeStakingAccount(data []byte) (*staking.Account, error) {
	d := newDecoder(data)
	a := &staking.Account{
		Staked:            d.u64(),
		EquivalentBalance: d.u64(),
		StartedAt:         d.i64(),
		LastRewardClaim:   d.i64(),
		Tier:              staking.StakeTier(d.u8()),
		LoyaltyMonths:     d.u64(),
	}

	n := d.u32()
	a.PendingUnstakes = make([]staking.UnstakeRequest, 0, n)
	for i := uint32(0); i < n; i++ {
		idBytes := d.bytesField()
		req := staking.UnstakeRequest{
			EquivalentAmount: d.u64(),
			RequestedAt:      d.i64(),
			AvailableAt:      d.i64(),
			PenaltyBps:       d.u64(),
		}
		_ = req.ID.UnmarshalBinary(idBytes)
		a.PendingUnstakes = append(a.PendingUnstakes, req)
	}
	return a, d.done()
}

// SaveStakingAccount persists a user's staking account.
func (s *Store) SaveStakingAccount(addr types.Address, acct *staking.Account) error {
	return s.put(keyFor(prefixStaking, addr), encodeStakingAccount(acct))
}

// LoadStakingAccount loads a user's staking account.
func (s *Store) LoadStakingAccount(addr types.Address) (*staking.Account, error) {
	data, err := s.get(keyFor(prefixStaking, addr))
	if err != nil {
		return nil, err
	}
	return decodeStakingAccount(data)
}

// --- rewardpool.Account ---

func encodeRewardAccount(a *rewardpool.Account) []byte {
	e := &encoder{}
	for _, v := range a.Pending {
		e.u64(v)
	}
	for _, v := range a.TotalEarned {
		e.u64(v)
	}
	e.i64(a.LastClaimAt)

	e.u32(uint32(len(a.DailyRewardRing)))
	for _, entry := range a.DailyRewardRing {
		e.i64(entry.DayEpoch)
		e.u64(entry.Total)
	}
	return e.bytes()
}

func decodeRewardAccount(data []byte) (*rewardpool.Account, error) {
	d := newDecoder(data)
	a := &rewardpool.Account{}
	for i := range a.Pending {
		a.Pending[i] = d.u64()
	}
	for i := range a.TotalEarned {
		a.TotalEarned[i] = d.u64()
	}
	a.LastClaimAt = d.i64()

	n := d.u32()
	a.DailyRewardRing = make([]rewardpool.DailyRewardEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		a.DailyRewardRing = append(a.DailyRewardRing, rewardpool.DailyRewardEntry{
			DayEpoch: d.i64(),
			Total:    d.u64(),
		})
	}
	return a, d.done()
}

// SaveRewardAccount persists a user's reward-pool accrual account.
func (s *Store) SaveRewardAccount(addr types.Address, acct *rewardpool.Account) error {
	return s.put(keyFor(prefixRewards, addr), encodeRewardAccount(acct))
}

// LoadRewardAccount loads a user's reward-pool accrual account.
func (s *Store) LoadRewardAccount(addr types.Address) (*rewardpool.Account, error) {
	data, err := s.get(keyFor(prefixRewards, addr))
	if err != nil {
		return nil, err
	}
	return decodeRewardAccount(data)
}
