package storage

import (
	"github.com/finova-net/finova-core/chain/mining"
	"github.com/finova-net/finova-core/chain/rewardpool"
	"github.com/finova-net/finova-core/chain/staking"
)

const (
	poolNameMining     = "mining"
	poolNameStaking    = "staking"
	poolNameRewardPool = "rewardpool"
)

func encodeMiningPool(p *mining.Pool) []byte {
	e := &encoder{}
	e.u8(uint8(p.CurrentPhase))
	e.u64(p.TotalUsersSnapshot)
	e.u64(p.BaseRateMicro)
	e.u64(p.FinizenBonusBps)
	e.u64(p.DailyCapMicro)

	e.u32(uint32(len(p.History)))
	for _, h := range p.History {
		e.u8(uint8(h.OldPhase))
		e.u8(uint8(h.NewPhase))
		e.u64(h.Users)
		e.i64(h.Timestamp)
	}
	return e.bytes()
}

func decodeMiningPool(data []byte) (*mining.Pool, error) {
	d := newDecoder(data)
	p := &mining.Pool{
		CurrentPhase:       mining.Phase(d.u8()),
		TotalUsersSnapshot: d.u64(),
		BaseRateMicro:      d.u64(),
		FinizenBonusBps:    d.u64(),
		DailyCapMicro:      d.u64(),
	}
	n := d.u32()
	p.History = make([]mining.PhaseTransition, 0, n)
	for i := uint32(0); i < n; i++ {
		p.History = append(p.History, mining.PhaseTransition{
			OldPhase:  mining.Phase(d.u8()),
			NewPhase:  mining.Phase(d.u8()),
			Users:     d.u64(),
			Timestamp: d.i64(),
		})
	}
	return p, d.done()
}

// SaveMiningPool persists the singleton mining pool state.
func (s *Store) SaveMiningPool(p *mining.Pool) error {
	return s.put(singletonKey(prefixPool, poolNameMining), encodeMiningPool(p))
}

// LoadMiningPool loads the singleton mining pool state.
func (s *Store) LoadMiningPool() (*mining.Pool, error) {
	data, err := s.get(singletonKey(prefixPool, poolNameMining))
	if err != nil {
		return nil, err
	}
	return decodeMiningPool(data)
}

func encodeStakingPool(p *staking.Pool) []byte {
	e := &encoder{}
	e.u64(p.TotalStaked)
	e.u64(p.LPSupplyEquivalent)
	e.u64(p.ExchangeRatePpm)
	e.u64(p.RewardReserves)
	e.i64(p.LastAccrualAt)
	return e.bytes()
}

func decodeStakingPool(data []byte) (*staking.Pool, error) {
	d := newDecoder(data)
	p := &staking.Pool{
		TotalStaked:        d.u64(),
		LPSupplyEquivalent: d.u64(),
		ExchangeRatePpm:    d.u64(),
		RewardReserves:     d.u64(),
		LastAccrualAt:      d.i64(),
	}
	return p, d.done()
}

// SaveStakingPool persists the singleton staking pool state.
func (s *Store) SaveStakingPool(p *staking.Pool) error {
	return s.put(singletonKey(prefixPool, poolNameStaking), encodeStakingPool(p))
}

// LoadStakingPool loads the singleton staking pool state.
func (s *Store) LoadStakingPool() (*staking.Pool, error) {
	data, err := s.get(singletonKey(prefixPool, poolNameStaking))
	if err != nil {
		return nil, err
	}
	return decodeStakingPool(data)
}

func encodeRewardPool(p *rewardpool.Pool) []byte {
	e := &encoder{}
	for _, v := range p.Balances {
		e.u64(v)
	}
	e.u64(p.DailyCapMicro)
	e.u64(p.DistributedToday)
	e.i64(p.DayEpoch)
	return e.bytes()
}

func decodeRewardPool(data []byte) (*rewardpool.Pool, error) {
	d := newDecoder(data)
	p := &rewardpool.Pool{}
	for i := range p.Balances {
		p.Balances[i] = d.u64()
	}
	p.DailyCapMicro = d.u64()
	p.DistributedToday = d.u64()
	p.DayEpoch = d.i64()
	return p, d.done()
}

// SaveRewardPool persists the singleton reward pool state.
func (s *Store) SaveRewardPool(p *rewardpool.Pool) error {
	return s.put(singletonKey(prefixPool, poolNameRewardPool), encodeRewardPool(p))
}

// LoadRewardPool loads the singleton reward pool state.
func (s *Store) LoadRewardPool() (*rewardpool.Pool, error) {
	data, err := s.get(singletonKey(prefixPool, poolNameRewardPool))
	if err != nil {
		return nil, err
	}
	return decodeRewardPool(data)
}
