package core

import (
	"github.com/finova-net/finova-core/chain/mining"
	"github.com/finova-net/finova-core/chain/monitoring"
	"github.com/finova-net/finova-core/chain/rewardpool"
)

// miningAdapter satisfies monitoring.MiningInterface over a
// chain/mining.Pool, whose own fields are the domain state rather than
// a reporting surface.
type miningAdapter struct {
	pool *mining.Pool
}

func (a miningAdapter) CurrentPhase() int          { return int(a.pool.CurrentPhase) }
func (a miningAdapter) TotalUsers() uint64         { return a.pool.TotalUsersSnapshot }
func (a miningAdapter) DailyMiningRateMicro() uint64 { return a.pool.BaseRateMicro * 24 } // BaseRateMicro is per hour

// rewardPoolAdapter satisfies monitoring.RewardPoolInterface over a
// chain/rewardpool.Pool.
type rewardPoolAdapter struct {
	pool *rewardpool.Pool
}

func (a rewardPoolAdapter) SubPoolBalances() [5]uint64 { return a.pool.Balances }
func (a rewardPoolAdapter) DistributedToday() uint64   { return a.pool.DistributedToday }

// ammAdapter satisfies monitoring.AMMInterface over the engine's
// accumulated per-pool swap-volume counters.
type ammAdapter struct {
	engine *Engine
}

func (a ammAdapter) SwapVolumeMicro(pair string) uint64 {
	a.engine.mu.Lock()
	defer a.engine.mu.Unlock()
	return a.engine.swapVolume[pair]
}

var (
	_ monitoring.MiningInterface     = miningAdapter{}
	_ monitoring.RewardPoolInterface = rewardPoolAdapter{}
	_ monitoring.AMMInterface        = ammAdapter{}
)

// collectorInterfaces builds the five monitoring adapters from this
// engine's live subsystems, the way the teacher's node.go feeds its
// DataCollector from the running Blockchain/TxPool/Consensus fields.
// chain/consensus.Set and chain/governance.System already expose the
// monitoring surface directly and need no wrapper.
func (e *Engine) collectorInterfaces() (monitoring.MiningInterface, monitoring.RewardPoolInterface, monitoring.ValidatorInterface, monitoring.GovernanceInterface, monitoring.AMMInterface) {
	return miningAdapter{pool: e.miningPool}, rewardPoolAdapter{pool: e.rewardPool}, e.validators, e.gov, ammAdapter{engine: e}
}
