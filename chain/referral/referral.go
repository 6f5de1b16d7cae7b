// Package referral implements the referral graph engine of spec §4.3:
// bounded-depth cycle guard, tiered RP accrual with L1/L2/L3 propagation,
// network-quality scoring, and anti-abuse penalties.
package referral

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
	"github.com/finova-net/finova-core/chain/types"
)

// Tier is a step in the RP progression (spec §3 Glossary).
type Tier uint8

const (
	Explorer Tier = iota
	Connector
	Influencer
	Leader
	Ambassador
)

func (t Tier) String() string {
	switch t {
	case Explorer:
		return "Explorer"
	case Connector:
		return "Connector"
	case Influencer:
		return "Influencer"
	case Leader:
		return "Leader"
	case Ambassador:
		return "Ambassador"
	default:
		return "Unknown"
	}
}

// TierBenefits is one row of the RP tier table (spec §4.3).
type TierBenefits struct {
	MiningBonusBps    uint64
	ReferralBonusBps  uint64
	NetworkCap        uint64 // 0 == unbounded (Ambassador)
	VotingPowerMultBps uint64
}

type tierRow struct {
	tier       Tier
	rpFloor    uint64
	benefits   TierBenefits
}

var tierTable = []tierRow{
	{Explorer, 0, TierBenefits{MiningBonusBps: 0, ReferralBonusBps: 1_000, NetworkCap: 10, VotingPowerMultBps: 10_000}},
	{Connector, 1_000, TierBenefits{MiningBonusBps: 2_000, ReferralBonusBps: 1_500, NetworkCap: 25, VotingPowerMultBps: 11_000}},
	{Influencer, 5_000, TierBenefits{MiningBonusBps: 5_000, ReferralBonusBps: 2_000, NetworkCap: 50, VotingPowerMultBps: 13_000}},
	{Leader, 15_000, TierBenefits{MiningBonusBps: 10_000, ReferralBonusBps: 2_500, NetworkCap: 100, VotingPowerMultBps: 16_000}},
	{Ambassador, 50_000, TierBenefits{MiningBonusBps: 20_000, ReferralBonusBps: 3_000, NetworkCap: 0, VotingPowerMultBps: 20_000}},
}

// TierForRP computes the RP tier crossing of spec §4.3's table, crossing
// each boundary exactly once (Testable Property: "rp_total crossings at
// 1000, 5000, 15000, 50000 upgrade tier exactly once per crossing").
func TierForRP(rpTotal uint64) Tier {
	tier := Explorer
	for _, row := range tierTable {
		if rpTotal >= row.rpFloor {
			tier = row.tier
		}
	}
	return tier
}

func benefitsFor(t Tier) TierBenefits {
	return tierTable[t].benefits
}

// Connection is a directed referral edge (spec §3 ReferralConnection).
type ConnectionStatus uint8

const (
	StatusPending ConnectionStatus = iota
	StatusActive
	StatusInactive
	StatusSuspended
	StatusChurned
)

type Connection struct {
	Referrer               types.Address
	Referee                types.Address
	Level                  uint8 // 1, 2, or 3
	Status                 ConnectionStatus
	CreatedAt              int64
	KYCAt                  int64
	QualityContributionBps uint64
}

// Account is the per-user ReferralAccount of spec §3.
type Account struct {
	Referrer     *types.Address
	DirectCount  uint64
	IndirectCount uint64
	ActiveCount  uint64

	RPTotal          uint64
	RPAvailable      uint64
	Tier             Tier
	NetworkQualityBps uint64

	SuspiciousBps  uint64
	CircularCount  uint64
	BotProbBps     uint64
	PenaltyEnd     int64
}

// NewAccount returns a fresh ReferralAccount for a newly registered user.
func NewAccount() *Account {
	return &Account{Tier: Explorer}
}

// Benefits returns the account's current tier benefits.
func (a *Account) Benefits() TierBenefits {
	return benefitsFor(a.Tier)
}

// RP award fractions for L1/L2/L3 propagation (spec §4.3 step 5: "award
// L1 RP; add L2 connection (1/2 RP), and one more hop L3 (1/4 RP)").
const ReferralSuccessRP = 100

// Graph is the referral graph engine: a lookup of referrer-by-user used
// for the bounded cycle-guard walk (spec §4.3 step 2).
type Graph struct {
	referrerOf map[types.Address]types.Address
	accounts   map[types.Address]*Account
}

// NewGraph constructs an empty referral graph.
func NewGraph() *Graph {
	return &Graph{
		referrerOf: make(map[types.Address]types.Address),
		accounts:   make(map[types.Address]*Account),
	}
}

// AccountOf returns (creating if absent) the ReferralAccount for a user.
func (g *Graph) AccountOf(user types.Address) *Account {
	a, ok := g.accounts[user]
	if !ok {
		a = NewAccount()
		g.accounts[user] = a
	}
	return a
}

const maxCycleWalkDepth = 3

// wouldCycle walks up the referrer chain at most maxCycleWalkDepth hops
// from referrer, rejecting if newUser appears anywhere on the chain
// (spec §4.3 step 2).
func (g *Graph) wouldCycle(newUser, referrer types.Address) bool {
	cur := referrer
	for depth := 0; depth < maxCycleWalkDepth; depth++ {
		if cur.Equal(newUser) {
			return true
		}
		next, ok := g.referrerOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return cur.Equal(newUser)
}

// RegisterResult reports the connections created by a referred
// registration.
type RegisterResult struct {
	Connections []Connection
}

// RegisterWithReferrer implements spec §4.3's registration algorithm.
func (g *Graph) RegisterWithReferrer(newUser, referrerID types.Address, now int64) (*RegisterResult, error) {
	if newUser.Equal(referrerID) {
		return nil, corefail.ErrInvalidReferralChain
	}
	if g.wouldCycle(newUser, referrerID) {
		return nil, corefail.ErrInvalidReferralChain
	}

	referrerAcct := g.AccountOf(referrerID)
	cap := referrerAcct.Benefits().NetworkCap
	if cap != 0 && referrerAcct.DirectCount >= cap {
		return nil, corefail.ErrNetworkCapExceeded
	}

	newAcct := g.AccountOf(newUser)
	ref := referrerID
	newAcct.Referrer = &ref
	g.referrerOf[newUser] = referrerID

	referrerAcct.DirectCount = fixedpoint.SaturatingAdd(referrerAcct.DirectCount, 1)
	if err := g.awardRP(referrerID, ReferralSuccessRP); err != nil {
		return nil, err
	}

	result := &RegisterResult{Connections: []Connection{{
		Referrer: referrerID, Referee: newUser, Level: 1,
		Status: StatusPending, CreatedAt: now,
	}}}

	// L2: referrer's own referrer gets half RP.
	if l2, ok := g.referrerOf[referrerID]; ok {
		l2Acct := g.AccountOf(l2)
		l2Acct.IndirectCount = fixedpoint.SaturatingAdd(l2Acct.IndirectCount, 1)
		if err := g.awardRP(l2, ReferralSuccessRP/2); err != nil {
			return nil, err
		}
		result.Connections = append(result.Connections, Connection{
			Referrer: l2, Referee: newUser, Level: 2, Status: StatusPending, CreatedAt: now,
		})

		// L3: one more hop, quarter RP.
		if l3, ok := g.referrerOf[l2]; ok {
			l3Acct := g.AccountOf(l3)
			l3Acct.IndirectCount = fixedpoint.SaturatingAdd(l3Acct.IndirectCount, 1)
			if err := g.awardRP(l3, ReferralSuccessRP/4); err != nil {
				return nil, err
			}
			result.Connections = append(result.Connections, Connection{
				Referrer: l3, Referee: newUser, Level: 3, Status: StatusPending, CreatedAt: now,
			})
		}
	}

	return result, nil
}

// awardRP credits RP to a user's referral account and recomputes tier.
func (g *Graph) awardRP(user types.Address, rp uint64) error {
	acct := g.AccountOf(user)
	acct.RPTotal = fixedpoint.SaturatingAdd(acct.RPTotal, rp)
	acct.RPAvailable = fixedpoint.SaturatingAdd(acct.RPAvailable, rp)
	acct.Tier = TierForRP(acct.RPTotal)
	return nil
}

// Anti-abuse thresholds (spec §4.3).
const (
	SuspicionThresholdBps = 5_000
	MaxCircularCount      = 0
	BotThresholdBps       = 7_000
	PenaltyDurationSecs   = 7 * 24 * 3600
)

// CheckAbuse evaluates the anti-abuse triggers of spec §4.3 and applies
// the penalty (halve rp_available, set penalty_end) if any fire. Per the
// Open Question recorded in DESIGN.md, rp_total is deliberately left
// untouched by the penalty even though tier depends on it.
func (g *Graph) CheckAbuse(user types.Address, now int64) (bool, error) {
	acct := g.AccountOf(user)
	suspicious := acct.SuspiciousBps > SuspicionThresholdBps ||
		acct.CircularCount > MaxCircularCount ||
		acct.BotProbBps > BotThresholdBps
	if !suspicious {
		return false, nil
	}
	acct.RPAvailable /= 2
	acct.PenaltyEnd = now + PenaltyDurationSecs
	return true, nil
}

// InPenalty reports whether a user's anti-abuse penalty is still active;
// while true, all referral bonuses are zeroed (spec §4.3).
func (a *Account) InPenalty(now int64) bool {
	return now < a.PenaltyEnd
}

// MiningMultiplierBps computes the referral multiplier feeding
// chain/mining's master formula (spec §4.3: "1 + tier_bonus_bps +
// min(active_refs*200, 3000)"). Returns 10000 (neutral) while a penalty
// is active.
func (a *Account) MiningMultiplierBps(now int64) uint64 {
	if a.InPenalty(now) {
		return fixedpoint.BPS
	}
	activeBonus := a.ActiveCount * 200
	if activeBonus > 3_000 {
		activeBonus = 3_000
	}
	return fixedpoint.BPS + a.Benefits().MiningBonusBps + activeBonus
}

// UpdateNetworkQuality recomputes network_quality_bps as a weighted blend
// of active ratio, retention, and average referred-user level (spec
// §4.3: "0.4*active_ratio + 0.4*retention + 0.2*avg_level, capped at
// 10000").
func (a *Account) UpdateNetworkQuality(activeRatioBps, retentionBps, avgLevelBps uint64) {
	total := activeRatioBps*4/10 + retentionBps*4/10 + avgLevelBps*2/10
	if total > 10_000 {
		total = 10_000
	}
	a.NetworkQualityBps = total
}
