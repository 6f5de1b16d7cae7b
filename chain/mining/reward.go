package mining

import (
	"math/big"

	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// whaleK and levelC are the regression constants of spec §4.1: "k = 0.001
// per unit-holding" and an analogous per-level constant for XP-level
// progression, grounded on the source's LEVEL_PROGRESSION_COEFFICIENT =
// 100 (c = 0.01). Both are expressed in micro-scaled bps so ExpNegBps can
// consume them without floating point.
const (
	whaleKMicroPerUnit = 1_000   // 0.001 scaled by Micro (1_000_000) -> 1_000
	levelCMicroPerUnit = 10_000  // 0.01 scaled by Micro (1_000_000) -> 10_000
)

// Inputs is the immutable snapshot of a user's state that feeds one
// mine_tick evaluation (spec §4.1). Every field here is read once at the
// top of the handler, per spec §5's "now read once" rule.
type Inputs struct {
	ReferralMultBps  uint64 // from chain/referral: 1 + tier_bonus + min(active_refs*200, 3000)
	SecurityMultBps  uint64 // KYC/attestation multiplier, BPS (10000 == neutral)
	StakingMultBps   uint64 // from chain/staking: tier + loyalty multiplier
	QualitySignedBps int64  // from chain/quality, may be negative
	HoldingsMicro    uint64 // total token holdings, whale-regression input
	XPLevel          uint64 // level-progression regression input
	ActiveCards      []CardEffect
}

// TickResult is the outcome of one mine_tick evaluation.
type TickResult struct {
	RewardDeltaMicro uint64
	EffectiveRate    uint64
	DailyCapReached  bool
	StreakDays       int
	Snapshot         BonusSnapshot
}

// cardSynergyBps implements spec §4.1's card-synergy rule: "+10*n% base,
// plus +15% if >=2 same category, +30% if all three categories present".
func cardSynergyBps(cards []CardEffect) uint64 {
	n := uint64(len(cards))
	bonus := fixedpoint.BPS + n*1_000

	counts := map[CardKind]int{}
	for _, c := range cards {
		counts[c.Kind]++
	}
	for _, count := range counts {
		if count >= 2 {
			bonus += 1_500
			break
		}
	}
	if counts[CardMining] > 0 && counts[CardXP] > 0 && counts[CardReferral] > 0 {
		bonus += 3_000
	}
	return bonus
}

// ComputeTick evaluates the master reward formula of spec §4.1 for one
// mining tick spanning elapsedSecs since the user's last_mining_at, and
// advances the user's streak/daily-cap/card bookkeeping. now and
// elapsedSecs are both caller-supplied (spec §9: "time is always passed
// in as an explicit parameter, never read implicitly").
func ComputeTick(s *State, pool *Pool, in Inputs, now int64, elapsedSecs int64) (*TickResult, error) {
	if elapsedSecs < 0 {
		return nil, corefail.New(corefail.Bounds, "elapsed time must be non-negative")
	}

	s.updateStreak(now)
	s.rollDailyCap(now, pool.DailyCapMicro)

	cards := s.liveCardEffects(now)
	s.burnSingleUseCards(now)
	cardBps := cardSynergyBps(cards)
	streakBps := fixedpoint.BPS + streakBonusBps(s.ConsecutiveDays)

	whaleX := new(big.Int).Mul(big.NewInt(int64(whaleKMicroPerUnit)), new(big.Int).SetUint64(in.HoldingsMicro/fixedpoint.Micro))
	whaleBps, err := fixedpoint.ExpNegBps(whaleX)
	if err != nil {
		return nil, err
	}

	levelX := new(big.Int).Mul(big.NewInt(int64(levelCMicroPerUnit)), new(big.Int).SetUint64(in.XPLevel))
	levelBps, err := fixedpoint.ExpNegBps(levelX)
	if err != nil {
		return nil, err
	}

	chained, err := fixedpoint.ChainBps(
		pool.BaseRateMicro,
		pool.FinizenBonusBps,
		in.ReferralMultBps,
		in.SecurityMultBps,
		in.StakingMultBps,
		cardBps,
		streakBps,
		whaleBps,
		levelBps,
	)
	if err != nil {
		return nil, err
	}

	afterQuality, err := fixedpoint.ApplySignedBps(chained, in.QualitySignedBps)
	if err != nil {
		return nil, err
	}

	penaltyBps := uint64(0)
	for _, p := range s.activePenalties(now) {
		penaltyBps = fixedpoint.SaturatingAdd(penaltyBps, p.SeverityBps)
	}
	penaltyAmount, err := fixedpoint.ApplyBps(afterQuality, penaltyBps)
	if err != nil {
		return nil, err
	}
	effectiveRate := fixedpoint.SaturatingSub(afterQuality, penaltyAmount)

	// Testable Property 2: effective_rate <= 5 * base_rate(phase).
	maxRate, err := fixedpoint.CheckedMul(pool.BaseRateMicro, 5)
	if err != nil {
		return nil, err
	}
	if effectiveRate > maxRate {
		effectiveRate = maxRate
	}

	// delta = effective_rate (micro/hour) * elapsedSecs / 3600, expressed
	// as a bps multiplier so the division stays integral and exact to the
	// nearest bps of an hour.
	bpsHours := uint64(elapsedSecs) * fixedpoint.BPS / 3600
	rawDelta, err := fixedpoint.ApplyBps(effectiveRate, bpsHours)
	if err != nil {
		return nil, err
	}

	capReached := false
	remaining := fixedpoint.SaturatingSub(s.DailyProgress.Cap, s.DailyProgress.MinedToday)
	delta := rawDelta
	if delta > remaining {
		delta = remaining
		capReached = true
	}

	s.DailyProgress.MinedToday = fixedpoint.SaturatingAdd(s.DailyProgress.MinedToday, delta)
	s.DailyProgress.LimitReached = capReached || s.DailyProgress.MinedToday >= s.DailyProgress.Cap
	s.TotalMined = fixedpoint.SaturatingAdd(s.TotalMined, delta)
	s.LastMiningAt = now
	s.CurrentRateMicroPerHour = effectiveRate

	snapshot := BonusSnapshot{
		Finizen:       pool.FinizenBonusBps,
		Referral:      in.ReferralMultBps,
		Security:      in.SecurityMultBps,
		Staking:       in.StakingMultBps,
		Card:          cardBps,
		QualitySigned: in.QualitySignedBps,
	}
	s.BonusSnapshot = snapshot

	return &TickResult{
		RewardDeltaMicro: delta,
		EffectiveRate:    effectiveRate,
		DailyCapReached:  s.DailyProgress.LimitReached,
		StreakDays:       s.ConsecutiveDays,
		Snapshot:         snapshot,
	}, nil
}
