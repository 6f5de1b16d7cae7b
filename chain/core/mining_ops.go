package core

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
	"github.com/finova-net/finova-core/chain/mining"
	"github.com/finova-net/finova-core/chain/quality"
	"github.com/finova-net/finova-core/chain/types"
	"github.com/finova-net/finova-core/chain/xp"
)

// security_mult(kyc) of spec §4.1: a newly registered user starts
// unverified at the source's 0.8x penalty; set_kyc_status promotes it to
// the 1.2x bonus once the host surfaces a validated attestation (spec §1:
// "a validated attestation to the core").
const (
	neutralMultBps        = 10_000
	securityMultNonKYCBps = 8_000
	securityMultKYCBps    = 12_000
)

// setKYCStatus implements the attestation hook spec §1 describes as the
// core's only contact with KYC verification: the host validates the
// attestation out of band and surfaces just the resulting boolean here.
func (e *Engine) setKYCStatus(userID types.Address, verified bool, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return err
	}

	if verified {
		u.SecurityMultBps = securityMultKYCBps
	} else {
		u.SecurityMultBps = securityMultNonKYCBps
	}
	e.broadcast(map[string]interface{}{"event": "KYCStatusUpdated", "user_id": userID.Hex(), "verified": verified})
	return nil
}

// mineTick implements spec.md §6's mine_tick(user_id, now), composing
// the referral/staking/quality multipliers that feed
// chain/mining.ComputeTick from the user's other subsystem accounts.
func (e *Engine) mineTick(userID types.Address, now int64) (*mining.TickResult, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return nil, err
	}

	refAcct := e.referrals.AccountOf(userID)
	if refAcct.InPenalty(now) {
		return nil, corefail.ErrPenaltyActive
	}

	elapsed := now - u.Mining.LastMiningAt
	if u.Mining.LastMiningAt == 0 {
		elapsed = 0
	}

	in := mining.Inputs{
		ReferralMultBps:  refAcct.MiningMultiplierBps(now),
		SecurityMultBps:  u.SecurityMultBps,
		StakingMultBps:   u.Staking.MiningMultiplierBps(),
		QualitySignedBps: u.QualitySignedBps,
		HoldingsMicro:    u.HoldingsMicro,
		XPLevel:          xp.LevelForTotalXP(u.TotalXP),
		ActiveCards:      u.Mining.ActiveCardEffects,
	}

	result, err := mining.ComputeTick(u.Mining, e.miningPool, in, now, elapsed)
	if err != nil {
		return nil, err
	}

	e.broadcast(map[string]interface{}{
		"event": "RewardCalculated", "user_id": userID.Hex(), "reward_delta_micro": result.RewardDeltaMicro,
	})
	return result, nil
}

// recordActivity implements spec.md §6's record_activity(user_id,
// activity_type, platform, engagement, quality_inputs, now). Quality
// scoring is computed from the component breakdown carried by the
// originality/engagement params and stored as the user's current
// quality_signed_bps for the next mine_tick to consume; XP is awarded
// from the same engagement_bps input, scaled by the platform
// multiplier, per chain/xp's level curve.
//
// The same call surfaces the human-probability factors spec §4.9
// describes as feeding anti-abuse: chain/quality.HumanProbabilityBps
// turns them into a bot-probability complement recorded on the user's
// referral account, and chain/referral.CheckAbuse evaluates the
// combined triggers (spec §4.3's suspicious/circular/bot thresholds),
// applying the penalty immediately if any fire.
func (e *Engine) recordActivity(userID types.Address, platform string, originalityBps, engagementBps, suspiciousBps uint64, humanFactors quality.HumanProbabilityFactors, now int64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return 0, err
	}

	components := quality.Components{
		OriginalityBps:       originalityBps,
		EngagementBps:        engagementBps,
		PlatformRelevanceBps: neutralMultBps,
		BrandSafetyBps:       neutralMultBps,
		HumanGeneratedBps:    neutralMultBps,
	}
	if err := quality.ValidateComponents(components); err != nil {
		return 0, err
	}
	signedBps, err := quality.Score(components, platform)
	if err != nil {
		return 0, err
	}
	u.QualitySignedBps = signedBps

	xpGain := engagementBps * quality.PlatformMultiplierBps(platform) / neutralMultBps / 100
	u.TotalXP = u.TotalXP + xpGain

	refAcct := e.referrals.AccountOf(userID)
	refAcct.SuspiciousBps = suspiciousBps
	refAcct.BotProbBps = fixedpoint.SaturatingSub(fixedpoint.BPS, quality.HumanProbabilityBps(humanFactors))
	penalized, err := e.referrals.CheckAbuse(userID, now)
	if err != nil {
		return 0, err
	}
	if penalized {
		e.broadcast(map[string]interface{}{"event": "AntiAbusePenaltyApplied", "user_id": userID.Hex()})
	}

	return xpGain, nil
}

// applyCard implements spec.md §6's apply_card(user_id, card_kind, now).
func (e *Engine) applyCard(userID types.Address, cardKind string, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	u, err := e.userOrFault(userID)
	if err != nil {
		return err
	}

	kind, multBps, durationSecs, err := cardCatalog(cardKind)
	if err != nil {
		return err
	}

	return u.Mining.AddCardEffect(mining.CardEffect{
		Kind:          kind,
		MultiplierBps: multBps,
		StartsAt:      now,
		EndsAt:        now + durationSecs,
	})
}

// cardCatalog is the fixed card-shop listing: kind, multiplier bps, and
// duration in seconds, grounded on the source's mining-boost card
// catalogue (chain/mining's CardKind enum).
func cardCatalog(name string) (mining.CardKind, uint64, int64, error) {
	switch name {
	case "double_mining":
		return mining.CardMining, 20_000, 24 * 3600, nil
	case "triple_mining":
		return mining.CardMining, 30_000, 12 * 3600, nil
	case "xp_double":
		return mining.CardXP, 20_000, 24 * 3600, nil
	case "referral_boost":
		return mining.CardReferral, 15_000, 48 * 3600, nil
	default:
		return 0, 0, 0, corefail.New(corefail.Bounds, "unknown card kind")
	}
}
