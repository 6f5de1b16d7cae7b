// Package quality implements the per-activity quality scoring and
// anti-abuse signal evaluation of spec §4.9 ("Quality & anti-abuse"),
// supplemented with the component breakdown and platform-multiplier
// table carried over from the source's content-quality assessment.
package quality

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// Components is the weighted quality breakdown, each score in bps
// (0..10000), rather than a single opaque score.
type Components struct {
	OriginalityBps       uint64
	EngagementBps        uint64
	PlatformRelevanceBps uint64
	BrandSafetyBps       uint64
	HumanGeneratedBps    uint64
}

// component weights (bps out of 10000), matching the source's
// originality/engagement/platform-relevance/brand-safety/human-generated
// split.
const (
	weightOriginality       = 2_500
	weightEngagement        = 2_000
	weightPlatformRelevance = 1_500
	weightBrandSafety       = 2_500
	weightHumanGenerated    = 1_500
)

// PlatformMultiplierBps returns the per-platform quality multiplier.
func PlatformMultiplierBps(platform string) uint64 {
	switch platform {
	case "tiktok":
		return 13_000
	case "youtube":
		return 14_000
	case "instagram":
		return 12_000
	case "twitter", "x":
		return 12_000
	case "facebook":
		return 11_000
	default:
		return 10_000
	}
}

const (
	minQualityBps = 5_000  // 0.5x
	maxQualityBps = 20_000 // 2.0x
)

// Score combines the weighted components and platform multiplier into
// a clamped quality score in bps, then expresses it as a signed
// quality_signed_bps offset from the neutral 10000 baseline for
// chain/mining's ApplySignedBps.
func Score(c Components, platform string) (signedBps int64, err error) {
	weighted := c.OriginalityBps*weightOriginality +
		c.EngagementBps*weightEngagement +
		c.PlatformRelevanceBps*weightPlatformRelevance +
		c.BrandSafetyBps*weightBrandSafety +
		c.HumanGeneratedBps*weightHumanGenerated
	weighted /= fixedpoint.BPS

	final, err := fixedpoint.ApplyBps(weighted, PlatformMultiplierBps(platform))
	if err != nil {
		return 0, err
	}
	final = fixedpoint.ClampUint64(final, minQualityBps, maxQualityBps)

	return int64(final) - int64(fixedpoint.BPS), nil
}

// HumanProbabilityFactors mirrors the source's bot-detection inputs,
// each a bps score.
type HumanProbabilityFactors struct {
	BiometricConsistencyBps uint64
	BehavioralPatternsBps   uint64
	SocialGraphValidityBps  uint64
	DeviceAuthenticityBps   uint64
	InteractionQualityBps   uint64
}

const (
	weightBiometric      = 2_500
	weightBehavioral     = 2_500
	weightSocialGraph    = 2_000
	weightDeviceAuth     = 1_500
	weightInteraction    = 1_500
)

// HumanProbabilityBps computes the weighted bot-probability complement
// used to gate the referral engine's anti-abuse trigger.
func HumanProbabilityBps(f HumanProbabilityFactors) uint64 {
	weighted := f.BiometricConsistencyBps*weightBiometric +
		f.BehavioralPatternsBps*weightBehavioral +
		f.SocialGraphValidityBps*weightSocialGraph +
		f.DeviceAuthenticityBps*weightDeviceAuth +
		f.InteractionQualityBps*weightInteraction
	return weighted / fixedpoint.BPS
}

// ValidateComponents rejects out-of-range inputs before they reach the
// weighted-score formula.
func ValidateComponents(c Components) error {
	for _, v := range []uint64{c.OriginalityBps, c.EngagementBps, c.PlatformRelevanceBps, c.BrandSafetyBps, c.HumanGeneratedBps} {
		if v > fixedpoint.BPS {
			return corefail.New(corefail.Bounds, "quality component out of range")
		}
	}
	return nil
}
