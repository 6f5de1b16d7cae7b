// Package xp implements the experience-point progression carried over
// from the source's XP state (Bronze..Legendary badge tiers, an
// exponential level curve whose level feeds chain/mining's
// level-regression factor and the governance xp_multiplier, and a
// combined level/badge multiplier).
package xp

import "github.com/finova-net/finova-core/chain/fixedpoint"

// BadgeTier is a step in the XP badge progression.
type BadgeTier uint8

const (
	Bronze BadgeTier = iota
	Silver
	Gold
	Platinum
	Diamond
	Mythic
	Legendary
)

// MaxLevel bounds the exponential level curve.
const MaxLevel = 200

// badgeMultiplierBps is the per-tier flat bps bonus.
var badgeMultiplierBps = map[BadgeTier]uint64{
	Bronze:    0,
	Silver:    1_000,
	Gold:      2_500,
	Platinum:  5_000,
	Diamond:   7_500,
	Mythic:    10_000,
	Legendary: 15_000,
}

// TierForLevel maps a level to its badge tier.
func TierForLevel(level uint64) BadgeTier {
	switch {
	case level >= 100:
		return Legendary
	case level >= 75:
		return Mythic
	case level >= 50:
		return Diamond
	case level >= 25:
		return Platinum
	case level >= 10:
		return Gold
	case level >= 5:
		return Silver
	default:
		return Bronze
	}
}

// xpForLevel returns the XP required to clear a single level (the
// source's "exponential XP curve: XP_required = level^2 * 100").
func xpForLevel(level uint64) uint64 {
	return level * level * 100
}

// LevelForTotalXP computes the level reached by a cumulative XP total,
// walking the exponential curve level-by-level up to MaxLevel.
func LevelForTotalXP(totalXP uint64) uint64 {
	level := uint64(1)
	accumulated := uint64(0)
	for level < MaxLevel {
		need := xpForLevel(level)
		if accumulated+need > totalXP {
			break
		}
		accumulated += need
		level++
	}
	return level
}

// MultiplierBps computes the combined level+badge XP multiplier,
// capped at 5.0x (spec's source: "total_multiplier.min(500)" in its own
// 0.01x units, i.e. 50,000bps above the neutral baseline).
func MultiplierBps(level uint64) uint64 {
	tier := TierForLevel(level)
	levelBps := (level / 10) * 500
	total := levelBps + badgeMultiplierBps[tier]
	const capBps = 50_000 // 5.0x above baseline, in the source's 0.01x units scaled to bps
	if total > capBps {
		total = capBps
	}
	return fixedpoint.BPS + total
}

// GovernanceMultiplierBps implements spec §4.6's `xp_multiplier = min(2.0,
// 1 + level/100)` used in voting-power computation.
func GovernanceMultiplierBps(level uint64) uint64 {
	v := fixedpoint.BPS + level*100
	const cap = 2 * fixedpoint.BPS
	if v > cap {
		return cap
	}
	return v
}
