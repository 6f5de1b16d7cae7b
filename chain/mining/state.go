package mining

import "github.com/finova-net/finova-core/chain/corefail"

const (
	// MaxActiveCards bounds the active-card-effect list (spec §3: ≤16).
	MaxActiveCards = 16
	// MaxPenalties bounds the penalty list (spec §3: ≤8).
	MaxPenalties = 8
	// SecondsPerDay is used for UTC-midnight day bucketing (spec §9 Open
	// Question: "day boundaries as UTC midnight via integer division
	// now / 86400, ignoring calendar months").
	SecondsPerDay = 86_400
)

// CardKind tags an active-card-effect's category, used by card synergy
// (spec §4.1: "+30% if all three categories present").
type CardKind uint8

const (
	CardMining CardKind = iota
	CardXP
	CardReferral
)

// CardEffect is one entry of the bounded active-card list.
type CardEffect struct {
	Kind          CardKind
	MultiplierBps uint64
	StartsAt      int64
	EndsAt        int64
	UsesLeft      uint32 // 0 == unlimited until EndsAt; >0 decrements and burns at 0
}

// active reports whether the card effect applies at time now.
func (c CardEffect) active(now int64) bool {
	if c.UsesLeft == 0 && c.EndsAt != 0 {
		return now >= c.StartsAt && now < c.EndsAt
	}
	return now >= c.StartsAt && (c.EndsAt == 0 || now < c.EndsAt) && c.UsesLeft > 0
}

// Penalty is one entry of the bounded penalty list; SeverityBps is the
// share of the rate it removes while active (spec §3: "severity_bps").
type Penalty struct {
	SeverityBps  uint64
	AppliedAt    int64
	DurationSecs int64
	Reason       string
}

func (p Penalty) active(now int64) bool {
	return now < p.AppliedAt+p.DurationSecs
}

// DailyProgress tracks the phase daily cap per spec §3.
type DailyProgress struct {
	DayEpoch     int64
	MinedToday   uint64
	Cap          uint64
	LimitReached bool
}

// BonusSnapshot records the individual bps factors that composed the last
// tick's effective rate, for RewardCalculated event emission (spec §6).
type BonusSnapshot struct {
	Finizen       uint64
	Referral      uint64
	Security      uint64
	Staking       uint64
	Card          uint64
	QualitySigned int64
}

// State is the per-user MiningState of spec §3.
type State struct {
	CurrentRateMicroPerHour uint64
	TotalMined              uint64
	LastMiningAt            int64

	DailyProgress DailyProgress

	ConsecutiveDays int
	LongestStreak   int

	BonusSnapshot BonusSnapshot

	ActiveCardEffects []CardEffect
	Penalties         []Penalty
}

// NewState returns a zeroed MiningState for a freshly registered user.
func NewState() *State {
	return &State{}
}

// AddCardEffect appends an active card effect, enforcing the bounded
// ≤16 list (spec §3) as a mutator precondition (spec §9).
func (s *State) AddCardEffect(c CardEffect) error {
	if len(s.ActiveCardEffects) >= MaxActiveCards {
		return corefail.New(corefail.Bounds, "active card effects at capacity")
	}
	s.ActiveCardEffects = append(s.ActiveCardEffects, c)
	return nil
}

// AddPenalty appends a penalty, enforcing the bounded ≤8 list.
func (s *State) AddPenalty(p Penalty) error {
	if len(s.Penalties) >= MaxPenalties {
		return corefail.New(corefail.Bounds, "penalty list at capacity")
	}
	s.Penalties = append(s.Penalties, p)
	return nil
}

// dayEpoch buckets a unix timestamp into a UTC-midnight day number.
func dayEpoch(now int64) int64 {
	return now / SecondsPerDay
}

// rollDailyCap advances DailyProgress to now's day bucket, resetting
// mined_today when the UTC day has changed (spec §4.8/§8 daily-cap
// obedience: "mined_today <= daily_cap(phase)").
func (s *State) rollDailyCap(now int64, cap uint64) {
	d := dayEpoch(now)
	if s.DailyProgress.DayEpoch != d {
		s.DailyProgress = DailyProgress{DayEpoch: d, Cap: cap}
	} else {
		s.DailyProgress.Cap = cap
	}
}

// updateStreak advances the consecutive-day counter: a tick on the day
// immediately following the last mining day extends the streak; a tick on
// the same day is a no-op; any gap resets to day 1. LastMiningAt == 0
// marks a user who has never mined, whose first tick starts at day 1.
func (s *State) updateStreak(now int64) {
	if s.LastMiningAt == 0 {
		s.ConsecutiveDays = 1
	} else {
		prevDay := dayEpoch(s.LastMiningAt)
		curDay := dayEpoch(now)
		switch curDay - prevDay {
		case 0:
			// same day, no change
		case 1:
			s.ConsecutiveDays++
		default:
			s.ConsecutiveDays = 1
		}
	}
	if s.ConsecutiveDays > s.LongestStreak {
		s.LongestStreak = s.ConsecutiveDays
	}
}

// streakBonusBps implements the capped streak table of spec §4.1.
func streakBonusBps(days int) uint64 {
	switch {
	case days < 7:
		return 0
	case days < 14:
		return 1_000
	case days < 30:
		return 2_500
	case days < 60:
		return 5_000
	case days < 90:
		return 7_500
	case days < 180:
		return 10_000
	case days < 365:
		return 12_500
	default:
		return 15_000
	}
}

// liveCardEffects filters the active-card list down to those in force
// at now, dropping single-use cards that have burned.
func (s *State) liveCardEffects(now int64) []CardEffect {
	live := make([]CardEffect, 0, len(s.ActiveCardEffects))
	for _, c := range s.ActiveCardEffects {
		if c.active(now) {
			live = append(live, c)
		}
	}
	return live
}

// burnSingleUseCards decrements UsesLeft on single-use cards and removes
// cards that have expired or exhausted their uses (spec §4.1: "Single-use
// cards burn after one tick").
func (s *State) burnSingleUseCards(now int64) {
	kept := s.ActiveCardEffects[:0]
	for _, c := range s.ActiveCardEffects {
		if !c.active(now) {
			continue
		}
		if c.UsesLeft > 0 {
			c.UsesLeft--
			if c.UsesLeft == 0 {
				continue
			}
		}
		kept = append(kept, c)
	}
	s.ActiveCardEffects = kept
}

// activePenalties filters to currently-active penalties.
func (s *State) activePenalties(now int64) []Penalty {
	live := make([]Penalty, 0, len(s.Penalties))
	for _, p := range s.Penalties {
		if p.active(now) {
			live = append(live, p)
		}
	}
	return live
}
