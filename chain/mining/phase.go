// Package mining implements the mining-phase controller and the reward
// formula evaluator (spec §4.1/§4.2): the population-triggered rate
// schedule and the per-tick multiplicative reward composition that reads
// it.
package mining

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// Phase is a step in the population-linked rate schedule (spec Glossary).
type Phase uint8

const (
	Phase1 Phase = 1
	Phase2 Phase = 2
	Phase3 Phase = 3
	Phase4 Phase = 4
)

// PhaseHistoryCap bounds the phase-transition history ring (spec §3:
// "Phase-transition history (bounded ring, ≤10)").
const PhaseHistoryCap = 10

// phaseRow is one immutable row of the phase table (spec §3).
type phaseRow struct {
	phase          Phase
	usersBelow     uint64 // exclusive upper bound on total_users for this phase; 0 == unbounded
	baseRateMicro  uint64
	finizenBps     uint64
	dailyCapMicro  uint64
}

// phaseTable is the immutable phase table of spec §3. Row order is the
// transition order; the last row has no upper bound.
var phaseTable = []phaseRow{
	{phase: Phase1, usersBelow: 100_000, baseRateMicro: 100_000, finizenBps: 20_000, dailyCapMicro: 4_800_000},
	{phase: Phase2, usersBelow: 1_000_000, baseRateMicro: 50_000, finizenBps: 15_000, dailyCapMicro: 1_800_000},
	{phase: Phase3, usersBelow: 10_000_000, baseRateMicro: 25_000, finizenBps: 12_000, dailyCapMicro: 720_000},
	{phase: Phase4, usersBelow: 0, baseRateMicro: 10_000, finizenBps: 10_000, dailyCapMicro: 240_000},
}

func rowFor(p Phase) phaseRow {
	return phaseTable[p-1]
}

// PhaseTransition is one entry of the bounded phase-history ring.
type PhaseTransition struct {
	OldPhase  Phase
	NewPhase  Phase
	Users     uint64
	Timestamp int64
}

// Pool is the singleton MiningPool of spec §3: current phase, the
// population snapshot that drove the last transition, and the bounded
// transition history.
type Pool struct {
	CurrentPhase       Phase
	TotalUsersSnapshot uint64
	BaseRateMicro      uint64
	FinizenBonusBps    uint64
	DailyCapMicro      uint64
	History            []PhaseTransition
}

// NewPool constructs a MiningPool at Phase1, the genesis state before any
// user has registered.
func NewPool() *Pool {
	row := rowFor(Phase1)
	return &Pool{
		CurrentPhase:    Phase1,
		BaseRateMicro:   row.baseRateMicro,
		FinizenBonusBps: row.finizenBps,
		DailyCapMicro:   row.dailyCapMicro,
	}
}

// nextThreshold returns the total_users threshold at which the pool would
// advance past its current phase, or 0 if already at the terminal phase.
func (p *Pool) nextThreshold() uint64 {
	return rowFor(p.CurrentPhase).usersBelow
}

// dynamicFinizenDecay implements the Open-Question resolution recorded in
// DESIGN.md: spec §4.2 computes the Finizen bonus as
// max(1.0, 2.0 - total_users/1_000_000) (bps, floored at 1.0x == BPS).
// This module treats the per-phase table value as the bonus *at the start
// of a phase* and this decay as a ceiling on it as total_users grows
// within the phase, so the bonus never exceeds either the phase's own
// starting value or the linear decay curve (see DESIGN.md for why this
// reading, not a plain max(), is the one consistent with spec §8
// Scenario A).
func dynamicFinizenDecay(totalUsers uint64) uint64 {
	const twoX = 20_000
	decay := totalUsers / 100 // (users/1_000_000) expressed directly in bps
	if decay >= twoX {
		return fixedpoint.BPS
	}
	v := twoX - decay
	if v < fixedpoint.BPS {
		v = fixedpoint.BPS
	}
	return v
}

// OnRegistration advances the phase controller on each user registration,
// per spec §4.2: "on each registration, if total_users >= next threshold
// and current_phase < 4, atomically swap to the next row". Phase
// transitions are strictly one-way (Testable Property 3).
func (p *Pool) OnRegistration(totalUsers uint64, now int64) (*PhaseTransition, error) {
	p.TotalUsersSnapshot = totalUsers

	var transition *PhaseTransition
	for p.CurrentPhase < Phase4 {
		threshold := p.nextThreshold()
		if threshold == 0 || totalUsers < threshold {
			break
		}
		old := p.CurrentPhase
		p.CurrentPhase++
		row := rowFor(p.CurrentPhase)
		p.BaseRateMicro = row.baseRateMicro
		p.DailyCapMicro = row.dailyCapMicro

		t := PhaseTransition{OldPhase: old, NewPhase: p.CurrentPhase, Users: totalUsers, Timestamp: now}
		p.pushHistory(t)
		transition = &t
	}

	fixed := rowFor(p.CurrentPhase).finizenBps
	decay := dynamicFinizenDecay(totalUsers)
	if decay < fixed {
		p.FinizenBonusBps = decay
	} else {
		p.FinizenBonusBps = fixed
	}

	if p.CurrentPhase < Phase1 || p.CurrentPhase > Phase4 {
		return nil, corefail.New(corefail.Invariant, "phase out of range")
	}
	return transition, nil
}

func (p *Pool) pushHistory(t PhaseTransition) {
	p.History = append(p.History, t)
	if len(p.History) > PhaseHistoryCap {
		p.History = p.History[len(p.History)-PhaseHistoryCap:]
	}
}
