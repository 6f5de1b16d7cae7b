package core

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
	"github.com/finova-net/finova-core/chain/governance"
	"github.com/finova-net/finova-core/chain/types"
	"github.com/finova-net/finova-core/chain/xp"
)

// standingFor builds the VoterStanding snapshot chain/governance needs
// from a user's other subsystem accounts (spec §4.6's voting-power
// formula composes balance, stake, XP tier, and RP tier).
func (e *Engine) standingFor(u *UserRecord) governance.VoterStanding {
	refAcct := e.referrals.AccountOf(u.Address)
	level := xp.LevelForTotalXP(u.TotalXP)
	return governance.VoterStanding{
		BalanceMicro:    u.HoldingsMicro,
		StakedMicro:     u.Staking.Staked,
		XPMultiplierBps: xp.GovernanceMultiplierBps(level),
		RPMultiplierBps: refAcct.Benefits().VotingPowerMultBps,
	}
}

// createProposal implements spec.md §6's create_proposal(...) →
// proposal_id.
func (e *Engine) createProposal(proposer types.Address, title, description string, payload []byte, now int64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	u, err := e.userOrFault(proposer)
	if err != nil {
		return 0, err
	}

	standing := e.standingFor(u)
	power := e.gov.VotingPower(proposer, standing)

	p, err := e.gov.CreateProposal(proposer, title, description, payload, power, u.HoldingsMicro, now)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// castVote implements spec.md §6's cast_vote(proposal_id, voter, kind,
// reason?) → (). The voter's own standing-derived power and any power
// received through delegate_vote are recorded as separate Vote fields
// (spec §4.6's "{type, power, delegated, timestamp, reason}").
func (e *Engine) castVote(proposalID uint64, voter types.Address, choice governance.VoteChoice, reason string, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	u, err := e.userOrFault(voter)
	if err != nil {
		return err
	}

	standing := e.standingFor(u)
	base := e.gov.BasePower(standing)
	delegated := e.gov.DelegatedPowerOf(voter)
	return e.gov.CastVote(proposalID, voter, choice, base, delegated, now, reason)
}

// delegateVote implements spec.md §6's delegate operation (spec §4.6
// "Delegate"): the delegator hands its own standing-derived base power
// to the delegate, who then casts it alongside its own.
func (e *Engine) delegateVote(delegator, delegate types.Address, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	du, err := e.userOrFault(delegator)
	if err != nil {
		return err
	}
	if _, err := e.userOrFault(delegate); err != nil {
		return err
	}

	standing := e.standingFor(du)
	power := e.gov.BasePower(standing)
	if err := e.gov.Delegate(delegator, delegate, power); err != nil {
		return err
	}
	e.broadcast(map[string]interface{}{"event": "VoteDelegated", "delegator": delegator.Hex(), "delegate": delegate.Hex(), "power": power})
	return nil
}

// totalSupplyVotingPower sums every registered user's current governance
// voting power (spec §8 Scenario F's `total_supply_voting_power`), the
// denominator finalizeVote scales quorum_threshold_bps against.
func (e *Engine) totalSupplyVotingPower() uint64 {
	total := uint64(0)
	for addr, u := range e.users {
		standing := e.standingFor(u)
		total = fixedpoint.SaturatingAdd(total, e.gov.VotingPower(addr, standing))
	}
	return total
}

// finalizeVote implements spec.md §6's finalize_vote(proposal_id, now)
// → status.
func (e *Engine) finalizeVote(proposalID uint64, now int64) (governance.ProposalStatus, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	p, err := e.gov.Finalize(proposalID, e.totalSupplyVotingPower(), now)
	if err != nil {
		return 0, err
	}
	return p.Status, nil
}

// executeProposal implements spec.md §6's execute_proposal(proposal_id,
// now) → ().
func (e *Engine) executeProposal(proposalID uint64, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	p, err := e.gov.Execute(proposalID, now)
	if err != nil {
		return err
	}
	e.broadcast(map[string]interface{}{"event": "ProposalExecuted", "proposal_id": p.ID})
	return nil
}

func voteChoiceFromString(s string) (governance.VoteChoice, error) {
	switch s {
	case "for":
		return governance.VoteFor, nil
	case "against":
		return governance.VoteAgainst, nil
	case "abstain":
		return governance.VoteAbstain, nil
	default:
		return 0, corefail.New(corefail.Bounds, "vote choice must be \"for\", \"against\", or \"abstain\"")
	}
}
