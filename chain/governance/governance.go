// Package governance implements the proposal lifecycle and delegated
// voting of spec §4.6: weighted voting power, quorum/approval
// thresholds, and a time-delayed execution gate.
package governance

import (
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
	"github.com/finova-net/finova-core/chain/types"
)

// ProposalStatus is a proposal's lifecycle state.
type ProposalStatus uint8

const (
	Voting ProposalStatus = iota
	Passed
	Rejected
	Executed
	Expired
)

// Limits from spec §4.6.
const (
	MaxTitleLen       = 64
	MaxDescriptionLen = 512
	MaxPayloadLen     = 256
)

// Proposal is the on-chain Proposal of spec §3/§4.6.
type Proposal struct {
	ID               uint64
	Proposer         types.Address
	Title            string
	Description      string
	Payload          []byte
	CreatedAt        int64
	VotingEndsAt     int64
	ExecutionDelay   int64
	VotesFor         uint64
	VotesAgainst     uint64
	VotesAbstain     uint64
	Status           ProposalStatus
}

// VoteChoice is a cast ballot's direction.
type VoteChoice uint8

const (
	VoteFor VoteChoice = iota
	VoteAgainst
	VoteAbstain
)

// Vote is one recorded ballot (spec §4.6: "{type, power, delegated,
// timestamp, reason}").
type Vote struct {
	Choice    VoteChoice
	Power     uint64
	Delegated uint64
	Timestamp int64
	Reason    string
}

// System is the governance module: proposal registry, per-proposal
// ballots, and the delegation graph, parameterized by the network's
// voting constants.
type System struct {
	proposals      map[uint64]*Proposal
	votes          map[uint64]map[types.Address]*Vote
	nextProposalID uint64

	delegatedTo   map[types.Address]types.Address
	delegatedPower map[types.Address]uint64

	VotingPeriodSecs   int64
	ExecutionDelaySecs int64
	QuorumThresholdBps uint64
	ApprovalThresholdBps uint64
	MinVotingPower     uint64
	ProposalDeposit    uint64
}

// NewSystem constructs a governance module with the given parameters.
func NewSystem(votingPeriodSecs, executionDelaySecs int64, quorumBps, approvalBps, minVotingPower, proposalDeposit uint64) *System {
	return &System{
		proposals:            make(map[uint64]*Proposal),
		votes:                make(map[uint64]map[types.Address]*Vote),
		delegatedTo:          make(map[types.Address]types.Address),
		delegatedPower:       make(map[types.Address]uint64),
		VotingPeriodSecs:      votingPeriodSecs,
		ExecutionDelaySecs:    executionDelaySecs,
		QuorumThresholdBps:    quorumBps,
		ApprovalThresholdBps:  approvalBps,
		MinVotingPower:        minVotingPower,
		ProposalDeposit:       proposalDeposit,
	}
}

// VoterStanding is the immutable snapshot of a voter's inputs to the
// voting-power formula (spec §4.6).
type VoterStanding struct {
	BalanceMicro   uint64
	StakedMicro    uint64
	XPMultiplierBps uint64 // from chain/xp: min(2.0, 1+level/100)
	RPMultiplierBps uint64 // per-tier table, from chain/referral
}

// BasePower implements spec §4.6's per-voter formula: `base =
// balance/1000 + stake/500` scaled by xp_multiplier and rp_multiplier.
// It excludes any power the voter received through delegation — this
// package's delegation map is single-hop, so a voter's own base power is
// what it has available to delegate away.
func (s *System) BasePower(standing VoterStanding) uint64 {
	base := standing.BalanceMicro/1_000 + standing.StakedMicro/500

	afterXP, err := fixedpoint.ApplyBps(base, standing.XPMultiplierBps)
	if err != nil {
		afterXP = base
	}
	afterRP, err := fixedpoint.ApplyBps(afterXP, standing.RPMultiplierBps)
	if err != nil {
		afterRP = afterXP
	}
	return afterRP
}

// VotingPower is BasePower plus received delegated power (spec §4.6:
// "plus received delegated power").
func (s *System) VotingPower(voter types.Address, standing VoterStanding) uint64 {
	return fixedpoint.SaturatingAdd(s.BasePower(standing), s.delegatedPower[voter])
}

// DelegatedPowerOf returns the power a voter has received through
// delegation (spec §3's `delegated_voting_power`).
func (s *System) DelegatedPowerOf(voter types.Address) uint64 {
	return s.delegatedPower[voter]
}

// CreateProposal implements spec §4.6's create_proposal operation.
func (s *System) CreateProposal(proposer types.Address, title, description string, payload []byte, proposerPower, proposerBalance uint64, now int64) (*Proposal, error) {
	if proposerPower < s.MinVotingPower {
		return nil, corefail.New(corefail.Authorization, "voting power below minimum to propose")
	}
	if proposerBalance < s.ProposalDeposit {
		return nil, corefail.New(corefail.Economic, "insufficient balance for proposal deposit")
	}
	if len(title) > MaxTitleLen {
		return nil, corefail.New(corefail.Bounds, "title exceeds max length")
	}
	if len(description) > MaxDescriptionLen {
		return nil, corefail.New(corefail.Bounds, "description exceeds max length")
	}
	if len(payload) > MaxPayloadLen {
		return nil, corefail.New(corefail.Bounds, "payload exceeds max length")
	}

	s.nextProposalID++
	p := &Proposal{
		ID:             s.nextProposalID,
		Proposer:       proposer,
		Title:          title,
		Description:    description,
		Payload:        payload,
		CreatedAt:      now,
		VotingEndsAt:   now + s.VotingPeriodSecs,
		ExecutionDelay: s.ExecutionDelaySecs,
		Status:         Voting,
	}
	s.proposals[p.ID] = p
	s.votes[p.ID] = make(map[types.Address]*Vote)
	return p, nil
}

// CastVote implements spec §4.6's cast_vote operation: within the
// voting window; if recasting, first subtracts the old contribution.
func (s *System) CastVote(proposalID uint64, voter types.Address, choice VoteChoice, power, delegated uint64, now int64, reason string) error {
	p, ok := s.proposals[proposalID]
	if !ok {
		return corefail.New(corefail.State, "proposal not found")
	}
	if p.Status != Voting || now > p.VotingEndsAt {
		return corefail.ErrVotingClosed
	}

	ballots := s.votes[proposalID]
	total := fixedpoint.SaturatingAdd(power, delegated)

	if prior, recast := ballots[voter]; recast {
		priorTotal := fixedpoint.SaturatingAdd(prior.Power, prior.Delegated)
		switch prior.Choice {
		case VoteFor:
			p.VotesFor = fixedpoint.SaturatingSub(p.VotesFor, priorTotal)
		case VoteAgainst:
			p.VotesAgainst = fixedpoint.SaturatingSub(p.VotesAgainst, priorTotal)
		case VoteAbstain:
			p.VotesAbstain = fixedpoint.SaturatingSub(p.VotesAbstain, priorTotal)
		}
	}

	switch choice {
	case VoteFor:
		p.VotesFor = fixedpoint.SaturatingAdd(p.VotesFor, total)
	case VoteAgainst:
		p.VotesAgainst = fixedpoint.SaturatingAdd(p.VotesAgainst, total)
	case VoteAbstain:
		p.VotesAbstain = fixedpoint.SaturatingAdd(p.VotesAbstain, total)
	}
	ballots[voter] = &Vote{Choice: choice, Power: power, Delegated: delegated, Timestamp: now, Reason: reason}
	return nil
}

// Finalize implements spec §4.6's finalize operation. totalSupplyVotingPower
// is the network's current total governance voting power (spec §8 Scenario
// F: `quorum_met = total_votes ≥ quorum_threshold_bps × total_supply /
// 10000`); quorum counts for+against+abstain, approval is computed over
// for+against only (spec §3: `votes_for×10000 ≥ approval_threshold_bps ×
// (votes_for+votes_against)`).
func (s *System) Finalize(proposalID uint64, totalSupplyVotingPower uint64, now int64) (*Proposal, error) {
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, corefail.New(corefail.State, "proposal not found")
	}
	if now <= p.VotingEndsAt {
		return nil, corefail.ErrNotYetExecutable
	}
	if p.Status != Voting {
		return p, nil
	}

	totalVotes := fixedpoint.SaturatingAdd(fixedpoint.SaturatingAdd(p.VotesFor, p.VotesAgainst), p.VotesAbstain)
	quorumThreshold, err := fixedpoint.ApplyBps(totalSupplyVotingPower, s.QuorumThresholdBps)
	if err != nil {
		return nil, err
	}
	quorumMet := totalVotes >= quorumThreshold

	decisiveVotes := fixedpoint.SaturatingAdd(p.VotesFor, p.VotesAgainst)
	approvalBps := uint64(0)
	if decisiveVotes > 0 {
		approvalBps = p.VotesFor * fixedpoint.BPS / decisiveVotes
	}
	passed := quorumMet && approvalBps >= s.ApprovalThresholdBps

	if passed {
		p.Status = Passed
	} else {
		p.Status = Rejected
	}
	return p, nil
}

// Execute implements spec §4.6's execute operation: only after
// voting_ends_at + execution_delay.
func (s *System) Execute(proposalID uint64, now int64) (*Proposal, error) {
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, corefail.New(corefail.State, "proposal not found")
	}
	if p.Status != Passed {
		return nil, corefail.New(corefail.State, "proposal has not passed")
	}
	if now < p.VotingEndsAt+p.ExecutionDelay {
		return nil, corefail.ErrNotYetExecutable
	}
	p.Status = Executed
	return p, nil
}

// Delegate implements spec §4.6's delegate operation: delegator !=
// delegate; if the delegator previously delegated, subtracts the old
// contribution from the previous delegate first.
func (s *System) Delegate(delegator, delegate types.Address, power uint64) error {
	if delegator.Equal(delegate) {
		return corefail.New(corefail.Bounds, "cannot delegate to self")
	}
	if prior, ok := s.delegatedTo[delegator]; ok {
		s.delegatedPower[prior] = fixedpoint.SaturatingSub(s.delegatedPower[prior], power)
	}
	s.delegatedTo[delegator] = delegate
	s.delegatedPower[delegate] = fixedpoint.SaturatingAdd(s.delegatedPower[delegate], power)
	return nil
}

// Proposal looks up a proposal by ID.
func (s *System) Proposal(id uint64) (*Proposal, bool) {
	p, ok := s.proposals[id]
	return p, ok
}

// ActiveProposalCount returns the number of proposals still in the
// Voting state.
func (s *System) ActiveProposalCount() int {
	count := 0
	for _, p := range s.proposals {
		if p.Status == Voting {
			count++
		}
	}
	return count
}
