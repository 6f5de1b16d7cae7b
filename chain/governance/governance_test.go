package governance

import (
	"testing"

	"github.com/finova-net/finova-core/chain/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func newTestSystem() *System {
	return NewSystem(7*86_400, 2*86_400, 1_000, 6_000, 100, 1_000)
}

func TestCreateProposalRejectsLowVotingPower(t *testing.T) {
	s := newTestSystem()
	if _, err := s.CreateProposal(addr(1), "t", "d", nil, 50, 10_000, 0); err == nil {
		t.Fatal("expected rejection for insufficient voting power")
	}
}

func TestCreateProposalRejectsOversizedFields(t *testing.T) {
	s := newTestSystem()
	longTitle := make([]byte, MaxTitleLen+1)
	if _, err := s.CreateProposal(addr(1), string(longTitle), "d", nil, 1_000, 10_000, 0); err == nil {
		t.Fatal("expected rejection for oversized title")
	}
}

func TestCastVoteRecastSubtractsOldContribution(t *testing.T) {
	s := newTestSystem()
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}

	voter := addr(2)
	if err := s.CastVote(p.ID, voter, VoteFor, 500, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	if p.VotesFor != 500 {
		t.Fatalf("votes_for = %d, want 500", p.VotesFor)
	}

	if err := s.CastVote(p.ID, voter, VoteAgainst, 500, 0, 20, "changed mind"); err != nil {
		t.Fatal(err)
	}
	if p.VotesFor != 0 || p.VotesAgainst != 500 {
		t.Fatalf("recast should move the full weight: for=%d against=%d", p.VotesFor, p.VotesAgainst)
	}
}

func TestCastVoteRejectsAfterWindowCloses(t *testing.T) {
	s := newTestSystem()
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(2), VoteFor, 100, 0, p.VotingEndsAt+1, ""); err == nil {
		t.Fatal("expected VotingClosed rejection")
	}
}

func TestFinalizePassesOnQuorumAndApproval(t *testing.T) {
	s := newTestSystem()
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(2), VoteFor, 900, 200, 10, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(3), VoteAgainst, 100, 0, 10, ""); err != nil {
		t.Fatal(err)
	}

	result, err := s.Finalize(p.ID, 10_000, p.VotingEndsAt+1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != Passed {
		t.Fatalf("status = %v, want Passed", result.Status)
	}
}

func TestFinalizeRejectsOnLowApproval(t *testing.T) {
	s := newTestSystem()
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(2), VoteFor, 400, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(3), VoteAgainst, 600, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	result, err := s.Finalize(p.ID, 10_000, p.VotingEndsAt+1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != Rejected {
		t.Fatalf("status = %v, want Rejected", result.Status)
	}
}

// TestFinalizeScenarioF reproduces spec.md §8 Scenario F: quorum=2000bps,
// approval=5100bps, votes for=6000/against=4000/abstain=1000,
// total_supply_voting_power=50000.
func TestFinalizeScenarioF(t *testing.T) {
	s := NewSystem(7*86_400, 2*86_400, 2_000, 5_100, 100, 1_000)
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(2), VoteFor, 6_000, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(3), VoteAgainst, 4_000, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(4), VoteAbstain, 1_000, 0, 10, ""); err != nil {
		t.Fatal(err)
	}

	result, err := s.Finalize(p.ID, 50_000, p.VotingEndsAt+1)
	if err != nil {
		t.Fatal(err)
	}
	if result.VotesAbstain != 1_000 {
		t.Fatalf("votes_abstain = %d, want 1000", result.VotesAbstain)
	}
	if result.Status != Passed {
		t.Fatalf("status = %v, want Passed", result.Status)
	}
}

func TestExecuteRequiresExecutionDelay(t *testing.T) {
	s := newTestSystem()
	p, err := s.CreateProposal(addr(1), "t", "d", nil, 1_000, 10_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CastVote(p.ID, addr(2), VoteFor, 900, 0, 10, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Finalize(p.ID, 5_000, p.VotingEndsAt+1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Execute(p.ID, p.VotingEndsAt+1); err == nil {
		t.Fatal("expected rejection before execution delay elapses")
	}
	executed, err := s.Execute(p.ID, p.VotingEndsAt+p.ExecutionDelay)
	if err != nil {
		t.Fatal(err)
	}
	if executed.Status != Executed {
		t.Fatalf("status = %v, want Executed", executed.Status)
	}
}

func TestVotingPowerIncludesDelegatedPowerSeparatelyFromBase(t *testing.T) {
	s := newTestSystem()
	delegate := addr(5)
	standing := VoterStanding{BalanceMicro: 1_000_000, StakedMicro: 500_000, XPMultiplierBps: 10_000, RPMultiplierBps: 10_000}

	base := s.BasePower(standing)
	if s.DelegatedPowerOf(delegate) != 0 {
		t.Fatalf("delegated power before any delegation = %d, want 0", s.DelegatedPowerOf(delegate))
	}

	if err := s.Delegate(addr(6), delegate, 250); err != nil {
		t.Fatal(err)
	}
	if s.DelegatedPowerOf(delegate) != 250 {
		t.Fatalf("delegated power = %d, want 250", s.DelegatedPowerOf(delegate))
	}
	if got, want := s.VotingPower(delegate, standing), base+250; got != want {
		t.Fatalf("voting power = %d, want %d", got, want)
	}
}

func TestDelegateRejectsSelfDelegation(t *testing.T) {
	s := newTestSystem()
	if err := s.Delegate(addr(1), addr(1), 100); err == nil {
		t.Fatal("expected rejection of self-delegation")
	}
}

func TestDelegateMovesPowerFromPriorDelegate(t *testing.T) {
	s := newTestSystem()
	a, b, c := addr(1), addr(2), addr(3)
	if err := s.Delegate(a, b, 100); err != nil {
		t.Fatal(err)
	}
	if s.delegatedPower[b] != 100 {
		t.Fatalf("delegated power to b = %d, want 100", s.delegatedPower[b])
	}
	if err := s.Delegate(a, c, 100); err != nil {
		t.Fatal(err)
	}
	if s.delegatedPower[b] != 0 {
		t.Fatalf("delegated power to b should be withdrawn, got %d", s.delegatedPower[b])
	}
	if s.delegatedPower[c] != 100 {
		t.Fatalf("delegated power to c = %d, want 100", s.delegatedPower[c])
	}
}
