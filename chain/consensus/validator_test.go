package consensus

import "testing"

func pk(b byte) []byte { return []byte{b} }

func TestAddValidatorRejectsBelowMinStake(t *testing.T) {
	s := NewSet(3600, 100)
	if _, err := s.Add(pk(1), MinValidatorStake-1, "us", 100, MinimumVersion, 0); err == nil {
		t.Fatal("expected rejection below minimum stake")
	}
}

func TestAddValidatorActivatesWhenCriteriaMet(t *testing.T) {
	s := NewSet(3600, 100)
	info, err := s.Add(pk(1), MinValidatorStake, "us", 100, MinimumVersion, 0)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != Active {
		t.Fatalf("status = %v, want Active", info.Status)
	}
}

func TestAddValidatorRejectsDuplicate(t *testing.T) {
	s := NewSet(3600, 100)
	if _, err := s.Add(pk(1), MinValidatorStake, "us", 100, MinimumVersion, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(pk(1), MinValidatorStake, "us", 100, MinimumVersion, 0); err == nil {
		t.Fatal("expected rejection of duplicate validator")
	}
}

func TestRemoveIsConstantTimeSwap(t *testing.T) {
	s := NewSet(3600, 100)
	for i := byte(1); i <= 3; i++ {
		if _, err := s.Add(pk(i), MinValidatorStake, "us", 100, MinimumVersion, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Remove(pk(1)); err != nil {
		t.Fatal(err)
	}
	if len(s.byIndex) != 2 {
		t.Fatalf("len = %d, want 2", len(s.byIndex))
	}
	if _, ok := s.index[keyOf(pk(1))]; ok {
		t.Fatal("removed validator still indexed")
	}
}

func TestSlashIncrementsCountAndBansPastThreshold(t *testing.T) {
	s := NewSet(3600, 100)
	if _, err := s.Add(pk(1), MinValidatorStake*10, "us", 100, MinimumVersion, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < MaxSlashesBeforeBan; i++ {
		if _, err := s.Slash(pk(1), SlashDowntime, int64(i)); err != nil {
			t.Fatal(err)
		}
	}
	info := s.byIndex[s.index[keyOf(pk(1))]]
	if info.Status != Banned {
		t.Fatalf("status = %v, want Banned after %d slashes", info.Status, MaxSlashesBeforeBan)
	}
}

func TestVotingPowerZeroWhenNotActive(t *testing.T) {
	info := &Info{Stake: MinValidatorStake * 10, Status: Pending, Reputation: 1000}
	if got := info.VotingPowerBps(); got != 0 {
		t.Fatalf("voting power = %d, want 0 for a non-active validator", got)
	}
}

func TestConsensusCheckThreshold(t *testing.T) {
	s := NewSet(3600, 100)
	if _, err := s.Add(pk(1), MinValidatorStake*60, "us", 100, MinimumVersion, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(pk(2), MinValidatorStake*40, "eu", 100, MinimumVersion, 0); err != nil {
		t.Fatal(err)
	}

	ok, err := s.ConsensusCheck([][]byte{pk(1)}, 6_000)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected 60-stake signer alone to clear a 60% threshold")
	}

	ok, err = s.ConsensusCheck([][]byte{pk(1)}, 6_001)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected 60-stake signer to fail just past a 60% threshold")
	}
}

func TestRotateEpochActivatesPendingAndBoundsHistory(t *testing.T) {
	s := NewSet(100, 100)
	if _, err := s.Add(pk(1), MinValidatorStake, "us", 100, MinimumVersion, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < EpochHistoryCap+3; i++ {
		if _, err := s.RotateEpoch(int64(i) * 100); err != nil {
			t.Fatalf("unexpected error at epoch %d: %v", i, err)
		}
	}
	if len(s.History) != EpochHistoryCap {
		t.Fatalf("history len = %d, want %d", len(s.History), EpochHistoryCap)
	}
}

func TestRotateEpochRejectsBeforeDue(t *testing.T) {
	s := NewSet(1000, 100)
	if _, err := s.RotateEpoch(0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RotateEpoch(1); err == nil {
		t.Fatal("expected rejection before next rotation is due")
	}
}
