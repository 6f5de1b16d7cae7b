package core

import (
	"testing"

	"github.com/finova-net/finova-core/chain/config"
	"github.com/finova-net/finova-core/chain/consensus"
	"github.com/finova-net/finova-core/chain/types"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func testAdminAddr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func initTestNetwork(t *testing.T, e *Engine) types.Address {
	t.Helper()
	admin := testAdminAddr(0xAD)
	cfg := config.DefaultNetworkConfig()
	cfg.AdminAuthority = admin.Hex()
	if err := e.InitializeNetwork(admin, cfg); err != nil {
		t.Fatalf("InitializeNetwork: %v", err)
	}
	return admin
}

func TestInitializeNetworkOnlyOnce(t *testing.T) {
	e := testEngine(t)
	admin := initTestNetwork(t, e)

	cfg := config.DefaultNetworkConfig()
	cfg.AdminAuthority = admin.Hex()
	if err := e.InitializeNetwork(admin, cfg); err == nil {
		t.Fatal("expected rejection of a second InitializeNetwork call")
	}
}

func TestRegisterUserWithAndWithoutReferrer(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	alice := testAdminAddr(1)
	if err := e.registerUser(alice, nil, 1_000); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, exists := e.users[alice]; !exists {
		t.Fatal("alice should be registered")
	}

	bob := testAdminAddr(2)
	if err := e.registerUser(bob, &alice, 1_100); err != nil {
		t.Fatalf("register bob with referrer: %v", err)
	}
	bobAcct := e.referrals.AccountOf(bob)
	if bobAcct.Referrer == nil || *bobAcct.Referrer != alice {
		t.Fatal("bob's referrer should be alice")
	}
}

func TestRegisterUserRollsBackOnUnknownReferrer(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	ghost := testAdminAddr(0xFF)
	carol := testAdminAddr(3)
	if err := e.registerUser(carol, &ghost, 1_000); err == nil {
		t.Fatal("expected rejection for unknown referrer")
	}
	if _, exists := e.users[carol]; exists {
		t.Fatal("carol should not remain registered after a failed referrer lookup")
	}
}

func TestRegisterUserRejectsDuplicate(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	dave := testAdminAddr(4)
	if err := e.registerUser(dave, nil, 1_000); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := e.registerUser(dave, nil, 1_001); err == nil {
		t.Fatal("expected rejection of duplicate registration")
	}
}

func TestMineTickBasicFlow(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	user := testAdminAddr(5)
	if err := e.registerUser(user, nil, 1_000); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := e.mineTick(user, 2_000)
	if err != nil {
		t.Fatalf("mineTick: %v", err)
	}
	if result.EffectiveRate == 0 {
		t.Fatal("expected a nonzero effective mining rate on the first tick")
	}
}

func TestStakeRequestCompleteUnstakeRoundTrip(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	user := testAdminAddr(6)
	if err := e.registerUser(user, nil, 1_000); err != nil {
		t.Fatalf("register: %v", err)
	}
	e.users[user].HoldingsMicro = 1_000_000_000

	minted, err := e.stake(user, 500_000_000, 1_000)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if minted == 0 {
		t.Fatal("expected a nonzero equivalent-balance mint")
	}
	if e.users[user].HoldingsMicro != 500_000_000 {
		t.Fatalf("holdings after stake = %d, want 500000000", e.users[user].HoldingsMicro)
	}

	req, err := e.requestUnstake(user, minted, 2_000)
	if err != nil {
		t.Fatalf("requestUnstake: %v", err)
	}

	if _, err := e.completeUnstake(user, req.ID.String(), 2_100); err == nil {
		t.Fatal("expected completeUnstake to fail before the cooldown elapses")
	}

	finOut, err := e.completeUnstake(user, req.ID.String(), 2_000+2*24*3600+1)
	if err != nil {
		t.Fatalf("completeUnstake after cooldown: %v", err)
	}
	if finOut == 0 {
		t.Fatal("expected a nonzero fin_out from completeUnstake")
	}
}

func TestClaimRewardsGatedByMinInterval(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	user := testAdminAddr(7)
	if err := e.registerUser(user, nil, 1_000); err != nil {
		t.Fatalf("register: %v", err)
	}
	e.users[user].Rewards.Pending[0] = 10_000

	if _, err := e.claimRewards(user, 2_000); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	e.users[user].Rewards.Pending[0] = 10_000
	if _, err := e.claimRewards(user, 2_001); err == nil {
		t.Fatal("expected the second claim within MinClaimIntervalSecs to be rejected")
	}
}

func TestSwapBasicFlow(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	user := testAdminAddr(8)
	if err := e.registerUser(user, nil, 1_000); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := e.addLiquidity("FIN/USDfin", user, 10_000_000, 10_000_000); err != nil {
		t.Fatalf("addLiquidity: %v", err)
	}

	result, err := e.swap("FIN/USDfin", "a", 100_000, 0, 10_000)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if result.AmountOut == 0 {
		t.Fatal("expected a nonzero swap output")
	}
	if e.swapVolume["FIN/USDfin"] != 100_000 {
		t.Fatalf("swap volume = %d, want 100000", e.swapVolume["FIN/USDfin"])
	}
}

func TestValidatorAddAndSlash(t *testing.T) {
	e := testEngine(t)
	initTestNetwork(t, e)

	info, err := e.validatorAdd("aabbccddee00112233445566778899aabbccddee", 20_000*1_000_000, "us", 500, consensus.MinimumVersion, 1_000)
	if err != nil {
		t.Fatalf("validatorAdd: %v", err)
	}
	if info.Status != consensus.Active {
		t.Fatalf("expected validator to activate immediately, got status %v", info.Status)
	}

	if _, err := e.validatorSlash("aabbccddee00112233445566778899aabbccddee", consensus.SlashDowntime, 2_000); err != nil {
		t.Fatalf("validatorSlash: %v", err)
	}
	if len(e.validators.Active()) != 0 {
		t.Fatal("a slashed validator should no longer be active")
	}
}

func TestEmergencyPauseRejectsOperationsFromNonAdmin(t *testing.T) {
	e := testEngine(t)
	admin := initTestNetwork(t, e)

	impostor := testAdminAddr(0xEE)
	if err := e.emergencyPause(impostor); err == nil {
		t.Fatal("expected rejection of emergency_pause from a non-admin address")
	}

	if err := e.emergencyPause(admin); err != nil {
		t.Fatalf("emergencyPause by admin: %v", err)
	}

	user := testAdminAddr(9)
	if err := e.registerUser(user, nil, 1_000); err == nil {
		t.Fatal("expected operations to be rejected while the network is paused")
	}

	if err := e.emergencyResume(admin); err != nil {
		t.Fatalf("emergencyResume: %v", err)
	}
	if err := e.registerUser(user, nil, 1_000); err != nil {
		t.Fatalf("register after resume: %v", err)
	}
}
