package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultNetworkConfigValidates(t *testing.T) {
	cfg := DefaultNetworkConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsMissingAdminAuthority(t *testing.T) {
	cfg := DefaultNetworkConfig()
	cfg.AdminAuthority = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for missing admin authority")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultNetworkConfig()
	cfg.QuorumThresholdBps = 10_001
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for quorum threshold above 10000 bps")
	}
}

func TestValidateRejectsUnderfundedGenesisValidator(t *testing.T) {
	cfg := DefaultNetworkConfig()
	cfg.Validators = []GenesisValidator{
		{PubKeyHex: "aa", Stake: cfg.MinValidatorStake - 1, RegionCode: "us", CommissionRateBps: 100},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for genesis validator staked below minimum")
	}
}

func TestLoadNetworkConfigRoundTrips(t *testing.T) {
	cfg := DefaultNetworkConfig()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadNetworkConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.TokenMintID != cfg.TokenMintID {
		t.Fatalf("token mint id = %q, want %q", loaded.TokenMintID, cfg.TokenMintID)
	}
}

func TestLoadNetworkConfigRejectsMissingFile(t *testing.T) {
	if _, err := LoadNetworkConfig(filepath.Join(t.TempDir(), "does-not-exist.json")); err == nil {
		t.Fatal("expected error for missing genesis file")
	}
}
