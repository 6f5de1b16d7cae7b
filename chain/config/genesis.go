package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/finova-net/finova-core/chain/types"
)

// NetworkConfig is the genesis-loadable configuration for the
// NetworkState singleton of spec §3: admin identity, token mint, and
// the bounds that parameterize the mining/staking/consensus/governance
// modules.
type NetworkConfig struct {
	AdminAuthority string `json:"adminAuthority"`
	TokenMintID    string `json:"tokenMintId"`

	MinGuildLevel      uint64 `json:"minGuildLevel"`
	MinProposalWeight  uint64 `json:"minProposalWeight"`

	VotingPeriodSecs     int64  `json:"votingPeriodSecs"`
	ExecutionDelaySecs   int64  `json:"executionDelaySecs"`
	QuorumThresholdBps   uint64 `json:"quorumThresholdBps"`
	ApprovalThresholdBps uint64 `json:"approvalThresholdBps"`
	ProposalDeposit      uint64 `json:"proposalDeposit"`

	MinValidatorStake   uint64 `json:"minValidatorStake"`
	MaxValidators       int    `json:"maxValidators"`
	MaxSlashesBeforeBan uint64 `json:"maxSlashesBeforeBan"`
	RotationPeriodSecs  int64  `json:"rotationPeriodSecs"`
	MinActiveReputation int64  `json:"minActiveReputation"`
	GeoMaxFractionBps   uint64 `json:"geoMaxFractionBps"`

	RewardPoolDailyCapMicro uint64    `json:"rewardPoolDailyCapMicro"`
	RewardPoolSeedMicro     [5]uint64 `json:"rewardPoolSeedMicro"`

	Validators []GenesisValidator `json:"validators,omitempty"`
}

// GenesisValidator is a validator seeded at genesis.
type GenesisValidator struct {
	PubKeyHex         string `json:"pubKeyHex"`
	Stake             uint64 `json:"stake"`
	RegionCode        string `json:"regionCode"`
	CommissionRateBps uint64 `json:"commissionRateBps"`
}

// LoadNetworkConfig loads the network configuration from a genesis
// JSON file.
func LoadNetworkConfig(path string) (*NetworkConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("genesis config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis config: %w", err)
	}

	var cfg NetworkConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse genesis config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis config: %w", err)
	}
	return &cfg, nil
}

// Validate checks a NetworkConfig for internal consistency before it
// is used to initialize the network.
func (c *NetworkConfig) Validate() error {
	if c.AdminAuthority == "" {
		return fmt.Errorf("missing admin authority")
	}
	if _, err := types.HexToAddress(c.AdminAuthority); err != nil {
		return fmt.Errorf("invalid admin authority: %w", err)
	}
	if c.TokenMintID == "" {
		return fmt.Errorf("missing token mint id")
	}
	if c.QuorumThresholdBps > 10_000 || c.ApprovalThresholdBps > 10_000 {
		return fmt.Errorf("threshold bps must not exceed 10000")
	}
	if c.MaxValidators <= 0 {
		return fmt.Errorf("max validators must be positive")
	}
	for i, v := range c.Validators {
		if v.Stake < c.MinValidatorStake {
			return fmt.Errorf("genesis validator %d stake below minimum", i)
		}
		if v.CommissionRateBps > 10_000 {
			return fmt.Errorf("genesis validator %d commission rate exceeds 100%%", i)
		}
	}
	return nil
}

// DefaultNetworkConfig returns a conservative default configuration
// suitable for local development and simulation.
func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		AdminAuthority:       types.ZeroAddress.Hex(),
		TokenMintID:          "FIN",
		MinGuildLevel:        1,
		MinProposalWeight:    100,
		VotingPeriodSecs:     7 * 86_400,
		ExecutionDelaySecs:   2 * 86_400,
		QuorumThresholdBps:   1_000,
		ApprovalThresholdBps: 6_000,
		ProposalDeposit:      1_000 * 1_000_000,
		MinValidatorStake:    10_000 * 1_000_000,
		MaxValidators:        100,
		MaxSlashesBeforeBan:  3,
		RotationPeriodSecs:   86_400,
		MinActiveReputation:  100,
		GeoMaxFractionBps:    3_000,
		RewardPoolDailyCapMicro: 10_000_000_000,
		RewardPoolSeedMicro: [5]uint64{
			5_000_000_000, 2_000_000_000, 2_000_000_000, 900_000_000, 100_000_000,
		},
	}
}
