// Package consensus implements the validator set and stake-weighted
// consensus check of spec §4.5: add/slash/rotate, geographic
// distribution constraint, and voting-power aggregation.
package consensus

import (
	"math/big"
	"sort"

	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/fixedpoint"
)

// Status is a validator's lifecycle state.
type Status uint8

const (
	Pending Status = iota
	Active
	Inactive
	Slashed
	Banned
)

// SlashKind selects a row of the slash-rate table.
type SlashKind uint8

const (
	SlashDowntime SlashKind = iota
	SlashDoubleSign
	SlashInvalidBlock
	SlashMalicious
)

// slashRateBps implements spec.md §6's ABI-visible slashing defaults:
// unavailability 1%, double-signing 5%, invalid-signature 2%, malicious 10%.
var slashRateBps = map[SlashKind]uint64{
	SlashDowntime:     100,
	SlashDoubleSign:   500,
	SlashInvalidBlock: 200,
	SlashMalicious:    1_000,
}

// MinValidatorStake, MaxValidators, and MaxSlashesBeforeBan are the
// network-wide validator-set constants (spec §4.5).
const (
	MinValidatorStake   = 10_000 * fixedpoint.Micro
	MaxValidators       = 100
	MaxSlashesBeforeBan = 3
	MinimumVersion      = 1
	EpochHistoryCap     = 10
)

// Info is the per-validator ValidatorInfo of spec §3.
type Info struct {
	PubKey            []byte
	Stake             uint64
	Status            Status
	Reputation        int64 // 0..=1000
	SlashCount        uint64
	RegionCode        string
	CommissionRateBps uint64
	JoinedAt          int64
	LastActivity      int64
	Version           uint64
}

// EpochSummary is one entry of the bounded epoch-rotation history.
type EpochSummary struct {
	Epoch           uint64
	ActiveCount     int
	TotalStake      uint64
	RotatedAt       int64
}

// GeoQuota, when non-nil, caps the fraction of active validators any
// single region may hold (spec §4.5: "if geographic enforcement is on").
type GeoQuota struct {
	MaxFractionBps uint64
}

// Set is the ValidatorSet of spec §3: an index-addressed validator
// list plus rotation state.
type Set struct {
	byIndex      []*Info
	index        map[string]int // pubkey (string-keyed) -> index
	Epoch        uint64
	NextRotation int64
	RotationPeriodSecs int64
	MinActiveReputation int64
	Geo          *GeoQuota
	History      []EpochSummary
}

func keyOf(pubkey []byte) string { return string(pubkey) }

// NewSet constructs an empty validator set.
func NewSet(rotationPeriodSecs int64, minActiveReputation int64) *Set {
	return &Set{
		index:               make(map[string]int),
		RotationPeriodSecs:   rotationPeriodSecs,
		MinActiveReputation:  minActiveReputation,
	}
}

// Add implements spec §4.5's add-validator operation.
func (s *Set) Add(pubkey []byte, stake uint64, region string, commissionBps uint64, version uint64, now int64) (*Info, error) {
	if stake < MinValidatorStake {
		return nil, corefail.New(corefail.Bounds, "validator stake below minimum")
	}
	if commissionBps > fixedpoint.BPS {
		return nil, corefail.New(corefail.Bounds, "commission rate exceeds 100%")
	}
	if _, exists := s.index[keyOf(pubkey)]; exists {
		return nil, corefail.New(corefail.State, "validator already registered")
	}
	if len(s.byIndex) >= MaxValidators {
		return nil, corefail.New(corefail.Bounds, "validator set is full")
	}

	info := &Info{
		PubKey:            pubkey,
		Stake:             stake,
		Status:            Pending,
		Reputation:        1000,
		RegionCode:        region,
		CommissionRateBps: commissionBps,
		JoinedAt:          now,
		LastActivity:      now,
		Version:           version,
	}
	s.index[keyOf(pubkey)] = len(s.byIndex)
	s.byIndex = append(s.byIndex, info)

	if s.canActivate(info) {
		info.Status = Active
	}
	return info, nil
}

func (s *Set) canActivate(info *Info) bool {
	if info.Version < MinimumVersion {
		return false
	}
	if s.Geo == nil {
		return true
	}
	activeInRegion, activeTotal := 0, 0
	for _, v := range s.byIndex {
		if v.Status != Active {
			continue
		}
		activeTotal++
		if v.RegionCode == info.RegionCode {
			activeInRegion++
		}
	}
	if activeTotal == 0 {
		return true
	}
	projectedBps := uint64(activeInRegion+1) * fixedpoint.BPS / uint64(activeTotal+1)
	return projectedBps <= s.Geo.MaxFractionBps
}

// Remove implements spec §4.5's O(1) removal: swap with the last
// element and update the index.
func (s *Set) Remove(pubkey []byte) error {
	idx, ok := s.index[keyOf(pubkey)]
	if !ok {
		return corefail.New(corefail.State, "validator not found")
	}
	last := len(s.byIndex) - 1
	s.byIndex[idx] = s.byIndex[last]
	s.index[keyOf(s.byIndex[idx].PubKey)] = idx
	s.byIndex = s.byIndex[:last]
	delete(s.index, keyOf(pubkey))
	return nil
}

// Slash implements spec §4.5's slash operation.
func (s *Set) Slash(pubkey []byte, kind SlashKind, now int64) (uint64, error) {
	idx, ok := s.index[keyOf(pubkey)]
	if !ok {
		return 0, corefail.New(corefail.State, "validator not found")
	}
	info := s.byIndex[idx]

	slashAmount, err := fixedpoint.ApplyBps(info.Stake, slashRateBps[kind])
	if err != nil {
		return 0, err
	}
	info.Stake = fixedpoint.SaturatingSub(info.Stake, slashAmount)
	info.Reputation -= 100
	if info.Reputation < 0 {
		info.Reputation = 0
	}
	info.SlashCount++
	info.Status = Slashed
	info.LastActivity = now

	if info.SlashCount >= MaxSlashesBeforeBan {
		info.Status = Banned
	}
	return slashAmount, nil
}

// VotingPowerBps implements spec §4.5's voting-power formula:
// max(0, stake/1_000_000) * (1 + min(reputation, 1000)/5000); zero if
// not Active. Returned in bps-scaled units of FIN (1 unit == 10000).
func (info *Info) VotingPowerBps() uint64 {
	if info.Status != Active {
		return 0
	}
	baseUnits := info.Stake / fixedpoint.Micro
	rep := info.Reputation
	if rep > 1000 {
		rep = 1000
	}
	repFactor := fixedpoint.BPS + uint64(rep)*fixedpoint.BPS/5000
	power, err := fixedpoint.ApplyBps(baseUnits*fixedpoint.BPS, repFactor)
	if err != nil {
		return 0
	}
	return power
}

// ConsensusCheck implements spec §4.5's consensus-check: does the
// voting power of the signer set S clear thresholdBps of the active
// set's total voting power.
func (s *Set) ConsensusCheck(signerPubkeys [][]byte, thresholdBps uint64) (bool, error) {
	totalPower := uint64(0)
	for _, v := range s.byIndex {
		totalPower = fixedpoint.SaturatingAdd(totalPower, v.VotingPowerBps())
	}
	if totalPower == 0 {
		return false, nil
	}

	signerSet := make(map[string]bool, len(signerPubkeys))
	for _, pk := range signerPubkeys {
		signerSet[keyOf(pk)] = true
	}
	signerPower := uint64(0)
	for _, v := range s.byIndex {
		if signerSet[keyOf(v.PubKey)] {
			signerPower = fixedpoint.SaturatingAdd(signerPower, v.VotingPowerBps())
		}
	}

	lhs := new(big.Int).Mul(new(big.Int).SetUint64(signerPower), new(big.Int).SetUint64(fixedpoint.BPS))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(totalPower), new(big.Int).SetUint64(thresholdBps))
	return lhs.Cmp(rhs) >= 0, nil
}

// RotateEpoch implements spec §4.5's epoch-rotation operation: pushes
// a bounded epoch summary, activates pending validators meeting
// criteria, and demotes active validators below the reputation floor.
func (s *Set) RotateEpoch(now int64) (*EpochSummary, error) {
	if now < s.NextRotation {
		return nil, corefail.New(corefail.Timing, "epoch rotation not yet due")
	}

	for _, v := range s.byIndex {
		if v.Status == Pending && s.canActivate(v) {
			v.Status = Active
		}
		if v.Status == Active && v.Reputation < s.MinActiveReputation {
			v.Status = Inactive
		}
	}

	activeCount, totalStake := 0, uint64(0)
	for _, v := range s.byIndex {
		if v.Status == Active {
			activeCount++
			totalStake = fixedpoint.SaturatingAdd(totalStake, v.Stake)
		}
	}

	s.Epoch++
	summary := EpochSummary{Epoch: s.Epoch, ActiveCount: activeCount, TotalStake: totalStake, RotatedAt: now}
	s.History = append(s.History, summary)
	if len(s.History) > EpochHistoryCap {
		s.History = s.History[len(s.History)-EpochHistoryCap:]
	}
	s.NextRotation = now + s.RotationPeriodSecs
	return &summary, nil
}

// Active returns the validator set's currently active validators,
// sorted by descending stake (useful for proposer selection).
func (s *Set) Active() []*Info {
	out := make([]*Info, 0, len(s.byIndex))
	for _, v := range s.byIndex {
		if v.Status == Active {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stake > out[j].Stake })
	return out
}
