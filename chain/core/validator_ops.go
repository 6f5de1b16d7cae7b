package core

import (
	"github.com/finova-net/finova-core/chain/consensus"
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/types"
)

// validatorAdd implements spec.md §6's validator_add(pubkey, stake,
// region, commission_bps, version, now) → validator.
func (e *Engine) validatorAdd(pubKeyHex string, stake uint64, region string, commissionBps, version uint64, now int64) (*consensus.Info, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	pubKey, err := decodeHexPubKey(pubKeyHex)
	if err != nil {
		return nil, corefail.Wrap(corefail.Bounds, "malformed validator pubkey", err)
	}
	return e.validators.Add(pubKey, stake, region, commissionBps, version, now)
}

// validatorSlash implements spec.md §6's validator_slash(pubkey, kind,
// now) → slashed_amount.
func (e *Engine) validatorSlash(pubKeyHex string, kind consensus.SlashKind, now int64) (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	pubKey, err := decodeHexPubKey(pubKeyHex)
	if err != nil {
		return 0, corefail.Wrap(corefail.Bounds, "malformed validator pubkey", err)
	}

	amount, err := e.validators.Slash(pubKey, kind, now)
	if err != nil {
		return 0, err
	}
	e.broadcast(map[string]interface{}{"event": "ValidatorSlashed", "pubkey": pubKeyHex, "amount": amount, "kind": kind})
	return amount, nil
}

// validatorRotateEpoch implements spec.md §6's validator_rotate_epoch(now)
// → epoch_summary.
func (e *Engine) validatorRotateEpoch(now int64) (*consensus.EpochSummary, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	summary, err := e.validators.RotateEpoch(now)
	if err != nil {
		return nil, err
	}
	e.broadcast(map[string]interface{}{"event": "EpochRotated", "epoch": summary.Epoch, "active_count": summary.ActiveCount})
	return summary, nil
}

// emergencyPause implements spec.md §6's emergency_pause(admin). Only
// the genesis admin recorded by InitializeNetwork may pause the network.
func (e *Engine) emergencyPause(admin types.Address) error {
	if !e.initialized {
		return corefail.ErrNotInitialized
	}
	if admin != e.admin {
		return corefail.New(corefail.Authorization, "only the network admin may pause")
	}
	e.paused = true
	e.broadcast(map[string]interface{}{"event": "NetworkPaused", "admin": admin.Hex()})
	return nil
}

// emergencyResume implements spec.md §6's emergency_resume(admin).
func (e *Engine) emergencyResume(admin types.Address) error {
	if !e.initialized {
		return corefail.ErrNotInitialized
	}
	if admin != e.admin {
		return corefail.New(corefail.Authorization, "only the network admin may resume")
	}
	e.paused = false
	e.broadcast(map[string]interface{}{"event": "NetworkResumed", "admin": admin.Hex()})
	return nil
}

func slashKindFromString(s string) (consensus.SlashKind, error) {
	switch s {
	case "downtime":
		return consensus.SlashDowntime, nil
	case "double_sign":
		return consensus.SlashDoubleSign, nil
	case "invalid_block":
		return consensus.SlashInvalidBlock, nil
	case "malicious":
		return consensus.SlashMalicious, nil
	default:
		return 0, corefail.New(corefail.Bounds, "unknown slash kind")
	}
}
