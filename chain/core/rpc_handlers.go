package core

import (
	"encoding/json"

	"github.com/finova-net/finova-core/chain/quality"
	"github.com/finova-net/finova-core/chain/types"
)

// Every exported method in this file implements one entry of
// rpc.Engine: decode params, take the engine lock, run the matching
// internal handler, translate the result to a plain map for JSON
// encoding. This mirrors the teacher's chain/node/rpc.go split between
// the HTTP/websocket plumbing (chain/rpc) and the per-method business
// logic living on the node itself.

type registerUserParams struct {
	UserID     string  `json:"user_id"`
	ReferrerID *string `json:"referrer_id,omitempty"`
}

// RegisterUser implements rpc.Engine.
func (e *Engine) RegisterUser(params json.RawMessage) (interface{}, error) {
	var p registerUserParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}
	var referrer *types.Address
	if p.ReferrerID != nil {
		r, err := types.HexToAddress(*p.ReferrerID)
		if err != nil {
			return nil, err
		}
		referrer = &r
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.registerUser(userID, referrer, nowParam(params)); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

type userIDParams struct {
	UserID string `json:"user_id"`
	Now    int64  `json:"now"`
}

// MineTick implements rpc.Engine.
func (e *Engine) MineTick(params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.mineTick(userID, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"reward_delta_micro": result.RewardDeltaMicro,
		"effective_rate":     result.EffectiveRate,
		"daily_cap_reached":  result.DailyCapReached,
		"streak_days":        result.StreakDays,
	}, nil
}

// recordActivityParams carries spec.md §6's quality_inputs alongside the
// anti-abuse signal bundle spec §4.9 feeds into CheckAbuse: a flat
// suspicious_bps score plus the source's five human-probability factors.
type recordActivityParams struct {
	UserID         string `json:"user_id"`
	Platform       string `json:"platform"`
	OriginalityBps uint64 `json:"originality_bps"`
	EngagementBps  uint64 `json:"engagement_bps"`
	SuspiciousBps  uint64 `json:"suspicious_bps"`

	BiometricConsistencyBps uint64 `json:"biometric_consistency_bps"`
	BehavioralPatternsBps   uint64 `json:"behavioral_patterns_bps"`
	SocialGraphValidityBps  uint64 `json:"social_graph_validity_bps"`
	DeviceAuthenticityBps   uint64 `json:"device_authenticity_bps"`
	InteractionQualityBps   uint64 `json:"interaction_quality_bps"`

	Now int64 `json:"now"`
}

// RecordActivity implements rpc.Engine.
func (e *Engine) RecordActivity(params json.RawMessage) (interface{}, error) {
	var p recordActivityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	humanFactors := quality.HumanProbabilityFactors{
		BiometricConsistencyBps: p.BiometricConsistencyBps,
		BehavioralPatternsBps:   p.BehavioralPatternsBps,
		SocialGraphValidityBps:  p.SocialGraphValidityBps,
		DeviceAuthenticityBps:   p.DeviceAuthenticityBps,
		InteractionQualityBps:   p.InteractionQualityBps,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	xpGain, err := e.recordActivity(userID, p.Platform, p.OriginalityBps, p.EngagementBps, p.SuspiciousBps, humanFactors, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"xp_gain": xpGain}, nil
}

type applyCardParams struct {
	UserID   string `json:"user_id"`
	CardKind string `json:"card_kind"`
	Now      int64  `json:"now"`
}

// ApplyCard implements rpc.Engine.
func (e *Engine) ApplyCard(params json.RawMessage) (interface{}, error) {
	var p applyCardParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.applyCard(userID, p.CardKind, p.Now); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

type stakeParams struct {
	UserID      string `json:"user_id"`
	AmountMicro uint64 `json:"amount_micro"`
	Now         int64  `json:"now"`
}

// Stake implements rpc.Engine.
func (e *Engine) Stake(params json.RawMessage) (interface{}, error) {
	var p stakeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	minted, err := e.stake(userID, p.AmountMicro, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"equivalent_minted": minted}, nil
}

type requestUnstakeParams struct {
	UserID           string `json:"user_id"`
	EquivalentAmount uint64 `json:"equivalent_amount"`
	Now              int64  `json:"now"`
}

// RequestUnstake implements rpc.Engine.
func (e *Engine) RequestUnstake(params json.RawMessage) (interface{}, error) {
	var p requestUnstakeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	req, err := e.requestUnstake(userID, p.EquivalentAmount, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"request_id": req.ID.String()}, nil
}

type completeUnstakeParams struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
	Now       int64  `json:"now"`
}

// CompleteUnstake implements rpc.Engine.
func (e *Engine) CompleteUnstake(params json.RawMessage) (interface{}, error) {
	var p completeUnstakeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	finOut, err := e.completeUnstake(userID, p.RequestID, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"fin_out": finOut}, nil
}

// ClaimRewards implements rpc.Engine.
func (e *Engine) ClaimRewards(params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.claimRewards(userID, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"mining":  result.Claimed[0],
		"xp":      result.Claimed[1],
		"rp":      result.Claimed[2],
		"special": result.Claimed[3],
		"reserve": result.Claimed[4],
		"total":   result.Total,
	}, nil
}

func nowParam(params json.RawMessage) int64 {
	var p struct {
		Now int64 `json:"now"`
	}
	_ = json.Unmarshal(params, &p)
	return p.Now
}
