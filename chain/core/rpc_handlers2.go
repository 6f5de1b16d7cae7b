package core

import (
	"encoding/json"

	"github.com/finova-net/finova-core/chain/types"
)

type swapParams struct {
	PoolID     string `json:"pool_id"`
	Side       string `json:"side"`
	AmountIn   uint64 `json:"amount_in"`
	MinOut     uint64 `json:"min_out"`
	MaxSlipBps uint64 `json:"max_slip_bps"`
}

// Swap implements rpc.Engine.
func (e *Engine) Swap(params json.RawMessage) (interface{}, error) {
	var p swapParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.swap(p.PoolID, p.Side, p.AmountIn, p.MinOut, p.MaxSlipBps)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"amount_out": result.AmountOut,
		"fee":        result.Fee,
		"impact_bps": result.ImpactBps,
	}, nil
}

type liquidityParams struct {
	PoolID  string `json:"pool_id"`
	UserID  string `json:"user_id"`
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

// AddLiquidity implements rpc.Engine.
func (e *Engine) AddLiquidity(params json.RawMessage) (interface{}, error) {
	var p liquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	lpMinted, err := e.addLiquidity(p.PoolID, userID, p.AmountA, p.AmountB)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"lp_minted": lpMinted}, nil
}

type removeLiquidityParams struct {
	PoolID string `json:"pool_id"`
	UserID string `json:"user_id"`
	LPBurn uint64 `json:"lp_burn"`
	MinA   uint64 `json:"min_a"`
	MinB   uint64 `json:"min_b"`
}

// RemoveLiquidity implements rpc.Engine.
func (e *Engine) RemoveLiquidity(params json.RawMessage) (interface{}, error) {
	var p removeLiquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	aOut, bOut, err := e.removeLiquidity(p.PoolID, userID, p.LPBurn, p.MinA, p.MinB)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"a_out": aOut, "b_out": bOut}, nil
}

type createProposalParams struct {
	Proposer    string `json:"proposer"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Payload     []byte `json:"payload"`
	Now         int64  `json:"now"`
}

// CreateProposal implements rpc.Engine.
func (e *Engine) CreateProposal(params json.RawMessage) (interface{}, error) {
	var p createProposalParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	proposer, err := types.HexToAddress(p.Proposer)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.createProposal(proposer, p.Title, p.Description, p.Payload, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"proposal_id": id}, nil
}

type castVoteParams struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Choice     string `json:"choice"`
	Reason     string `json:"reason"`
	Now        int64  `json:"now"`
}

// CastVote implements rpc.Engine.
func (e *Engine) CastVote(params json.RawMessage) (interface{}, error) {
	var p castVoteParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	voter, err := types.HexToAddress(p.Voter)
	if err != nil {
		return nil, err
	}
	choice, err := voteChoiceFromString(p.Choice)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.castVote(p.ProposalID, voter, choice, p.Reason, p.Now); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

type proposalIDParams struct {
	ProposalID uint64 `json:"proposal_id"`
	Now        int64  `json:"now"`
}

// FinalizeVote implements rpc.Engine.
func (e *Engine) FinalizeVote(params json.RawMessage) (interface{}, error) {
	var p proposalIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	status, err := e.finalizeVote(p.ProposalID, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": status}, nil
}

// ExecuteProposal implements rpc.Engine.
func (e *Engine) ExecuteProposal(params json.RawMessage) (interface{}, error) {
	var p proposalIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.executeProposal(p.ProposalID, p.Now); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

type validatorAddParams struct {
	PubKey        string `json:"pubkey"`
	Stake         uint64 `json:"stake"`
	Region        string `json:"region"`
	CommissionBps uint64 `json:"commission_bps"`
	Version       uint64 `json:"version"`
	Now           int64  `json:"now"`
}

// ValidatorAdd implements rpc.Engine.
func (e *Engine) ValidatorAdd(params json.RawMessage) (interface{}, error) {
	var p validatorAddParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	info, err := e.validatorAdd(p.PubKey, p.Stake, p.Region, p.CommissionBps, p.Version, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": info.Status, "joined_at": info.JoinedAt}, nil
}

type validatorSlashParams struct {
	PubKey string `json:"pubkey"`
	Kind   string `json:"kind"`
	Now    int64  `json:"now"`
}

// ValidatorSlash implements rpc.Engine.
func (e *Engine) ValidatorSlash(params json.RawMessage) (interface{}, error) {
	var p validatorSlashParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	kind, err := slashKindFromString(p.Kind)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	amount, err := e.validatorSlash(p.PubKey, kind, p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"slashed_amount": amount}, nil
}

type epochParams struct {
	Now int64 `json:"now"`
}

// ValidatorRotateEpoch implements rpc.Engine.
func (e *Engine) ValidatorRotateEpoch(params json.RawMessage) (interface{}, error) {
	var p epochParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	summary, err := e.validatorRotateEpoch(p.Now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"epoch":        summary.Epoch,
		"active_count": summary.ActiveCount,
		"total_stake":  summary.TotalStake,
	}, nil
}

type adminParams struct {
	Admin string `json:"admin"`
}

// EmergencyPause implements rpc.Engine.
func (e *Engine) EmergencyPause(params json.RawMessage) (interface{}, error) {
	var p adminParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToAddress(p.Admin)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.emergencyPause(admin); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "paused"}, nil
}

// EmergencyResume implements rpc.Engine.
func (e *Engine) EmergencyResume(params json.RawMessage) (interface{}, error) {
	var p adminParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToAddress(p.Admin)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.emergencyResume(admin); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "resumed"}, nil
}

type setKYCStatusParams struct {
	UserID   string `json:"user_id"`
	Verified bool   `json:"verified"`
	Now      int64  `json:"now"`
}

// SetKYCStatus implements rpc.Engine.
func (e *Engine) SetKYCStatus(params json.RawMessage) (interface{}, error) {
	var p setKYCStatusParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	userID, err := types.HexToAddress(p.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.setKYCStatus(userID, p.Verified, p.Now); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

type delegateVoteParams struct {
	Delegator string `json:"delegator"`
	Delegate  string `json:"delegate"`
	Now       int64  `json:"now"`
}

// DelegateVote implements rpc.Engine.
func (e *Engine) DelegateVote(params json.RawMessage) (interface{}, error) {
	var p delegateVoteParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	delegator, err := types.HexToAddress(p.Delegator)
	if err != nil {
		return nil, err
	}
	delegate, err := types.HexToAddress(p.Delegate)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.delegateVote(delegator, delegate, p.Now); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}
