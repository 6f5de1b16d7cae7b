// Package sdk is a thin Go HTTP client for chain/rpc's JSON-RPC
// surface: register, mine, stake, swap, vote, and the rest of the §6
// operation catalogue.
package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/finova-net/finova-core/chain/types"
)

// Client is a JSON-RPC client bound to one chain/rpc endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client against the given RPC endpoint
// (chain/rpc's "/rpc" path).
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, httpClient: &http.Client{}}
}

type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (c *Client) call(method string, params interface{}) (json.RawMessage, error) {
	req := jsonrpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to make http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// RegisterUser registers a new user, optionally under a referrer.
func (c *Client) RegisterUser(userID types.Address, referrerID *types.Address) (json.RawMessage, error) {
	params := map[string]interface{}{"user_id": userID.Hex()}
	if referrerID != nil {
		params["referrer_id"] = referrerID.Hex()
	}
	return c.call("register_user", params)
}

// MineTick submits one mining tick for a user.
func (c *Client) MineTick(userID types.Address) (json.RawMessage, error) {
	return c.call("mine_tick", map[string]interface{}{"user_id": userID.Hex()})
}

// RecordActivity submits one content-quality activity record.
func (c *Client) RecordActivity(userID types.Address, platform string, originalityBps, engagementBps uint64) (json.RawMessage, error) {
	return c.call("record_activity", map[string]interface{}{
		"user_id":         userID.Hex(),
		"platform":        platform,
		"originality_bps": originalityBps,
		"engagement_bps":  engagementBps,
	})
}

// Stake deposits amountMicro FIN into the staking pool.
func (c *Client) Stake(userID types.Address, amountMicro uint64) (json.RawMessage, error) {
	return c.call("stake", map[string]interface{}{"user_id": userID.Hex(), "amount_micro": amountMicro})
}

// RequestUnstake begins the unstake cooldown for equivalentAmount.
func (c *Client) RequestUnstake(userID types.Address, equivalentAmount uint64) (json.RawMessage, error) {
	return c.call("request_unstake", map[string]interface{}{"user_id": userID.Hex(), "equivalent_amount": equivalentAmount})
}

// CompleteUnstake settles a matured unstake request.
func (c *Client) CompleteUnstake(userID types.Address, requestID string) (json.RawMessage, error) {
	return c.call("complete_unstake", map[string]interface{}{"user_id": userID.Hex(), "request_id": requestID})
}

// ClaimRewards moves a user's pending sub-pool rewards to their balance.
func (c *Client) ClaimRewards(userID types.Address) (json.RawMessage, error) {
	return c.call("claim_rewards", map[string]interface{}{"user_id": userID.Hex()})
}

// ApplyCard applies a mining-boost card to a user.
func (c *Client) ApplyCard(userID types.Address, cardKind string) (json.RawMessage, error) {
	return c.call("apply_card", map[string]interface{}{"user_id": userID.Hex(), "card_kind": cardKind})
}

// Swap executes an AMM swap of amountIn on the given side, aborting if
// output would fall below minOut.
func (c *Client) Swap(pool string, side string, amountIn, minOut uint64) (json.RawMessage, error) {
	return c.call("swap", map[string]interface{}{"pool": pool, "side": side, "amount_in": amountIn, "min_out": minOut})
}

// AddLiquidity deposits amountA/amountB into an AMM pool.
func (c *Client) AddLiquidity(pool string, amountA, amountB uint64) (json.RawMessage, error) {
	return c.call("add_liquidity", map[string]interface{}{"pool": pool, "amount_a": amountA, "amount_b": amountB})
}

// RemoveLiquidity burns lpBurn LP units from an AMM pool.
func (c *Client) RemoveLiquidity(pool string, lpBurn, minA, minB uint64) (json.RawMessage, error) {
	return c.call("remove_liquidity", map[string]interface{}{"pool": pool, "lp_burn": lpBurn, "min_a": minA, "min_b": minB})
}

// CreateProposal submits a new governance proposal.
func (c *Client) CreateProposal(proposer types.Address, title, description string, payload []byte) (json.RawMessage, error) {
	return c.call("create_proposal", map[string]interface{}{
		"proposer":    proposer.Hex(),
		"title":       title,
		"description": description,
		"payload":     payload,
	})
}

// CastVote casts a ballot on a proposal.
func (c *Client) CastVote(proposalID uint64, voter types.Address, choice string, reason string) (json.RawMessage, error) {
	return c.call("cast_vote", map[string]interface{}{
		"proposal_id": proposalID,
		"voter":       voter.Hex(),
		"choice":      choice,
		"reason":      reason,
	})
}

// FinalizeVote finalizes a proposal once its voting window has closed.
func (c *Client) FinalizeVote(proposalID uint64) (json.RawMessage, error) {
	return c.call("finalize_vote", map[string]interface{}{"proposal_id": proposalID})
}

// ExecuteProposal executes a passed proposal once its execution delay elapses.
func (c *Client) ExecuteProposal(proposalID uint64) (json.RawMessage, error) {
	return c.call("execute_proposal", map[string]interface{}{"proposal_id": proposalID})
}

// ValidatorAdd registers a new validator candidate.
func (c *Client) ValidatorAdd(pubKeyHex string, stake uint64, region string, commissionBps uint64) (json.RawMessage, error) {
	return c.call("validator_add", map[string]interface{}{
		"pub_key_hex":     pubKeyHex,
		"stake":           stake,
		"region":          region,
		"commission_bps":  commissionBps,
	})
}

// ValidatorSlash slashes a validator for the given misbehavior kind.
func (c *Client) ValidatorSlash(pubKeyHex string, kind string) (json.RawMessage, error) {
	return c.call("validator_slash", map[string]interface{}{"pub_key_hex": pubKeyHex, "kind": kind})
}

// ValidatorRotateEpoch advances the validator set's epoch.
func (c *Client) ValidatorRotateEpoch() (json.RawMessage, error) {
	return c.call("validator_rotate_epoch", nil)
}

// EmergencyPause halts state-mutating operations network-wide.
func (c *Client) EmergencyPause(reason string) (json.RawMessage, error) {
	return c.call("emergency_pause", map[string]interface{}{"reason": reason})
}

// EmergencyResume lifts a prior emergency pause.
func (c *Client) EmergencyResume() (json.RawMessage, error) {
	return c.call("emergency_resume", nil)
}
