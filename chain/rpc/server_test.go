package rpc

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.IsAllowed("a") {
		t.Fatal("first request should be allowed")
	}
	if !rl.IsAllowed("a") {
		t.Fatal("second request should be allowed")
	}
	if rl.IsAllowed("a") {
		t.Fatal("third request should be rejected")
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if !rl.IsAllowed("a") {
		t.Fatal("client a's first request should be allowed")
	}
	if !rl.IsAllowed("b") {
		t.Fatal("client b should have its own bucket")
	}
}

type stubEngine struct{ fail bool }

func (s *stubEngine) RegisterUser(json.RawMessage) (interface{}, error) {
	if s.fail {
		return nil, errors.New("boom")
	}
	return map[string]string{"status": "ok"}, nil
}
func (s *stubEngine) MineTick(json.RawMessage) (interface{}, error)              { return nil, nil }
func (s *stubEngine) RecordActivity(json.RawMessage) (interface{}, error)       { return nil, nil }
func (s *stubEngine) Stake(json.RawMessage) (interface{}, error)                { return nil, nil }
func (s *stubEngine) RequestUnstake(json.RawMessage) (interface{}, error)       { return nil, nil }
func (s *stubEngine) CompleteUnstake(json.RawMessage) (interface{}, error)      { return nil, nil }
func (s *stubEngine) ClaimRewards(json.RawMessage) (interface{}, error)         { return nil, nil }
func (s *stubEngine) ApplyCard(json.RawMessage) (interface{}, error)            { return nil, nil }
func (s *stubEngine) Swap(json.RawMessage) (interface{}, error)                 { return nil, nil }
func (s *stubEngine) AddLiquidity(json.RawMessage) (interface{}, error)         { return nil, nil }
func (s *stubEngine) RemoveLiquidity(json.RawMessage) (interface{}, error)      { return nil, nil }
func (s *stubEngine) CreateProposal(json.RawMessage) (interface{}, error)       { return nil, nil }
func (s *stubEngine) CastVote(json.RawMessage) (interface{}, error)             { return nil, nil }
func (s *stubEngine) FinalizeVote(json.RawMessage) (interface{}, error)         { return nil, nil }
func (s *stubEngine) ExecuteProposal(json.RawMessage) (interface{}, error)      { return nil, nil }
func (s *stubEngine) ValidatorAdd(json.RawMessage) (interface{}, error)         { return nil, nil }
func (s *stubEngine) ValidatorSlash(json.RawMessage) (interface{}, error)       { return nil, nil }
func (s *stubEngine) ValidatorRotateEpoch(json.RawMessage) (interface{}, error) { return nil, nil }
func (s *stubEngine) EmergencyPause(json.RawMessage) (interface{}, error)       { return nil, nil }
func (s *stubEngine) EmergencyResume(json.RawMessage) (interface{}, error)      { return nil, nil }
func (s *stubEngine) SetKYCStatus(json.RawMessage) (interface{}, error)         { return nil, nil }
func (s *stubEngine) DelegateVote(json.RawMessage) (interface{}, error)         { return nil, nil }

func TestHandleRequestDispatchesToEngine(t *testing.T) {
	srv := NewServer(&stubEngine{}, ":0")
	resp := srv.handleRequest(&JSONRPCRequest{JSONRPC: "2.0", Method: "register_user", ID: 1})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.Result == nil {
		t.Fatal("expected a result")
	}
}

func TestHandleRequestUnknownMethod(t *testing.T) {
	srv := NewServer(&stubEngine{}, ":0")
	resp := srv.handleRequest(&JSONRPCRequest{JSONRPC: "2.0", Method: "does_not_exist", ID: 1})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatal("expected method-not-found error")
	}
}

func TestHandleRequestPropagatesEngineError(t *testing.T) {
	srv := NewServer(&stubEngine{fail: true}, ":0")
	resp := srv.handleRequest(&JSONRPCRequest{JSONRPC: "2.0", Method: "register_user", ID: 1})
	if resp.Error == nil {
		t.Fatal("expected propagated engine error")
	}
}

func TestValidateRequestRejectsBadVersion(t *testing.T) {
	srv := NewServer(&stubEngine{}, ":0")
	if err := srv.validateRequest(&JSONRPCRequest{JSONRPC: "1.0", Method: "mine_tick"}); err == nil {
		t.Fatal("expected rejection of non-2.0 jsonrpc version")
	}
}
