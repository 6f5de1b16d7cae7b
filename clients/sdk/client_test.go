package sdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finova-net/finova-core/chain/types"
)

func TestRegisterUserSendsExpectedMethod(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotMethod = req.Method
		json.NewEncoder(w).Encode(jsonrpcResponse{JSONRPC: "2.0", Result: json.RawMessage(`{"status":"ok"}`), ID: req.ID})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var user types.Address
	user[19] = 1
	if _, err := client.RegisterUser(user, nil); err != nil {
		t.Fatal(err)
	}
	if gotMethod != "register_user" {
		t.Fatalf("method = %q, want register_user", gotMethod)
	}
}

func TestCallPropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jsonrpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32000, Message: "insufficient stake"},
			ID:      1,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var user types.Address
	if _, err := client.Stake(user, 100); err == nil {
		t.Fatal("expected propagated rpc error")
	}
}

func TestSwapSendsAmounts(t *testing.T) {
	var params map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		body, _ := json.Marshal(req)
		_ = body
		var raw map[string]interface{}
		json.NewDecoder(r.Body).Decode(&raw)
		params = raw["params"].(map[string]interface{})
		json.NewEncoder(w).Encode(jsonrpcResponse{JSONRPC: "2.0", Result: json.RawMessage(`{}`), ID: 1})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Swap("FIN/USDfin", "a", 10_000, 9_800); err != nil {
		t.Fatal(err)
	}
	if params["amount_in"].(float64) != 10_000 {
		t.Fatalf("amount_in = %v, want 10000", params["amount_in"])
	}
}
