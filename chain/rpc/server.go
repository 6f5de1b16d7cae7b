// Package rpc adapts the teacher's JSON-RPC surface (gorilla/mux +
// gorilla/websocket + a fixed-window rate limiter) into the HTTP
// operation surface for the reward engine's §6 operation catalogue,
// with a websocket event stream for broadcast events.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// JSONRPCRequest is one request envelope.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse is one response envelope.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError carries a JSON-RPC error code and message.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RateLimiter is a simple per-client fixed-window request counter.
type RateLimiter struct {
	requests map[string]*ClientBucket
	mu       sync.RWMutex
	limit    int
	window   time.Duration
}

// ClientBucket tracks one client's request count within a window.
type ClientBucket struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter constructs a rate limiter of limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{requests: make(map[string]*ClientBucket), limit: limit, window: window}
}

// IsAllowed reports whether a request from clientID is within its window budget.
func (rl *RateLimiter) IsAllowed(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, exists := rl.requests[clientID]
	if !exists {
		rl.requests[clientID] = &ClientBucket{count: 1, resetTime: now.Add(rl.window)}
		return true
	}
	if now.After(bucket.resetTime) {
		bucket.count = 1
		bucket.resetTime = now.Add(rl.window)
		return true
	}
	if bucket.count < rl.limit {
		bucket.count++
		return true
	}
	return false
}

// Clean removes expired client buckets.
func (rl *RateLimiter) Clean() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for clientID, bucket := range rl.requests {
		if now.After(bucket.resetTime.Add(rl.window)) {
			delete(rl.requests, clientID)
		}
	}
}

// Engine is the operation surface chain/core exposes to the RPC layer,
// one method per spec.md §6 operation.
type Engine interface {
	RegisterUser(params json.RawMessage) (interface{}, error)
	MineTick(params json.RawMessage) (interface{}, error)
	RecordActivity(params json.RawMessage) (interface{}, error)
	Stake(params json.RawMessage) (interface{}, error)
	RequestUnstake(params json.RawMessage) (interface{}, error)
	CompleteUnstake(params json.RawMessage) (interface{}, error)
	ClaimRewards(params json.RawMessage) (interface{}, error)
	ApplyCard(params json.RawMessage) (interface{}, error)
	Swap(params json.RawMessage) (interface{}, error)
	AddLiquidity(params json.RawMessage) (interface{}, error)
	RemoveLiquidity(params json.RawMessage) (interface{}, error)
	CreateProposal(params json.RawMessage) (interface{}, error)
	CastVote(params json.RawMessage) (interface{}, error)
	FinalizeVote(params json.RawMessage) (interface{}, error)
	ExecuteProposal(params json.RawMessage) (interface{}, error)
	ValidatorAdd(params json.RawMessage) (interface{}, error)
	ValidatorSlash(params json.RawMessage) (interface{}, error)
	ValidatorRotateEpoch(params json.RawMessage) (interface{}, error)
	EmergencyPause(params json.RawMessage) (interface{}, error)
	EmergencyResume(params json.RawMessage) (interface{}, error)
	SetKYCStatus(params json.RawMessage) (interface{}, error)
	DelegateVote(params json.RawMessage) (interface{}, error)
}

// Server is the HTTP/websocket RPC server fronting an Engine.
type Server struct {
	engine      Engine
	httpServer  *http.Server
	wsUpgrader  websocket.Upgrader
	rateLimiter *RateLimiter
	listenAddr  string

	methods map[string]func(json.RawMessage) (interface{}, error)

	events   chan interface{}
	subsMu   sync.Mutex
	subs     map[*websocket.Conn]bool
}

// NewServer constructs an RPC server bound to the given engine.
func NewServer(engine Engine, listenAddr string) *Server {
	s := &Server{
		engine:     engine,
		listenAddr: listenAddr,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rateLimiter: NewRateLimiter(100, time.Minute),
		methods:     make(map[string]func(json.RawMessage) (interface{}, error)),
		events:      make(chan interface{}, 256),
		subs:        make(map[*websocket.Conn]bool),
	}
	s.registerMethods()
	return s
}

func (s *Server) registerMethods() {
	s.methods["register_user"] = s.engine.RegisterUser
	s.methods["mine_tick"] = s.engine.MineTick
	s.methods["record_activity"] = s.engine.RecordActivity
	s.methods["stake"] = s.engine.Stake
	s.methods["request_unstake"] = s.engine.RequestUnstake
	s.methods["complete_unstake"] = s.engine.CompleteUnstake
	s.methods["claim_rewards"] = s.engine.ClaimRewards
	s.methods["apply_card"] = s.engine.ApplyCard
	s.methods["swap"] = s.engine.Swap
	s.methods["add_liquidity"] = s.engine.AddLiquidity
	s.methods["remove_liquidity"] = s.engine.RemoveLiquidity
	s.methods["create_proposal"] = s.engine.CreateProposal
	s.methods["cast_vote"] = s.engine.CastVote
	s.methods["finalize_vote"] = s.engine.FinalizeVote
	s.methods["execute_proposal"] = s.engine.ExecuteProposal
	s.methods["validator_add"] = s.engine.ValidatorAdd
	s.methods["validator_slash"] = s.engine.ValidatorSlash
	s.methods["validator_rotate_epoch"] = s.engine.ValidatorRotateEpoch
	s.methods["emergency_pause"] = s.engine.EmergencyPause
	s.methods["emergency_resume"] = s.engine.EmergencyResume
	s.methods["set_kyc_status"] = s.engine.SetKYCStatus
	s.methods["delegate_vote"] = s.engine.DelegateVote
}

// Start begins serving HTTP, websocket, and the event broadcast loop.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc("/rpc", s.handleHTTP).Methods("POST", "OPTIONS")
	router.HandleFunc("/events", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.rateLimiter.Clean()
		}
	}()

	go s.broadcastLoop()

	log.Printf("starting rpc server on %s", s.listenAddr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("rpc server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the RPC server down.
func (s *Server) Stop() {
	if s.httpServer != nil {
		s.httpServer.Shutdown(context.Background())
	}
}

// Broadcast pushes an event to every connected websocket subscriber.
func (s *Server) Broadcast(event interface{}) {
	select {
	case s.events <- event:
	default:
		log.Printf("event channel full, dropping event")
	}
}

func (s *Server) broadcastLoop() {
	for event := range s.events {
		s.subsMu.Lock()
		for conn := range s.subs {
			if err := conn.WriteJSON(event); err != nil {
				conn.Close()
				delete(s.subs, conn)
			}
		}
		s.subsMu.Unlock()
	}
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	clientIP := s.clientIP(r)
	if !s.rateLimiter.IsAllowed(clientIP) {
		s.writeError(w, &RPCError{Code: -32005, Message: "rate limit exceeded"}, nil)
		return
	}
	if r.ContentLength > 1024*1024 {
		s.writeError(w, &RPCError{Code: -32006, Message: "request too large"}, nil)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &RPCError{Code: -32700, Message: "parse error: " + err.Error()}, nil)
		return
	}
	if err := s.validateRequest(&req); err != nil {
		s.writeError(w, &RPCError{Code: -32600, Message: "invalid request: " + err.Error()}, req.ID)
		return
	}

	json.NewEncoder(w).Encode(s.handleRequest(&req))
}

func (s *Server) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

func (s *Server) validateRequest(req *JSONRPCRequest) error {
	if req.JSONRPC != "2.0" {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}
	if req.Method == "" {
		return fmt.Errorf("missing method")
	}
	if len(req.Method) > 128 {
		return fmt.Errorf("method name too long")
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	s.subsMu.Lock()
	s.subs[conn] = true
	s.subsMu.Unlock()

	defer func() {
		s.subsMu.Lock()
		delete(s.subs, conn)
		s.subsMu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) handleRequest(req *JSONRPCRequest) *JSONRPCResponse {
	method, exists := s.methods[req.Method]
	if !exists {
		log.Printf("unknown method requested: %s", req.Method)
		return &JSONRPCResponse{JSONRPC: "2.0", Error: &RPCError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}

	result, err := method(req.Params)
	if err != nil {
		log.Printf("rpc method %s failed: %v", req.Method, err)
		return &JSONRPCResponse{JSONRPC: "2.0", Error: &RPCError{Code: -32000, Message: err.Error()}, ID: req.ID}
	}
	return &JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func (s *Server) writeError(w http.ResponseWriter, err *RPCError, id interface{}) {
	json.NewEncoder(w).Encode(&JSONRPCResponse{JSONRPC: "2.0", Error: err, ID: id})
}
