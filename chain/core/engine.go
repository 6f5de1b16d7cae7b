// Package core wires every domain package into the operation catalogue
// of chain/rpc's Engine interface: it holds the NetworkState singleton
// (mining pool, staking pool, reward pool, referral graph, governance
// system, validator set, AMM pools) and dispatches each operation under
// a single process-wide lock, the way the teacher's chain/node.Node
// holds its Blockchain/TxPool/MultiValidatorConsensus fields and
// dispatches through one mutex.
package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/finova-net/finova-core/chain/amm"
	"github.com/finova-net/finova-core/chain/config"
	"github.com/finova-net/finova-core/chain/consensus"
	"github.com/finova-net/finova-core/chain/corefail"
	"github.com/finova-net/finova-core/chain/governance"
	"github.com/finova-net/finova-core/chain/mining"
	"github.com/finova-net/finova-core/chain/monitoring"
	"github.com/finova-net/finova-core/chain/referral"
	"github.com/finova-net/finova-core/chain/rewardpool"
	"github.com/finova-net/finova-core/chain/rpc"
	"github.com/finova-net/finova-core/chain/staking"
	"github.com/finova-net/finova-core/chain/storage"
	"github.com/finova-net/finova-core/chain/types"
)

// UserRecord is a registered participant's full per-user state, the
// union of every subsystem's per-user account (spec.md §3's UserAccount
// plus the module-specific accounts it composes).
type UserRecord struct {
	Address           types.Address
	Mining            *mining.State
	Staking           *staking.Account
	Rewards           *rewardpool.Account
	TotalXP           uint64
	HoldingsMicro     uint64
	SecurityMultBps   uint64
	QualitySignedBps  int64
	RegisteredAt      int64
}

// Engine is the orchestrator: it implements rpc.Engine (the JSON-RPC
// operation surface), feeds the monitoring interfaces through the
// adapters in adapters.go, and is backed by chain/storage for durability.
type Engine struct {
	mu sync.Mutex

	cfg         *config.NetworkConfig
	store       *storage.Store
	admin       types.Address
	initialized bool
	paused      bool
	running     bool

	miningPool *mining.Pool
	stakePool  *staking.Pool
	rewardPool *rewardpool.Pool
	referrals  *referral.Graph
	gov        *governance.System
	validators *consensus.Set
	pools      map[string]*amm.Pool

	users      map[types.Address]*UserRecord
	swapVolume map[string]uint64

	rpcServer *rpc.Server
	metrics   *monitoring.MetricsServer
}

var _ rpc.Engine = (*Engine)(nil)

// New constructs an Engine whose durable state lives under dataDir.
// The network itself is not yet initialized; call InitializeNetwork
// before accepting other operations.
func New(dataDir string) (*Engine, error) {
	store, err := storage.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &Engine{
		store:      store,
		pools:      make(map[string]*amm.Pool),
		users:      make(map[types.Address]*UserRecord),
		swapVolume: make(map[string]uint64),
	}, nil
}

// Close releases the engine's storage handle.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Start brings up the RPC and metrics servers attached to this engine,
// mirroring the teacher's Node.Start sequencing (RPC then monitoring)
// minus the P2P/consensus startup this module has no equivalent of.
func (e *Engine) Start() error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if running {
		return corefail.New(corefail.State, "engine already running")
	}

	if e.rpcServer != nil {
		if err := e.rpcServer.Start(); err != nil {
			return fmt.Errorf("failed to start rpc server: %w", err)
		}
	}
	if e.metrics != nil {
		if err := e.metrics.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	log.Printf("finova-core: engine started")
	return nil
}

// Stop tears down the RPC and metrics servers, then releases storage.
func (e *Engine) Stop() error {
	e.mu.Lock()
	running := e.running
	e.running = false
	e.mu.Unlock()
	if !running {
		return nil
	}

	if e.rpcServer != nil {
		e.rpcServer.Stop()
	}
	if e.metrics != nil {
		e.metrics.Stop()
	}
	log.Printf("finova-core: engine stopped")
	return e.Close()
}

// AttachMetrics wires a monitoring.MetricsServer's DataCollector to this
// engine's adapter views, mirroring the teacher's node.go pattern of
// constructing the metrics server once and then feeding it live state.
func (e *Engine) AttachMetrics(m *monitoring.MetricsServer) {
	e.metrics = m
	if e.initialized {
		mi, ri, vi, gi, ai := e.collectorInterfaces()
		m.SetInterfaces(mi, ri, vi, gi, ai)
	}
}

// AttachRPC records the rpc.Server so engine handlers can broadcast
// events (spec.md §6's Events list) over its websocket channel.
func (e *Engine) AttachRPC(s *rpc.Server) {
	e.rpcServer = s
}

func (e *Engine) broadcast(event interface{}) {
	if e.rpcServer != nil {
		e.rpcServer.Broadcast(event)
	}
}

func (e *Engine) requireRunning() error {
	if !e.initialized {
		return corefail.ErrNotInitialized
	}
	if e.paused {
		return corefail.ErrPaused
	}
	return nil
}

func (e *Engine) userOrFault(addr types.Address) (*UserRecord, error) {
	u, ok := e.users[addr]
	if !ok {
		return nil, corefail.New(corefail.State, "user not registered")
	}
	return u, nil
}

// InitializeNetwork implements spec.md §6's initialize_network(admin,
// config). Unlike every other operation it is not reachable over
// chain/rpc: it is invoked once by cmd/finova-core's "init" command
// straight from the loaded genesis file, the way the teacher's
// chain/node.NewBlockchain loads genesis from disk at construction
// rather than over RPC.
func (e *Engine) InitializeNetwork(admin types.Address, cfg *config.NetworkConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return corefail.ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return corefail.Wrap(corefail.State, "invalid genesis configuration", err)
	}

	e.cfg = cfg
	e.admin = admin
	e.miningPool = mining.NewPool()
	e.stakePool = staking.NewPool()
	e.rewardPool = rewardpool.NewPool(cfg.RewardPoolDailyCapMicro, cfg.RewardPoolSeedMicro)
	e.referrals = referral.NewGraph()
	e.gov = governance.NewSystem(cfg.VotingPeriodSecs, cfg.ExecutionDelaySecs, cfg.QuorumThresholdBps, cfg.ApprovalThresholdBps, cfg.MinProposalWeight, cfg.ProposalDeposit)
	e.validators = consensus.NewSet(cfg.RotationPeriodSecs, cfg.MinActiveReputation)
	if cfg.GeoMaxFractionBps > 0 {
		e.validators.Geo = &consensus.GeoQuota{MaxFractionBps: cfg.GeoMaxFractionBps}
	}
	e.pools["FIN/USDfin"] = amm.NewConstantProductPool(30, 500, 1000)

	for _, gv := range cfg.Validators {
		pubKey, err := decodeHexPubKey(gv.PubKeyHex)
		if err != nil {
			return corefail.Wrap(corefail.State, "invalid genesis validator pubkey", err)
		}
		if _, err := e.validators.Add(pubKey, gv.Stake, gv.RegionCode, gv.CommissionRateBps, consensus.MinimumVersion, 0); err != nil {
			return err
		}
	}

	e.initialized = true
	if e.metrics != nil {
		mi, ri, vi, gi, ai := e.collectorInterfaces()
		e.metrics.SetInterfaces(mi, ri, vi, gi, ai)
	}
	log.Printf("finova-core: network initialized by %s, token_mint=%s", admin.Hex(), cfg.TokenMintID)
	return nil
}

// registerUser implements spec.md §6's register_user(user_id,
// referrer?). Registration seeds every subsystem's per-user account and
// (when a referrer is given) runs the referral graph's L1/L2/L3 award
// walk of spec §4.3.
func (e *Engine) registerUser(userID types.Address, referrerID *types.Address, now int64) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	if _, exists := e.users[userID]; exists {
		return corefail.New(corefail.State, "user already registered")
	}

	u := &UserRecord{
		Address:         userID,
		Mining:          mining.NewState(),
		Staking:         staking.NewAccount(),
		Rewards:         rewardpool.NewAccount(),
		SecurityMultBps: securityMultNonKYCBps,
		RegisteredAt:    now,
	}
	e.users[userID] = u
	e.referrals.AccountOf(userID)

	transition, err := e.miningPool.OnRegistration(uint64(len(e.users)), now)
	if err != nil {
		delete(e.users, userID)
		return err
	}
	if transition != nil {
		e.broadcast(map[string]interface{}{
			"event": "PhaseAdvanced", "old_phase": transition.OldPhase, "new_phase": transition.NewPhase, "users": transition.Users,
		})
	}

	if referrerID != nil {
		if _, exists := e.users[*referrerID]; !exists {
			delete(e.users, userID)
			return corefail.New(corefail.State, "referrer not registered")
		}
		if _, err := e.referrals.RegisterWithReferrer(userID, *referrerID, now); err != nil {
			delete(e.users, userID)
			return err
		}
	}

	return nil
}

func decodeHexPubKey(s string) ([]byte, error) {
	addr, err := types.HexToAddress(padHex(s))
	if err != nil {
		return nil, err
	}
	return addr.Bytes(), nil
}

// padHex tolerates genesis pubkeys shorter than the 20-byte Address
// shape reused here as a fixed-width pubkey fingerprint.
func padHex(s string) string {
	if len(s) > 2 && s[:2] == "0x" {
		s = s[2:]
	}
	for len(s) < types.AddressLength*2 {
		s = "0" + s
	}
	return "0x" + s
}
