package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/finova-net/finova-core/chain/consensus"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes Prometheus metrics and a health endpoint for
// the reward engine: mining phase, reward-pool balances, validator
// set, governance tallies, and AMM swap activity.
type MetricsServer struct {
	listenAddr  string
	metricsPath string
	healthPath  string

	registry *prometheus.Registry

	miningPhase        prometheus.Gauge
	miningTotalUsers   prometheus.Gauge
	miningDailyRate    prometheus.Gauge

	rewardPoolBalance    *prometheus.GaugeVec
	rewardDistributedDay prometheus.Gauge
	rewardClaimsTotal    prometheus.Counter

	validatorCount  prometheus.Gauge
	validatorStake  *prometheus.GaugeVec
	validatorRep    *prometheus.GaugeVec
	slashingEvents  *prometheus.CounterVec

	governanceActiveProposals prometheus.Gauge
	governanceVotesTotal      prometheus.Counter

	ammSwapVolume   *prometheus.CounterVec
	ammPriceImpact  prometheus.Histogram

	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge

	healthStatus  *HealthChecker
	dataCollector *DataCollector

	server *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex

	running   bool
	startTime time.Time
}

// HealthChecker monitors process health.
type HealthChecker struct {
	checks        map[string]HealthCheck
	checkInterval time.Duration
	mu            sync.RWMutex
}

// HealthCheck is a single named health probe.
type HealthCheck struct {
	Name      string                                `json:"name"`
	Status    HealthStatus                          `json:"status"`
	Message   string                                `json:"message"`
	LastCheck time.Time                             `json:"lastCheck"`
	Critical  bool                                  `json:"critical"`
	CheckFunc func() (HealthStatus, string, error) `json:"-"`
}

// HealthStatus is a health check's result.
type HealthStatus int

const (
	HealthStatusHealthy HealthStatus = iota
	HealthStatusWarning
	HealthStatusCritical
	HealthStatusUnknown
)

// DataCollector pulls live state from each engine for periodic metric
// updates.
type DataCollector struct {
	mining     MiningInterface
	rewardPool RewardPoolInterface
	validators ValidatorInterface
	governance GovernanceInterface
	amm        AMMInterface

	mu sync.RWMutex
}

// MiningInterface exposes the state chain/mining needs to report.
type MiningInterface interface {
	CurrentPhase() int
	TotalUsers() uint64
	DailyMiningRateMicro() uint64
}

// RewardPoolInterface exposes chain/rewardpool's ledger state.
type RewardPoolInterface interface {
	SubPoolBalances() [5]uint64
	DistributedToday() uint64
}

// ValidatorInterface exposes chain/consensus's validator set.
type ValidatorInterface interface {
	Active() []*consensus.Info
}

// GovernanceInterface exposes chain/governance's proposal registry.
type GovernanceInterface interface {
	ActiveProposalCount() int
}

// AMMInterface exposes chain/amm's pool activity counters.
type AMMInterface interface {
	SwapVolumeMicro(pair string) uint64
}

// MetricsConfig configures the metrics HTTP server.
type MetricsConfig struct {
	ListenAddr  string `json:"listenAddr"`
	MetricsPath string `json:"metricsPath"`
	HealthPath  string `json:"healthPath"`
}

// NewMetricsServer constructs a metrics server with its registry and
// HTTP mux wired but not yet started.
func NewMetricsServer(config *MetricsConfig) *MetricsServer {
	ctx, cancel := context.WithCancel(context.Background())

	ms := &MetricsServer{
		listenAddr:    config.ListenAddr,
		metricsPath:   config.MetricsPath,
		healthPath:    config.HealthPath,
		registry:      prometheus.NewRegistry(),
		ctx:           ctx,
		cancel:        cancel,
		startTime:     time.Now(),
		healthStatus:  NewHealthChecker(),
		dataCollector: NewDataCollector(),
	}

	ms.initMetrics()
	ms.setupServer()
	return ms
}

func (ms *MetricsServer) initMetrics() {
	ms.miningPhase = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_mining_phase",
		Help: "Current mining-phase index (1=Finizen .. 4=Stability)",
	})
	ms.miningTotalUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_mining_total_users",
		Help: "Total registered users, drives phase transitions",
	})
	ms.miningDailyRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_mining_daily_rate_micro",
		Help: "Current phase's base daily mining rate, in micro-FIN",
	})

	ms.rewardPoolBalance = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "finova_reward_pool_balance_micro",
		Help: "Reward sub-pool balance, in micro-FIN",
	}, []string{"sub_pool"})
	ms.rewardDistributedDay = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_reward_distributed_today_micro",
		Help: "Total rewards distributed so far today, in micro-FIN",
	})
	ms.rewardClaimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finova_reward_claims_total",
		Help: "Total number of claim_rewards operations processed",
	})

	ms.validatorCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_validators_active",
		Help: "Number of active validators",
	})
	ms.validatorStake = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "finova_validator_stake_micro",
		Help: "Per-validator stake, in micro-FIN",
	}, []string{"validator"})
	ms.validatorRep = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "finova_validator_reputation",
		Help: "Per-validator reputation score (0..1000)",
	}, []string{"validator"})
	ms.slashingEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finova_slashing_events_total",
		Help: "Total slashing events by kind",
	}, []string{"kind"})

	ms.governanceActiveProposals = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_governance_active_proposals",
		Help: "Number of proposals currently in the Voting state",
	})
	ms.governanceVotesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finova_governance_votes_total",
		Help: "Total cast_vote operations processed",
	})

	ms.ammSwapVolume = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finova_amm_swap_volume_micro_total",
		Help: "Cumulative AMM swap volume by pair, in micro-FIN",
	}, []string{"pair"})
	ms.ammPriceImpact = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "finova_amm_price_impact_bps",
		Help:    "Distribution of realized swap price impact, in bps",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	ms.memoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_process_memory_bytes",
		Help: "Resident memory usage in bytes",
	})
	ms.goroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finova_process_goroutines",
		Help: "Number of goroutines",
	})

	for _, m := range []prometheus.Collector{
		ms.miningPhase, ms.miningTotalUsers, ms.miningDailyRate,
		ms.rewardPoolBalance, ms.rewardDistributedDay, ms.rewardClaimsTotal,
		ms.validatorCount, ms.validatorStake, ms.validatorRep, ms.slashingEvents,
		ms.governanceActiveProposals, ms.governanceVotesTotal,
		ms.ammSwapVolume, ms.ammPriceImpact,
		ms.memoryUsage, ms.goroutineCount,
	} {
		ms.registry.MustRegister(m)
	}
}

func (ms *MetricsServer) setupServer() {
	router := mux.NewRouter()

	router.Path(ms.metricsPath).Handler(promhttp.HandlerFor(ms.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	router.PathPrefix(ms.healthPath).HandlerFunc(ms.healthHandler)

	ms.server = &http.Server{
		Addr:    ms.listenAddr,
		Handler: router,
	}
}

// Start begins periodic collection and serves the metrics/health HTTP
// endpoints.
func (ms *MetricsServer) Start() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.running {
		return fmt.Errorf("metrics server already running")
	}

	ms.wg.Add(1)
	go ms.collectLoop()

	ms.wg.Add(1)
	go func() {
		defer ms.wg.Done()
		log.Printf("starting metrics server on %s", ms.listenAddr)
		if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	ms.running = true
	return nil
}

// Stop shuts the metrics server down and waits for its goroutines.
func (ms *MetricsServer) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.running {
		return
	}

	ms.cancel()
	if ms.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ms.server.Shutdown(ctx)
	}
	ms.wg.Wait()
	ms.running = false
	log.Printf("metrics server stopped")
}

func (ms *MetricsServer) collectLoop() {
	defer ms.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			return
		case <-ticker.C:
			ms.updateMetrics()
		}
	}
}

func (ms *MetricsServer) updateMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	ms.memoryUsage.Set(float64(m.Alloc))
	ms.goroutineCount.Set(float64(runtime.NumGoroutine()))

	dc := ms.dataCollector
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	if dc.mining != nil {
		ms.miningPhase.Set(float64(dc.mining.CurrentPhase()))
		ms.miningTotalUsers.Set(float64(dc.mining.TotalUsers()))
		ms.miningDailyRate.Set(float64(dc.mining.DailyMiningRateMicro()))
	}
	if dc.rewardPool != nil {
		balances := dc.rewardPool.SubPoolBalances()
		names := []string{"mining", "xp", "rp", "special_events", "emergency_reserve"}
		for i, name := range names {
			ms.rewardPoolBalance.WithLabelValues(name).Set(float64(balances[i]))
		}
		ms.rewardDistributedDay.Set(float64(dc.rewardPool.DistributedToday()))
	}
	if dc.validators != nil {
		active := dc.validators.Active()
		ms.validatorCount.Set(float64(len(active)))
		for _, v := range active {
			label := fmt.Sprintf("%x", v.PubKey)
			ms.validatorStake.WithLabelValues(label).Set(float64(v.Stake))
			ms.validatorRep.WithLabelValues(label).Set(float64(v.Reputation))
		}
	}
	if dc.governance != nil {
		ms.governanceActiveProposals.Set(float64(dc.governance.ActiveProposalCount()))
	}
}

// RecordSlashingEvent increments the slashing counter for a given kind.
func (ms *MetricsServer) RecordSlashingEvent(kind string) {
	ms.slashingEvents.WithLabelValues(kind).Inc()
}

// RecordClaim increments the claim_rewards counter.
func (ms *MetricsServer) RecordClaim() {
	ms.rewardClaimsTotal.Inc()
}

// RecordVote increments the cast_vote counter.
func (ms *MetricsServer) RecordVote() {
	ms.governanceVotesTotal.Inc()
}

// RecordSwap records an AMM swap's volume and realized price impact.
func (ms *MetricsServer) RecordSwap(pair string, amountInMicro uint64, impactBps uint64) {
	ms.ammSwapVolume.WithLabelValues(pair).Add(float64(amountInMicro))
	ms.ammPriceImpact.Observe(float64(impactBps))
}

func (ms *MetricsServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := ms.healthStatus.Overall()

	status := http.StatusOK
	switch health.Status {
	case HealthStatusCritical:
		status = http.StatusServiceUnavailable
	case HealthStatusWarning:
		status = http.StatusPartialContent
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(health)
}

// NewHealthChecker constructs a health checker with the default probes.
func NewHealthChecker() *HealthChecker {
	hc := &HealthChecker{
		checks:        make(map[string]HealthCheck),
		checkInterval: 30 * time.Second,
	}
	hc.checks["memory"] = HealthCheck{Name: "Memory Usage", Critical: true, CheckFunc: hc.checkMemory}
	hc.checks["goroutines"] = HealthCheck{Name: "Goroutine Count", Critical: false, CheckFunc: hc.checkGoroutines}
	return hc
}

func (hc *HealthChecker) checkMemory() (HealthStatus, string, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	usagePercent := float64(m.Alloc) / float64(m.Sys) * 100

	if usagePercent > 90 {
		return HealthStatusCritical, fmt.Sprintf("memory usage critical: %.1f%%", usagePercent), nil
	} else if usagePercent > 80 {
		return HealthStatusWarning, fmt.Sprintf("memory usage high: %.1f%%", usagePercent), nil
	}
	return HealthStatusHealthy, fmt.Sprintf("memory usage normal: %.1f%%", usagePercent), nil
}

func (hc *HealthChecker) checkGoroutines() (HealthStatus, string, error) {
	count := runtime.NumGoroutine()
	if count > 10_000 {
		return HealthStatusWarning, fmt.Sprintf("high goroutine count: %d", count), nil
	}
	return HealthStatusHealthy, fmt.Sprintf("goroutine count normal: %d", count), nil
}

// Overall runs every registered check and returns the most severe result.
func (hc *HealthChecker) Overall() *HealthCheck {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	worst := HealthStatusHealthy
	message := "all systems operational"
	for _, check := range hc.checks {
		status, msg, err := check.CheckFunc()
		if err != nil {
			continue
		}
		if status > worst {
			worst = status
			message = msg
		}
	}
	return &HealthCheck{Name: "Overall Health", Status: worst, Message: message, LastCheck: time.Now()}
}

// NewDataCollector constructs an empty data collector; engines are
// attached via SetInterfaces once wired in chain/core.
func NewDataCollector() *DataCollector {
	return &DataCollector{}
}

// SetInterfaces attaches the live engines this server reports on.
func (ms *MetricsServer) SetInterfaces(mining MiningInterface, pool RewardPoolInterface, validators ValidatorInterface, gov GovernanceInterface, amm AMMInterface) {
	dc := ms.dataCollector
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.mining = mining
	dc.rewardPool = pool
	dc.validators = validators
	dc.governance = gov
	dc.amm = amm
}
