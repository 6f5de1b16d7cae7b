package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/finova-net/finova-core/chain/config"
	"github.com/finova-net/finova-core/chain/core"
	"github.com/finova-net/finova-core/chain/monitoring"
	"github.com/finova-net/finova-core/chain/rpc"
	"github.com/finova-net/finova-core/chain/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

var (
	dataDir        string
	genesisPath    string
	rpcAddr        string
	metricsAddr    string
)

var rootCmd = &cobra.Command{
	Use:   "finova-core",
	Short: "Finova social-mining reward engine node",
	Long:  "A deterministic, stake-weighted social-mining reward engine",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new network from a genesis configuration file",
	RunE:  runInit,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the node's RPC and metrics servers against existing storage",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "data directory")
	rootCmd.PersistentFlags().StringVar(&genesisPath, "genesis", "./config/genesis.json", "genesis configuration file")
	rootCmd.PersistentFlags().StringVar(&rpcAddr, "rpc-addr", ":8545", "JSON-RPC/websocket listen address")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address")
	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildEngine opens storage and wires the RPC/metrics servers, the way
// the teacher's node.NewNode assembles its subsystems before Start.
func buildEngine() (*core.Engine, error) {
	engine, err := core.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	server := rpc.NewServer(engine, rpcAddr)
	engine.AttachRPC(server)

	metrics := monitoring.NewMetricsServer(&monitoring.MetricsConfig{
		ListenAddr:  metricsAddr,
		MetricsPath: "/metrics",
		HealthPath:  "/health",
	})
	engine.AttachMetrics(metrics)

	return engine, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadNetworkConfig(genesisPath)
	if err != nil {
		return err
	}
	admin, err := types.HexToAddress(cfg.AdminAuthority)
	if err != nil {
		return fmt.Errorf("invalid admin authority in genesis: %w", err)
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.InitializeNetwork(admin, cfg); err != nil {
		return fmt.Errorf("failed to initialize network: %w", err)
	}
	fmt.Printf("finova-core: network initialized in %s (admin=%s, token=%s)\n", dataDir, admin.Hex(), cfg.TokenMintID)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("finova-core %s (build %s, commit %s)\n", Version, BuildTime, Commit)

	engine, err := buildEngine()
	if err != nil {
		return err
	}

	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	fmt.Printf("rpc listening on %s\n", rpcAddr)
	fmt.Printf("metrics listening on %s\n", metricsAddr)
	fmt.Printf("data directory: %s\n", dataDir)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("shutting down finova-core...")
	if err := engine.Stop(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	fmt.Println("finova-core stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
